package workitem

import (
	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
)

// CreateWorkItemRequest represents the data needed to add a work item to a session
type CreateWorkItemRequest struct {
	SessionToken string  `json:"sessionToken"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Link         *string `json:"link,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type CreateWorkItemResponse struct {
	WorkItem *models.WorkItem `json:"workItem"`
}

type ListWorkItemsRequest struct {
	SessionToken string `json:"sessionToken"`
}

type ListWorkItemsResponse struct {
	WorkItems []*models.WorkItem `json:"workItems"`
}

// UpdateScoreRequest sets or clears the agreed estimate of a work item.
// A nil Score clears it.
type UpdateScoreRequest struct {
	SessionToken string    `json:"sessionToken"`
	WorkItemID   uuid.UUID `json:"workItemId"`
	Score        *float64  `json:"score"`
}

type UpdateScoreResponse struct {
	WorkItem *models.WorkItem `json:"workItem"`
}

type DeleteWorkItemRequest struct {
	SessionToken string    `json:"sessionToken"`
	WorkItemID   uuid.UUID `json:"workItemId"`
}

type DeleteWorkItemResponse struct{}
