package workitem

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// WorkItemRepository defines what the app layer needs from the repository
type WorkItemRepository interface {
	CreateWorkItem(ctx context.Context, req CreateWorkItemRequest) (*models.WorkItem, error)
	GetWorkItem(ctx context.Context, id uuid.UUID) (*models.WorkItem, error)
	ListWorkItems(ctx context.Context, sessionToken string) ([]*models.WorkItem, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score *float64) (*models.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id uuid.UUID) error
}

// App handles work item business logic
type App struct {
	repo WorkItemRepository
}

// NewApp creates a new work item App
func NewApp(repo WorkItemRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateWorkItem validates and stores a new work item
func (a *App) CreateWorkItem(ctx context.Context, req CreateWorkItemRequest) (*models.WorkItem, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	item, err := a.repo.CreateWorkItem(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("room_token", item.SessionToken).
		Str("work_item_id", item.ID.String()).
		Str("code", item.Code).
		Msg("work item created")
	return item, nil
}

// FindInSession returns the work item only when it belongs to sessionToken
func (a *App) FindInSession(ctx context.Context, sessionToken string, id uuid.UUID) (*models.WorkItem, error) {
	item, err := a.repo.GetWorkItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SessionToken != sessionToken {
		return nil, fmt.Errorf("work item %s in session %s: %w", id, sessionToken, ErrNotFound)
	}
	return item, nil
}

// ListWorkItems returns the work items of a session
func (a *App) ListWorkItems(ctx context.Context, sessionToken string) ([]*models.WorkItem, error) {
	if sessionToken == "" {
		return nil, fmt.Errorf("%w: session token is required", ErrInvalidWorkItem)
	}
	return a.repo.ListWorkItems(ctx, sessionToken)
}

// UpdateScore records the agreed estimate of a work item of the given session
func (a *App) UpdateScore(ctx context.Context, req UpdateScoreRequest) (*models.WorkItem, error) {
	if req.Score != nil && (math.IsNaN(*req.Score) || math.IsInf(*req.Score, 0) || *req.Score < 0) {
		return nil, fmt.Errorf("%w: score must be a non-negative number", ErrInvalidWorkItem)
	}
	if _, err := a.FindInSession(ctx, req.SessionToken, req.WorkItemID); err != nil {
		return nil, err
	}

	item, err := a.repo.UpdateScore(ctx, req.WorkItemID, req.Score)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("room_token", item.SessionToken).
		Str("work_item_id", item.ID.String()).
		Msg("work item score updated")
	return item, nil
}

// DeleteWorkItem removes a work item of the given session
func (a *App) DeleteWorkItem(ctx context.Context, sessionToken string, id uuid.UUID) error {
	if _, err := a.FindInSession(ctx, sessionToken, id); err != nil {
		return err
	}
	return a.repo.DeleteWorkItem(ctx, id)
}

func validateCreateRequest(req CreateWorkItemRequest) error {
	if req.SessionToken == "" {
		return fmt.Errorf("%w: session token is required", ErrInvalidWorkItem)
	}
	if req.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidWorkItem)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidWorkItem)
	}
	return nil
}
