package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/workitem"
)

// WorkItemStore is an in-memory workitem.WorkItemRepository
type WorkItemStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*models.WorkItem
	sessions map[string]bool
}

var _ workitem.WorkItemRepository = (*WorkItemStore)(nil)

// NewWorkItemStore creates a store accepting work items for the given session tokens
func NewWorkItemStore(sessionTokens ...string) *WorkItemStore {
	s := &WorkItemStore{
		items:    make(map[uuid.UUID]*models.WorkItem),
		sessions: make(map[string]bool),
	}
	for _, token := range sessionTokens {
		s.sessions[token] = true
	}
	return s
}

// Seed stores a copy of item and registers its session
func (s *WorkItemStore) Seed(item models.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[item.SessionToken] = true
	s.items[item.ID] = &item
}

func (s *WorkItemStore) CreateWorkItem(_ context.Context, req workitem.CreateWorkItemRequest) (*models.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessions[req.SessionToken] {
		return nil, fmt.Errorf("session %s: %w", req.SessionToken, workitem.ErrSessionNotFound)
	}
	item := &models.WorkItem{
		ID:           uuid.New(),
		SessionToken: req.SessionToken,
		Code:         req.Code,
		Name:         req.Name,
		Link:         cloneString(req.Link),
		Description:  cloneString(req.Description),
	}
	s.items[item.ID] = item
	out := *item
	return &out, nil
}

func (s *WorkItemStore) GetWorkItem(_ context.Context, id uuid.UUID) (*models.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("work item %s: %w", id, workitem.ErrNotFound)
	}
	out := *item
	return &out, nil
}

func (s *WorkItemStore) ListWorkItems(_ context.Context, sessionToken string) ([]*models.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.WorkItem
	for _, item := range s.items {
		if item.SessionToken == sessionToken {
			c := *item
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *WorkItemStore) UpdateScore(_ context.Context, id uuid.UUID, score *float64) (*models.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("work item %s: %w", id, workitem.ErrNotFound)
	}
	if score == nil {
		item.Score = nil
	} else {
		v := *score
		item.Score = &v
	}
	out := *item
	return &out, nil
}

func (s *WorkItemStore) DeleteWorkItem(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("work item %s: %w", id, workitem.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}
