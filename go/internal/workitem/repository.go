package workitem

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/sqlutil"
	"github.com/mcdev12/planning-poker/go/internal/workitem/db"
)

const foreignKeyViolation = "23503"

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateWorkItem(ctx context.Context, arg db.CreateWorkItemParams) (db.WorkItem, error)
	GetWorkItem(ctx context.Context, id pgtype.UUID) (db.WorkItem, error)
	ListWorkItemsBySession(ctx context.Context, sessionToken string) ([]db.WorkItem, error)
	UpdateWorkItemScore(ctx context.Context, arg db.UpdateWorkItemScoreParams) (db.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id pgtype.UUID) (int64, error)
}

// Repository implements work item data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new work item repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// CreateWorkItem inserts a work item under an existing session
func (r *Repository) CreateWorkItem(ctx context.Context, req CreateWorkItemRequest) (*models.WorkItem, error) {
	item, err := r.queries.CreateWorkItem(ctx, db.CreateWorkItemParams{
		ID:           sqlutil.ToPgUUID(uuid.New()),
		SessionToken: req.SessionToken,
		Code:         req.Code,
		Name:         req.Name,
		Link:         sqlutil.ToPgText(req.Link),
		Description:  sqlutil.ToPgText(req.Description),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, fmt.Errorf("session %s: %w", req.SessionToken, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to create work item: %w", err)
	}

	return dbWorkItemToModel(item), nil
}

// GetWorkItem retrieves a work item by ID
func (r *Repository) GetWorkItem(ctx context.Context, id uuid.UUID) (*models.WorkItem, error) {
	item, err := r.queries.GetWorkItem(ctx, sqlutil.ToPgUUID(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}

	return dbWorkItemToModel(item), nil
}

// ListWorkItems retrieves every work item of a session
func (r *Repository) ListWorkItems(ctx context.Context, sessionToken string) ([]*models.WorkItem, error) {
	items, err := r.queries.ListWorkItemsBySession(ctx, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}

	result := make([]*models.WorkItem, len(items))
	for i, item := range items {
		result[i] = dbWorkItemToModel(item)
	}
	return result, nil
}

// UpdateScore stores the agreed estimate of a work item
func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, score *float64) (*models.WorkItem, error) {
	item, err := r.queries.UpdateWorkItemScore(ctx, db.UpdateWorkItemScoreParams{
		ID:    sqlutil.ToPgUUID(id),
		Score: sqlutil.ToPgFloat8(score),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update work item score: %w", err)
	}

	return dbWorkItemToModel(item), nil
}

// DeleteWorkItem removes a work item. A session selecting it falls back to no selection.
func (r *Repository) DeleteWorkItem(ctx context.Context, id uuid.UUID) error {
	rows, err := r.queries.DeleteWorkItem(ctx, sqlutil.ToPgUUID(id))
	if err != nil {
		return fmt.Errorf("failed to delete work item: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return nil
}

func dbWorkItemToModel(item db.WorkItem) *models.WorkItem {
	var id uuid.UUID
	if parsed := sqlutil.FromPgUUID(item.ID); parsed != nil {
		id = *parsed
	}
	return &models.WorkItem{
		ID:           id,
		SessionToken: item.SessionToken,
		Code:         item.Code,
		Name:         item.Name,
		Link:         sqlutil.FromPgText(item.Link),
		Description:  sqlutil.FromPgText(item.Description),
		Score:        sqlutil.FromPgFloat8(item.Score),
		CreatedAt:    sqlutil.FromPgTimestamptz(item.CreatedAt),
		UpdatedAt:    sqlutil.FromPgTimestamptz(item.UpdatedAt),
	}
}
