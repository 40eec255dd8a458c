package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/room/db"
	"github.com/mcdev12/planning-poker/go/internal/room/events"
	"github.com/mcdev12/planning-poker/go/internal/sqlutil"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository stores sessions and votes in Postgres. Each mutation runs in a
// single transaction that also reads back the post-write session and, for
// lifecycle changes, appends an outbox event.
type Repository struct {
	queries *db.Queries
	db      sqlutil.TxBeginner
	source  string
}

// NewRepository creates a new session repository
func NewRepository(queries *db.Queries, database sqlutil.TxBeginner) *Repository {
	return &Repository{
		queries: queries,
		db:      database,
	}
}

// WithEventSource records node as the origin of the outbox events it writes
func (r *Repository) WithEventSource(node string) *Repository {
	r.source = node
	return r
}

func (r *Repository) inTx(ctx context.Context, fn func(q *db.Queries) error) error {
	return sqlutil.RunPgx(ctx, r.db, r.queries.WithTx, fn)
}

// CreateSession inserts a new session with no votes
func (r *Repository) CreateSession(ctx context.Context, s NewSession) (*models.Session, error) {
	row, err := r.queries.CreateSession(ctx, db.CreateSessionParams{
		Token:    s.Token,
		Title:    s.Title,
		OwnerID:  s.OwnerID,
		GameType: string(s.GameType),
	})
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return nil, fmt.Errorf("token %s: %w", s.Token, ErrTokenTaken)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return dbSessionToModel(row, nil), nil
}

// GetSession retrieves a session and its votes
func (r *Repository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		var err error
		session, err = readSession(ctx, q, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddParticipant inserts an empty vote for userID unless one exists
func (r *Repository) AddParticipant(ctx context.Context, token, userID string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		if _, err := getSession(ctx, q, token); err != nil {
			return err
		}
		if _, err := q.InsertParticipant(ctx, db.InsertParticipantParams{
			SessionToken: token,
			UserID:       userID,
		}); err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
		var err error
		session, err = readSession(ctx, q, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpsertVote writes the vote with a single INSERT ... ON CONFLICT statement
// guarded by NOT closed, so concurrent submissions never duplicate or lose a vote.
func (r *Repository) UpsertVote(ctx context.Context, token, userID string, value *string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		rows, err := q.UpsertVote(ctx, db.UpsertVoteParams{
			UserID:       userID,
			Value:        sqlutil.ToPgText(value),
			SessionToken: token,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert vote: %w", err)
		}
		if rows == 0 {
			existing, err := getSession(ctx, q, token)
			if err != nil {
				return err
			}
			if existing.Closed {
				return fmt.Errorf("session %s: %w", token, ErrSessionClosed)
			}
			return fmt.Errorf("vote for %s in session %s was not stored", userID, token)
		}
		session, err = readSession(ctx, q, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ResetVotes nulls every vote of an open session
func (r *Repository) ResetVotes(ctx context.Context, token string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		row, err := q.GetSessionForUpdate(ctx, token)
		if err != nil {
			return mapNoRows(err, token)
		}
		if row.Closed {
			return fmt.Errorf("session %s: %w", token, ErrSessionClosed)
		}
		if err := q.ResetVotes(ctx, token); err != nil {
			return fmt.Errorf("failed to reset votes: %w", err)
		}
		session, err = readSession(ctx, q, token)
		if err != nil {
			return err
		}
		return r.insertOutboxEvent(ctx, q, token, events.EventTypeRoundReset, events.RoundResetPayload{
			SessionToken: token,
			Participants: len(session.Votes),
			ResetAt:      time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveParticipant deletes the vote entry of userID
func (r *Repository) RemoveParticipant(ctx context.Context, token, userID string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		if _, err := getSession(ctx, q, token); err != nil {
			return err
		}
		if _, err := q.DeleteVote(ctx, db.DeleteVoteParams{
			SessionToken: token,
			UserID:       userID,
		}); err != nil {
			return fmt.Errorf("failed to remove participant: %w", err)
		}
		var err error
		session, err = readSession(ctx, q, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SetRevealed shows or hides the votes of the round
func (r *Repository) SetRevealed(ctx context.Context, token string, revealed bool) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		row, err := q.SetSessionRevealed(ctx, db.SetSessionRevealedParams{
			Token:          token,
			ResultRevealed: revealed,
		})
		if err != nil {
			return mapNoRows(err, token)
		}
		session, err = withVotes(ctx, q, row)
		if err != nil {
			return err
		}
		if !revealed {
			return nil
		}
		voted := 0
		for _, v := range session.Votes {
			if v.HasVoted() {
				voted++
			}
		}
		return r.insertOutboxEvent(ctx, q, token, events.EventTypeRoundRevealed, events.RoundRevealedPayload{
			SessionToken: token,
			VoteCount:    voted,
			Participants: len(session.Votes),
			RevealedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CloseSession stops the round from accepting votes
func (r *Repository) CloseSession(ctx context.Context, token string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		row, err := q.CloseSession(ctx, token)
		if err != nil {
			return mapNoRows(err, token)
		}
		session, err = withVotes(ctx, q, row)
		if err != nil {
			return err
		}
		return r.insertOutboxEvent(ctx, q, token, events.EventTypeSessionClosed, events.SessionClosedPayload{
			SessionToken: token,
			ClosedAt:     time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ReopenSession opens a closed round again with its results hidden
func (r *Repository) ReopenSession(ctx context.Context, token string) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		row, err := q.ReopenSession(ctx, token)
		if err != nil {
			return mapNoRows(err, token)
		}
		session, err = withVotes(ctx, q, row)
		if err != nil {
			return err
		}
		return r.insertOutboxEvent(ctx, q, token, events.EventTypeSessionReopened, events.SessionReopenedPayload{
			SessionToken: token,
			ReopenedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SetGameType changes the deck of the session
func (r *Repository) SetGameType(ctx context.Context, token string, gameType models.GameType) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		row, err := q.SetSessionGameType(ctx, db.SetSessionGameTypeParams{
			Token:    token,
			GameType: string(gameType),
		})
		if err != nil {
			return mapNoRows(err, token)
		}
		session, err = withVotes(ctx, q, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SetSelectedWorkItem points the session at a work item, or at none when workItemID is nil
func (r *Repository) SetSelectedWorkItem(ctx context.Context, token string, workItemID *uuid.UUID) (*models.Session, error) {
	var session *models.Session
	err := r.inTx(ctx, func(q *db.Queries) error {
		row, err := q.SetSelectedWorkItem(ctx, db.SetSelectedWorkItemParams{
			Token:              token,
			SelectedWorkItemID: sqlutil.ToNullPgUUID(workItemID),
		})
		if err != nil {
			if pgErrorCode(err) == foreignKeyViolation {
				return fmt.Errorf("work item %s: %w", workItemID, ErrWorkItemNotFound)
			}
			return mapNoRows(err, token)
		}
		session, err = withVotes(ctx, q, row)
		if err != nil {
			return err
		}

		payload := events.WorkItemSelectedPayload{SessionToken: token, SelectedAt: time.Now().UTC()}
		eventType := events.EventTypeWorkItemDeselected
		if workItemID != nil {
			payload.WorkItemID = workItemID.String()
			eventType = events.EventTypeWorkItemSelected
		}
		return r.insertOutboxEvent(ctx, q, token, eventType, payload)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session, its votes and its work items
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	return r.inTx(ctx, func(q *db.Queries) error {
		rows, err := q.DeleteSession(ctx, token)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
		}
		return r.insertOutboxEvent(ctx, q, token, events.EventTypeSessionReaped, events.SessionReapedPayload{
			SessionToken: token,
			ReapedAt:     time.Now().UTC(),
		})
	})
}

// ExistingTokens returns the tokens that name a stored session
func (r *Repository) ExistingTokens(ctx context.Context, tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	existing, err := r.queries.FilterSessionTokens(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to filter session tokens: %w", err)
	}
	return existing, nil
}

func getSession(ctx context.Context, q *db.Queries, token string) (db.Session, error) {
	row, err := q.GetSession(ctx, token)
	if err != nil {
		return db.Session{}, mapNoRows(err, token)
	}
	return row, nil
}

func readSession(ctx context.Context, q *db.Queries, token string) (*models.Session, error) {
	row, err := getSession(ctx, q, token)
	if err != nil {
		return nil, err
	}
	return withVotes(ctx, q, row)
}

func withVotes(ctx context.Context, q *db.Queries, row db.Session) (*models.Session, error) {
	votes, err := q.ListSessionVotes(ctx, row.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return dbSessionToModel(row, votes), nil
}

func (r *Repository) insertOutboxEvent(ctx context.Context, q *db.Queries, token, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	metadata, err := json.Marshal(events.Metadata{
		SchemaVersion: events.SchemaVersion,
		SourceNode:    r.source,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s metadata: %w", eventType, err)
	}
	if err := q.InsertRoomOutbox(ctx, db.InsertRoomOutboxParams{
		ID:           sqlutil.ToPgUUID(uuid.New()),
		SessionToken: token,
		EventType:    eventType,
		Payload:      data,
		Metadata:     metadata,
	}); err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

func mapNoRows(err error, token string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
	}
	return fmt.Errorf("session %s: %w", token, err)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func dbSessionToModel(row db.Session, votes []db.ListSessionVotesRow) *models.Session {
	session := &models.Session{
		Token:            row.Token,
		Title:            row.Title,
		OwnerID:          row.OwnerID,
		Closed:           row.Closed,
		ResultRevealed:   row.ResultRevealed,
		GameType:         models.GameType(row.GameType),
		Votes:            make([]models.Vote, len(votes)),
		SelectedWorkItem: sqlutil.FromPgUUID(row.SelectedWorkItemID),
		CreatedAt:        sqlutil.FromPgTimestamptz(row.CreatedAt),
		UpdatedAt:        sqlutil.FromPgTimestamptz(row.UpdatedAt),
	}
	for i, v := range votes {
		session.Votes[i] = models.Vote{
			UserID: v.UserID,
			Value:  sqlutil.FromPgText(v.Value),
		}
	}
	return session
}
