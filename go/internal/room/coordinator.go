package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/rs/zerolog/log"
)

const maxTokenAttempts = 5

// Coordinator owns the voting round of every room: participants, votes,
// reveal state and the selected work item. It holds no room state itself;
// every decision is made by the store in one atomic write and results are
// always projected from the record the write returned.
type Coordinator struct {
	sessions  SessionRepository
	workItems WorkItemFinder
	projector *Projector
	newToken  TokenGenerator
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(sessions SessionRepository, workItems WorkItemFinder, projector *Projector) *Coordinator {
	return &Coordinator{
		sessions:  sessions,
		workItems: workItems,
		projector: projector,
		newToken:  NewToken,
	}
}

// WithTokenGenerator replaces the room token generator
func (c *Coordinator) WithTokenGenerator(gen TokenGenerator) *Coordinator {
	c.newToken = gen
	return c
}

// CreateSession opens a new room owned by the requester
func (c *Coordinator) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidSession)
	}
	if req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidSession)
	}
	gameType := req.GameType
	if gameType == "" {
		gameType = models.GameTypeFibonacci
	}
	if !gameType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, gameType)
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		session, err := c.sessions.CreateSession(ctx, NewSession{
			Token:    c.newToken(),
			Title:    title,
			OwnerID:  req.OwnerID,
			GameType: gameType,
		})
		if errors.Is(err, ErrTokenTaken) {
			log.Debug().Int("attempt", attempt).Msg("room token collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info().
			Str("room_token", session.Token).
			Str("owner_id", session.OwnerID).
			Str("game_type", string(session.GameType)).
			Msg("session created")
		return session, nil
	}
	return nil, fmt.Errorf("failed to allocate a room token after %d attempts: %w", maxTokenAttempts, ErrTokenTaken)
}

// GetSession returns the session of a room
func (c *Coordinator) GetSession(ctx context.Context, token string) (*models.Session, error) {
	return c.sessions.GetSession(ctx, token)
}

// Players projects the roster of a session
func (c *Coordinator) Players(ctx context.Context, session *models.Session) []models.PlayerView {
	if session == nil {
		return []models.PlayerView{}
	}
	return c.projector.Project(ctx, session.Votes)
}

// JoinRound makes userID a participant of the round. Joining twice is a no-op.
func (c *Coordinator) JoinRound(ctx context.Context, token, userID string) (*RoundResult, error) {
	session, err := c.sessions.AddParticipant(ctx, token, userID)
	if err != nil {
		return nil, fmt.Errorf("join round: %w", err)
	}
	return c.result(ctx, session), nil
}

// SubmitVote records value as the vote of userID, replacing any earlier vote.
// A nil value takes the vote back without leaving the round.
func (c *Coordinator) SubmitVote(ctx context.Context, token, userID string, value *string) (*RoundResult, error) {
	session, err := c.sessions.UpsertVote(ctx, token, userID, value)
	if err != nil {
		return nil, fmt.Errorf("submit vote: %w", err)
	}
	return c.result(ctx, session), nil
}

// ResetRound clears every vote while keeping the participants
func (c *Coordinator) ResetRound(ctx context.Context, token string) (*RoundResult, error) {
	session, err := c.sessions.ResetVotes(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("reset round: %w", err)
	}
	return c.result(ctx, session), nil
}

// SetRevealed shows or hides the votes of the round, regardless of closed
func (c *Coordinator) SetRevealed(ctx context.Context, token string, revealed bool) (*models.Session, error) {
	session, err := c.sessions.SetRevealed(ctx, token, revealed)
	if err != nil {
		return nil, fmt.Errorf("set revealed: %w", err)
	}
	return session, nil
}

// RemoveParticipant drops the vote entry of userID. The session of the
// result is nil when the room no longer exists.
func (c *Coordinator) RemoveParticipant(ctx context.Context, token, userID string) (*RoundResult, error) {
	session, err := c.sessions.RemoveParticipant(ctx, token, userID)
	if errors.Is(err, ErrSessionNotFound) {
		return &RoundResult{Players: []models.PlayerView{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("remove participant: %w", err)
	}
	return c.result(ctx, session), nil
}

// UpdateGameType switches the deck of the session
func (c *Coordinator) UpdateGameType(ctx context.Context, token string, gameType models.GameType) (*models.Session, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, gameType)
	}
	session, err := c.sessions.SetGameType(ctx, token, gameType)
	if err != nil {
		return nil, fmt.Errorf("update game type: %w", err)
	}
	return session, nil
}

// CloseSession finalizes the round. Only the owner may close it.
func (c *Coordinator) CloseSession(ctx context.Context, token, requesterID string) (*models.Session, error) {
	if err := c.requireOwner(ctx, token, requesterID); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	session, err := c.sessions.CloseSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	log.Info().Str("room_token", token).Str("user_id", requesterID).Msg("session closed")
	return session, nil
}

// ReopenRound opens a closed round again and hides its results. Only the owner may reopen it.
func (c *Coordinator) ReopenRound(ctx context.Context, token, requesterID string) (*models.Session, error) {
	if err := c.requireOwner(ctx, token, requesterID); err != nil {
		return nil, fmt.Errorf("reopen round: %w", err)
	}
	session, err := c.sessions.ReopenSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("reopen round: %w", err)
	}

	log.Info().Str("room_token", token).Str("user_id", requesterID).Msg("round reopened")
	return session, nil
}

// SelectWorkItem makes a work item of the session the subject of the round
func (c *Coordinator) SelectWorkItem(ctx context.Context, token string, workItemID uuid.UUID) (*models.Session, error) {
	if _, err := c.sessions.GetSession(ctx, token); err != nil {
		return nil, fmt.Errorf("select work item: %w", err)
	}
	if _, err := c.workItems.FindInSession(ctx, token, workItemID); err != nil {
		return nil, fmt.Errorf("select work item: %w", err)
	}
	session, err := c.sessions.SetSelectedWorkItem(ctx, token, &workItemID)
	if err != nil {
		return nil, fmt.Errorf("select work item: %w", err)
	}
	return session, nil
}

// DeselectWorkItem clears the subject of the round
func (c *Coordinator) DeselectWorkItem(ctx context.Context, token string) (*models.Session, error) {
	session, err := c.sessions.SetSelectedWorkItem(ctx, token, nil)
	if err != nil {
		return nil, fmt.Errorf("deselect work item: %w", err)
	}
	return session, nil
}

func (c *Coordinator) requireOwner(ctx context.Context, token, requesterID string) error {
	session, err := c.sessions.GetSession(ctx, token)
	if err != nil {
		return err
	}
	if requesterID == "" || session.OwnerID != requesterID {
		return ErrNotSessionOwner
	}
	return nil
}

func (c *Coordinator) result(ctx context.Context, session *models.Session) *RoundResult {
	return &RoundResult{
		Session: session,
		Players: c.Players(ctx, session),
	}
}
