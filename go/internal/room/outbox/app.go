package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// OutboxRepository defines what the app layer needs from the repository
type OutboxRepository interface {
	FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// RetryPolicy bounds the publish attempts of one event
type RetryPolicy struct {
	MaxRetries int
	RetryDelay time.Duration
}

// App relays stored outbox events to the publisher
type App struct {
	repo      OutboxRepository
	publisher Publisher
	retry     RetryPolicy
	clock     clockwork.Clock

	mu        sync.Mutex
	processed uint64
	lastSent  time.Time
}

// NewApp creates a new outbox App
func NewApp(repo OutboxRepository, publisher Publisher, retry RetryPolicy, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:      repo,
		publisher: publisher,
		retry:     retry,
		clock:     clock,
	}
}

// HandleNotification publishes the event whose id arrived on the notify
// channel. Events already sent by the fallback sweep are skipped.
func (a *App) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := a.repo.FetchByID(ctx, id)
	if errors.Is(err, ErrEventNotFound) {
		log.Debug().Str("event_id", id.String()).Msg("outbox event already sent")
		return nil
	}
	if err != nil {
		return err
	}

	return a.relay(ctx, *event)
}

// ProcessUnsent publishes up to batchSize unsent events, oldest first, and
// returns how many were sent
func (a *App) ProcessUnsent(ctx context.Context, batchSize int32) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be greater than 0")
	}

	events, err := a.repo.FetchUnsent(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, event := range events {
		if err := a.relay(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to relay outbox event")
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if sent > 0 || len(errs) > 0 {
		log.Info().
			Int("processed", sent).
			Int("errors", len(errs)).
			Int("total", len(events)).
			Msg("processed unsent events batch")
	}
	return sent, errors.Join(errs...)
}

func (a *App) relay(ctx context.Context, event OutboxEvent) error {
	if err := a.publishWithRetry(ctx, event); err != nil {
		return err
	}
	if err := a.repo.MarkSent(ctx, event.ID); err != nil {
		return err
	}

	a.mu.Lock()
	a.processed++
	a.lastSent = a.clock.Now()
	a.mu.Unlock()

	log.Info().
		Str("event_id", event.ID.String()).
		Str("room_token", event.SessionToken).
		Str("event_type", event.EventType).
		Msg("published and marked event as sent")
	return nil
}

// Stats returns how many events were relayed and when the last one was
func (a *App) Stats() (uint64, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.processed, a.lastSent
}

func (a *App) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= a.retry.MaxRetries; attempt++ {
		if attempt > 0 && a.retry.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(a.retry.RetryDelay * time.Duration(attempt)):
			}
		}

		err := a.publisher.Publish(ctx, event)
		if err == nil {
			if attempt > 0 {
				log.Info().
					Int("attempt", attempt+1).
					Str("event_id", event.ID.String()).
					Msg("publish succeeded after retry")
			}
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("event_id", event.ID.String()).
			Msg("failed to publish outbox event")
	}

	return fmt.Errorf("publish failed after %d attempts: %w", a.retry.MaxRetries+1, lastErr)
}
