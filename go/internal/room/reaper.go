package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultReapInterval is how often empty rooms are swept
const DefaultReapInterval = 60 * time.Second

// ReaperStore is what the reaper needs from the session store
type ReaperStore interface {
	ExistingTokens(ctx context.Context, tokens []string) ([]string, error)
	DeleteSession(ctx context.Context, token string) error
}

// Reaper periodically deletes the sessions of rooms nobody is connected to
type Reaper struct {
	registry RoomRegistry
	store    ReaperStore
	presence *Presence
	clock    clockwork.Clock
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReaper creates a reaper sweeping every interval
func NewReaper(registry RoomRegistry, store ReaperStore, presence *Presence, clock clockwork.Clock, interval time.Duration) *Reaper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{
		registry: registry,
		store:    store,
		presence: presence,
		clock:    clock,
		interval: interval,
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled or Stop is called.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, r.done)

	log.Info().Dur("interval", r.interval).Msg("room reaper started")
}

// Stop cancels the sweep loop and waits for it to exit
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	log.Info().Msg("room reaper stopped")
}

func (r *Reaper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := r.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("room sweep incomplete, retrying next tick")
			}
		}
	}
}

// Sweep deletes every stored session whose room has no connected member and
// returns how many were deleted. Only tokens of stored sessions reach the
// store; the implicit room of each connection never does. Each room is
// checked again right before its deletion, and failed deletions stay in the
// registry to be retried on the next sweep.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	members := r.registry.RoomMembers()

	empty := make([]string, 0, len(members))
	for token, count := range members {
		if count == 0 {
			empty = append(empty, token)
		}
	}
	if len(empty) == 0 {
		return 0, nil
	}
	sort.Strings(empty)

	sessions, err := r.store.ExistingTokens(ctx, empty)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve session tokens: %w", err)
	}

	stored := make(map[string]struct{}, len(sessions))
	for _, token := range sessions {
		stored[token] = struct{}{}
	}
	for _, token := range empty {
		if _, ok := stored[token]; !ok {
			// session already gone, nothing left but the registry entry
			r.registry.Forget(token)
		}
	}

	var errs []error
	reaped := 0
	for _, token := range sessions {
		ran, err := r.registry.ReapIfEmpty(ctx, token, func(ctx context.Context) error {
			return r.reap(ctx, token)
		})
		if err != nil {
			log.Error().Err(err).Str("room_token", token).Msg("failed to delete empty room")
			errs = append(errs, fmt.Errorf("room %s: %w", token, err))
			continue
		}
		if !ran {
			log.Debug().Str("room_token", token).Msg("room is occupied again, skipping")
			continue
		}
		reaped++

		log.Info().Str("room_token", token).Msg("empty room reaped")
	}

	return reaped, errors.Join(errs...)
}

func (r *Reaper) reap(ctx context.Context, token string) error {
	if err := r.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	r.presence.Purge(token)
	return nil
}
