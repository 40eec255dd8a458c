package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Service is the room gateway: websocket connections, event routing and
// cross-node fan-out.
type Service struct {
	hub       *Hub
	router    *Router
	wsHandler *WebSocketHandler
	relay     *Relay
	peers     peerOccupancy
}

type peerOccupancy interface {
	Occupied(ctx context.Context, token string) (bool, error)
}

// Config holds configuration for the room gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	RelayConfig      RelayConfig
	OpTimeout        time.Duration
}

// DefaultConfig returns default configuration for the room gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		RelayConfig:      DefaultRelayConfig(),
		OpTimeout:        defaultOpTimeout,
	}
}

// NewService creates a new room gateway service. The relay is only
// connected when a NATS URL is configured.
func NewService(config Config, rounds Rounds, presence PresenceTracker, scores ScoreUpdater) (*Service, error) {
	hub := NewHub(config.ConnectionConfig)
	router := NewRouter(rounds, presence, scores, hub, config.OpTimeout)
	hub.SetHandler(router)

	s := &Service{
		hub:       hub,
		router:    router,
		wsHandler: NewWebSocketHandler(hub),
	}

	if config.RelayConfig.URL != "" {
		relay, err := NewRelay(hub, s, config.RelayConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create room relay: %w", err)
		}
		hub.SetPublisher(relay)
		s.relay = relay
		s.peers = relay
	}
	return s, nil
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting room gateway service")

	if s.relay != nil {
		if err := s.relay.Start(); err != nil {
			return err
		}
	}

	s.hub.Start(ctx)

	log.Info().Msg("room gateway service shutting down")
	return s.Stop()
}

// Stop releases the relay connection
func (s *Service) Stop() error {
	if s.relay != nil {
		if err := s.relay.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop room relay")
			return err
		}
	}
	log.Info().Msg("room gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("room gateway routes registered")
}

// RoomMembers lists every room of this node with its member count
func (s *Service) RoomMembers() map[string]int {
	return s.hub.RoomMembers()
}

// ReapIfEmpty runs reap under the room lock the router takes for joins,
// after checking that the room has no member on this node nor on any peer.
func (s *Service) ReapIfEmpty(ctx context.Context, token string, reap func(ctx context.Context) error) (bool, error) {
	defer s.router.locks.Lock(token)()

	if s.hub.memberCount(token) > 0 {
		return false, nil
	}
	if s.peers != nil {
		occupied, err := s.peers.Occupied(ctx, token)
		if err != nil {
			return false, err
		}
		if occupied {
			return false, nil
		}
	}

	if err := reap(ctx); err != nil {
		return false, err
	}
	s.hub.Forget(token)
	return true, nil
}

// occupied answers occupancy queries from other nodes. It waits for a join
// of the room in progress on this node to finish.
func (s *Service) occupied(token string) bool {
	defer s.router.locks.Lock(token)()
	return s.hub.memberCount(token) > 0
}

// Forget drops an empty room
func (s *Service) Forget(token string) {
	s.hub.Forget(token)
}

// SessionUpdated broadcasts a session changed outside of the websocket flow
func (s *Service) SessionUpdated(ctx context.Context, session *models.Session) {
	s.hub.BroadcastToRoom(session.Token, EventInfo, session)
}

// WorkItemUpdated broadcasts a work item changed outside of the websocket flow
func (s *Service) WorkItemUpdated(ctx context.Context, item *models.WorkItem) {
	s.hub.BroadcastToRoom(item.SessionToken, EventWorkItemUpdated, item)
}
