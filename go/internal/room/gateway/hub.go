package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/planning-poker/go/internal/room"
	"github.com/rs/zerolog/log"
)

// FrameHandler processes what connections send
type FrameHandler interface {
	HandleFrame(conn *Connection, data []byte)
	HandleDisconnect(conn *Connection)
}

// RoomPublisher forwards room broadcasts to the other gateway nodes
type RoomPublisher interface {
	Publish(roomToken string, frame []byte) error
}

// Hub manages websocket connections and the rooms they belong to. Every
// connection is also the only member of a room keyed by its own id.
type Hub struct {
	// explicit rooms are kept while empty until Forget; connection rooms die with the connection
	rooms    map[string]map[*Connection]struct{}
	connRoom map[string]*Connection
	mu       sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
	handler     FrameHandler
	publisher   RoomPublisher
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is a frame addressed to every member of a room
type BroadcastMessage struct {
	Room  string
	Frame []byte
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		BroadcastBuffer: 1000,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewHub creates a new connection hub
func NewHub(config ConnectionConfig) *Hub {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	if config.BroadcastBuffer <= 0 {
		config.BroadcastBuffer = 1000
	}
	return &Hub{
		rooms:    make(map[string]map[*Connection]struct{}),
		connRoom: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, config.BroadcastBuffer),
	}
}

// SetHandler installs the processor of inbound frames
func (h *Hub) SetHandler(handler FrameHandler) {
	h.handler = handler
}

// SetPublisher installs the cross-node publisher of room broadcasts
func (h *Hub) SetPublisher(publisher RoomPublisher) {
	h.publisher = publisher
}

// Start delivers queued broadcasts until ctx is cancelled
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("room hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("room hub shutting down")
			h.closeAll()
			return
		case message := <-h.broadcastCh:
			h.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (h *Hub) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID string, display room.DisplayData) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := newConnection(uuid.NewString(), userID, display, ws, h)
	h.registerConnection(conn)

	go conn.writePump()
	go conn.readPump()

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", userID).
		Msg("WebSocket connection established")

	return nil
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connRoom[conn.ID] = conn
	h.rooms[conn.ID] = map[*Connection]struct{}{conn: {}}
}

// unregisterConnection drops the connection from every room. Explicit rooms
// stay registered, possibly empty, for the reaper to find.
func (h *Hub) unregisterConnection(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connRoom[conn.ID]; !ok {
		return false
	}
	delete(h.connRoom, conn.ID)
	delete(h.rooms, conn.ID)
	for _, token := range conn.Rooms() {
		if members, ok := h.rooms[token]; ok {
			delete(members, conn)
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID).
		Msg("connection unregistered")
	return true
}

// Join adds the connection to an explicit room
func (h *Hub) Join(conn *Connection, token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connRoom[conn.ID]; !ok {
		return
	}
	members, ok := h.rooms[token]
	if !ok {
		members = make(map[*Connection]struct{})
		h.rooms[token] = members
	}
	members[conn] = struct{}{}
	conn.addRoom(token)
}

// Leave removes the connection from an explicit room
func (h *Hub) Leave(conn *Connection, token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[token]; ok {
		delete(members, conn)
	}
	conn.removeRoom(token)
}

// RoomMembers returns every room with its current member count
func (h *Hub) RoomMembers() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]int, len(h.rooms))
	for token, members := range h.rooms {
		out[token] = len(members)
	}
	return out
}

func (h *Hub) memberCount(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[token])
}

// Forget drops an explicit room that is still empty
func (h *Hub) Forget(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, isConn := h.connRoom[token]; isConn {
		return
	}
	if members, ok := h.rooms[token]; ok && len(members) == 0 {
		delete(h.rooms, token)
	}
}

// BroadcastToRoom sends an event to every member of a room on every node
func (h *Hub) BroadcastToRoom(token, event string, args ...any) {
	frame, err := EncodeFrame(event, args...)
	if err != nil {
		log.Error().Err(err).Str("room_token", token).Msg("failed to encode broadcast")
		return
	}
	h.enqueue(BroadcastMessage{Room: token, Frame: frame})

	if h.publisher != nil {
		if err := h.publisher.Publish(token, frame); err != nil {
			log.Error().Err(err).Str("room_token", token).Str("event", event).Msg("failed to relay broadcast")
		}
	}
}

// SendToConnection sends an event to one connection only
func (h *Hub) SendToConnection(conn *Connection, event string, args ...any) {
	frame, err := EncodeFrame(event, args...)
	if err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to encode message")
		return
	}
	h.enqueue(BroadcastMessage{Room: conn.ID, Frame: frame})
}

// DeliverLocal queues a frame that was broadcast on another node
func (h *Hub) DeliverLocal(token string, frame []byte) {
	h.enqueue(BroadcastMessage{Room: token, Frame: frame})
}

func (h *Hub) enqueue(message BroadcastMessage) {
	select {
	case h.broadcastCh <- message:
	default:
		log.Warn().Str("room_token", message.Room).Msg("broadcast channel full, dropping message")
	}
}

func (h *Hub) handleBroadcast(message BroadcastMessage) {
	h.mu.RLock()
	members := h.rooms[message.Room]
	targets := make([]*Connection, 0, len(members))
	for conn := range members {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if !conn.enqueue(message.Frame) {
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Msg("connection send buffer full, closing connection")
			conn.Close()
		}
	}

	log.Debug().
		Str("room_token", message.Room).
		Int("connections", len(targets)).
		Msg("frame broadcasted")
}

// GetConnectionStats returns statistics about active connections
func (h *Hub) GetConnectionStats() ConnectionStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := ConnectionStats{
		TotalConnections: len(h.connRoom),
		RoomConnections:  make(map[string]int),
	}
	for token, members := range h.rooms {
		if _, isConn := h.connRoom[token]; isConn {
			continue
		}
		stats.ActiveRooms++
		stats.RoomConnections[token] = len(members)
	}
	return stats
}

// ConnectionStats is served by the stats endpoint
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connRoom))
	for _, conn := range h.connRoom {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
