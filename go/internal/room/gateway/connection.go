package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/planning-poker/go/internal/room"
	"github.com/rs/zerolog/log"
)

// Connection is one websocket client. The user id is fixed at upgrade time.
type Connection struct {
	ID          string
	UserID      string
	Display     room.DisplayData
	ConnectedAt time.Time

	ws   *websocket.Conn
	hub  *Hub
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu    sync.Mutex
	rooms map[string]struct{}
}

func newConnection(id, userID string, display room.DisplayData, ws *websocket.Conn, hub *Hub) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:          id,
		UserID:      userID,
		Display:     display,
		ConnectedAt: time.Now(),
		ws:          ws,
		hub:         hub,
		send:        make(chan []byte, hub.config.SendBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		rooms:       make(map[string]struct{}),
	}
}

// Context is cancelled once the connection is closed
func (c *Connection) Context() context.Context {
	return c.ctx
}

// Rooms returns the explicit rooms the connection has joined
func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.rooms))
	for token := range c.rooms {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// InRoom reports whether the connection has joined token
func (c *Connection) InRoom(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[token]
	return ok
}

func (c *Connection) addRoom(token string) {
	c.mu.Lock()
	c.rooms[token] = struct{}{}
	c.mu.Unlock()
}

func (c *Connection) removeRoom(token string) {
	c.mu.Lock()
	delete(c.rooms, token)
	c.mu.Unlock()
}

// Close shuts the socket. Safe to call more than once.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

// enqueue reports false only when the send buffer is full. Frames for a
// closed connection are dropped.
func (c *Connection) enqueue(frame []byte) bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
	}
	select {
	case c.send <- frame:
		return true
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads frames until the socket fails, then runs the disconnect
// handling exactly once.
func (c *Connection) readPump() {
	defer func() {
		c.Close()
		if c.hub.unregisterConnection(c) && c.hub.handler != nil {
			c.hub.handler.HandleDisconnect(c)
		}
	}()

	c.ws.SetReadLimit(c.hub.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		if c.hub.handler != nil {
			c.hub.handler.HandleFrame(c, message)
		}
		c.ws.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
