package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Headers carried by relayed frames
const (
	HeaderRoomToken  = "Room-Token"
	HeaderOriginNode = "Origin-Node"
)

// RelayConfig holds configuration for the cross-node room relay
type RelayConfig struct {
	URL     string
	Subject string
	// MembersSubject carries room occupancy queries between nodes
	MembersSubject string
	// QueryTimeout bounds how long an occupancy query waits for an occupied peer
	QueryTimeout  time.Duration
	NodeID        string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultRelayConfig returns default relay configuration. An empty URL
// disables the relay.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Subject:        "rooms.events",
		MembersSubject: "rooms.members",
		QueryTimeout:   500 * time.Millisecond,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
	}
}

type localDeliverer interface {
	DeliverLocal(token string, frame []byte)
}

type occupancy interface {
	occupied(token string) bool
}

// Relay mirrors room broadcasts between gateway nodes over NATS so that
// members connected to another node receive them too. It also answers
// occupancy queries so that a room is only reaped when it is empty on
// every node.
type Relay struct {
	nc             *nats.Conn
	sub            *nats.Subscription
	membersSub     *nats.Subscription
	local          localDeliverer
	rooms          occupancy
	subject        string
	membersSubject string
	queryTimeout   time.Duration
	nodeID         string
}

// NewRelay connects to NATS
func NewRelay(local localDeliverer, rooms occupancy, config RelayConfig) (*Relay, error) {
	opts := []nats.Option{
		nats.Name("planning-poker-gateway-" + config.NodeID),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return newRelay(nc, local, rooms, config), nil
}

func newRelay(nc *nats.Conn, local localDeliverer, rooms occupancy, config RelayConfig) *Relay {
	defaults := DefaultRelayConfig()
	if config.MembersSubject == "" {
		config.MembersSubject = defaults.MembersSubject
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = defaults.QueryTimeout
	}
	return &Relay{
		nc:             nc,
		local:          local,
		rooms:          rooms,
		subject:        config.Subject,
		membersSubject: config.MembersSubject,
		queryTimeout:   config.QueryTimeout,
		nodeID:         config.NodeID,
	}
}

// Start subscribes to the frames published by the other nodes
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(r.subject, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	r.sub = sub

	membersSub, err := r.nc.Subscribe(r.membersSubject, r.answerOccupancy)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.membersSubject, err)
	}
	r.membersSub = membersSub

	log.Info().
		Str("subject", r.subject).
		Str("members_subject", r.membersSubject).
		Str("node_id", r.nodeID).
		Msg("room relay started")
	return nil
}

// Publish sends a room frame to the other nodes
func (r *Relay) Publish(roomToken string, frame []byte) error {
	msg := nats.NewMsg(r.subject)
	msg.Header.Set(HeaderRoomToken, roomToken)
	msg.Header.Set(HeaderOriginNode, r.nodeID)
	msg.Data = frame

	if err := r.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish room frame: %w", err)
	}
	return nil
}

func (r *Relay) handle(msg *nats.Msg) {
	if msg.Header.Get(HeaderOriginNode) == r.nodeID {
		return
	}
	token := msg.Header.Get(HeaderRoomToken)
	if token == "" {
		log.Warn().Str("subject", msg.Subject).Msg("dropping relayed frame without room token")
		return
	}
	r.local.DeliverLocal(token, msg.Data)
}

// Occupied asks the other nodes whether any of them has a member in the
// room. Only occupied nodes answer, so silence until the query timeout and
// the absence of responders both mean the room is empty everywhere else.
func (r *Relay) Occupied(ctx context.Context, token string) (bool, error) {
	msg := nats.NewMsg(r.membersSubject)
	msg.Header.Set(HeaderRoomToken, token)
	msg.Header.Set(HeaderOriginNode, r.nodeID)

	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	reply, err := r.nc.RequestMsgWithContext(queryCtx, msg)
	occupied, err := occupancyAnswer(ctx, reply, err)
	if err != nil {
		return false, fmt.Errorf("query occupancy of room %s: %w", token, err)
	}
	return occupied, nil
}

func occupancyAnswer(ctx context.Context, reply *nats.Msg, err error) (bool, error) {
	switch {
	case ctx.Err() != nil:
		return false, ctx.Err()
	case err == nil:
		log.Debug().
			Str("room_token", reply.Header.Get(HeaderRoomToken)).
			Str("peer_node", string(reply.Data)).
			Msg("room occupied on another node")
		return true, nil
	case errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, err
	}
}

func (r *Relay) answerOccupancy(msg *nats.Msg) {
	if !r.shouldAnswer(msg) {
		return
	}
	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(HeaderRoomToken, msg.Header.Get(HeaderRoomToken))
	reply.Data = []byte(r.nodeID)
	if err := msg.RespondMsg(reply); err != nil {
		log.Error().Err(err).Msg("failed to answer room occupancy query")
	}
}

// shouldAnswer reports whether this node holds a member of the queried room.
// A node never answers its own query: it holds that room's lock while asking.
func (r *Relay) shouldAnswer(msg *nats.Msg) bool {
	if msg.Reply == "" || msg.Header.Get(HeaderOriginNode) == r.nodeID {
		return false
	}
	token := msg.Header.Get(HeaderRoomToken)
	if token == "" {
		return false
	}
	return r.rooms.occupied(token)
}

// Stop drains the subscriptions and closes the NATS connection
func (r *Relay) Stop() error {
	for _, sub := range []*nats.Subscription{r.sub, r.membersSub} {
		if sub == nil {
			continue
		}
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Str("subject", sub.Subject).Msg("failed to unsubscribe room relay")
		}
	}
	if err := r.nc.Drain(); err != nil {
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
