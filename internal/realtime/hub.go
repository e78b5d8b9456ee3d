package realtime

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/observability"
)

// Publisher is the fan-out boundary used by the relay services.
type Publisher interface {
	Publish(ctx context.Context, channel string, event Event, exclude *Client)
}

// Hub tracks live connections and their channel memberships, and fans events
// out to every subscriber of a channel. Channels are implicit: they exist
// exactly as long as they have members.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	bridge   *Bridge
	log      zerolog.Logger
}

// NewHub creates a hub. The bridge may be nil for single-node deployments.
func NewHub(bridge *Bridge, logger zerolog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]struct{}),
		bridge:   bridge,
		log:      logger.With().Str("component", "realtime_hub").Logger(),
	}
}

// Start begins consuming cross-node events. Local-only hubs are a no-op.
func (h *Hub) Start(ctx context.Context) {
	if h.bridge != nil {
		h.bridge.Start(ctx, h.publishLocal)
	}
}

// Attach registers a new connection with empty membership. The caller owns
// the client lifecycle and must eventually trigger Detach by closing it.
func (h *Hub) Attach(conn *websocket.Conn, userID uint, logger zerolog.Logger) *Client {
	client := &Client{
		id:       uuid.NewString(),
		userID:   userID,
		hub:      h,
		conn:     conn,
		send:     make(chan Event, sendBufferSize),
		closed:   make(chan struct{}),
		channels: make(map[string]struct{}),
		logger:   logger.With().Str("component", "realtime_client").Logger(),
	}

	observability.RealtimeConnections().Inc()
	h.log.Debug().Str("connection_id", client.id).Uint("user_id", userID).Msg("connection attached")

	return client
}

// Join adds the connection to a channel's subscriber set. Idempotent;
// channels are created lazily on first join.
func (h *Hub) Join(c *Client, channel string) {
	if c == nil || channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-c.closed:
		return
	default:
	}

	if _, exists := h.channels[channel]; !exists {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	c.channels[channel] = struct{}{}

	h.log.Debug().Str("connection_id", c.id).Str("channel", channel).Msg("joined channel")
}

// Leave removes the connection from one channel. Empty channels are dropped.
func (h *Hub) Leave(c *Client, channel string) {
	if c == nil || channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, channel)
}

func (h *Hub) leaveLocked(c *Client, channel string) {
	if subscribers, ok := h.channels[channel]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(c.channels, channel)
}

// Detach removes the connection from every channel it joined. Safe to call
// concurrently with in-flight deliveries; once it returns, no further publish
// will enumerate the connection.
func (h *Hub) Detach(c *Client) {
	if c == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range c.channels {
		h.leaveLocked(c, channel)
	}

	observability.RealtimeConnections().Dec()
	h.log.Debug().Str("connection_id", c.id).Msg("connection detached")
}

// Publish delivers an event to every subscriber of the channel except the
// excluded connection, then forwards it to peer nodes. Zero subscribers is a
// safe no-op; per-connection delivery failures never surface to the caller.
func (h *Hub) Publish(ctx context.Context, channel string, event Event, exclude *Client) {
	h.publishLocal(channel, event, exclude)

	if h.bridge != nil {
		if err := h.bridge.Publish(ctx, channel, event); err != nil {
			h.log.Warn().Err(err).Str("channel", channel).Msg("failed to forward event to peer nodes")
		}
	}
}

func (h *Hub) publishLocal(channel string, event Event, exclude *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := h.channels[channel]
	for client := range subscribers {
		if client == exclude {
			continue
		}
		if !client.deliver(event) {
			observability.RealtimeEventsDropped().WithLabelValues(event.Name).Inc()
			h.log.Warn().Str("channel", channel).Str("connection_id", client.id).Msg("dropping event for slow client")
		}
	}

	observability.RealtimeEventsPublished().WithLabelValues(event.Name).Inc()
}

// Subscribers reports the current member count of a channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
