package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

const (
	sendBufferSize = 32
	pingInterval   = 30 * time.Second
)

// Dispatcher routes a decoded inbound event to the component that handles it.
type Dispatcher interface {
	Dispatch(ctx context.Context, client *Client, event InboundEvent)
}

// Client is the opaque handle to one duplex connection. Its membership set is
// guarded by the hub's lock; the send channel preserves per-origin delivery
// order.
type Client struct {
	id       string
	userID   uint
	hub      *Hub
	conn     *websocket.Conn
	send     chan Event
	closed   chan struct{}
	once     sync.Once
	channels map[string]struct{}
	logger   zerolog.Logger
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// UserID returns the authenticated identity bound to the connection.
func (c *Client) UserID() uint {
	return c.userID
}

// Run pumps the connection until it disconnects. Blocks in the reader; the
// writer runs alongside. Cleanup is triggered exactly once on exit.
func (c *Client) Run(ctx context.Context, dispatcher Dispatcher) {
	if ctx == nil {
		ctx = context.Background()
	}

	go c.writer()
	c.reader(ctx, dispatcher)
}

// Send enqueues an event for this connection only, best-effort.
func (c *Client) Send(event Event) {
	if !c.deliver(event) {
		c.logger.Warn().Str("event", event.Name).Msg("dropping direct event for slow client")
	}
}

func (c *Client) deliver(event Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) reader(ctx context.Context, dispatcher Dispatcher) {
	defer c.Close()

	for {
		var event InboundEvent
		if err := c.conn.ReadJSON(&event); err != nil {
			c.logger.Debug().Err(err).Msg("read loop ended")
			return
		}

		dispatcher.Dispatch(ctx, c, event)
	}
}

func (c *Client) writer() {
	defer c.Close()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug().Err(err).Msg("write loop terminated")
				return
			}
		case <-time.After(pingInterval):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

// Close tears the connection down and removes all memberships. Idempotent.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		c.hub.Detach(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
