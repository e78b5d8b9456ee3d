package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bridge forwards published events between nodes over redis pub/sub and NATS
// so a subscriber connected anywhere receives every event for its channels.
// Either transport may be nil.
type Bridge struct {
	redis   *redis.Client
	stream  string
	nats    *nats.Conn
	subject string
	node    string
	log     zerolog.Logger
}

type bridgeEnvelope struct {
	Source  string    `json:"source"`
	Channel string    `json:"channel"`
	Event   Event     `json:"event"`
	SentAt  time.Time `json:"sent_at"`
}

// NewBridge creates a bridge identified by a fresh node id.
func NewBridge(redisClient *redis.Client, natsConn *nats.Conn, base string, logger zerolog.Logger) *Bridge {
	stream := ""
	subject := ""
	if base != "" {
		stream = base + ":events"
		subject = strings.ReplaceAll(base, ":", ".") + ".events"
	}

	return &Bridge{
		redis:   redisClient,
		stream:  stream,
		nats:    natsConn,
		subject: subject,
		node:    uuid.NewString(),
		log:     logger.With().Str("component", "realtime_bridge").Logger(),
	}
}

// Publish forwards a channel event to peer nodes.
func (b *Bridge) Publish(ctx context.Context, channel string, event Event) error {
	envelope := bridgeEnvelope{
		Source:  b.node,
		Channel: channel,
		Event:   event,
		SentAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if b.redis != nil && b.stream != "" {
		if err := b.redis.Publish(ctx, b.stream, payload).Err(); err != nil {
			return err
		}
	}

	if b.nats != nil && b.subject != "" {
		if err := b.nats.Publish(b.subject, payload); err != nil {
			return err
		}
	}

	return nil
}

// Start consumes peer events until the context is cancelled, handing each one
// to deliver. Events published by this node are filtered out.
func (b *Bridge) Start(ctx context.Context, deliver func(channel string, event Event, exclude *Client)) {
	if b.redis != nil && b.stream != "" {
		go b.consumeRedis(ctx, deliver)
	}
	if b.nats != nil && b.subject != "" {
		go b.consumeNATS(ctx, deliver)
	}
}

func (b *Bridge) consumeRedis(ctx context.Context, deliver func(channel string, event Event, exclude *Client)) {
	pubsub := b.redis.Subscribe(ctx, b.stream)
	defer func() {
		_ = pubsub.Close()
	}()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.log.Error().Err(err).Msg("redis event subscription closed")
			return
		}
		b.handleEnvelope([]byte(msg.Payload), deliver)
	}
}

func (b *Bridge) consumeNATS(ctx context.Context, deliver func(channel string, event Event, exclude *Client)) {
	sub, err := b.nats.QueueSubscribe(b.subject, "rescuelink-events", func(msg *nats.Msg) {
		b.handleEnvelope(msg.Data, deliver)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to subscribe to nats event subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.log.Warn().Err(err).Msg("failed to drain nats event subscription")
		}
	}()
}

func (b *Bridge) handleEnvelope(data []byte, deliver func(channel string, event Event, exclude *Client)) {
	var envelope bridgeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		b.log.Warn().Err(err).Msg("invalid bridge envelope")
		return
	}

	if envelope.Source == b.node {
		return
	}

	deliver(envelope.Channel, envelope.Event, nil)
}
