package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
)

// PresenceService forwards ephemeral typing/read/location events. Nothing
// here is persisted.
type PresenceService interface {
	Typing(ctx context.Context, origin *realtime.Client, payload dto.TypingEvent)
	StopTyping(ctx context.Context, origin *realtime.Client, payload dto.TypingEvent)
	MessageRead(ctx context.Context, origin *realtime.Client, payload dto.MessageReadEvent)
	LocationUpdate(ctx context.Context, origin *realtime.Client, payload dto.LocationUpdateEvent)
	MessageSent(ctx context.Context, origin *realtime.Client, payload dto.MessageSentEvent)
}

type presenceService struct {
	publisher realtime.Publisher
	logger    zerolog.Logger
}

// NewPresenceService constructs the stateless relay.
func NewPresenceService(publisher realtime.Publisher, logger zerolog.Logger) PresenceService {
	return &presenceService{
		publisher: publisher,
		logger:    logger.With().Str("component", "presence_service").Logger(),
	}
}

func (s *presenceService) Typing(ctx context.Context, origin *realtime.Client, payload dto.TypingEvent) {
	s.publisher.Publish(ctx, realtime.ConversationChannel(payload.ConversationID), realtime.Event{
		Name: realtime.EventTyping,
		Data: dto.TypingBroadcast{UserID: payload.UserID},
	}, origin)
}

func (s *presenceService) StopTyping(ctx context.Context, origin *realtime.Client, payload dto.TypingEvent) {
	s.publisher.Publish(ctx, realtime.ConversationChannel(payload.ConversationID), realtime.Event{
		Name: realtime.EventStopTyping,
		Data: dto.TypingBroadcast{UserID: payload.UserID},
	}, origin)
}

// MessageRead goes to everyone in the room, sender included, so read
// receipts confirm symmetrically.
func (s *presenceService) MessageRead(ctx context.Context, origin *realtime.Client, payload dto.MessageReadEvent) {
	s.publisher.Publish(ctx, realtime.ConversationChannel(payload.ConversationID), realtime.Event{
		Name: realtime.EventMessageRead,
		Data: dto.MessageReadBroadcast{ConversationID: payload.ConversationID, UserID: payload.UserID},
	}, nil)
}

// LocationUpdate excludes the origin: others see movement, the sender does
// not echo its own position.
func (s *presenceService) LocationUpdate(ctx context.Context, origin *realtime.Client, payload dto.LocationUpdateEvent) {
	s.publisher.Publish(ctx, realtime.RescueChannel(payload.RescueID), realtime.Event{
		Name: realtime.EventLocationUpdate,
		Data: dto.LocationBroadcast{UserID: payload.UserID, Coords: payload.Coords},
	}, origin)
}

// MessageSent pushes a conversation-list refresh to the receiver's personal
// channel after the sender got its own confirmation.
func (s *presenceService) MessageSent(ctx context.Context, origin *realtime.Client, payload dto.MessageSentEvent) {
	s.publisher.Publish(ctx, realtime.UserChannel(payload.ToUserID), realtime.Event{
		Name: realtime.EventChatListUpdate,
		Data: dto.ChatListUpdateEvent{
			ConversationID:  payload.ConversationID,
			LastMessageText: payload.LastMessageText,
			Timestamp:       payload.Timestamp,
		},
	}, nil)
}
