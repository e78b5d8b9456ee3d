package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/models"
	"github.com/rescuelink/rescue-go-api/internal/observability"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
	"github.com/rescuelink/rescue-go-api/internal/repository"
)

// summaryRunes is how much of the message text ends up in the notification
// summary. The ellipsis is appended unconditionally, matching the established
// client-facing format.
const summaryRunes = 30

// MessageService is the pipeline that persists chat messages and derives
// their delivery events. The only component in the core touching durable state.
type MessageService interface {
	Send(ctx context.Context, senderID uint, payload dto.SendMessageRequest) (dto.MessageResponse, error)
	List(ctx context.Context, conversationID uint) ([]dto.MessageResponse, error)
}

type messageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	publisher     realtime.Publisher
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
}

// NewMessageService constructs the message pipeline.
func NewMessageService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	notifications repository.NotificationRepository,
	publisher realtime.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) MessageService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	return &messageService{
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
		publisher:     publisher,
		validator:     validate,
		logger:        logger.With().Str("component", "message_service").Logger(),
		tracer:        otel.Tracer("github.com/rescuelink/rescue-go-api/internal/service/message"),
		sanitizer:     sanitizer,
	}
}

func (s *messageService) Send(ctx context.Context, senderID uint, payload dto.SendMessageRequest) (dto.MessageResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MessageResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	if text == "" && payload.Image == "" && payload.Audio == "" {
		return dto.MessageResponse{}, fmt.Errorf("%w: message needs text or media", ErrValidation)
	}

	conversation, err := s.conversations.FindByID(ctx, payload.ConversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, fmt.Errorf("conversation %d: %w", payload.ConversationID, ErrNotFound)
		}
		return dto.MessageResponse{}, fmt.Errorf("conversation lookup: %w", err)
	}

	sender, receiver, err := resolveParticipants(conversation, senderID)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "message.send", trace.WithAttributes(
		attribute.Int64("message.conversation_id", int64(payload.ConversationID)),
		attribute.Int64("message.sender_id", int64(senderID)),
	))
	defer span.End()

	message := models.ChatMessage{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Text:           text,
		Image:          payload.Image,
		Audio:          payload.Audio,
	}

	// Persist before any delivery so the broadcast carries the stored
	// id and timestamp.
	if err := s.messages.Save(spanCtx, &message); err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, fmt.Errorf("persist message: %w", err)
	}

	if text != "" {
		notification := models.Notification{
			UserID:         receiver.ID,
			SenderID:       senderID,
			ConversationID: conversation.ID,
			Type:           "message",
			Message:        notificationSummary(sender.DisplayName(), text),
			Metadata: datatypes.JSONMap{
				"sender_name": sender.DisplayName(),
			},
		}
		if err := s.notifications.Create(spanCtx, &notification); err != nil {
			span.RecordError(err)
			return dto.MessageResponse{}, fmt.Errorf("persist notification: %w", err)
		}
		observability.NotificationsCreated().Inc()
	}

	s.publisher.Publish(spanCtx, realtime.ConversationChannel(conversation.ID), realtime.Event{
		Name: realtime.EventNewMessage,
		Data: dto.NewMessageEvent{
			Text:      message.Text,
			Image:     message.Image,
			Audio:     message.Audio,
			Timestamp: message.CreatedAt,
			SenderID:  senderID,
		},
	}, nil)

	// The cross-device push mirrors the persisted-notification condition:
	// media-only messages reach joined clients via newMessage alone.
	if text != "" {
		s.publisher.Publish(spanCtx, realtime.UserChannel(receiver.ID), realtime.Event{
			Name: realtime.EventNewMessageNotification,
			Data: dto.NewMessageNotificationEvent{
				ConversationID: conversation.ID,
				Message:        text,
				SenderName:     sender.DisplayName(),
				SenderID:       senderID,
			},
		}, nil)
	}

	observability.ChatMessagesSent().Inc()

	message.Sender = sender
	return dto.NewMessageResponse(message), nil
}

func (s *messageService) List(ctx context.Context, conversationID uint) ([]dto.MessageResponse, error) {
	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return dto.NewMessageResponseSlice(messages), nil
}

// resolveParticipants picks the sender and the single distinct receiver out
// of a two-party conversation.
func resolveParticipants(conversation models.Conversation, senderID uint) (sender models.User, receiver models.User, err error) {
	foundSender := false
	foundReceiver := false

	for _, participant := range conversation.Participants {
		if participant.ID == senderID {
			if !foundSender {
				sender = participant
				foundSender = true
			}
			continue
		}
		if !foundReceiver {
			receiver = participant
			foundReceiver = true
		}
	}

	if !foundSender {
		return models.User{}, models.User{}, fmt.Errorf("sender %d is not a participant: %w", senderID, ErrInvalidState)
	}
	if !foundReceiver {
		return models.User{}, models.User{}, fmt.Errorf("conversation %d has no distinct receiver: %w", conversation.ID, ErrInvalidState)
	}

	return sender, receiver, nil
}

func notificationSummary(senderName, text string) string {
	runes := []rune(text)
	if len(runes) > summaryRunes {
		runes = runes[:summaryRunes]
	}
	return fmt.Sprintf(`New message from %s: "%s..."`, senderName, string(runes))
}
