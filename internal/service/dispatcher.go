package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
)

// EventDispatcher decodes inbound client events and routes them to the hub
// and the relay services. One dispatch per event, no suspension mid-event.
type EventDispatcher struct {
	hub       *realtime.Hub
	presence  PresenceService
	calls     CallService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEventDispatcher constructs the per-connection event dispatcher.
func NewEventDispatcher(hub *realtime.Hub, presence PresenceService, calls CallService, validate *validator.Validate, logger zerolog.Logger) *EventDispatcher {
	return &EventDispatcher{
		hub:       hub,
		presence:  presence,
		calls:     calls,
		validator: validate,
		logger:    logger.With().Str("component", "event_dispatcher").Logger(),
	}
}

// Dispatch handles one inbound event. Malformed payloads and transition
// failures are reported to the originating connection only.
func (d *EventDispatcher) Dispatch(ctx context.Context, client *realtime.Client, event realtime.InboundEvent) {
	switch event.Name {
	case realtime.EventJoinUser:
		var payload dto.JoinUserEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.hub.Join(client, realtime.UserChannel(payload.UserID))

	case realtime.EventJoinAsVolunteer:
		d.hub.Join(client, realtime.VolunteersChannel)

	case realtime.EventJoinChat:
		var payload dto.JoinChatEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.hub.Join(client, realtime.ConversationChannel(payload.ConversationID))

	case realtime.EventJoinRescueRoom:
		var payload dto.JoinRescueRoomEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.hub.Join(client, realtime.RescueChannel(payload.RescueID))

	case realtime.EventMessageSent:
		var payload dto.MessageSentEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.presence.MessageSent(ctx, client, payload)

	case realtime.EventTyping:
		var payload dto.TypingEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.presence.Typing(ctx, client, payload)

	case realtime.EventStopTyping:
		var payload dto.TypingEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.presence.StopTyping(ctx, client, payload)

	case realtime.EventMessageRead:
		var payload dto.MessageReadEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.presence.MessageRead(ctx, client, payload)

	case realtime.EventLocationUpdate:
		var payload dto.LocationUpdateEvent
		if !d.decode(client, event, &payload) {
			return
		}
		d.presence.LocationUpdate(ctx, client, payload)

	case realtime.EventCallUser:
		var payload dto.CallUserEvent
		if !d.decode(client, event, &payload) {
			return
		}
		if _, err := d.calls.Initiate(ctx, client.UserID(), payload); err != nil {
			d.reportError(client, event.Name, err)
		}

	case realtime.EventAnswerCall:
		var payload dto.AnswerCallEvent
		if !d.decode(client, event, &payload) {
			return
		}
		if err := d.calls.Accept(ctx, client.UserID(), payload); err != nil {
			d.reportError(client, event.Name, err)
		}

	case realtime.EventCallSignal:
		var payload dto.CallSignalEvent
		if !d.decode(client, event, &payload) {
			return
		}
		if err := d.calls.Signal(ctx, client.UserID(), payload); err != nil {
			d.reportError(client, event.Name, err)
		}

	case realtime.EventRejectCall:
		var payload dto.RejectCallEvent
		if !d.decode(client, event, &payload) {
			return
		}
		if err := d.calls.Reject(ctx, client.UserID(), payload); err != nil {
			d.reportError(client, event.Name, err)
		}

	case realtime.EventEndCall:
		var payload dto.EndCallEvent
		if !d.decode(client, event, &payload) {
			return
		}
		if err := d.calls.End(ctx, client.UserID(), payload); err != nil {
			d.reportError(client, event.Name, err)
		}

	default:
		d.logger.Warn().Str("event", event.Name).Str("connection_id", client.ID()).Msg("unknown client event")
	}
}

func (d *EventDispatcher) decode(client *realtime.Client, event realtime.InboundEvent, out interface{}) bool {
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, out); err != nil {
			d.reportError(client, event.Name, err)
			return false
		}
	}
	if err := d.validator.Struct(out); err != nil {
		d.reportError(client, event.Name, err)
		return false
	}
	return true
}

func (d *EventDispatcher) reportError(client *realtime.Client, eventName string, err error) {
	d.logger.Warn().Err(err).Str("event", eventName).Str("connection_id", client.ID()).Msg("client event failed")
	client.Send(realtime.Event{
		Name: realtime.EventError,
		Data: map[string]string{"event": eventName, "error": "invalid payload or state"},
	})
}
