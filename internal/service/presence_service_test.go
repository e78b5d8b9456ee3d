package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
)

func newPresenceServiceForTest() (PresenceService, *stubPublisher) {
	publisher := &stubPublisher{}
	return NewPresenceService(publisher, zerolog.Nop()), publisher
}

func TestTypingExcludesOrigin(t *testing.T) {
	svc, publisher := newPresenceServiceForTest()
	origin := &realtime.Client{}

	svc.Typing(context.Background(), origin, dto.TypingEvent{ConversationID: 7, UserID: 1})
	svc.StopTyping(context.Background(), origin, dto.TypingEvent{ConversationID: 7, UserID: 1})

	events := publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EventTyping, events[0].event.Name)
	assert.Equal(t, realtime.EventStopTyping, events[1].event.Name)
	for _, event := range events {
		assert.Equal(t, realtime.ConversationChannel(7), event.channel)
		assert.Same(t, origin, event.exclude, "the typer must not receive its own indicator")
	}
}

func TestMessageReadIncludesSender(t *testing.T) {
	svc, publisher := newPresenceServiceForTest()
	origin := &realtime.Client{}

	svc.MessageRead(context.Background(), origin, dto.MessageReadEvent{ConversationID: 7, UserID: 2})

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.ConversationChannel(7), events[0].channel)
	assert.Equal(t, realtime.EventMessageRead, events[0].event.Name)
	assert.Nil(t, events[0].exclude, "read receipts are confirmed back to the reader too")
}

func TestLocationUpdateExcludesOriginInRescueRoom(t *testing.T) {
	svc, publisher := newPresenceServiceForTest()
	origin := &realtime.Client{}

	svc.LocationUpdate(context.Background(), origin, dto.LocationUpdateEvent{
		RescueID: 12,
		UserID:   3,
		Coords:   dto.Coordinates{Lat: 52.37, Lng: 4.9},
	})

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.RescueChannel(12), events[0].channel)
	assert.Equal(t, realtime.EventLocationUpdate, events[0].event.Name)
	assert.Same(t, origin, events[0].exclude)

	broadcast, ok := events[0].event.Data.(dto.LocationBroadcast)
	require.True(t, ok)
	assert.Equal(t, uint(3), broadcast.UserID)
	assert.InDelta(t, 52.37, broadcast.Coords.Lat, 1e-9)
}

func TestMessageSentPushesChatListUpdateToReceiver(t *testing.T) {
	svc, publisher := newPresenceServiceForTest()
	sentAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	svc.MessageSent(context.Background(), &realtime.Client{}, dto.MessageSentEvent{
		ConversationID:  7,
		ToUserID:        2,
		LastMessageText: "see you there",
		Timestamp:       sentAt,
	})

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.UserChannel(2), events[0].channel)
	assert.Equal(t, realtime.EventChatListUpdate, events[0].event.Name)

	update, ok := events[0].event.Data.(dto.ChatListUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, uint(7), update.ConversationID)
	assert.Equal(t, "see you there", update.LastMessageText)
	assert.Equal(t, sentAt, update.Timestamp)
}
