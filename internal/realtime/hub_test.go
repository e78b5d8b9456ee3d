package realtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(nil, zerolog.Nop())
}

func drainEvents(c *Client) []Event {
	events := make([]Event, 0)
	for {
		select {
		case event := <-c.send:
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := newTestHub()
	client := hub.Attach(nil, 1, zerolog.Nop())

	hub.Join(client, "room-a")
	hub.Join(client, "room-a")

	require.Equal(t, 1, hub.Subscribers("room-a"))

	hub.Publish(context.Background(), "room-a", Event{Name: "ping"}, nil)
	require.Len(t, drainEvents(client), 1)
}

func TestHubPublishExcludesSender(t *testing.T) {
	hub := newTestHub()
	sender := hub.Attach(nil, 1, zerolog.Nop())
	receiver := hub.Attach(nil, 2, zerolog.Nop())

	hub.Join(sender, "room-a")
	hub.Join(receiver, "room-a")

	hub.Publish(context.Background(), "room-a", Event{Name: EventTyping}, sender)

	require.Empty(t, drainEvents(sender))
	events := drainEvents(receiver)
	require.Len(t, events, 1)
	require.Equal(t, EventTyping, events[0].Name)
}

func TestHubPublishWithoutSubscribersIsNoOp(t *testing.T) {
	hub := newTestHub()
	require.NotPanics(t, func() {
		hub.Publish(context.Background(), "empty-room", Event{Name: "ping"}, nil)
	})
}

func TestHubDetachRemovesAllMembershipsWithoutAffectingOthers(t *testing.T) {
	hub := newTestHub()
	leaving := hub.Attach(nil, 1, zerolog.Nop())
	staying := hub.Attach(nil, 2, zerolog.Nop())

	for _, channel := range []string{"room-a", "room-b", VolunteersChannel} {
		hub.Join(leaving, channel)
		hub.Join(staying, channel)
	}

	leaving.Close()

	require.Equal(t, 1, hub.Subscribers("room-a"))
	require.Equal(t, 1, hub.Subscribers("room-b"))

	hub.Publish(context.Background(), "room-a", Event{Name: "ping"}, nil)
	require.Empty(t, drainEvents(leaving))
	require.Len(t, drainEvents(staying), 1)
}

func TestHubCloseIsIdempotent(t *testing.T) {
	hub := newTestHub()
	client := hub.Attach(nil, 1, zerolog.Nop())
	hub.Join(client, "room-a")

	require.NotPanics(t, func() {
		client.Close()
		client.Close()
	})
	require.Zero(t, hub.Subscribers("room-a"))
}

func TestHubJoinAfterCloseIsIgnored(t *testing.T) {
	hub := newTestHub()
	client := hub.Attach(nil, 1, zerolog.Nop())
	client.Close()

	hub.Join(client, "room-a")
	require.Zero(t, hub.Subscribers("room-a"))
}

func TestHubLeaveDropsEmptyChannel(t *testing.T) {
	hub := newTestHub()
	client := hub.Attach(nil, 1, zerolog.Nop())
	hub.Join(client, "room-a")
	hub.Leave(client, "room-a")

	hub.mu.RLock()
	_, exists := hub.channels["room-a"]
	hub.mu.RUnlock()
	require.False(t, exists)
}

func TestHubPublishPreservesOrderPerChannel(t *testing.T) {
	hub := newTestHub()
	client := hub.Attach(nil, 1, zerolog.Nop())
	hub.Join(client, "room-a")

	for i := 0; i < 10; i++ {
		hub.Publish(context.Background(), "room-a", Event{Name: fmt.Sprintf("event-%d", i)}, nil)
	}

	events := drainEvents(client)
	require.Len(t, events, 10)
	for i, event := range events {
		require.Equal(t, fmt.Sprintf("event-%d", i), event.Name)
	}
}

func TestHubConcurrentMembershipAndPublish(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client := hub.Attach(nil, uint(n), zerolog.Nop())
			channel := fmt.Sprintf("room-%d", n%4)
			for j := 0; j < 50; j++ {
				hub.Join(client, channel)
				hub.Publish(context.Background(), channel, Event{Name: "ping"}, nil)
				drainEvents(client)
				hub.Leave(client, channel)
			}
			client.Close()
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent membership churn deadlocked")
	}

	for i := 0; i < 4; i++ {
		require.Zero(t, hub.Subscribers(fmt.Sprintf("room-%d", i)))
	}
}
