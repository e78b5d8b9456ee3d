package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupBridgedHub(t *testing.T, addr string) *Hub {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = client.Close()
	})

	bridge := NewBridge(client, nil, "rescuelink", zerolog.Nop())
	hub := NewHub(bridge, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.Start(ctx)

	return hub
}

func TestBridgeDeliversEventsAcrossNodes(t *testing.T) {
	mr := miniredis.RunT(t)

	local := setupBridgedHub(t, mr.Addr())
	remote := setupBridgedHub(t, mr.Addr())

	subscriber := remote.Attach(nil, 2, zerolog.Nop())
	remote.Join(subscriber, "conversation-7")

	// The remote consumer subscribes asynchronously; publish until it lands.
	require.Eventually(t, func() bool {
		local.Publish(context.Background(), "conversation-7", Event{Name: EventNewMessage}, nil)
		return len(drainEvents(subscriber)) > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestBridgeFiltersOwnEvents(t *testing.T) {
	mr := miniredis.RunT(t)

	local := setupBridgedHub(t, mr.Addr())
	remote := setupBridgedHub(t, mr.Addr())

	remoteProbe := remote.Attach(nil, 2, zerolog.Nop())
	remote.Join(remoteProbe, "conversation-7")

	localSubscriber := local.Attach(nil, 1, zerolog.Nop())
	local.Join(localSubscriber, "conversation-7")

	// Wait until the bridge loop is live, then confirm the publishing node's
	// own subscriber saw each event exactly once: locally, never via the echo.
	require.Eventually(t, func() bool {
		local.Publish(context.Background(), "conversation-7", Event{Name: EventNewMessage}, nil)
		return len(drainEvents(remoteProbe)) > 0
	}, 2*time.Second, 20*time.Millisecond)

	published := len(drainEvents(localSubscriber))
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, drainEvents(localSubscriber), "publisher node received its own bridged echo")
	require.NotZero(t, published)
}
