package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescuelink/rescue-go-api/internal/realtime"
	"github.com/rescuelink/rescue-go-api/internal/service"
)

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func setupRealtimeApp(t *testing.T) (*fiber.App, *realtime.Hub) {
	t.Helper()

	hub := realtime.NewHub(nil, zerolog.Nop())
	presence := service.NewPresenceService(hub, zerolog.Nop())
	calls := service.NewCallService(hub, zerolog.Nop())
	dispatcher := service.NewEventDispatcher(hub, presence, calls, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		uid := c.QueryInt("uid")
		if uid > 0 {
			c.Locals("user_id", uint(uid))
		}
		return c.Next()
	})
	NewRealtimeHandler(hub, dispatcher, zerolog.Nop()).Register(ws)

	return app, hub
}

func dialRealtime(t *testing.T, baseURL string, userID uint) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + fmt.Sprintf("/ws?uid=%d", userID)
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, name, data string) {
	t.Helper()

	payload := fmt.Sprintf(`{"event":%q,"data":%s}`, name, data)
	if data == "" {
		payload = fmt.Sprintf(`{"event":%q}`, name)
	}
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event wireEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var event wireEvent
	err := conn.ReadJSON(&event)
	require.Error(t, err, "unexpected event %q", event.Event)
	assert.True(t, errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "timeout"), "expected read timeout, got %v", err)
}

func waitForSubscribers(t *testing.T, hub *realtime.Hub, channel string, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Subscribers(channel) == count
	}, 2*time.Second, 10*time.Millisecond, "channel %q never reached %d subscribers", channel, count)
}

func TestWebsocketTypingRelayAcrossConnections(t *testing.T) {
	app, hub := setupRealtimeApp(t)
	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	alice := dialRealtime(t, baseURL, 1)
	bob := dialRealtime(t, baseURL, 2)

	sendEvent(t, alice, realtime.EventJoinChat, `{"chatId":7}`)
	sendEvent(t, bob, realtime.EventJoinChat, `{"chatId":7}`)
	waitForSubscribers(t, hub, realtime.ConversationChannel(7), 2)

	sendEvent(t, alice, realtime.EventTyping, `{"chatId":7,"userId":1}`)

	event := readEvent(t, bob)
	assert.Equal(t, realtime.EventTyping, event.Event)
	assert.JSONEq(t, `{"userId":1}`, string(event.Data))

	expectSilence(t, alice)
}

func TestWebsocketReadReceiptReachesEveryone(t *testing.T) {
	app, hub := setupRealtimeApp(t)
	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	alice := dialRealtime(t, baseURL, 1)
	bob := dialRealtime(t, baseURL, 2)

	sendEvent(t, alice, realtime.EventJoinChat, `{"chatId":7}`)
	sendEvent(t, bob, realtime.EventJoinChat, `{"chatId":7}`)
	waitForSubscribers(t, hub, realtime.ConversationChannel(7), 2)

	sendEvent(t, bob, realtime.EventMessageRead, `{"chatId":7,"userId":2}`)

	for _, conn := range []*websocket.Conn{alice, bob} {
		event := readEvent(t, conn)
		assert.Equal(t, realtime.EventMessageRead, event.Event)
		assert.JSONEq(t, `{"chatId":7,"userId":2}`, string(event.Data))
	}
}

func TestWebsocketLocationUpdateSkipsReporter(t *testing.T) {
	app, hub := setupRealtimeApp(t)
	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	volunteer := dialRealtime(t, baseURL, 3)
	owner := dialRealtime(t, baseURL, 1)

	sendEvent(t, volunteer, realtime.EventJoinRescueRoom, `{"rescueId":12,"userId":3}`)
	sendEvent(t, owner, realtime.EventJoinRescueRoom, `{"rescueId":12,"userId":1}`)
	waitForSubscribers(t, hub, realtime.RescueChannel(12), 2)

	sendEvent(t, volunteer, realtime.EventLocationUpdate, `{"rescueId":12,"userId":3,"coords":{"lat":52.37,"lng":4.9}}`)

	event := readEvent(t, owner)
	assert.Equal(t, realtime.EventLocationUpdate, event.Event)
	assert.JSONEq(t, `{"userId":3,"coords":{"lat":52.37,"lng":4.9}}`, string(event.Data))

	expectSilence(t, volunteer)
}

func TestWebsocketCallLifecycle(t *testing.T) {
	app, hub := setupRealtimeApp(t)
	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	caller := dialRealtime(t, baseURL, 1)
	callee := dialRealtime(t, baseURL, 2)

	sendEvent(t, caller, realtime.EventJoinUser, `{"userId":1}`)
	sendEvent(t, callee, realtime.EventJoinUser, `{"userId":2}`)
	waitForSubscribers(t, hub, realtime.UserChannel(1), 1)
	waitForSubscribers(t, hub, realtime.UserChannel(2), 1)

	sendEvent(t, caller, realtime.EventCallUser, `{"calleeId":2,"payload":{"sdp":"offer"}}`)

	incoming := readEvent(t, callee)
	require.Equal(t, realtime.EventIncomingCall, incoming.Event)
	var incomingData struct {
		CallID   string `json:"callId"`
		CallerID uint   `json:"callerId"`
	}
	require.NoError(t, json.Unmarshal(incoming.Data, &incomingData))
	require.NotEmpty(t, incomingData.CallID)
	assert.Equal(t, uint(1), incomingData.CallerID)

	sendEvent(t, callee, realtime.EventAnswerCall, fmt.Sprintf(`{"callId":%q,"payload":{"sdp":"answer"}}`, incomingData.CallID))

	accepted := readEvent(t, caller)
	assert.Equal(t, realtime.EventCallAccepted, accepted.Event)

	sendEvent(t, caller, realtime.EventEndCall, fmt.Sprintf(`{"callId":%q}`, incomingData.CallID))

	ended := readEvent(t, callee)
	assert.Equal(t, realtime.EventCallEnded, ended.Event)
	var endedData struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(ended.Data, &endedData))
	assert.Equal(t, "ended", endedData.Reason)
}

func TestWebsocketRejectsAnonymousUpgrade(t *testing.T) {
	app, _ := setupRealtimeApp(t)
	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		// Handshake refused outright is acceptable.
		return
	}

	// Otherwise the server must close immediately without serving events.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, readErr := conn.ReadMessage()
	require.Error(t, readErr)
	_ = conn.Close()
}
