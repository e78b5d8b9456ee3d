package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/middleware"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
)

// RealtimeHandler upgrades authenticated connections onto the hub.
type RealtimeHandler struct {
	hub        *realtime.Hub
	dispatcher realtime.Dispatcher
	logger     zerolog.Logger
}

// NewRealtimeHandler creates the websocket entry point.
func NewRealtimeHandler(hub *realtime.Hub, dispatcher realtime.Dispatcher, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	client := h.hub.Attach(conn, userID, h.logger)
	defer client.Close()

	h.logger.Info().Uint("user_id", userID).Str("connection_id", client.ID()).Msg("websocket connected")
	client.Run(baseCtx, h.dispatcher)
	h.logger.Info().Uint("user_id", userID).Str("connection_id", client.ID()).Msg("websocket disconnected")
}

func websocketUserID(conn *websocket.Conn) uint {
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case uint:
			return v
		case int:
			if v > 0 {
				return uint(v)
			}
		case float64:
			if v > 0 {
				return uint(v)
			}
		}
	}
	return 0
}
