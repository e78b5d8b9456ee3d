package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/service"
)

// CallHandler exposes call-session state for operational visibility.
type CallHandler struct {
	service service.CallService
	logger  zerolog.Logger
}

// NewCallHandler creates a call handler instance.
func NewCallHandler(service service.CallService, logger zerolog.Logger) *CallHandler {
	return &CallHandler{
		service: service,
		logger:  logger.With().Str("component", "call_handler").Logger(),
	}
}

// Register binds call routes under the provided router group.
func (h *CallHandler) Register(router fiber.Router) {
	router.Get("/active", h.active)
}

func (h *CallHandler) active(c *fiber.Ctx) error {
	return c.JSON(h.service.Active(c.UserContext()))
}
