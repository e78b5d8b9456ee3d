package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/service"
	"github.com/rescuelink/rescue-go-api/internal/utils"
)

// MessageHandler wires the message REST endpoints.
type MessageHandler struct {
	service   service.MessageService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMessageHandler creates a message handler instance.
func NewMessageHandler(service service.MessageService, validate *validator.Validate, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register binds message routes under the provided router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Post("/", h.send)
	router.Get("/:conversationId", h.list)
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	senderID := userIDFromContext(c)
	if senderID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.Send(c.UserContext(), senderID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Chat not found")
		case errors.Is(err, service.ErrInvalidState):
			return utils.SendError(c, fiber.StatusBadRequest, "Receiver not found")
		case errors.Is(err, service.ErrValidation), isValidationError(err):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "Message needs text or media")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("send message failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "Failed to send message")
		}
	}

	return c.JSON(message)
}

func (h *MessageHandler) list(c *fiber.Ctx) error {
	conversationID, err := strconv.ParseUint(c.Params("conversationId"), 10, 64)
	if err != nil || conversationID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	messages, err := h.service.List(c.UserContext(), uint(conversationID))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("list messages failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "Server error")
	}

	return c.JSON(messages)
}
