package dto

import (
	"time"

	"github.com/rescuelink/rescue-go-api/internal/models"
)

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	SenderID       uint      `json:"sender_id,omitempty"`
	ConversationID uint      `json:"conversation_id,omitempty"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             model.ID,
		UserID:         model.UserID,
		SenderID:       model.SenderID,
		ConversationID: model.ConversationID,
		Type:           model.Type,
		Message:        model.Message,
		Read:           model.Read,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
