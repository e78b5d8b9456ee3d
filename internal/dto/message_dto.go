package dto

import (
	"time"

	"github.com/rescuelink/rescue-go-api/internal/models"
)

// SendMessageRequest is the payload for posting a message into a conversation.
type SendMessageRequest struct {
	ConversationID uint   `json:"conversation_id" validate:"required"`
	Text           string `json:"text" validate:"omitempty,max=4000"`
	Image          string `json:"image" validate:"omitempty,max=512"`
	Audio          string `json:"audio" validate:"omitempty,max=512"`
}

// UserSummary carries the display fields of a message sender.
type UserSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// MessageResponse is the serialized representation of a chat message with
// sender display fields resolved.
type MessageResponse struct {
	ID             uint        `json:"id"`
	ConversationID uint        `json:"conversation_id"`
	SenderID       uint        `json:"sender_id"`
	Sender         UserSummary `json:"sender"`
	Text           string      `json:"text"`
	Image          string      `json:"image,omitempty"`
	Audio          string      `json:"audio,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewUserSummary converts a user model into its display summary.
func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
	}
}

// NewMessageResponse converts a model into a DTO.
func NewMessageResponse(message models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Sender:         NewUserSummary(message.Sender),
		Text:           message.Text,
		Image:          message.Image,
		Audio:          message.Audio,
		CreatedAt:      message.CreatedAt,
	}
}

// NewMessageResponseSlice converts a slice of models into DTOs.
func NewMessageResponseSlice(messages []models.ChatMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
