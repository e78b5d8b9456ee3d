package models

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation is a persisted two-party messaging context. The core only
// reads participants; membership is managed elsewhere.
type Conversation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Participants []User    `gorm:"many2many:conversation_participants" json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatMessage represents a single persisted message within a conversation.
// At least one of Text/Image/Audio is non-empty; immutable after creation.
type ChatMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint      `gorm:"index;not null" json:"sender_id"`
	Sender         User      `gorm:"foreignKey:SenderID" json:"sender"`
	Text           string    `gorm:"type:text" json:"text"`
	Image          string    `gorm:"size:512" json:"image,omitempty"`
	Audio          string    `gorm:"size:512" json:"audio,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notification is a persisted cross-device notification record. Created by
// the message pipeline, mutated (read flag) only through the notification API.
type Notification struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"index;not null" json:"user_id"`
	SenderID       uint              `gorm:"index" json:"sender_id"`
	ConversationID uint              `gorm:"index" json:"conversation_id"`
	Type           string            `gorm:"size:64" json:"type"`
	Message        string            `gorm:"type:text" json:"message"`
	Read           bool              `gorm:"not null;default:false" json:"read"`
	Metadata       datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
