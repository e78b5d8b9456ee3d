package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rescuelink/rescue-go-api/internal/models"
)

// MessageRepository persists chat messages and serves conversation history.
type MessageRepository interface {
	Save(ctx context.Context, message *models.ChatMessage) error
	ListByConversation(ctx context.Context, conversationID uint) ([]models.ChatMessage, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Save(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Preload("Sender").
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
