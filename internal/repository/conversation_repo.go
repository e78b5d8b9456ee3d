package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rescuelink/rescue-go-api/internal/models"
)

// ConversationRepository reads conversation membership for the message pipeline.
type ConversationRepository interface {
	FindByID(ctx context.Context, id uint) (models.Conversation, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository constructs a conversation repository backed by GORM.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint) (models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants").First(&conversation, id).Error; err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}
