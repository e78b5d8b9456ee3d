package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rescuelink/rescue-go-api/internal/models"
)

func seedNotifications(t *testing.T, db *gorm.DB, userID uint, count int) {
	t.Helper()

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		notification := models.Notification{
			UserID:         userID,
			SenderID:       userID + 1,
			ConversationID: 7,
			Type:           "message",
			Message:        fmt.Sprintf("notification %d", i),
			Metadata:       datatypes.JSONMap{"sender_name": "Beni Kato"},
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&notification).Error)
	}
}

func TestNotificationRepositoryListsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	seedNotifications(t, db, 1, 3)
	seedNotifications(t, db, 2, 1)

	notifications, err := repo.ListByUser(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 3)

	assert.Equal(t, "notification 2", notifications[0].Message)
	assert.Equal(t, "notification 0", notifications[2].Message)
	assert.Equal(t, "Beni Kato", notifications[0].Metadata["sender_name"])
}

func TestNotificationRepositoryPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	seedNotifications(t, db, 1, 5)

	page, err := repo.ListByUser(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "notification 2", page[0].Message)
	assert.Equal(t, "notification 1", page[1].Message)

	// Out-of-range limits fall back to the default page size.
	all, err := repo.ListByUser(context.Background(), 1, 500, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestNotificationRepositoryMarkReadIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	seedNotifications(t, db, 1, 1)

	var created models.Notification
	require.NoError(t, db.First(&created).Error)
	require.False(t, created.Read)

	first, err := repo.MarkRead(context.Background(), created.ID, 1)
	require.NoError(t, err)
	assert.True(t, first.Read)

	again, err := repo.MarkRead(context.Background(), created.ID, 1)
	require.NoError(t, err)
	assert.True(t, again.Read)
}

func TestNotificationRepositoryMarkReadEnforcesOwnership(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	seedNotifications(t, db, 1, 1)

	var created models.Notification
	require.NoError(t, db.First(&created).Error)

	_, err := repo.MarkRead(context.Background(), created.ID, 99)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
