package notification

import (
	"context"
	"time"

	"socialnet/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repo persists notification rows.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Save persists a new notification, filling id and timestamp.
func (r *Repo) Save(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// FindByProfileID returns the profile's notifications, newest first,
// older than the cursor.
func (r *Repo) FindByProfileID(ctx context.Context, profileID uuid.UUID, olderThan time.Time, limit int) ([]models.Notification, error) {
	if olderThan.IsZero() {
		olderThan = time.Now().UTC()
	}
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND created_at < ?", profileID, olderThan).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// CountUnread counts the profile's unread notifications.
func (r *Repo) CountUnread(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("profile_id = ? AND read = ?", profileID, false).
		Count(&count).Error
	return count, err
}

// MarkAs flips the read and/or visited flags on the given notifications
// and returns the updated rows.
func (r *Repo) MarkAs(ctx context.Context, notificationIDs []uuid.UUID, read, visited *bool) ([]models.Notification, error) {
	updates := map[string]any{}
	if read != nil {
		updates["read"] = *read
	}
	if visited != nil {
		updates["visited"] = *visited
	}
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id IN ?", notificationIDs).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("id IN ?", notificationIDs).
		Find(&notifications).Error
	return notifications, err
}
