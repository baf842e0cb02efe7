package repository

import (
	"context"
	"errors"

	"github.com/kinshipapp/kinship/internal/entity"
	"gorm.io/gorm"
)

// NotificationRepo is the repository for notification operations
type NotificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo creates a new NotificationRepo
func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create creates a new notification
func (r *NotificationRepo) Create(ctx context.Context, notif *entity.Notification) error {
	if notif.CreatedAt == 0 {
		notif.CreatedAt = entity.NowUnixMilli()
	}
	return r.db.WithContext(ctx).Create(notif).Error
}

// GetById gets a notification scoped to its recipient, nil if absent
func (r *NotificationRepo) GetById(ctx context.Context, recipientId, id string) (*entity.Notification, error) {
	var notif entity.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientId).
		First(&notif).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notif, nil
}

// ListByRecipient lists notifications newest first, strictly older than
// cursor when cursor > 0.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientId string, cursor int64, limit int) ([]*entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientId)
	if cursor > 0 {
		q = q.Where("created_at < ?", cursor)
	}

	var notifs []*entity.Notification
	err := q.Order("created_at DESC").Limit(limit).Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// MarkRead marks a single notification as read. Marking an already-read
// row affects nothing, which keeps the operation idempotent.
func (r *NotificationRepo) MarkRead(ctx context.Context, recipientId, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientId, false).
		Update("is_read", true).Error
}

// MarkAllRead marks every unread notification of the recipient as read
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientId string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientId, false).
		Update("is_read", true).Error
}

// CountUnread counts unread notifications of the recipient
func (r *NotificationRepo) CountUnread(ctx context.Context, recipientId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientId, false).
		Count(&count).Error
	return count, err
}
