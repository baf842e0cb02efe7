package repository

import (
	"context"
	"errors"

	"github.com/kinshipapp/kinship/internal/entity"
	"gorm.io/gorm"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create creates a new message
func (r *MessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *entity.Message) error {
	if msg.CreatedAt == 0 {
		msg.CreatedAt = entity.NowUnixMilli()
	}
	return tx.WithContext(ctx).Create(msg).Error
}

// ListBefore pulls up to limit messages strictly older than cursor
// (cursor 0 means newest). Rows come back in ascending creation order
// for display; the caller derives the next cursor from the first row.
func (r *MessageRepo) ListBefore(ctx context.Context, conversationId string, cursor int64, limit int) ([]*entity.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationId)
	if cursor > 0 {
		q = q.Where("created_at < ?", cursor)
	}

	var messages []*entity.Message
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to ascending order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// GetLatest gets the most recent message of a conversation, nil if none
func (r *MessageRepo) GetLatest(ctx context.Context, conversationId string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// MarkReadExceptSender marks every unread message in the conversation
// not sent by readerId as read. Safe to repeat; already-read rows are
// untouched.
func (r *MessageRepo) MarkReadExceptSender(ctx context.Context, conversationId, readerId string, at int64) error {
	return r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationId, readerId, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error
}

// CountByConversation counts messages in a conversation
func (r *MessageRepo) CountByConversation(ctx context.Context, conversationId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationId).
		Count(&count).Error
	return count, err
}
