package repository

import (
	"context"
	"errors"

	"github.com/kinshipapp/kinship/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepo is the repository for conversation operations
type ConversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetById gets a conversation by id
func (r *ConversationRepo) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// GetByPairKey gets a direct conversation by its canonical pair key
func (r *ConversationRepo) GetByPairKey(ctx context.Context, pairKey string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// FindOrCreateDirect returns the direct conversation for the pair,
// creating it atomically if needed. The unique index on pair_key closes
// the check-then-create race: concurrent callers all insert-or-ignore on
// the same key and the losers re-fetch the winner's row. Returns the
// conversation and whether this call created it.
func (r *ConversationRepo) FindOrCreateDirect(ctx context.Context, id, userA, userB string) (*entity.Conversation, bool, error) {
	pairKey := entity.DirectPairKey(userA, userB)

	// Fast path: most calls hit an existing conversation.
	if conv, err := r.GetByPairKey(ctx, pairKey); err != nil {
		return nil, false, err
	} else if conv != nil {
		return conv, false, nil
	}

	now := entity.NowUnixMilli()
	conv := &entity.Conversation{
		Id:        id,
		Type:      entity.ConversationDirect,
		PairKey:   &pairKey,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(conv)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race; the winner also created the member rows.
			return nil
		}

		created = true
		slots := entity.DirectSlots(userA, userB)
		for userId, slot := range slots {
			member := &entity.ConversationMember{
				ConversationId: conv.Id,
				UserId:         userId,
				Slot:           slot,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		existing, err := r.GetByPairKey(ctx, pairKey)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, gorm.ErrRecordNotFound
		}
		return existing, false, nil
	}

	return conv, true, nil
}

// CreateGroup creates a group conversation together with its member rows
func (r *ConversationRepo) CreateGroup(ctx context.Context, conv *entity.Conversation, memberIds []string) error {
	now := entity.NowUnixMilli()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, userId := range memberIds {
			member := &entity.ConversationMember{
				ConversationId: conv.Id,
				UserId:         userId,
				Slot:           entity.SlotGroup,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetMember gets a member row, nil if userId does not participate
func (r *ConversationRepo) GetMember(ctx context.Context, conversationId, userId string) (*entity.ConversationMember, error) {
	var member entity.ConversationMember
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationId, userId).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// GetMembers gets all member rows of a conversation
func (r *ConversationRepo) GetMembers(ctx context.Context, conversationId string) ([]*entity.ConversationMember, error) {
	var members []*entity.ConversationMember
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("slot ASC, user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// GetMembersForConversations gets member rows for a set of conversations
func (r *ConversationRepo) GetMembersForConversations(ctx context.Context, conversationIds []string) (map[string][]*entity.ConversationMember, error) {
	if len(conversationIds) == 0 {
		return map[string][]*entity.ConversationMember{}, nil
	}

	var members []*entity.ConversationMember
	err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", conversationIds).
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	byConv := make(map[string][]*entity.ConversationMember, len(conversationIds))
	for _, m := range members {
		byConv[m.ConversationId] = append(byConv[m.ConversationId], m)
	}
	return byConv, nil
}

// ListByUser lists all conversations userId participates in, joined with
// the caller's unread counter, most recent activity first.
func (r *ConversationRepo) ListByUser(ctx context.Context, userId string) ([]*entity.ConversationWithUnread, error) {
	var results []*entity.ConversationWithUnread

	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select("c.*, m.unread_count AS unread_count").
		Joins("JOIN conversation_members m ON m.conversation_id = c.id").
		Where("m.user_id = ?", userId).
		Order("COALESCE(c.last_message_at, c.updated_at) DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IncrementUnread adds one to the unread counter of every member except
// excludeUserId. The increment is a single SQL update so concurrent
// sends to the same conversation never lose counts.
func (r *ConversationRepo) IncrementUnread(ctx context.Context, tx *gorm.DB, conversationId, excludeUserId string) error {
	return tx.WithContext(ctx).
		Model(&entity.ConversationMember{}).
		Where("conversation_id = ? AND user_id <> ?", conversationId, excludeUserId).
		Updates(map[string]interface{}{
			"unread_count": gorm.Expr("unread_count + ?", 1),
			"updated_at":   entity.NowUnixMilli(),
		}).Error
}

// ResetUnread sets the unread counter of one member to zero. Resetting
// an already-zero counter is a no-op.
func (r *ConversationRepo) ResetUnread(ctx context.Context, conversationId, userId string) error {
	return r.db.WithContext(ctx).
		Model(&entity.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ? AND unread_count <> 0", conversationId, userId).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"updated_at":   entity.NowUnixMilli(),
		}).Error
}

// TouchLastMessage updates the last-message timestamp of a conversation
func (r *ConversationRepo) TouchLastMessage(ctx context.Context, tx *gorm.DB, conversationId string, at int64) error {
	return tx.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", conversationId).
		Updates(map[string]interface{}{
			"last_message_at": at,
			"updated_at":      at,
		}).Error
}
