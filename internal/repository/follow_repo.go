package repository

import (
	"context"

	"github.com/kinshipapp/kinship/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepo is the repository for follow edges
type FollowRepo struct {
	db *gorm.DB
}

// NewFollowRepo creates a new FollowRepo
func NewFollowRepo(db *gorm.DB) *FollowRepo {
	return &FollowRepo{db: db}
}

// Create inserts a follow edge. Returns false when the edge already
// existed (repeated follows are a no-op).
func (r *FollowRepo) Create(ctx context.Context, followerId, followeeId string) (bool, error) {
	follow := &entity.Follow{
		FollowerId: followerId,
		FolloweeId: followeeId,
		CreatedAt:  entity.NowUnixMilli(),
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
		DoNothing: true,
	}).Create(follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a follow edge
func (r *FollowRepo) Delete(ctx context.Context, followerId, followeeId string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerId, followeeId).
		Delete(&entity.Follow{}).Error
}

// Exists checks whether followerId follows followeeId
func (r *FollowRepo) Exists(ctx context.Context, followerId, followeeId string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerId, followeeId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
