package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/kinshipapp/kinship/internal/repository"
	"github.com/kinshipapp/kinship/pkg/errcode"
)

// UserService handles user profile and follow operations
type UserService struct {
	userRepo   *repository.UserRepo
	followRepo *repository.FollowRepo
	notifSvc   *NotificationService
}

// NewUserService creates a new UserService
func NewUserService(repos *repository.Repositories, notifSvc *NotificationService) *UserService {
	return &UserService{
		userRepo:   repos.User,
		followRepo: repos.Follow,
		notifSvc:   notifSvc,
	}
}

// GetUserInfo gets public user info by id
func (s *UserService) GetUserInfo(ctx context.Context, userId string) (*entity.UserInfo, error) {
	user, err := s.userRepo.GetById(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get user failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	return user.ToUserInfo(), nil
}

// GetUserInfos gets public user info for a set of ids
func (s *UserService) GetUserInfos(ctx context.Context, userIds []string) ([]*entity.UserInfo, error) {
	users, err := s.userRepo.GetByIds(ctx, userIds)
	if err != nil {
		log.CtxError(ctx, "get users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.ToUserInfo())
	}
	return infos, nil
}

// UpdateUserRequest represents profile update request
type UpdateUserRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// UpdateUserInfo updates the caller's profile fields that are set
func (s *UserService) UpdateUserInfo(ctx context.Context, userId string, req *UpdateUserRequest) error {
	updates := make(map[string]interface{})
	if req.Nickname != "" {
		updates["nickname"] = req.Nickname
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if len(updates) == 0 {
		return errcode.ErrInvalidParam
	}

	if err := s.userRepo.Update(ctx, userId, updates); err != nil {
		log.CtxError(ctx, "update user failed: user_id=%s, error=%v", userId, err)
		return errcode.ErrInternalServer
	}
	return nil
}

// Follow makes followerId follow followeeId. Following someone who is
// already followed succeeds without a new edge; only a genuinely new
// edge notifies the followee.
func (s *UserService) Follow(ctx context.Context, followerId, followeeId string) error {
	if followeeId == "" {
		return errcode.ErrInvalidParam
	}
	if followerId == followeeId {
		return errcode.ErrInvalidParam
	}

	exists, err := s.userRepo.Exists(ctx, followeeId)
	if err != nil {
		log.CtxError(ctx, "check followee failed: %v", err)
		return errcode.ErrInternalServer
	}
	if !exists {
		return errcode.ErrUserNotFound
	}

	created, err := s.followRepo.Create(ctx, followerId, followeeId)
	if err != nil {
		log.CtxError(ctx, "create follow failed: follower_id=%s, followee_id=%s, error=%v", followerId, followeeId, err)
		return errcode.ErrInternalServer
	}

	if created {
		if _, err := s.notifSvc.Create(ctx, &CreateNotificationRequest{
			Type:        entity.NotificationFollow,
			ActorId:     followerId,
			RecipientId: followeeId,
		}); err != nil {
			log.CtxWarn(ctx, "follow notification failed: follower_id=%s, followee_id=%s, error=%v", followerId, followeeId, err)
		}
		log.CtxInfo(ctx, "follow created: follower_id=%s, followee_id=%s", followerId, followeeId)
	}

	return nil
}

// Unfollow removes the follow edge, succeeding even if none exists
func (s *UserService) Unfollow(ctx context.Context, followerId, followeeId string) error {
	if followeeId == "" {
		return errcode.ErrInvalidParam
	}

	if err := s.followRepo.Delete(ctx, followerId, followeeId); err != nil {
		log.CtxError(ctx, "delete follow failed: follower_id=%s, followee_id=%s, error=%v", followerId, followeeId, err)
		return errcode.ErrInternalServer
	}
	return nil
}

// IsFollowing reports whether followerId follows followeeId
func (s *UserService) IsFollowing(ctx context.Context, followerId, followeeId string) (bool, error) {
	following, err := s.followRepo.Exists(ctx, followerId, followeeId)
	if err != nil {
		log.CtxError(ctx, "check follow failed: %v", err)
		return false, errcode.ErrInternalServer
	}
	return following, nil
}
