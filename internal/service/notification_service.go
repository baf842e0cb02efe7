package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/kinshipapp/kinship/internal/repository"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/kinshipapp/kinship/pkg/idgen"
)

// NotificationService handles side-channel alerts for social actions
type NotificationService struct {
	notifRepo *repository.NotificationRepo
	pusher    EventPusher
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repos *repository.Repositories) *NotificationService {
	return &NotificationService{
		notifRepo: repos.Notification,
	}
}

// SetPusher sets the event pusher
func (s *NotificationService) SetPusher(pusher EventPusher) {
	s.pusher = pusher
}

// CreateNotificationRequest represents notification creation request
type CreateNotificationRequest struct {
	Type        string `json:"type"`
	ActorId     string `json:"actor_id"`
	RecipientId string `json:"recipient_id"`
	TargetType  string `json:"target_type,omitempty"`
	TargetId    string `json:"target_id,omitempty"`
}

// Create persists a notification and delivers it best-effort. Actions a
// user performs on their own content never notify them: actor ==
// recipient returns nil without creating or delivering anything.
func (s *NotificationService) Create(ctx context.Context, req *CreateNotificationRequest) (*entity.Notification, error) {
	if !entity.ValidNotificationType(req.Type) {
		return nil, errcode.ErrNotifTypeInvalid
	}
	if req.ActorId == "" || req.RecipientId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if req.ActorId == req.RecipientId {
		return nil, nil
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate notification id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	notif := &entity.Notification{
		Id:          id,
		RecipientId: req.RecipientId,
		ActorId:     req.ActorId,
		Type:        req.Type,
		TargetType:  req.TargetType,
		TargetId:    req.TargetId,
		CreatedAt:   entity.NowUnixMilli(),
	}
	if err := s.notifRepo.Create(ctx, notif); err != nil {
		log.CtxError(ctx, "create notification failed: recipient_id=%s, type=%s, error=%v", req.RecipientId, req.Type, err)
		return nil, errcode.ErrInternalServer
	}

	s.deliver(ctx, notif)

	log.CtxInfo(ctx, "notification created: notification_id=%s, type=%s, actor_id=%s, recipient_id=%s",
		notif.Id, notif.Type, notif.ActorId, notif.RecipientId)
	return notif, nil
}

// CreateBatch applies Create semantics per item: self-notifications are
// filtered before any write, each remaining item is independent and a
// failed item never rolls back the others.
func (s *NotificationService) CreateBatch(ctx context.Context, reqs []*CreateNotificationRequest) []*entity.Notification {
	created := make([]*entity.Notification, 0, len(reqs))
	for _, req := range reqs {
		if req.ActorId == req.RecipientId {
			continue
		}
		notif, err := s.Create(ctx, req)
		if err != nil {
			log.CtxWarn(ctx, "batch notification item failed: recipient_id=%s, type=%s, error=%v", req.RecipientId, req.Type, err)
			continue
		}
		if notif != nil {
			created = append(created, notif)
		}
	}
	return created
}

// MarkRead marks one notification of userId as read. Marking an
// already-read notification succeeds without changing anything.
func (s *NotificationService) MarkRead(ctx context.Context, userId, notificationId string) error {
	notif, err := s.notifRepo.GetById(ctx, userId, notificationId)
	if err != nil {
		log.CtxError(ctx, "get notification failed: notification_id=%s, error=%v", notificationId, err)
		return errcode.ErrInternalServer
	}
	if notif == nil {
		return errcode.ErrNotifNotFound
	}
	if notif.IsRead {
		return nil
	}

	if err := s.notifRepo.MarkRead(ctx, userId, notificationId); err != nil {
		log.CtxError(ctx, "mark notification read failed: notification_id=%s, error=%v", notificationId, err)
		return errcode.ErrInternalServer
	}

	s.pushUnreadCount(ctx, userId)
	return nil
}

// MarkAllRead marks every unread notification of userId as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userId string) error {
	if err := s.notifRepo.MarkAllRead(ctx, userId); err != nil {
		log.CtxError(ctx, "mark all notifications read failed: user_id=%s, error=%v", userId, err)
		return errcode.ErrInternalServer
	}

	s.pushUnreadCount(ctx, userId)
	return nil
}

// UnreadCount returns the number of unread notifications of userId
func (s *NotificationService) UnreadCount(ctx context.Context, userId string) (int64, error) {
	count, err := s.notifRepo.CountUnread(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "count unread notifications failed: user_id=%s, error=%v", userId, err)
		return 0, errcode.ErrInternalServer
	}
	return count, nil
}

// List lists notifications of userId newest first
func (s *NotificationService) List(ctx context.Context, userId string, cursor int64, limit int) ([]*entity.Notification, error) {
	notifs, err := s.notifRepo.ListByRecipient(ctx, userId, cursor, limit)
	if err != nil {
		log.CtxError(ctx, "list notifications failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}
	return notifs, nil
}

// deliver pushes the notification and a fresh unread-count snapshot to
// the recipient's room. Best-effort only: the triggering business action
// already succeeded, so nothing here may propagate.
func (s *NotificationService) deliver(ctx context.Context, notif *entity.Notification) {
	if s.pusher == nil {
		return
	}

	s.pusher.EmitToUser(notif.RecipientId, entity.EventNotification, &entity.NotificationPayload{
		Id:         notif.Id,
		Type:       notif.Type,
		ActorId:    notif.ActorId,
		TargetType: notif.TargetType,
		TargetId:   notif.TargetId,
		IsRead:     notif.IsRead,
		CreatedAt:  notif.CreatedAt,
	})

	s.pushUnreadCount(ctx, notif.RecipientId)
}

// pushUnreadCount recomputes the unread count from storage and emits the
// snapshot. Recomputing keeps the figure correct under concurrent
// creation; a count failure only costs the push.
func (s *NotificationService) pushUnreadCount(ctx context.Context, userId string) {
	if s.pusher == nil {
		return
	}

	count, err := s.notifRepo.CountUnread(ctx, userId)
	if err != nil {
		log.CtxWarn(ctx, "recompute unread count failed: user_id=%s, error=%v", userId, err)
		return
	}

	s.pusher.EmitToUser(userId, entity.EventUnreadCount, &entity.UnreadCountPayload{UnreadCount: count})
}
