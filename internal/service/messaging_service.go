package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/kinshipapp/kinship/internal/repository"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/kinshipapp/kinship/pkg/idgen"
	"gorm.io/gorm"
)

// EventPusher delivers events to a user's room. Implementations are
// fire-and-forget: delivery failure never reaches the caller.
type EventPusher interface {
	EmitToUser(userId, event string, payload interface{})
}

// MessagingService handles conversation lifecycle and message exchange
type MessagingService struct {
	convRepo *repository.ConversationRepo
	msgRepo  *repository.MessageRepo
	userRepo *repository.UserRepo
	repos    *repository.Repositories
	pusher   EventPusher
}

// NewMessagingService creates a new MessagingService
func NewMessagingService(repos *repository.Repositories) *MessagingService {
	return &MessagingService{
		convRepo: repos.Conversation,
		msgRepo:  repos.Message,
		userRepo: repos.User,
		repos:    repos,
	}
}

// SetPusher sets the event pusher
func (s *MessagingService) SetPusher(pusher EventPusher) {
	s.pusher = pusher
}

// FindOrCreateDirect returns the direct conversation between userId and
// peerId, creating it when none exists. Repeated and concurrent calls
// converge on the same conversation; uniqueness is enforced by the
// storage layer, not by a check here.
func (s *MessagingService) FindOrCreateDirect(ctx context.Context, userId, peerId string) (*entity.ConversationInfo, error) {
	if peerId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if userId == peerId {
		return nil, errcode.ErrSelfConversation
	}

	exists, err := s.userRepo.Exists(ctx, peerId)
	if err != nil {
		log.CtxError(ctx, "check peer exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !exists {
		return nil, errcode.ErrUserNotFound
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate conversation id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	conv, created, err := s.convRepo.FindOrCreateDirect(ctx, id, userId, peerId)
	if err != nil {
		log.CtxError(ctx, "find or create direct conversation failed: user_id=%s, peer_id=%s, error=%v", userId, peerId, err)
		return nil, errcode.ErrInternalServer
	}

	if created {
		log.CtxInfo(ctx, "direct conversation created: conversation_id=%s, user_id=%s, peer_id=%s", conv.Id, userId, peerId)
	}

	return s.buildConversationInfo(ctx, conv, userId)
}

// CreateGroupRequest represents group creation request
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIds []string `json:"member_ids"`
}

// CreateGroup creates a group conversation. The creator is always a
// member; member ids are deduped and validated against the directory.
func (s *MessagingService) CreateGroup(ctx context.Context, creatorId string, req *CreateGroupRequest) (*entity.ConversationInfo, error) {
	if req.Name == "" {
		return nil, errcode.ErrInvalidParam
	}

	memberSet := map[string]struct{}{creatorId: {}}
	for _, id := range req.MemberIds {
		if id != "" {
			memberSet[id] = struct{}{}
		}
	}
	if len(memberSet) < 2 {
		return nil, errcode.ErrEmptyGroup
	}

	memberIds := make([]string, 0, len(memberSet))
	for id := range memberSet {
		memberIds = append(memberIds, id)
	}

	users, err := s.userRepo.GetByIds(ctx, memberIds)
	if err != nil {
		log.CtxError(ctx, "load group members failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if len(users) != len(memberIds) {
		return nil, errcode.ErrUserNotFound
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate conversation id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	conv := &entity.Conversation{
		Id:        id,
		Type:      entity.ConversationGroup,
		Name:      req.Name,
		CreatorId: creatorId,
	}
	if err := s.convRepo.CreateGroup(ctx, conv, memberIds); err != nil {
		log.CtxError(ctx, "create group conversation failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "group conversation created: conversation_id=%s, creator_id=%s, members=%d", conv.Id, creatorId, len(memberIds))
	return s.buildConversationInfo(ctx, conv, creatorId)
}

// ListConversations lists all conversations of userId, enriched with the
// other participants' public profiles, the latest message and the
// caller's unread count, most recent activity first.
func (s *MessagingService) ListConversations(ctx context.Context, userId string) ([]*entity.ConversationInfo, error) {
	convs, err := s.convRepo.ListByUser(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}

	convIds := make([]string, 0, len(convs))
	for _, c := range convs {
		convIds = append(convIds, c.Id)
	}

	membersByConv, err := s.convRepo.GetMembersForConversations(ctx, convIds)
	if err != nil {
		log.CtxError(ctx, "load conversation members failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	// Collect every other participant across all conversations and
	// resolve their profiles in one directory call.
	otherIdSet := make(map[string]struct{})
	for _, c := range convs {
		others, err := entity.OtherMemberIds(c.Type, membersByConv[c.Id], userId)
		if err != nil {
			log.CtxError(ctx, "resolve participants failed: conversation_id=%s, error=%v", c.Id, err)
			return nil, errcode.ErrInternalServer
		}
		for _, id := range others {
			otherIdSet[id] = struct{}{}
		}
	}
	otherIds := make([]string, 0, len(otherIdSet))
	for id := range otherIdSet {
		otherIds = append(otherIds, id)
	}

	users, err := s.userRepo.GetByIds(ctx, otherIds)
	if err != nil {
		log.CtxError(ctx, "load profiles failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	profiles := make(map[string]*entity.UserInfo, len(users))
	for _, u := range users {
		profiles[u.Id] = u.ToUserInfo()
	}

	result := make([]*entity.ConversationInfo, 0, len(convs))
	for _, c := range convs {
		others, _ := entity.OtherMemberIds(c.Type, membersByConv[c.Id], userId)

		info := &entity.ConversationInfo{
			Id:            c.Id,
			Type:          c.Type,
			Name:          c.Name,
			CreatorId:     c.CreatorId,
			Members:       make([]*entity.UserInfo, 0, len(others)),
			UnreadCount:   c.UnreadCount,
			LastMessageAt: c.LastMessageAt,
			UpdatedAt:     c.UpdatedAt,
		}
		for _, id := range others {
			if p, ok := profiles[id]; ok {
				info.Members = append(info.Members, p)
			}
		}

		latest, err := s.msgRepo.GetLatest(ctx, c.Id)
		if err != nil {
			log.CtxError(ctx, "load latest message failed: conversation_id=%s, error=%v", c.Id, err)
			return nil, errcode.ErrInternalServer
		}
		if latest != nil {
			info.LastMessage = latest.ToMessageInfo()
		}

		result = append(result, info)
	}

	return result, nil
}

// MessagePage is one page of conversation history
type MessagePage struct {
	Messages   []*entity.MessageInfo `json:"messages"`
	NextCursor *int64                `json:"next_cursor"`
}

// GetMessages returns up to limit messages strictly older than cursor,
// oldest first for display. Fetching doubles as the read receipt: the
// caller's unread counter is reset and messages from others are marked
// read. Reset failures are logged and never fail the fetch.
func (s *MessagingService) GetMessages(ctx context.Context, conversationId, userId string, limit int, cursor int64) (*MessagePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	_, member, err := s.requireMember(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.ListBefore(ctx, conversationId, cursor, limit)
	if err != nil {
		log.CtxError(ctx, "list messages failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}

	now := entity.NowUnixMilli()
	if member.UnreadCount != 0 {
		if err := s.convRepo.ResetUnread(ctx, conversationId, userId); err != nil {
			log.CtxWarn(ctx, "reset unread failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
		}
	}
	if err := s.msgRepo.MarkReadExceptSender(ctx, conversationId, userId, now); err != nil {
		log.CtxWarn(ctx, "mark messages read failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
	}

	page := &MessagePage{
		Messages: make([]*entity.MessageInfo, 0, len(messages)),
	}
	for _, m := range messages {
		page.Messages = append(page.Messages, m.ToMessageInfo())
	}
	if len(messages) == limit {
		oldest := messages[0].CreatedAt
		page.NextCursor = &oldest
	}

	return page, nil
}

// SendMessage persists a message, bumps the conversation and every other
// member's unread counter in one transaction, then emits delivery events
// best-effort. A send succeeds once the write is durable, whatever
// happens to the push.
func (s *MessagingService) SendMessage(ctx context.Context, conversationId, senderId, content string) (*entity.MessageInfo, error) {
	if content == "" {
		return nil, errcode.ErrContentEmpty
	}
	if len(content) > entity.MaxContentLength {
		return nil, errcode.ErrContentTooLong
	}

	_, _, err := s.requireMember(ctx, conversationId, senderId)
	if err != nil {
		return nil, err
	}

	members, err := s.convRepo.GetMembers(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "load members failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate message id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	msg := &entity.Message{
		Id:             id,
		ConversationId: conversationId,
		SenderId:       senderId,
		Content:        content,
		CreatedAt:      entity.NowUnixMilli(),
	}

	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.msgRepo.Create(ctx, tx, msg); err != nil {
			return err
		}
		if err := s.convRepo.TouchLastMessage(ctx, tx, conversationId, msg.CreatedAt); err != nil {
			return err
		}
		return s.convRepo.IncrementUnread(ctx, tx, conversationId, senderId)
	})
	if err != nil {
		log.CtxError(ctx, "send message failed: conversation_id=%s, sender_id=%s, error=%v", conversationId, senderId, err)
		return nil, errcode.ErrSendFailed
	}

	// Real-time delivery is decoupled from the durable write above: the
	// pusher enqueues and returns, and a down broker or full queue only
	// degrades liveness, never the send.
	if s.pusher != nil {
		payload := &entity.NewMessagePayload{
			Id:             msg.Id,
			ConversationId: msg.ConversationId,
			SenderId:       msg.SenderId,
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt,
		}
		for _, m := range members {
			if m.UserId == senderId {
				continue
			}
			s.pusher.EmitToUser(m.UserId, entity.EventNewMessage, payload)
		}
		s.pusher.EmitToUser(senderId, entity.EventMessageSent, &entity.MessageSentPayload{
			Id:             msg.Id,
			ConversationId: msg.ConversationId,
			CreatedAt:      msg.CreatedAt,
		})
	}

	log.CtxInfo(ctx, "message sent: conversation_id=%s, sender_id=%s, message_id=%s", conversationId, senderId, msg.Id)
	return msg.ToMessageInfo(), nil
}

// requireMember loads the conversation and the caller's member row,
// mapping absence to ErrConvNotFound / ErrNoPermission.
func (s *MessagingService) requireMember(ctx context.Context, conversationId, userId string) (*entity.Conversation, *entity.ConversationMember, error) {
	conv, err := s.convRepo.GetById(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, nil, errcode.ErrInternalServer
	}
	if conv == nil {
		return nil, nil, errcode.ErrConvNotFound
	}

	member, err := s.convRepo.GetMember(ctx, conversationId, userId)
	if err != nil {
		log.CtxError(ctx, "get member failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
		return nil, nil, errcode.ErrInternalServer
	}
	if member == nil {
		return nil, nil, errcode.ErrNoPermission
	}

	return conv, member, nil
}

// buildConversationInfo assembles a ConversationInfo for one viewer
func (s *MessagingService) buildConversationInfo(ctx context.Context, conv *entity.Conversation, userId string) (*entity.ConversationInfo, error) {
	members, err := s.convRepo.GetMembers(ctx, conv.Id)
	if err != nil {
		log.CtxError(ctx, "load members failed: conversation_id=%s, error=%v", conv.Id, err)
		return nil, errcode.ErrInternalServer
	}

	others, err := entity.OtherMemberIds(conv.Type, members, userId)
	if err != nil {
		log.CtxError(ctx, "resolve participants failed: conversation_id=%s, error=%v", conv.Id, err)
		return nil, errcode.ErrInternalServer
	}

	users, err := s.userRepo.GetByIds(ctx, others)
	if err != nil {
		log.CtxError(ctx, "load profiles failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	info := &entity.ConversationInfo{
		Id:            conv.Id,
		Type:          conv.Type,
		Name:          conv.Name,
		CreatorId:     conv.CreatorId,
		Members:       make([]*entity.UserInfo, 0, len(users)),
		UnreadCount:   0,
		LastMessageAt: conv.LastMessageAt,
		UpdatedAt:     conv.UpdatedAt,
	}
	for _, u := range users {
		info.Members = append(info.Members, u.ToUserInfo())
	}

	for _, m := range members {
		if m.UserId == userId {
			info.UnreadCount = m.UnreadCount
		}
	}

	return info, nil
}
