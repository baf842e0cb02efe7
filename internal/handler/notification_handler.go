package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/kinshipapp/kinship/internal/middleware"
	"github.com/kinshipapp/kinship/internal/service"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/kinshipapp/kinship/pkg/response"
)

// NotificationHandler handles notification-related requests
type NotificationHandler struct {
	notifService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

// List handles notification list request
func (h *NotificationHandler) List(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	cursor, _ := strconv.ParseInt(c.Query("cursor"), 10, 64)

	notifs, err := h.notifService.List(ctx, userId, cursor, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, notifs)
}

// UnreadCount handles unread count request
func (h *NotificationHandler) UnreadCount(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	count, err := h.notifService.UnreadCount(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]int64{"unread_count": count})
}

// markReadRequest represents mark-read request
type markReadRequest struct {
	NotificationId string `json:"notification_id"`
}

// MarkRead handles mark single notification read request
func (h *NotificationHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req markReadRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.NotificationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.notifService.MarkRead(ctx, userId, req.NotificationId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// MarkAllRead handles mark all notifications read request
func (h *NotificationHandler) MarkAllRead(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	if err := h.notifService.MarkAllRead(ctx, userId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
