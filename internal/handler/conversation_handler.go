package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/kinshipapp/kinship/internal/middleware"
	"github.com/kinshipapp/kinship/internal/service"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/kinshipapp/kinship/pkg/response"
)

// ConversationHandler handles conversation-related requests
type ConversationHandler struct {
	messagingService *service.MessagingService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(messagingService *service.MessagingService) *ConversationHandler {
	return &ConversationHandler{messagingService: messagingService}
}

// directRequest represents direct conversation request
type directRequest struct {
	UserId string `json:"user_id"`
}

// CreateDirect handles find-or-create direct conversation request
func (h *ConversationHandler) CreateDirect(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req directRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	conv, err := h.messagingService.FindOrCreateDirect(ctx, userId, req.UserId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, conv)
}

// CreateGroup handles group conversation creation request
func (h *ConversationHandler) CreateGroup(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.CreateGroupRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	conv, err := h.messagingService.CreateGroup(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, conv)
}

// List handles conversation list request
func (h *ConversationHandler) List(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	convs, err := h.messagingService.ListConversations(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, convs)
}
