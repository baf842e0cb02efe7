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

// MessageHandler handles message-related requests
type MessageHandler struct {
	messagingService *service.MessagingService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messagingService *service.MessagingService) *MessageHandler {
	return &MessageHandler{messagingService: messagingService}
}

// sendRequest represents send message request
type sendRequest struct {
	ConversationId string `json:"conversation_id"`
	Content        string `json:"content"`
}

// Send handles send message request
func (h *MessageHandler) Send(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req sendRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if req.ConversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msg, err := h.messagingService.SendMessage(ctx, req.ConversationId, userId, req.Content)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, msg)
}

// List handles conversation history request
func (h *MessageHandler) List(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	cursor, _ := strconv.ParseInt(c.Query("cursor"), 10, 64)

	page, err := h.messagingService.GetMessages(ctx, conversationId, userId, limit, cursor)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, page)
}
