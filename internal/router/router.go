package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/kinshipapp/kinship/internal/handler"
	"github.com/kinshipapp/kinship/internal/middleware"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Notification *handler.NotificationHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers) {
	// CORS middleware
	h.Use(middleware.CORS())

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes (no auth required)
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
	}

	// User routes (auth required)
	userGroup := h.Group("/user", middleware.JWTAuth())
	{
		userGroup.GET("/info", handlers.User.GetUserInfo)
		userGroup.GET("/info/:user_id", handlers.User.GetUserInfoById)
		userGroup.PUT("/update", handlers.User.UpdateUserInfo)
		userGroup.POST("/follow", handlers.User.Follow)
		userGroup.POST("/unfollow", handlers.User.Unfollow)
	}

	// Conversation routes (auth required)
	convGroup := h.Group("/conversation", middleware.JWTAuth())
	{
		convGroup.POST("/direct", handlers.Conversation.CreateDirect)
		convGroup.POST("/group", handlers.Conversation.CreateGroup)
		convGroup.GET("/list", handlers.Conversation.List)
	}

	// Message routes (auth required)
	msgGroup := h.Group("/msg", middleware.JWTAuth())
	{
		msgGroup.POST("/send", handlers.Message.Send)
		msgGroup.GET("/list", handlers.Message.List)
	}

	// Notification routes (auth required)
	notifGroup := h.Group("/notification", middleware.JWTAuth())
	{
		notifGroup.GET("/list", handlers.Notification.List)
		notifGroup.GET("/unread_count", handlers.Notification.UnreadCount)
		notifGroup.POST("/read", handlers.Notification.MarkRead)
		notifGroup.POST("/read_all", handlers.Notification.MarkAllRead)
	}
}
