package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/config"
	"github.com/kinshipapp/kinship/internal/gateway"
	"github.com/kinshipapp/kinship/internal/handler"
	"github.com/kinshipapp/kinship/internal/repository"
	"github.com/kinshipapp/kinship/internal/router"
	"github.com/kinshipapp/kinship/internal/service"
	"github.com/kinshipapp/kinship/pkg/constant"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

	// Initialize repositories
	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	// Initialize services
	authService := service.NewAuthService(repos, cfg)
	notifService := service.NewNotificationService(repos)
	userService := service.NewUserService(repos, notifService)
	messagingService := service.NewMessagingService(repos)

	// Initialize WebSocket gateway
	wsServer := gateway.NewWsServer(cfg, repos.Redis)
	messagingService.SetPusher(wsServer)
	notifService.SetPusher(wsServer)

	wsServer.Run(ctx)
	log.CtxInfo(ctx, "websocket gateway started")

	// The gateway listens on its own port so upgrades bypass the hertz
	// middleware chain; authentication happens before the upgrade.
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", wsServer.HandleConnection)
	wsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.WSPort),
		Handler: wsMux,
	}
	go func() {
		log.CtxInfo(ctx, "websocket listener starting on port %d", cfg.Server.WSPort)
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.CtxError(ctx, "websocket listener error: %v", err)
		}
	}()

	// Initialize handlers
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Conversation: handler.NewConversationHandler(messagingService),
		Message:      handler.NewMessageHandler(messagingService),
		Notification: handler.NewNotificationHandler(notifService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	router.SetupRouter(h, handlers)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		log.CtxError(ctx, "websocket listener shutdown error: %v", err)
	}
	if err := h.Shutdown(shutdownCtx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
