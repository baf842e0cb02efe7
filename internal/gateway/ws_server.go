package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/config"
	"github.com/kinshipapp/kinship/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// WsServer is the WebSocket gateway. It owns the per-user rooms of this
// instance, a worker pool draining the emit queue, and the cross-instance
// fan-out bridge.
type WsServer struct {
	upgrader       *websocket.Upgrader
	cfg            *config.Config
	roomMap        *RoomMap
	fanout         *Fanout
	registerChan   chan *Client
	unregisterChan chan *Client
	pushChan       chan *EmitTask
	onlineUserNum  atomic.Int64
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// EmitTask is one queued event delivery to a user's local room
type EmitTask struct {
	UserId string
	Event  string
	Data   json.RawMessage
}

// NewWsServer creates a new WebSocket gateway
func NewWsServer(cfg *config.Config, rdb *redis.Client) *WsServer {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	server := &WsServer{
		upgrader:       upgrader,
		cfg:            cfg,
		roomMap:        NewRoomMap(rdb),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		pushChan:       make(chan *EmitTask, cfg.WebSocket.PushChannelSize),
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}
	server.fanout = NewFanout(rdb, cfg.Events.Topic, server.enqueueLocal)

	return server
}

// Run starts the gateway loops
func (s *WsServer) Run(ctx context.Context) {
	go s.eventLoop(ctx)
	go s.fanout.Run(ctx)

	workerNum := s.cfg.WebSocket.PushWorkerNum
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go s.pushLoop(ctx)
	}
	log.Info("started %d push workers", workerNum)
}

// eventLoop handles client registration and unregistration
func (s *WsServer) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		}
	}
}

// pushLoop drains the emit queue
func (s *WsServer) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.pushChan:
			s.processEmitTask(ctx, task)
		}
	}
}

// processEmitTask delivers one event to every connection in the target
// user's local room
func (s *WsServer) processEmitTask(ctx context.Context, task *EmitTask) {
	clients, ok := s.roomMap.GetAll(task.UserId)
	if !ok {
		return
	}

	for _, client := range clients {
		if err := client.Push(task.Event, task.Data); err != nil {
			log.CtxDebug(ctx, "push to client failed: user_id=%s, conn_id=%s, event=%s, error=%v",
				task.UserId, client.ConnId, task.Event, err)
		}
	}
}

// EmitToUser marshals the payload, delivers it to the user's local room
// and publishes the envelope for other instances. Implements the
// service-layer pusher contract: enqueue and return, never block or
// fail the caller.
func (s *WsServer) EmitToUser(userId, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn("marshal event payload failed: event=%s, user_id=%s, error=%v", event, userId, err)
		return
	}

	s.enqueueLocal(userId, event, data)
	s.fanout.Publish(context.Background(), userId, event, data)
}

// enqueueLocal queues one local delivery, dropping when the queue is full
func (s *WsServer) enqueueLocal(userId, event string, data json.RawMessage) {
	task := &EmitTask{
		UserId: userId,
		Event:  event,
		Data:   data,
	}

	select {
	case s.pushChan <- task:
	default:
		log.Warn("push channel full, event dropped: event=%s, user_id=%s", event, userId)
	}
}

// registerClient registers a client
func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	existingClients, exists := s.roomMap.GetAll(client.UserId)
	if !exists {
		s.onlineUserNum.Add(1)
	}

	s.roomMap.Register(ctx, client)
	s.onlineConnNum.Add(1)

	log.CtxInfo(ctx, "client registered: user_id=%s, conn_id=%s, existing_conns=%d, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, len(existingClients), s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// unregisterClient unregisters a client
func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	isUserOffline := s.roomMap.Unregister(ctx, client)
	s.onlineConnNum.Add(-1)

	if isUserOffline {
		s.onlineUserNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, conn_id=%s, user_offline=%v, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, isUserOffline, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// HandleConnection authenticates and upgrades one WebSocket connection.
// The token comes from the Authorization header or, for browser clients
// that cannot set headers on the upgrade, the token query parameter.
// Authentication failures are rejected before the upgrade.
func (s *WsServer) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.onlineConnNum.Load() >= s.maxConnNum {
		http.Error(w, "connection limit exceeded", http.StatusServiceUnavailable)
		return
	}

	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get(QueryToken)
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		log.CtxDebug(ctx, "token validation failed: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}

	connId := uuid.New().String()
	wsConn := NewWebSocketClientConn(conn, s.cfg.WebSocket.MaxMessageSize, s.cfg.WebSocket.PongWait, s.cfg.WebSocket.PingPeriod)
	client := NewClient(wsConn, claims.UserId, connId, s)

	s.registerChan <- client
	client.Start()
}

// IsOnline reports whether the user is online on any instance
func (s *WsServer) IsOnline(ctx context.Context, userId string) bool {
	return s.roomMap.IsOnline(ctx, userId)
}

// GetOnlineUserCount returns online user count on this instance
func (s *WsServer) GetOnlineUserCount() int64 {
	return s.onlineUserNum.Load()
}

// GetOnlineConnCount returns online connection count on this instance
func (s *WsServer) GetOnlineConnCount() int64 {
	return s.onlineConnNum.Load()
}

// bearerToken extracts a bearer token from the Authorization header
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return auth
}
