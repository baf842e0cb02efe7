package gateway

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"
)

// Client represents a connected WebSocket client. The push channel is
// strictly one way: the server emits event frames, the client listens.
// Anything the peer sends is drained to service ping/pong and close
// frames, then discarded.
type Client struct {
	conn      ClientConn
	UserId    string
	ConnId    string
	server    *WsServer
	closed    atomic.Bool
	closedErr error
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new client
func NewClient(conn ClientConn, userId, connId string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		UserId: userId,
		ConnId: connId,
		server: server,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the client read loop
func (c *Client) Start() {
	go c.readLoop()
}

// readLoop drains the connection until it drops. Reading is what
// delivers control frames and surfaces disconnects; inbound payloads
// carry no meaning on this channel.
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.CtxError(c.ctx, "client read loop panic: user_id=%s, error=%v", c.UserId, r)
		}
		c.close()
	}()

	for {
		_, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}

		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}
	}
}

// Push writes one event frame to the client
func (c *Client) Push(event string, data json.RawMessage) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	frame, err := json.Marshal(&PushFrame{Event: event, Data: data})
	if err != nil {
		return err
	}

	return c.conn.WriteMessage(frame)
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	c.Close()
	c.server.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
