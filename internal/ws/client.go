package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"arena_client/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Controller executes the commands UI clients send
type Controller interface {
	SubmitMove(ctx context.Context, p MovePayload) (uint8, error)
	Cancel(ctx context.Context) error
}

type Client struct {
	Identity string
	Conn     *websocket.Conn
	Hub      *Hub

	ctrl   Controller
	sendCh chan []byte
	mu     sync.Mutex
	closed bool
}

func NewClient(identity string, conn *websocket.Conn, hub *Hub, ctrl Controller) *Client {
	return &Client{
		Identity: identity,
		Conn:     conn,
		Hub:      hub,
		ctrl:     ctrl,
		sendCh:   make(chan []byte, 256),
	}
}

// Run serves the connection until the peer goes away
func (c *Client) Run() {
	go c.writePump()
	c.Hub.Register(c)
	c.readPump()
}

func (c *Client) send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.sendCh <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.sendCh)
	}
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "identity", c.Identity, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.send(encode(MsgError, ErrorPayload{Message: "invalid message"}))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	switch env.Type {
	case MsgPing:
		c.send(encode(MsgPong, nil))
	case MsgMove:
		var p MovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.send(encode(MsgError, ErrorPayload{Message: "invalid move payload"}))
			return
		}
		id, err := c.ctrl.SubmitMove(ctx, p)
		if err != nil {
			c.send(encode(MsgError, ErrorPayload{Message: err.Error()}))
			return
		}
		c.send(encode(MsgAck, AckPayload{MoveID: id}))
	case MsgCancel:
		if err := c.ctrl.Cancel(ctx); err != nil {
			c.send(encode(MsgError, ErrorPayload{Message: err.Error()}))
		}
	default:
		c.send(encode(MsgError, ErrorPayload{Message: "unknown message type: " + env.Type}))
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "identity", c.Identity, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
