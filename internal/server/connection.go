package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	rendererWriteTimeout = 10 * time.Second
	rendererIdleTimeout  = 60 * time.Second
	rendererPingInterval = rendererIdleTimeout * 9 / 10

	// Renderers only ever send small acknowledgements
	rendererReadLimit = 4096

	rendererQueueSize = 256
)

// ErrConnectionClosed is returned when sending to a renderer that has gone
var ErrConnectionClosed = websocket.ErrCloseSent

// Connection is one renderer's WebSocket. serial orders connections by
// arrival and decides who is promoted when the presenter leaves.
type Connection struct {
	id     string
	serial uint64
	ws     *websocket.Conn
	server *Server
	clock  quartz.Clock
	logger *log.Logger

	outbox chan *Message
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewConnection wraps ws for server
func NewConnection(ws *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &Connection{
		id:     id,
		ws:     ws,
		server: server,
		clock:  server.clock,
		logger: logger.WithPrefix("renderer").With("conn", id),
		outbox: make(chan *Message, rendererQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the connection id
func (c *Connection) ID() string { return c.id }

// Start runs the reader and writer goroutines
func (c *Connection) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }

// Close tears the connection down. It is safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.ws.Close()
	})
	return err
}

// SendMessage queues msg without blocking. A renderer that falls a whole
// queue behind is dropped rather than stalling the session loop.
func (c *Connection) SendMessage(msg *Message) error {
	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}

	select {
	case c.outbox <- msg:
		return nil
	default:
		c.logger.Warn("Renderer too slow, closing connection", "queued", len(c.outbox))
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) readLoop() {
	defer func() { _ = c.Close() }()

	c.ws.SetReadLimit(rendererReadLimit)
	extend := func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(rendererIdleTimeout))
	}
	_ = extend("")
	c.ws.SetPongHandler(extend)

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Connection) writeLoop() {
	ping := c.clock.NewTicker(rendererPingInterval, "renderer", "ping")
	defer func() {
		ping.Stop()
		_ = c.Close()
	}()

	deadline := func() { _ = c.ws.SetWriteDeadline(time.Now().Add(rendererWriteTimeout)) }

	for {
		select {
		case msg := <-c.outbox:
			deadline()
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug("Failed to write message", "type", msg.Type, "error", err)
				return
			}
		case <-ping.C:
			deadline()
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			deadline()
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// dispatch handles one frame from the renderer. Acknowledgements are the
// only thing a renderer is allowed to say.
func (c *Connection) dispatch(msg Message) {
	if msg.Type != MessageTypeAnimationComplete {
		c.reject("unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	var data AnimationCompleteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.reject("invalid_message", "animation_complete needs a seq")
		return
	}
	c.logger.Debug("Animation complete", "seq", data.Seq)
	c.server.acknowledge(c, data.Seq)
}

func (c *Connection) reject(code, text string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: text})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}
