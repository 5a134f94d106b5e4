// Package server bridges a session to browser renderers over WebSocket.
//
// Every connected renderer receives the session's game states and vote
// progress. The earliest connected renderer is the presenter: its
// animation_complete acknowledgements are forwarded to the session and
// pace the game. The others are spectators. With no renderer connected
// the server acknowledges every game state itself after a configurable
// delay, so a table keeps playing headless.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/chatjack/internal/events"
	"github.com/lox/chatjack/internal/session"
)

// Session is the part of a session the bridge drives
type Session interface {
	ID() string
	Bus() *events.Bus
	Acknowledge(seq uint64) bool
	Status(ctx context.Context) (session.Status, error)
}

// Config configures the bridge
type Config struct {
	Addr    string
	AutoAck time.Duration
}

// Server represents the WebSocket server
type Server struct {
	addr     string
	autoAck  time.Duration
	session  Session
	clock    quartz.Clock
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[*Connection]bool
	nextSerial  uint64
	presenter   *Connection
	lastState   *Message
	lastPrompt  *Message
	lastSeq     uint64
	ackTimer    *quartz.Timer
}

// NewServer creates a bridge for sess
func NewServer(logger *log.Logger, clock quartz.Clock, sess Session, cfg Config) *Server {
	return &Server{
		addr:    cfg.Addr,
		autoAck: cfg.AutoAck,
		session: sess,
		clock:   clock,
		logger:  logger.WithPrefix("server").With("session", sess.ID()),
		upgrader: websocket.Upgrader{
			// Renderers are browser sources served from anywhere
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
	}
}

// Attach subscribes the bridge to the session's events. The returned
// function detaches it again.
func (s *Server) Attach() func() {
	bus := s.session.Bus()
	forward := func(e events.Event) { s.forward(e) }

	detach := []func(){
		bus.Subscribe(events.KindGameState, "server", forward, events.Remote()),
		bus.Subscribe(events.KindVoteStart, "server", forward, events.Remote()),
		bus.Subscribe(events.KindWaitForStart, "server", forward, events.Remote()),
		bus.Subscribe(events.KindChat, "server", forward, events.Remote()),
	}

	return func() {
		for _, fn := range detach {
			fn()
		}
		s.mu.Lock()
		if s.ackTimer != nil {
			s.ackTimer.Stop()
			s.ackTimer = nil
		}
		s.mu.Unlock()
	}
}

// Handler returns the bridge's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// Run serves HTTP until ctx is cancelled. Attach first so no event
// published before the listener is up is missed.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every renderer connection
func (s *Server) Stop() {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Connections returns how many renderers are connected
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	client.Start()
	s.register(client)

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSerial++
	c.serial = s.nextSerial
	s.connections[c] = true
	if s.presenter == nil {
		s.presenter = c
		// The presenter replays the current state, so it owns the ack now.
		if s.ackTimer != nil {
			s.ackTimer.Stop()
			s.ackTimer = nil
		}
	}
	s.logger.Info("Renderer connected", "conn", c.id, "presenter", s.presenter == c, "total", len(s.connections))

	s.welcome(c)
	for _, msg := range []*Message{s.lastState, s.lastPrompt} {
		if msg != nil {
			_ = c.SendMessage(msg)
		}
	}
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connections[c] {
		return
	}
	delete(s.connections, c)
	s.logger.Info("Renderer disconnected", "conn", c.id, "total", len(s.connections))

	if s.presenter != c {
		return
	}
	s.presenter = nil
	for conn := range s.connections {
		if s.presenter == nil || conn.serial < s.presenter.serial {
			s.presenter = conn
		}
	}
	if s.presenter != nil {
		s.logger.Info("Promoted presenter", "conn", s.presenter.id)
		s.welcome(s.presenter)
		if s.lastState != nil {
			_ = s.presenter.SendMessage(s.lastState)
		}
		return
	}
	// Nobody left to finish the animation. Stale acks are ignored
	// downstream, so acknowledging the last state is always safe.
	if s.lastSeq > 0 {
		s.scheduleAck(s.lastSeq)
	}
}

// welcome must be called with s.mu held
func (s *Server) welcome(c *Connection) {
	msg, err := NewMessage(MessageTypeWelcome, WelcomeData{
		ConnectionID: c.id,
		SessionID:    s.session.ID(),
		Presenter:    s.presenter == c,
	})
	if err != nil {
		s.logger.Error("Failed to create welcome message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// forward runs on the session loop for every subscribed event
func (s *Server) forward(e events.Event) {
	msg, err := messageFor(e)
	if err != nil {
		s.logger.Error("Failed to encode event", "kind", e.Kind(), "error", err)
		return
	}
	if msg == nil {
		return
	}

	// Held through the broadcast so a renderer registering concurrently
	// gets the message exactly once, either replayed or broadcast.
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e := e.(type) {
	case events.GameStateEvent:
		s.lastState = msg
		s.lastPrompt = nil
		s.lastSeq = e.State.Seq
		if len(s.connections) == 0 {
			s.scheduleAck(e.State.Seq)
		}
	case events.VoteStartEvent, events.WaitForStartEvent:
		s.lastPrompt = msg
	case events.ChatEvent:
		if e.Type == events.ChatVoteEnd {
			s.lastPrompt = nil
		}
	}
	s.broadcast(msg)
}

// scheduleAck must be called with s.mu held
func (s *Server) scheduleAck(seq uint64) {
	if s.ackTimer != nil {
		s.ackTimer.Stop()
		s.ackTimer = nil
	}
	if s.autoAck <= 0 {
		s.logger.Debug("Auto-acknowledging", "seq", seq)
		s.session.Acknowledge(seq)
		return
	}
	s.ackTimer = s.clock.AfterFunc(s.autoAck, func() {
		s.logger.Debug("Auto-acknowledging", "seq", seq)
		s.session.Acknowledge(seq)
	}, "server", "autoack")
}

func (s *Server) acknowledge(c *Connection, seq uint64) {
	s.mu.RLock()
	presenter := s.presenter == c
	s.mu.RUnlock()

	if !presenter {
		c.logger.Debug("Ignoring spectator acknowledgement", "seq", seq)
		return
	}
	if !s.session.Acknowledge(seq) {
		c.logger.Warn("Session rejected acknowledgement", "seq", seq)
	}
}

// broadcast sends msg to every renderer. s.mu must be held.
func (s *Server) broadcast(msg *Message) {
	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Failed to send message to renderer", "conn", conn.id, "error", err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// StatsResponse is served on /stats
type StatsResponse struct {
	session.Status
	Renderers int `json:"renderers"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Status(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(StatsResponse{Status: st, Renderers: s.Connections()}); err != nil {
		s.logger.Debug("Failed to write stats", "error", err)
	}
}
