// Package session assembles one game: engine, event bus, chat and
// mediator, all driven from a single event loop.
//
// Every mutation of the engine happens on the loop goroutine. Chat
// transports, renderers and timers hand work to the loop with Post (or
// the typed helpers HandleMessage and Acknowledge) and never touch the
// engine directly.
//
// Chat lines share a bounded queue and are dropped when it is full.
// Control work (vote deadlines, acknowledgements, connectivity) goes on
// a separate unbounded queue that the loop drains first, so a flood of
// chat can never stall a round.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/chat"
	"github.com/lox/chatjack/internal/deck"
	"github.com/lox/chatjack/internal/events"
	"github.com/lox/chatjack/internal/gameid"
	"github.com/lox/chatjack/internal/mediator"
	"github.com/lox/chatjack/internal/randutil"
)

var ErrClosed = errors.New("session closed")

// Config holds the settings for every part of a session
type Config struct {
	Game     blackjack.Config
	Chat     chat.Config
	Mediator mediator.Config
	Seed     int64
}

// Option configures a Session
type Option func(*options)

type options struct {
	deck  *deck.Deck
	id    string
	queue int
}

// WithDeck deals from a fixed deck, for scripted tables
func WithDeck(d *deck.Deck) Option {
	return func(o *options) { o.deck = d }
}

// WithID names the session instead of generating an id
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// Session is one table and the components that run it.
type Session struct {
	id      string
	seed    int64
	started time.Time
	logger  *log.Logger

	bus      *events.Bus
	engine   *blackjack.Engine
	chat     *chat.Chat
	mediator *mediator.Mediator

	actions   chan func()
	control   []func()
	controlMu sync.Mutex
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a session. Nothing runs until Run is called.
func New(logger *log.Logger, clock quartz.Clock, cfg Config, opts ...Option) (*Session, error) {
	o := options{queue: 256}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = gameid.New()
	}

	s := &Session{
		id:      o.id,
		seed:    randutil.Seed(cfg.Seed),
		logger:  logger.WithPrefix("session").With("session", o.id),
		actions: make(chan func(), o.queue),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if t, err := gameid.Time(o.id); err == nil {
		s.started = t
	} else {
		s.logger.Debug("Session id carries no creation time", "error", err)
	}
	s.bus = events.NewBus(s.logger)

	engineOpts := []blackjack.Option{
		blackjack.WithPublisher(events.GameStatePublisher(s.bus)),
		blackjack.WithRand(randutil.New(s.seed)),
	}
	if o.deck != nil {
		engineOpts = append(engineOpts, blackjack.WithDeck(o.deck))
	}
	engine, err := blackjack.NewEngine(s.logger, cfg.Game, engineOpts...)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	s.chat = chat.New(s.logger, s.bus, clock, cfg.Chat, chat.WithDispatcher(func(fn func()) { s.postControl(fn) }))
	s.mediator = mediator.New(s.logger, s.bus, engine, cfg.Mediator)
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Started returns when the session id was minted, zero for ids that
// are not session ids
func (s *Session) Started() time.Time { return s.started }

// Seed returns the shuffle seed in use, so a table can be replayed
func (s *Session) Seed() int64 { return s.seed }

// Bus returns the session's event bus. Handlers run on the loop and
// must not block.
func (s *Session) Bus() *events.Bus { return s.bus }

// Scoreboard returns the session's outcome counts. It is safe to read
// from any goroutine.
func (s *Session) Scoreboard() *blackjack.Scoreboard { return s.engine.Scoreboard() }

// Run starts the chat and mediator and processes posted work until ctx
// is cancelled, then tears the session down.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("Session started", "seed", s.seed)
	s.chat.Start()
	s.mediator.Start()
	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
			s.drainControl()
		case fn := <-s.actions:
			s.drainControl()
			fn()
		}
	}
}

// postControl queues fn ahead of chat work. It never blocks and never
// drops, so it is safe to call from the loop itself.
func (s *Session) postControl(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	s.controlMu.Lock()
	s.control = append(s.control, fn)
	s.controlMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Session) drainControl() {
	for {
		s.controlMu.Lock()
		pending := s.control
		s.control = nil
		s.controlMu.Unlock()

		if len(pending) == 0 {
			return
		}
		for _, fn := range pending {
			fn()
		}
	}
}

func (s *Session) teardown() {
	s.closeOnce.Do(func() { close(s.done) })
	s.chat.Close()
	s.mediator.Close()
	s.logger.Info("Session stopped", "rounds", s.engine.Round())
}

// Post queues fn behind pending chat work. It reports false once the
// session has stopped, or if the queue is full.
func (s *Session) Post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.actions <- fn:
		return true
	case <-s.done:
		return false
	default:
		s.logger.Warn("Session queue full, dropping work")
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	queued := false
	select {
	case s.actions <- func() { fn(); close(finished) }:
		queued = true
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !queued {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleMessage queues a chat line. Lines are dropped when chat
// outpaces the loop.
func (s *Session) HandleMessage(msg chat.Message) bool {
	return s.Post(func() { s.chat.HandleMessage(msg) })
}

// Connected queues a chat connection notice
func (s *Session) Connected() bool { return s.postControl(s.chat.Connected) }

// Disconnected queues a chat disconnection notice
func (s *Session) Disconnected() bool { return s.postControl(s.chat.Disconnected) }

// Acknowledge queues a renderer's animation acknowledgement for seq
func (s *Session) Acknowledge(seq uint64) bool {
	return s.postControl(func() { s.bus.Emit(events.AnimationCompleteEvent{Seq: seq}) })
}

// Status is a point-in-time view of the table for status endpoints
type Status struct {
	ID          string                       `json:"id"`
	Started     *time.Time                   `json:"started,omitempty"`
	Seed        int64                        `json:"seed"`
	Round       int                          `json:"round"`
	Phase       blackjack.Phase              `json:"phase"`
	Mediator    mediator.State               `json:"mediator"`
	AwaitingSeq uint64                       `json:"awaitingSeq,omitempty"`
	Voting      bool                         `json:"voting"`
	State       *blackjack.GameState         `json:"state,omitempty"`
	Scoreboard  blackjack.ScoreboardSnapshot `json:"scoreboard"`
}

// Status reads the table state on the loop.
func (s *Session) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.Do(ctx, func() { st = s.status() })
	return st, err
}

func (s *Session) status() Status {
	st := Status{
		ID:          s.id,
		Seed:        s.seed,
		Round:       s.engine.Round(),
		Phase:       s.engine.Phase(),
		Mediator:    s.mediator.State(),
		AwaitingSeq: s.mediator.AwaitingSeq(),
		Voting:      s.chat.Voting(),
		Scoreboard:  s.engine.Scoreboard().Snapshot(),
	}
	if !s.started.IsZero() {
		started := s.started
		st.Started = &started
	}
	if last := s.mediator.LastState(); last.Seq > 0 {
		st.State = &last
	}
	return st
}
