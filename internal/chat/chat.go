// Package chat turns chat transport messages into votes and control
// intents, runs the vote window and reports progress as chat events.
package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/command"
	"github.com/lox/chatjack/internal/events"
	"github.com/lox/chatjack/internal/vote"
)

const owner = "chat"

// Message is one chat line as delivered by a transport. User is the
// stable identity votes are counted by; Name is what people see.
type Message struct {
	User        string
	Name        string
	Text        string
	Moderator   bool
	Broadcaster bool
}

// DisplayName returns Name, or User when the transport has no display
// name
func (m Message) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.User
}

// Privileged reports whether the sender may issue control commands
func (m Message) Privileged() bool { return m.Moderator || m.Broadcaster }

// Config controls voting and who may drive the table
type Config struct {
	VoteDuration   time.Duration
	Default        command.Command
	ModeratorsOnly bool
}

// DefaultConfig returns fifteen second votes that default to standing
func DefaultConfig() Config {
	return Config{
		VoteDuration:   15 * time.Second,
		Default:        command.Stand,
		ModeratorsOnly: true,
	}
}

var controlEvents = map[command.Command]events.ChatType{
	command.Start:   events.ChatStart,
	command.Restart: events.ChatRestart,
	command.Stop:    events.ChatStop,
}

// Dispatcher runs fn on the session's event loop
type Dispatcher func(fn func())

// Chat is the chat side of a session.
type Chat struct {
	logger   *log.Logger
	bus      *events.Bus
	cfg      Config
	poll     *vote.Poll[command.Command]
	dispatch Dispatcher

	voteID uint64
}

// Option configures a Chat
type Option func(*Chat)

// WithDispatcher delivers vote deadlines through d instead of on the
// timer goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Chat) { c.dispatch = d }
}

// New creates a chat bound to bus. Call Start to subscribe.
func New(logger *log.Logger, bus *events.Bus, clock quartz.Clock, cfg Config, opts ...Option) *Chat {
	if cfg.Default == "" {
		cfg.Default = command.Stand
	}
	if cfg.VoteDuration <= 0 {
		cfg.VoteDuration = DefaultConfig().VoteDuration
	}
	c := &Chat{
		logger:   logger.WithPrefix("chat"),
		bus:      bus,
		cfg:      cfg,
		poll:     vote.NewPoll[command.Command](logger, clock),
		dispatch: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to vote starts and stopped rounds
func (c *Chat) Start() {
	events.On(c.bus, owner, c.onVoteStart)
	events.On(c.bus, owner, c.onGameState)
}

// Close cancels any open vote and unsubscribes
func (c *Chat) Close() {
	c.poll.Cancel()
	c.bus.UnsubscribeOwner(owner)
}

// Connected reports that the transport joined the channel
func (c *Chat) Connected() {
	c.logger.Info("Chat connected")
	c.bus.Emit(events.ChatEvent{Type: events.ChatConnected})
}

// Disconnected reports that the transport lost the channel
func (c *Chat) Disconnected() {
	c.logger.Warn("Chat disconnected")
	c.bus.Emit(events.ChatEvent{Type: events.ChatDisconnected})
}

// Voting reports whether a vote window is open
func (c *Chat) Voting() bool { return c.poll.IsOpen() }

// Remaining returns the time left in the open vote
func (c *Chat) Remaining() time.Duration { return c.poll.Remaining() }

// Tally returns the current vote counts
func (c *Chat) Tally() map[command.Command]int { return c.poll.Counts() }

// HandleMessage interprets one chat line. Lines that are not commands
// are ignored.
func (c *Chat) HandleMessage(msg Message) {
	cmd, ok := command.Parse(msg.Text)
	if !ok {
		return
	}
	logger := c.logger.With("user", msg.DisplayName(), "command", cmd)

	if cmd.IsVote() {
		err := c.poll.Cast(msg.User, cmd)
		switch {
		case errors.Is(err, vote.ErrWindowClosed):
			logger.Warn("Late vote rejected")
		case errors.Is(err, vote.ErrNotAnOption):
			logger.Debug("Vote for an option not on offer")
		case err == nil:
			logger.Debug("Vote registered")
		}
		return
	}

	if !cmd.IsControl() {
		return
	}
	if c.cfg.ModeratorsOnly && !msg.Privileged() {
		logger.Warn("Ignoring control command from non-moderator")
		return
	}

	logger.Info("Control command")
	c.bus.Emit(events.ChatEvent{Type: controlEvents[cmd], User: msg.DisplayName()})
}

func (c *Chat) onVoteStart(e events.VoteStartEvent) {
	d := e.Duration
	if d <= 0 {
		d = c.cfg.VoteDuration
	}
	voteID := e.VoteID
	c.voteID = voteID

	onChange := func(cmd command.Command, count int) {
		c.bus.Emit(events.ChatEvent{Type: events.ChatVoteUpdate, Command: cmd, Count: count, VoteID: voteID})
	}
	onClose := func(winner command.Command) {
		c.dispatch(func() {
			c.logger.Info("Vote ended", "vote", voteID, "winner", winner)
			c.bus.Emit(events.ChatEvent{Type: events.ChatVoteEnd, Command: winner, VoteID: voteID})
		})
	}
	c.logger.Info("Vote started", "vote", voteID, "player", e.Player, "options", e.Options, "duration", d)
	c.poll.Open(e.Options, c.cfg.Default, d, onChange, onClose)
}

func (c *Chat) onGameState(e events.GameStateEvent) {
	if e.State.Type != blackjack.GameStateStop {
		return
	}
	if c.poll.Cancel() {
		c.logger.Info("Vote cancelled by stopped round", "vote", c.voteID)
	}
}
