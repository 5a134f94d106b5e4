// Package mediator sequences a round of blackjack around the renderer.
//
// The engine computes every step instantly, but the table must not move
// on until the renderer has finished presenting the previous step. The
// mediator remembers the last game state the engine announced and waits
// for an animation acknowledgement carrying that state's sequence
// number. The next step is then chosen from the acknowledged snapshot,
// never from live engine state, so a renderer that is behind cannot be
// overtaken.
//
//	waiting for start -> dealing -> voting -> player action -> ...
//	  -> reveal -> dealer action (repeats) -> judge -> waiting for start
package mediator

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/command"
	"github.com/lox/chatjack/internal/events"
)

const owner = "mediator"

// State is the mediator's position in the protocol
type State string

const (
	StateWaitingForStart State = "waiting_for_start"
	StateAnimating       State = "animating"
	StateVoting          State = "voting"
)

// Config holds voting options for the rounds the mediator runs
type Config struct {
	AllowSplit   bool
	VoteDuration time.Duration
}

type pendingVote struct {
	id     uint64
	player string
	hand   int
}

// Mediator drives an engine from chat intents and renderer
// acknowledgements.
type Mediator struct {
	logger *log.Logger
	bus    *events.Bus
	engine *blackjack.Engine
	cfg    Config

	state   State
	last    blackjack.GameState
	seq     uint64
	voteID  uint64
	pending *pendingVote
}

// New creates a mediator for engine. The engine must publish its game
// states onto bus.
func New(logger *log.Logger, bus *events.Bus, engine *blackjack.Engine, cfg Config) *Mediator {
	return &Mediator{
		logger: logger.WithPrefix("mediator"),
		bus:    bus,
		engine: engine,
		cfg:    cfg,
		state:  StateWaitingForStart,
	}
}

// Start subscribes to the bus and announces that the table is waiting.
func (m *Mediator) Start() {
	events.On(m.bus, owner, m.onChat)
	events.On(m.bus, owner, m.onGameState)
	events.On(m.bus, owner, m.onAnimationComplete)
	m.waitForStart("session started")
}

// Close unsubscribes from the bus
func (m *Mediator) Close() {
	n := m.bus.UnsubscribeOwner(owner)
	m.logger.Debug("Unsubscribed", "handlers", n)
	m.pending = nil
}

// State returns the current protocol state
func (m *Mediator) State() State { return m.state }

// AwaitingSeq returns the sequence number an acknowledgement must carry,
// zero when nothing is being animated.
func (m *Mediator) AwaitingSeq() uint64 {
	if m.state != StateAnimating {
		return 0
	}
	return m.seq
}

// LastState returns the most recent game state announced by the engine
func (m *Mediator) LastState() blackjack.GameState { return m.last }

func (m *Mediator) onGameState(e events.GameStateEvent) {
	m.last = e.State
	m.seq = e.State.Seq
	m.state = StateAnimating
	m.logger.Debug("Awaiting animation", "type", e.State.Type, "seq", e.State.Seq)
}

func (m *Mediator) onAnimationComplete(e events.AnimationCompleteEvent) {
	if m.state != StateAnimating || e.Seq != m.seq {
		m.logger.Warn("Ignoring stale animation acknowledgement", "seq", e.Seq, "awaiting", m.AwaitingSeq())
		return
	}
	m.advance(m.last)
}

// advance picks the step that follows the acknowledged snapshot s.
func (m *Mediator) advance(s blackjack.GameState) {
	switch s.Type {
	case blackjack.GameStateDealing, blackjack.GameStatePlayerAction:
		if s.Player != nil && !s.PlayerDone() {
			m.voteStart(*s.Player)
			return
		}
		if next, ok := s.NextPlayer(); ok {
			m.voteStart(next)
			return
		}
		m.step("reveal", m.engine.Reveal)

	case blackjack.GameStateRevealHoleCard, blackjack.GameStateDealerAction:
		if !s.DealerDone() {
			m.step("decide", func() error {
				_, err := m.engine.Decide()
				return err
			})
			return
		}
		m.step("judge", func() error {
			_, err := m.engine.Judge()
			return err
		})

	case blackjack.GameStateJudge:
		if err := m.engine.Reset(); err != nil {
			m.logger.Error("Reset after judge failed", "error", err)
		}
		m.waitForStart("round over")

	case blackjack.GameStateStop:
		m.waitForStart("round stopped")
	}
}

func (m *Mediator) voteStart(p blackjack.PlayerRecord) {
	hand := p.ActiveHand()
	if hand < 0 {
		hand = 0
	}
	m.voteID++
	m.pending = &pendingVote{id: m.voteID, player: p.Name, hand: hand}
	m.state = StateVoting

	options := command.VoteOptions(m.cfg.AllowSplit && p.CanSplit())
	m.logger.Info("Vote start", "vote", m.voteID, "player", p.Name, "hand", hand, "options", options)
	m.bus.Emit(events.VoteStartEvent{
		VoteID:   m.voteID,
		Player:   p.Name,
		Hand:     hand,
		Options:  options,
		Duration: m.cfg.VoteDuration,
	})
}

func (m *Mediator) waitForStart(reason string) {
	m.state = StateWaitingForStart
	m.pending = nil
	m.logger.Info("Waiting for start", "reason", reason)
	m.bus.Emit(events.WaitForStartEvent{Reason: reason})
}

// step runs one engine transition. Engine errors are protocol bugs: the
// round is abandoned and the table waits for a new start.
func (m *Mediator) step(name string, fn func() error) {
	if err := fn(); err != nil {
		m.fail(name, err)
	}
}

func (m *Mediator) fail(step string, err error) {
	m.logger.Error("Engine rejected step, stopping round", "step", step, "error", err)
	m.pending = nil
	if stopErr := m.engine.Stop(); stopErr != nil {
		m.logger.Error("Stop failed", "error", stopErr)
		m.waitForStart("engine error")
	}
}

func (m *Mediator) onChat(e events.ChatEvent) {
	switch e.Type {
	case events.ChatConnected:
		if m.state == StateWaitingForStart {
			m.waitForStart("chat connected")
		}
	case events.ChatDisconnected:
		if m.engine.HasDealt() {
			m.stop("chat disconnected")
			return
		}
		m.waitForStart("chat disconnected")
	case events.ChatStart:
		m.start(e.User)
	case events.ChatRestart:
		m.restart(e.User)
	case events.ChatStop:
		if !m.engine.HasDealt() {
			m.logger.Debug("Stop with no round in play", "user", e.User)
			return
		}
		m.stop(fmt.Sprintf("stopped by %s", e.User))
	case events.ChatVoteEnd:
		m.applyVote(e)
	}
}

func (m *Mediator) start(user string) {
	if m.state != StateWaitingForStart {
		m.logger.Warn("Ignoring start while a round is in play", "user", user, "state", m.state)
		return
	}
	m.deal(user)
}

func (m *Mediator) restart(user string) {
	m.logger.Info("Restarting round", "user", user)
	m.pending = nil
	if m.engine.HasDealt() {
		if err := m.engine.Stop(); err != nil {
			m.fail("restart", err)
			return
		}
	}
	m.deal(user)
}

func (m *Mediator) deal(user string) {
	if m.engine.Phase() == blackjack.PhaseJudged {
		if err := m.engine.Reset(); err != nil {
			m.fail("reset", err)
			return
		}
	}
	m.logger.Info("Dealing", "user", user, "round", m.engine.Round()+1)
	m.step("deal", m.engine.Deal)
}

func (m *Mediator) stop(reason string) {
	m.logger.Info("Stopping round", "reason", reason)
	m.pending = nil
	if err := m.engine.Stop(); err != nil {
		m.logger.Error("Stop failed", "error", err)
		m.waitForStart("engine error")
	}
}

func (m *Mediator) applyVote(e events.ChatEvent) {
	pending := m.pending
	if m.state != StateVoting || pending == nil || e.VoteID != pending.id {
		m.logger.Warn("Ignoring result of a stale vote", "vote", e.VoteID, "state", m.state)
		return
	}
	m.pending = nil

	player, err := m.engine.Player(pending.player)
	if err != nil {
		m.fail("vote", err)
		return
	}

	m.logger.Info("Applying vote", "vote", pending.id, "player", pending.player, "hand", pending.hand, "command", e.Command)
	switch e.Command {
	case command.Hit:
		m.step("hit", func() error { return m.engine.Hit(player, pending.hand) })
	case command.Split:
		m.step("split", func() error { return m.engine.Split(player) })
	default:
		m.step("stand", func() error { return m.engine.Stand(player, pending.hand) })
	}
}
