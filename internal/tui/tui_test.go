package tui

import (
	"io"
	"os"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/chat"
	"github.com/lox/chatjack/internal/command"
	"github.com/lox/chatjack/internal/deck"
	"github.com/lox/chatjack/internal/events"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeSession struct {
	bus *events.Bus

	mu       sync.Mutex
	messages []chat.Message
	acks     []uint64
}

func newFakeSession() *fakeSession {
	return &fakeSession{bus: events.NewBus(log.NewWithOptions(io.Discard, log.Options{}))}
}

func (f *fakeSession) Bus() *events.Bus { return f.bus }

func (f *fakeSession) HandleMessage(m chat.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
	return true
}

func (f *fakeSession) Acknowledge(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, seq)
	return true
}

func newTestModel(t *testing.T) (*Model, *fakeSession, *quartz.Mock) {
	t.Helper()
	sess := newFakeSession()
	clock := quartz.NewMock(t)
	m := New(log.NewWithOptions(io.Discard, log.Options{}), clock, sess, Config{User: "streamer"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, sess, clock
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func record(name string, role blackjack.Role, cards string, hideSecond bool) blackjack.PlayerRecord {
	hand := blackjack.HandRecord{Owner: name, Status: blackjack.StatusPlaying}
	for i, c := range deck.MustParseCards(cards) {
		hidden := hideSecond && i == 1
		hand.Cards = append(hand.Cards, blackjack.CardRecord{
			Ordinal: c.Ordinal(),
			Hidden:  hidden,
			Owner:   name,
		})
		hand.Score += c.Points()
		if !hidden {
			hand.VisibleScore += c.Points()
		}
	}
	return blackjack.PlayerRecord{Name: name, Role: role, Hands: []blackjack.HandRecord{hand}}
}

func dealt(seq uint64) blackjack.GameState {
	dealer := record("dealer", blackjack.RoleDealer, "KhTd", true)
	player := record("chat", blackjack.RolePlayer, "9c7s", false)
	return blackjack.GameState{
		Seq:     seq,
		Type:    blackjack.GameStateDealing,
		Phase:   blackjack.PhaseDealt,
		Dealer:  &dealer,
		Player:  &player,
		Players: []blackjack.PlayerRecord{player},
	}
}

// run executes cmd and feeds the resulting message back into the model
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	m.Update(cmd())
}

func TestKeysSendChatCommands(t *testing.T) {
	t.Parallel()

	m, sess, _ := newTestModel(t)
	for _, r := range "hspnrx" {
		m.Update(keyPress(r))
	}

	want := []string{"!hit", "!stand", "!split", "!start", "!restart", "!stop"}
	require.Len(t, sess.messages, len(want))
	for i, msg := range sess.messages {
		assert.Equal(t, want[i], msg.Text)
		assert.Equal(t, "streamer", msg.User)
		assert.True(t, msg.Privileged())
	}
}

func TestQuitKey(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	_, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestGameStateIsAcknowledgedAfterAnimation(t *testing.T) {
	t.Parallel()

	m, sess, _ := newTestModel(t)

	cmd := m.handleEvent(events.GameStateEvent{State: dealt(3)})
	assert.Empty(t, sess.acks, "nothing acknowledged before the animation ends")
	run(m, cmd)
	assert.Equal(t, []uint64{3}, sess.acks)
	assert.Equal(t, 1, m.rounds)
}

func TestDelaysPerState(t *testing.T) {
	t.Parallel()

	d := Delays{Deal: time.Second, Judge: 2 * time.Second}
	assert.Equal(t, time.Second, d.For(blackjack.GameStateDealing))
	assert.Equal(t, 2*time.Second, d.For(blackjack.GameStateJudge))
	assert.Zero(t, d.For(blackjack.GameStateStop))
}

func TestViewShowsTable(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "No cards dealt yet")

	m.handleEvent(events.GameStateEvent{State: dealt(1)})
	view := m.View()
	assert.Contains(t, view, "Dealer")
	assert.Contains(t, view, "[Kh ??]")
	assert.Contains(t, view, "(10+?)")
	assert.NotContains(t, view, "(20)")
	assert.Contains(t, view, "[9c 7s]")
	assert.Contains(t, view, "(16)")
	assert.Contains(t, view, "New round")
}

func TestVoteLifecycle(t *testing.T) {
	t.Parallel()

	m, sess, clock := newTestModel(t)
	m.handleEvent(events.GameStateEvent{State: dealt(1)})

	cmd := m.handleEvent(events.VoteStartEvent{
		VoteID:   5,
		Player:   "chat",
		Options:  []command.Command{command.Hit, command.Stand},
		Duration: 10 * time.Second,
	})
	require.NotNil(t, cmd, "countdown starts with the vote")
	assert.InDelta(t, 1.0, m.remaining(), 0.001)

	clock.Advance(5 * time.Second)
	assert.InDelta(t, 0.5, m.remaining(), 0.001)

	m.Update(keyPress('h'))
	require.Len(t, sess.messages, 1)
	m.handleEvent(events.ChatEvent{Type: events.ChatVoteUpdate, VoteID: 5, Command: command.Hit, Count: 3})
	m.handleEvent(events.ChatEvent{Type: events.ChatVoteUpdate, VoteID: 4, Command: command.Stand, Count: 9})

	view := m.View()
	assert.Contains(t, view, "Vote: chat")
	assert.Contains(t, view, "* HIT    3")
	assert.Contains(t, view, "  STAND  0")

	m.handleEvent(events.ChatEvent{Type: events.ChatVoteEnd, VoteID: 5, Command: command.Hit})
	assert.Nil(t, m.vote)
	assert.Contains(t, m.View(), "Chat chose HIT")

	_, cmd = m.Update(countdownMsg{})
	assert.Nil(t, cmd, "countdown stops once the vote is over")
}

func TestJudgeUpdatesTally(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	m.handleEvent(events.GameStateEvent{State: blackjack.GameState{
		Seq:  9,
		Type: blackjack.GameStateJudge,
		Results: []blackjack.Result{
			{Player: "chat", Score: 20, Outcome: blackjack.OutcomePlayerWin},
			{Player: "chat", HandIndex: 1, Score: 18, Outcome: blackjack.OutcomePush},
			{Player: "chat", HandIndex: 2, Score: 25, Outcome: blackjack.OutcomePlayerBust},
		},
	}})
	assert.Equal(t, tally{wins: 1, losses: 1, pushes: 1}, m.score)

	m.handleEvent(events.WaitForStartEvent{Reason: "round over"})
	view := m.View()
	assert.Contains(t, view, "Waiting for start")
	assert.Contains(t, view, "round over. Waiting for a new round")
}

func TestAttachForwardsBusEvents(t *testing.T) {
	t.Parallel()

	m, sess, _ := newTestModel(t)
	detach := m.Attach()

	sess.bus.Emit(events.WaitForStartEvent{})
	msg := m.Init()()
	assert.Equal(t, eventMsg{events.WaitForStartEvent{}}, msg)

	detach()
	assert.Zero(t, sess.bus.Emit(events.WaitForStartEvent{}))
}
