// Package tui is a terminal renderer for a local table. It plays each
// game state as a timed animation, acknowledges it to the session, and
// lets the person at the keyboard vote and control rounds as chat would.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/chat"
	"github.com/lox/chatjack/internal/command"
	"github.com/lox/chatjack/internal/deck"
	"github.com/lox/chatjack/internal/events"
)

// Session is what the renderer needs from a session
type Session interface {
	Bus() *events.Bus
	HandleMessage(chat.Message) bool
	Acknowledge(seq uint64) bool
}

// Delays is how long each kind of game state is shown before it is
// acknowledged.
type Delays struct {
	Deal   time.Duration
	Action time.Duration
	Reveal time.Duration
	Dealer time.Duration
	Judge  time.Duration
}

// DefaultDelays paces a table for a human watching it
var DefaultDelays = Delays{
	Deal:   800 * time.Millisecond,
	Action: 500 * time.Millisecond,
	Reveal: 700 * time.Millisecond,
	Dealer: 600 * time.Millisecond,
	Judge:  1500 * time.Millisecond,
}

func (d Delays) For(t blackjack.GameStateType) time.Duration {
	switch t {
	case blackjack.GameStateDealing:
		return d.Deal
	case blackjack.GameStatePlayerAction:
		return d.Action
	case blackjack.GameStateRevealHoleCard:
		return d.Reveal
	case blackjack.GameStateDealerAction:
		return d.Dealer
	case blackjack.GameStateJudge:
		return d.Judge
	}
	return 0
}

// Config configures the renderer
type Config struct {
	// User is the chat name votes are cast under
	User   string
	Delays Delays
}

type eventMsg struct{ event events.Event }

type animationDoneMsg struct{ seq uint64 }

type countdownMsg struct{}

type voteView struct {
	id       uint64
	player   string
	hand     int
	options  []command.Command
	counts   map[command.Command]int
	mine     command.Command
	duration time.Duration
	deadline time.Time
}

type tally struct {
	wins, losses, pushes int
}

// Model is the bubbletea model for a local table
type Model struct {
	logger *log.Logger
	clock  quartz.Clock
	sess   Session
	cfg    Config
	events chan events.Event

	keys     keyMap
	help     help.Model
	logView  viewport.Model
	progress progress.Model

	gameLog []string
	state   *blackjack.GameState
	vote    *voteView
	waiting bool
	rounds  int
	score   tally

	width    int
	height   int
	quitting bool
}

// New creates a renderer for sess
func New(logger *log.Logger, clock quartz.Clock, sess Session, cfg Config) *Model {
	if cfg.User == "" {
		cfg.User = "you"
	}
	return &Model{
		logger:   logger.WithPrefix("tui"),
		clock:    clock,
		sess:     sess,
		cfg:      cfg,
		events:   make(chan events.Event, 256),
		keys:     defaultKeyMap(),
		help:     help.New(),
		logView:  viewport.New(10, 5),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(24)),
	}
}

// Attach forwards the session's events into the model. The returned
// function detaches it.
func (m *Model) Attach() func() {
	bus := m.sess.Bus()
	unsubs := []func(){
		bus.Subscribe(events.KindGameState, "tui", m.enqueue),
		bus.Subscribe(events.KindVoteStart, "tui", m.enqueue),
		bus.Subscribe(events.KindWaitForStart, "tui", m.enqueue),
		bus.Subscribe(events.KindChat, "tui", m.enqueue),
	}
	return func() {
		for _, fn := range unsubs {
			fn()
		}
	}
}

// enqueue runs on the session loop and must not block it
func (m *Model) enqueue(e events.Event) {
	select {
	case m.events <- e:
	default:
		m.logger.Warn("Renderer queue full, dropping event", "kind", e.Kind())
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{<-m.events}
	}
}

// Init starts listening for session events
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case eventMsg:
		return m, tea.Batch(m.handleEvent(msg.event), m.waitForEvent())

	case animationDoneMsg:
		if !m.sess.Acknowledge(msg.seq) {
			m.logger.Warn("Session did not take acknowledgement", "seq", msg.seq)
		}
		return m, nil

	case countdownMsg:
		if m.vote == nil {
			return m, nil
		}
		return m, m.countdown()
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Hit):
		m.send(command.Hit)
	case key.Matches(msg, m.keys.Stand):
		m.send(command.Stand)
	case key.Matches(msg, m.keys.Split):
		m.send(command.Split)
	case key.Matches(msg, m.keys.Start):
		m.send(command.Start)
	case key.Matches(msg, m.keys.Restart):
		m.send(command.Restart)
	case key.Matches(msg, m.keys.Stop):
		m.send(command.Stop)
	case key.Matches(msg, m.keys.Up):
		m.logView.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logView.ScrollDown(1)
	}
	return nil
}

// send types cmd into chat as the local user, who owns the channel
func (m *Model) send(cmd command.Command) {
	if cmd.IsVote() && m.vote != nil {
		m.vote.mine = cmd
	}
	m.sess.HandleMessage(chat.Message{
		User:        m.cfg.User,
		Text:        command.Prefix + cmd.String(),
		Broadcaster: true,
	})
}

func (m *Model) handleEvent(e events.Event) tea.Cmd {
	switch e := e.(type) {
	case events.GameStateEvent:
		return m.onGameState(e.State)

	case events.VoteStartEvent:
		m.waiting = false
		m.vote = &voteView{
			id:       e.VoteID,
			player:   e.Player,
			hand:     e.Hand,
			options:  e.Options,
			counts:   make(map[command.Command]int),
			duration: e.Duration,
			deadline: m.clock.Now().Add(e.Duration),
		}
		m.addLog(WarningStyle.Render(fmt.Sprintf("Vote for %s: %s", e.Player, optionList(e.Options))))
		return m.countdown()

	case events.WaitForStartEvent:
		m.vote = nil
		m.waiting = true
		line := "Waiting for a new round. Press n to deal."
		if e.Reason != "" {
			line = e.Reason + ". " + line
		}
		m.addLog(InfoStyle.Render(line))

	case events.ChatEvent:
		m.onChat(e)
	}
	return nil
}

func (m *Model) onGameState(s blackjack.GameState) tea.Cmd {
	m.state = &s
	m.waiting = false
	if s.Type == blackjack.GameStateDealing {
		m.rounds++
	}
	m.addLog(describe(s))
	if s.Type == blackjack.GameStateJudge {
		for _, r := range s.Results {
			m.score.add(r.Outcome)
		}
	}

	seq := s.Seq
	delay := m.cfg.Delays.For(s.Type)
	if delay <= 0 {
		return func() tea.Msg { return animationDoneMsg{seq} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return animationDoneMsg{seq} })
}

func (m *Model) onChat(e events.ChatEvent) {
	switch e.Type {
	case events.ChatVoteUpdate:
		if m.vote != nil && m.vote.id == e.VoteID {
			m.vote.counts[e.Command] = e.Count
		}
	case events.ChatVoteEnd:
		m.vote = nil
		m.addLog(SuccessStyle.Render("Chat chose " + e.Command.Upper()))
	case events.ChatStart, events.ChatRestart, events.ChatStop:
		m.addLog(InfoStyle.Render(fmt.Sprintf("%s asked to %s", e.User, strings.ToLower(string(e.Type)))))
	case events.ChatConnected:
		m.addLog(InfoStyle.Render("Chat connected"))
	case events.ChatDisconnected:
		m.addLog(ErrorStyle.Render("Chat disconnected"))
	}
}

func (m *Model) countdown() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return countdownMsg{} })
}

func (t *tally) add(o blackjack.Outcome) {
	switch o {
	case blackjack.OutcomePlayerWin, blackjack.OutcomePlayerBlackjack, blackjack.OutcomeDealerBust:
		t.wins++
	case blackjack.OutcomePush:
		t.pushes++
	default:
		t.losses++
	}
}

// addLog appends a line to the event log and follows it
func (m *Model) addLog(line string) {
	m.gameLog = append(m.gameLog, line)
	m.logView.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logView.Height > 0 && m.logView.Width > 0 {
		m.logView.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := HeaderStyle.Render(fmt.Sprintf("chatjack  round %d", m.rounds))
	helpView := m.help.View(m.keys)

	sideWidth := 30
	tableWidth := max(m.width-sideWidth-4, 20)
	table := paneStyle.Width(tableWidth).Render(m.renderTable())
	side := paneStyle.Width(sideWidth).Render(m.renderSidebar())
	top := lipgloss.JoinHorizontal(lipgloss.Top, table, side)

	logHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(top)-lipgloss.Height(helpView)-2, 1)
	m.logView.Width = max(m.width-2, 1)
	m.logView.Height = logHeight
	logPane := activePaneStyle.Width(m.logView.Width).Height(logHeight).Render(m.logView.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, top, logPane, helpView)
}

func (m *Model) renderTable() string {
	if m.state == nil {
		return InfoStyle.Render("No cards dealt yet. Press n to deal.")
	}

	var b strings.Builder
	if m.state.Dealer != nil {
		b.WriteString(m.renderSeat(*m.state.Dealer, false))
		b.WriteString("\n")
	}
	active := ""
	if m.vote != nil {
		active = m.vote.player
	}
	players := m.state.Players
	if len(players) == 0 && m.state.Player != nil {
		players = []blackjack.PlayerRecord{*m.state.Player}
	}
	for _, p := range players {
		b.WriteString(m.renderSeat(p, p.Name == active))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderSeat(p blackjack.PlayerRecord, active bool) string {
	style := SeatStyle
	if active {
		style = ActiveSeatStyle
	}
	name := p.Name
	if p.Role == blackjack.RoleDealer {
		name = "Dealer"
	}

	lines := make([]string, 0, len(p.Hands))
	for i, h := range p.Hands {
		label := name
		if len(p.Hands) > 1 {
			label = fmt.Sprintf("%s #%d", name, i+1)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", style.Render(fmt.Sprintf("%-12s", label)), formatCards(h.Cards), handScore(h)))
	}
	if len(lines) == 0 {
		lines = append(lines, style.Render(name))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d\n\n",
		SuccessStyle.Render("W"), m.score.wins,
		ErrorStyle.Render("L"), m.score.losses,
		WarningStyle.Render("P"), m.score.pushes)

	switch {
	case m.vote != nil:
		b.WriteString(WarningStyle.Render("Vote: " + m.vote.player))
		b.WriteString("\n")
		for _, opt := range m.vote.options {
			marker := " "
			if opt == m.vote.mine {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %-6s %d\n", marker, opt.Upper(), m.vote.counts[opt])
		}
		b.WriteString(m.progress.ViewAs(m.remaining()))
	case m.waiting || m.state == nil:
		b.WriteString(InfoStyle.Render("Waiting for start"))
	default:
		b.WriteString(InfoStyle.Render(string(m.state.Type)))
	}
	return b.String()
}

// remaining is the fraction of the vote window left
func (m *Model) remaining() float64 {
	if m.vote == nil || m.vote.duration <= 0 {
		return 0
	}
	left := m.vote.deadline.Sub(m.clock.Now())
	return min(max(float64(left)/float64(m.vote.duration), 0), 1)
}

func formatCards(cards []blackjack.CardRecord) string {
	formatted := make([]string, 0, len(cards))
	for _, c := range cards {
		card, err := deck.New(c.Ordinal)
		switch {
		case c.Hidden || err != nil:
			formatted = append(formatted, HiddenCardStyle.Render("??"))
		case card.IsRed():
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		default:
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func handScore(h blackjack.HandRecord) string {
	for _, c := range h.Cards {
		if c.Hidden {
			return InfoStyle.Render(fmt.Sprintf("(%d+?)", h.VisibleScore))
		}
	}
	switch h.Status {
	case blackjack.StatusBusted:
		return ErrorStyle.Render(fmt.Sprintf("(%d bust)", h.Score))
	case blackjack.StatusBlackjack:
		return SuccessStyle.Render(fmt.Sprintf("(%d)", h.Score))
	}
	return fmt.Sprintf("(%d)", h.Score)
}

func optionList(opts []command.Command) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.String()
	}
	return strings.Join(names, " ")
}

// describe is the event log line for a game state
func describe(s blackjack.GameState) string {
	switch s.Type {
	case blackjack.GameStateDealing:
		return HeaderStyle.Render("New round")
	case blackjack.GameStatePlayerAction:
		name := "Player"
		if s.Player != nil {
			name = s.Player.Name
		}
		return fmt.Sprintf("%s: %s", name, s.Action)
	case blackjack.GameStateRevealHoleCard:
		return "Dealer reveals the hole card"
	case blackjack.GameStateDealerAction:
		return "Dealer: " + s.Action
	case blackjack.GameStateJudge:
		parts := make([]string, 0, len(s.Results))
		for _, r := range s.Results {
			parts = append(parts, fmt.Sprintf("%s %s (%d)", r.Player, r.Outcome, r.Score))
		}
		return SuccessStyle.Render("Result: " + strings.Join(parts, ", "))
	case blackjack.GameStateStop:
		return ErrorStyle.Render("Round stopped")
	}
	return string(s.Type)
}
