package twitch

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/events"
)

// Announcer posts vote results and round outcomes back to chat. Lines
// are queued so bus handlers never wait on the network.
type Announcer struct {
	logger *log.Logger
	say    func(string) error
	lines  chan string
}

// NewAnnouncer announces through client
func NewAnnouncer(logger *log.Logger, client *Client) *Announcer {
	return newAnnouncer(logger, client.Say)
}

func newAnnouncer(logger *log.Logger, say func(string) error) *Announcer {
	return &Announcer{
		logger: logger.WithPrefix("announce"),
		say:    say,
		lines:  make(chan string, 16),
	}
}

// Subscribe listens for vote results and judged rounds on bus
func (a *Announcer) Subscribe(bus *events.Bus) func() {
	unsubVote := events.On(bus, "announce", func(e events.ChatEvent) {
		if e.Type == events.ChatVoteEnd {
			a.queue(fmt.Sprintf("Chat chose %s", e.Command.Upper()))
		}
	})
	unsubState := events.On(bus, "announce", func(e events.GameStateEvent) {
		switch e.State.Type {
		case blackjack.GameStateJudge:
			a.queue(describeResults(e.State.Results))
		case blackjack.GameStateStop:
			a.queue("Round stopped. Type !start to deal again")
		}
	})
	return func() {
		unsubVote()
		unsubState()
	}
}

func (a *Announcer) queue(line string) {
	select {
	case a.lines <- line:
	default:
		a.logger.Warn("Announcement queue full, dropping", "line", line)
	}
}

// Run sends queued lines until ctx is cancelled
func (a *Announcer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-a.lines:
			if err := a.say(line); err != nil {
				a.logger.Warn("Announcement failed", "error", err)
			}
		}
	}
}

var outcomeText = map[blackjack.Outcome]string{
	blackjack.OutcomePlayerBust:      "busts",
	blackjack.OutcomeDealerBust:      "wins, dealer busts",
	blackjack.OutcomePush:            "pushes",
	blackjack.OutcomePlayerBlackjack: "has blackjack",
	blackjack.OutcomeDealerBlackjack: "loses to dealer blackjack",
	blackjack.OutcomePlayerWin:       "wins",
	blackjack.OutcomeDealerWin:       "loses",
}

func describeResults(results []blackjack.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		name := r.Player
		if r.HandIndex > 0 {
			name = fmt.Sprintf("%s (hand %d)", r.Player, r.HandIndex+1)
		}
		parts = append(parts, fmt.Sprintf("%s %s with %d", name, outcomeText[r.Outcome], r.Score))
	}
	return strings.Join(parts, "; ")
}
