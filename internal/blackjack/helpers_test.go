package blackjack

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/chatjack/internal/deck"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// handOf builds a hand for "p" from card notation.
func handOf(t *testing.T, cards string) *Hand {
	t.Helper()
	h := NewHand("p", 0)
	for _, c := range deck.MustParseCards(cards) {
		require.NoError(t, h.Add(NewPlayedCard(c)))
	}
	return h
}

type recorder struct {
	states []GameState
}

func (r *recorder) PublishGameState(s GameState) {
	r.states = append(r.states, s)
}

func (r *recorder) types() []GameStateType {
	out := make([]GameStateType, len(r.states))
	for i, s := range r.states {
		out[i] = s.Type
	}
	return out
}

// fixedEngine builds an engine dealing the given cards in order.
func fixedEngine(t *testing.T, cards string, players ...string) (*Engine, *recorder) {
	t.Helper()
	if len(players) == 0 {
		players = []string{"chat"}
	}
	rec := &recorder{}
	eng, err := NewEngine(quietLogger(), Config{Players: players},
		WithDeck(deck.NewFixed(deck.MustParseCards(cards)...)),
		WithPublisher(rec),
	)
	require.NoError(t, err)
	return eng, rec
}

// playDealer runs dealer steps until it is done.
func playDealer(t *testing.T, eng *Engine) {
	t.Helper()
	for !eng.Dealer().IsDone() {
		_, err := eng.Decide()
		require.NoError(t, err)
	}
}
