package simulate

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/chatjack/internal/blackjack"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestRunCountsEveryHand(t *testing.T) {
	t.Parallel()

	report, err := Run(context.Background(), quietLogger(), Config{
		Rounds:  500,
		Workers: 4,
		Seed:    42,
		Game:    blackjack.DefaultConfig(),
	})
	require.NoError(t, err)

	sb := report.Scoreboard
	assert.Equal(t, 500, sb.Rounds)
	assert.Equal(t, 500, sb.Hands, "the scripted player never splits")
	assert.Equal(t, sb.Hands, sb.Wins+sb.Losses+sb.Pushes)
	assert.Equal(t, 17, report.StandOn)
	assert.Equal(t, int64(42), report.Seed)

	total := 0.0
	for o := range sb.Outcomes {
		total += report.Percent(o)
	}
	assert.InDelta(t, 100, total, 0.001)
	assert.Contains(t, report.String(), "Player wins")
}

func TestRunIsReproducible(t *testing.T) {
	t.Parallel()

	cfg := Config{Rounds: 300, Workers: 3, Seed: 7, Game: blackjack.DefaultConfig()}
	a, err := Run(context.Background(), quietLogger(), cfg)
	require.NoError(t, err)
	b, err := Run(context.Background(), quietLogger(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Scoreboard, b.Scoreboard)
}

func TestRunWithMoreSeats(t *testing.T) {
	t.Parallel()

	game := blackjack.DefaultConfig()
	game.Players = []string{"a", "b", "c"}
	game.CountCards = true
	report, err := Run(context.Background(), quietLogger(), Config{Rounds: 100, Workers: 2, Seed: 3, Game: game})
	require.NoError(t, err)
	assert.Equal(t, 300, report.Scoreboard.Hands)
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), quietLogger(), Config{Game: blackjack.DefaultConfig()})
	assert.Error(t, err)

	game := blackjack.DefaultConfig()
	game.ShoeSize = 0
	_, err = Run(context.Background(), quietLogger(), Config{Rounds: 10, Game: game})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, quietLogger(), Config{Rounds: 10, Workers: 1, Game: blackjack.DefaultConfig()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	report, err := Run(context.Background(), quietLogger(), Config{Rounds: 20, Workers: 1, Seed: 1, Game: blackjack.DefaultConfig()})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, report.Scoreboard, got.Scoreboard)
}
