package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/chatjack/internal/gameid"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatjack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server { address = ":9000" }
twitch { channel = "fromfile" }
vote { duration = "20s" }
`), 0o644))

	cfg, err := loadConfig(path, overrides{})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "fromfile", cfg.Twitch.Channel)
	assert.Equal(t, 20*time.Second, cfg.VoteDuration())

	cfg, err = loadConfig(path, overrides{
		Addr:         ":7000",
		Channel:      "flag",
		Seed:         99,
		VoteDuration: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "flag", cfg.Twitch.Channel)
	assert.Equal(t, int64(99), cfg.Game.Seed)
	assert.Equal(t, 5*time.Second, cfg.VoteDuration())
}

func TestLoadConfigRejectsBadOverride(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.hcl"), overrides{VoteDuration: time.Millisecond})
	assert.Error(t, err)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, log.DebugLevel, levelFor(log.WarnLevel, true))
	assert.Equal(t, log.WarnLevel, levelFor(log.WarnLevel, false))
}

func TestCLIParses(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	_, err = parser.Parse([]string{"simulate", "--rounds", "50", "--workers", "2", "--count-cards", "--seed", "3"})
	require.NoError(t, err)
	assert.Equal(t, 50, cli.Simulate.Rounds)
	assert.Equal(t, 2, cli.Simulate.Workers)
	assert.True(t, cli.Simulate.CountCards)
	assert.Equal(t, int64(3), cli.Simulate.Seed)

	_, err = parser.Parse([]string{"serve", "--addr", ":1234", "--channel", "somebody", "--vote-duration", "12s"})
	require.NoError(t, err)
	assert.Equal(t, ":1234", cli.Serve.Addr)
	assert.Equal(t, "somebody", cli.Serve.Channel)
	assert.Equal(t, 12*time.Second, cli.Serve.VoteDuration)

	ctx, err := parser.Parse([]string{"config", "init", "out.hcl", "--force"})
	require.NoError(t, err)
	assert.Equal(t, "config init <path>", ctx.Command())
	assert.True(t, cli.Config.Init.Force)
}

func TestConfigInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatjack.hcl")
	cmd := ConfigInitCmd{Path: path}
	require.NoError(t, cmd.Run())

	cfg, err := loadConfig(path, overrides{})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Game.ShoeSize)

	assert.Error(t, cmd.Run(), "refuses to overwrite without --force")
	cmd.Force = true
	assert.NoError(t, cmd.Run())
}

func TestSessionOptions(t *testing.T) {
	opts, err := sessionOptions("")
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = sessionOptions(gameid.New())
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = sessionOptions("my-table")
	assert.ErrorContains(t, err, "--session")
}
