// Package config loads chatjack.hcl.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/chat"
	"github.com/lox/chatjack/internal/command"
	"github.com/lox/chatjack/internal/deck"
	"github.com/lox/chatjack/internal/mediator"
	"github.com/lox/chatjack/internal/session"
)

// DefaultPath is where chatjack looks for its configuration
const DefaultPath = "chatjack.hcl"

// TokenEnv overrides twitch.token when set
const TokenEnv = "CHATJACK_TWITCH_TOKEN"

// Config is the whole configuration file
type Config struct {
	Log       *LogConfig       `hcl:"log,block"`
	Game      *GameConfig      `hcl:"game,block"`
	Vote      *VoteConfig      `hcl:"vote,block"`
	Twitch    *TwitchConfig    `hcl:"twitch,block"`
	Server    *ServerConfig    `hcl:"server,block"`
	Broadcast *BroadcastConfig `hcl:"broadcast,block"`
}

// LogConfig sets the log level
type LogConfig struct {
	Level string `hcl:"level,optional"`
}

// GameConfig describes the table
type GameConfig struct {
	ShoeSize       int      `hcl:"shoe_size,optional"`
	CountCards     bool     `hcl:"count_cards,optional"`
	Players        []string `hcl:"players,optional"`
	AllowSplit     bool     `hcl:"allow_split,optional"`
	ReshuffleBelow int      `hcl:"reshuffle_below,optional"`
	Seed           int64    `hcl:"seed,optional"`
}

// VoteConfig controls chat votes
type VoteConfig struct {
	Duration string `hcl:"duration,optional"`
	Default  string `hcl:"default,optional"`
}

// TwitchConfig is the chat connection
type TwitchConfig struct {
	Channel        string `hcl:"channel,optional"`
	Username       string `hcl:"username,optional"`
	Token          string `hcl:"token,optional"`
	ModeratorsOnly *bool  `hcl:"moderators_only,optional"`
}

// ServerConfig is the renderer bridge
type ServerConfig struct {
	Address string `hcl:"address,optional"`
	AutoAck string `hcl:"auto_ack,optional"`
}

// BroadcastConfig is the spectator feed
type BroadcastConfig struct {
	RedisAddr string `hcl:"redis_addr,optional"`
	Channel   string `hcl:"channel,optional"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path. A missing file yields Default.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c := Default()
		c.applyEnv()
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source, applies defaults and validates the result
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var c Config
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &c); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	c.applyDefaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// evalContext exposes the process environment to expressions, so a
// file can say token = env.TWITCH_TOKEN.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && hclsyntax.ValidIdentifier(name) {
			vars[name] = cty.StringVal(value)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	game := blackjack.DefaultConfig()
	if c.Game == nil {
		c.Game = &GameConfig{}
	}
	if c.Game.ShoeSize == 0 {
		c.Game.ShoeSize = game.ShoeSize
	}
	if len(c.Game.Players) == 0 {
		c.Game.Players = game.Players
	}
	if c.Game.ReshuffleBelow == 0 {
		c.Game.ReshuffleBelow = game.ReshuffleBelow
	}

	if c.Vote == nil {
		c.Vote = &VoteConfig{}
	}
	if c.Vote.Duration == "" {
		c.Vote.Duration = "15s"
	}
	if c.Vote.Default == "" {
		c.Vote.Default = command.Stand.String()
	}

	if c.Twitch == nil {
		c.Twitch = &TwitchConfig{}
	}
	if c.Twitch.ModeratorsOnly == nil {
		modsOnly := true
		c.Twitch.ModeratorsOnly = &modsOnly
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.AutoAck == "" {
		c.Server.AutoAck = "0s"
	}

	if c.Broadcast == nil {
		c.Broadcast = &BroadcastConfig{}
	}
	if c.Broadcast.Channel == "" {
		c.Broadcast.Channel = "chatjack"
	}
}

func (c *Config) applyEnv() {
	if token := os.Getenv(TokenEnv); token != "" {
		c.Twitch.Token = token
	}
}

// Validate returns the first invalid setting
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if c.Game.ShoeSize < 1 || c.Game.ShoeSize > deck.MaxShoeSize {
		return fmt.Errorf("game: shoe_size must be between 1 and %d, got %d", deck.MaxShoeSize, c.Game.ShoeSize)
	}
	if len(c.Game.Players) > blackjack.MaxPlayers {
		return fmt.Errorf("game: at most %d players, got %d", blackjack.MaxPlayers, len(c.Game.Players))
	}
	seen := make(map[string]bool, len(c.Game.Players))
	for _, p := range c.Game.Players {
		if p == "" || seen[p] {
			return fmt.Errorf("game: player names must be unique and non-empty, got %q", p)
		}
		seen[p] = true
	}
	if c.Game.ReshuffleBelow < 0 || c.Game.ReshuffleBelow > c.Game.ShoeSize*deck.NumCards {
		return fmt.Errorf("game: reshuffle_below must be between 0 and %d", c.Game.ShoeSize*deck.NumCards)
	}

	d, err := time.ParseDuration(c.Vote.Duration)
	if err != nil {
		return fmt.Errorf("vote: duration: %w", err)
	}
	if d < time.Second {
		return fmt.Errorf("vote: duration must be at least 1s, got %s", d)
	}
	if cmd, ok := command.Normalize(c.Vote.Default); !ok || !cmd.IsVote() {
		return fmt.Errorf("vote: default must be hit or stand, got %q", c.Vote.Default)
	}

	if c.Twitch.Token != "" && c.Twitch.Username == "" {
		return fmt.Errorf("twitch: token requires a username")
	}

	if ack, err := time.ParseDuration(c.Server.AutoAck); err != nil || ack < 0 {
		return fmt.Errorf("server: auto_ack must be a non-negative duration, got %q", c.Server.AutoAck)
	}
	return nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// VoteDuration returns the parsed vote duration
func (c *Config) VoteDuration() time.Duration {
	d, _ := time.ParseDuration(c.Vote.Duration)
	return d
}

// AutoAck returns the headless acknowledgement delay
func (c *Config) AutoAck() time.Duration {
	d, _ := time.ParseDuration(c.Server.AutoAck)
	return d
}

// ModeratorsOnly reports whether control commands need a moderator
func (c *Config) ModeratorsOnly() bool {
	return c.Twitch.ModeratorsOnly == nil || *c.Twitch.ModeratorsOnly
}

// Session builds the session settings the file describes
func (c *Config) Session() session.Config {
	def, ok := command.Normalize(c.Vote.Default)
	if !ok {
		def = command.Stand
	}
	return session.Config{
		Game: blackjack.Config{
			ShoeSize:       c.Game.ShoeSize,
			CountCards:     c.Game.CountCards,
			Players:        c.Game.Players,
			DealerName:     blackjack.DefaultConfig().DealerName,
			ReshuffleBelow: c.Game.ReshuffleBelow,
		},
		Chat: chat.Config{
			VoteDuration:   c.VoteDuration(),
			Default:        def,
			ModeratorsOnly: c.ModeratorsOnly(),
		},
		Mediator: mediator.Config{
			AllowSplit:   c.Game.AllowSplit,
			VoteDuration: c.VoteDuration(),
		},
		Seed: c.Game.Seed,
	}
}
