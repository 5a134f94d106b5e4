package main

import (
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/chatjack/internal/deck"
	"github.com/lox/chatjack/internal/session"
	"github.com/lox/chatjack/internal/tui"
)

// PlayCmd runs a table in the terminal with the keyboard as chat
type PlayCmd struct {
	Config       string        `short:"c" default:"chatjack.hcl" type:"path" help:"Configuration file"`
	Deck         string        `help:"Deal from a fixed deck instead of a shuffled shoe, e.g. \"AsKd9c7h\""`
	Seed         int64         `help:"Shuffle seed, 0 for time based (overrides game.seed)"`
	VoteDuration time.Duration `default:"10s" help:"Vote window"`
	User         string        `default:"you" help:"Name your votes are cast under"`
	NoAnimation  bool          `help:"Acknowledge every game state immediately"`
	NoColor      bool          `help:"Disable colour output"`
	LogFile      string        `type:"path" help:"Write logs to this file (they are discarded otherwise)"`
	Debug        bool          `help:"Enable debug logging"`
}

func (c *PlayCmd) Run() error {
	cfg, err := loadConfig(c.Config, overrides{
		Seed:         c.Seed,
		VoteDuration: c.VoteDuration,
	})
	if err != nil {
		return err
	}

	w, closeLog, err := logWriter(c.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	logger := newLogger(w, levelFor(cfg.LogLevel(), c.Debug), false)

	var opts []session.Option
	if c.Deck != "" {
		cards, err := deck.ParseCards(c.Deck)
		if err != nil {
			return fmt.Errorf("--deck: %w", err)
		}
		opts = append(opts, session.WithDeck(deck.NewFixed(cards...)))
	}

	clock := quartz.NewReal()
	sess, err := session.New(logger, clock, cfg.Session(), opts...)
	if err != nil {
		return err
	}

	delays := tui.DefaultDelays
	if c.NoAnimation {
		delays = tui.Delays{}
	}
	model := tui.New(logger, clock, sess, tui.Config{User: c.User, Delays: delays})
	defer model.Attach()()

	ctx, cancel := signalContext(logger)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	err = tui.Run(ctx, model, tui.Options{NoColor: c.NoColor})
	cancel()
	if sessErr := <-done; err == nil {
		err = sessErr
	}
	return err
}
