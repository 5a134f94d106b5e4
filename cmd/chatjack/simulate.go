package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/simulate"
)

// SimulateCmd plays unattended rounds and reports the outcome mix
type SimulateCmd struct {
	Rounds     int    `default:"10000" help:"Rounds to play"`
	Workers    int    `help:"Parallel workers (defaults to the CPU count)"`
	CountCards bool   `help:"Dealer counts cards instead of standing on 17"`
	Seed       int64  `help:"Shuffle seed, 0 for time based"`
	ShoeSize   int    `default:"6" help:"Decks in the shoe"`
	Seats      int    `default:"1" help:"Players at the table"`
	StandOn    int    `default:"17" help:"Score the scripted player stands on"`
	Out        string `type:"path" help:"Also write the report as JSON to this file"`
	Debug      bool   `help:"Enable debug logging"`
}

func (c *SimulateCmd) Run() error {
	logger := newLogger(os.Stderr, levelFor(log.InfoLevel, c.Debug), false)
	ctx, cancel := signalContext(logger)
	defer cancel()

	game := blackjack.DefaultConfig()
	game.ShoeSize = c.ShoeSize
	game.CountCards = c.CountCards
	if c.Seats > 1 {
		game.Players = make([]string, c.Seats)
		for i := range game.Players {
			game.Players[i] = fmt.Sprintf("seat%d", i+1)
		}
	}

	report, err := simulate.Run(ctx, logger, simulate.Config{
		Rounds:  c.Rounds,
		Workers: c.Workers,
		Seed:    c.Seed,
		Game:    game,
		StandOn: c.StandOn,
	})
	if err != nil {
		return err
	}

	fmt.Print(report.String())
	if c.Out != "" {
		if err := report.WriteJSON(c.Out); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("Wrote report", "path", c.Out)
	}
	return nil
}
