// Package simulate plays many unattended rounds to measure how a table
// configuration pays out.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/fileutil"
	"github.com/lox/chatjack/internal/randutil"
)

// Config holds configuration for running simulations
type Config struct {
	Rounds  int
	Workers int
	Seed    int64
	Game    blackjack.Config
	// StandOn is the score the scripted player stops hitting at
	StandOn int
}

// Report is the combined result of every worker
type Report struct {
	Rounds     int                          `json:"rounds"`
	Workers    int                          `json:"workers"`
	Seed       int64                        `json:"seed"`
	ShoeSize   int                          `json:"shoeSize"`
	CountCards bool                         `json:"countCards"`
	StandOn    int                          `json:"standOn"`
	Elapsed    time.Duration                `json:"elapsed"`
	Scoreboard blackjack.ScoreboardSnapshot `json:"scoreboard"`
}

// Run plays cfg.Rounds rounds split across cfg.Workers engines. Each
// worker shuffles its own shoe from a seed derived from cfg.Seed, so a
// run is reproducible for a given seed and worker count.
func Run(ctx context.Context, logger *log.Logger, cfg Config) (Report, error) {
	if cfg.Rounds <= 0 {
		return Report{}, errors.New("rounds must be positive")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	cfg.Workers = min(cfg.Workers, cfg.Rounds)
	if cfg.StandOn <= 0 {
		cfg.StandOn = 17
	}
	cfg.Seed = randutil.Seed(cfg.Seed)
	logger = logger.WithPrefix("simulate")

	start := time.Now()
	scoreboard := blackjack.NewScoreboard()
	seeds := randutil.New(cfg.Seed)
	quiet := log.NewWithOptions(io.Discard, log.Options{})

	perWorker := cfg.Rounds / cfg.Workers
	remainder := cfg.Rounds % cfg.Workers

	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.Workers {
		rounds := perWorker
		if w < remainder {
			rounds++
		}
		workerSeed := seeds.Int64()

		engine, err := blackjack.NewEngine(quiet, cfg.Game,
			blackjack.WithRand(randutil.New(workerSeed)),
			blackjack.WithScoreboard(scoreboard))
		if err != nil {
			return Report{}, err
		}

		g.Go(func() error {
			for i := range rounds {
				if i%1000 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				if err := playRound(engine, cfg.StandOn); err != nil {
					return fmt.Errorf("worker %d round %d: %w", w, i+1, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		Rounds:     cfg.Rounds,
		Workers:    cfg.Workers,
		Seed:       cfg.Seed,
		ShoeSize:   cfg.Game.ShoeSize,
		CountCards: cfg.Game.CountCards,
		StandOn:    cfg.StandOn,
		Elapsed:    time.Since(start),
		Scoreboard: scoreboard.Snapshot(),
	}
	logger.Info("Simulation complete", "rounds", report.Rounds, "workers", report.Workers, "elapsed", report.Elapsed)
	return report, nil
}

// playRound drives one round start to finish: every seat hits below
// standOn, then the dealer plays out its policy.
func playRound(e *blackjack.Engine, standOn int) error {
	if err := e.Deal(); err != nil {
		return err
	}
	for p := e.Current(); p != nil; p = e.Current() {
		i := p.ActiveHand()
		h, err := p.Hand(i)
		if err != nil {
			return err
		}
		if h.Score() < standOn {
			err = e.Hit(p, i)
		} else {
			err = e.Stand(p, i)
		}
		if err != nil {
			return err
		}
	}
	if err := e.Reveal(); err != nil {
		return err
	}
	for e.Phase() == blackjack.PhaseRevealed {
		if _, err := e.Decide(); err != nil {
			return err
		}
	}
	if _, err := e.Judge(); err != nil {
		return err
	}
	return e.Reset()
}

// Percent returns the share of hands that ended in o
func (r Report) Percent(o blackjack.Outcome) float64 {
	if r.Scoreboard.Hands == 0 {
		return 0
	}
	return 100 * float64(r.Scoreboard.Outcomes[o]) / float64(r.Scoreboard.Hands)
}

// String renders the report as a table
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rounds: %d  Hands: %d  Workers: %d  Seed: %d  Shoe: %d  Counting: %t  Elapsed: %s\n",
		r.Rounds, r.Scoreboard.Hands, r.Workers, r.Seed, r.ShoeSize, r.CountCards, r.Elapsed.Round(time.Millisecond))

	outcomes := make([]blackjack.Outcome, 0, len(r.Scoreboard.Outcomes))
	for o := range r.Scoreboard.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return r.Scoreboard.Outcomes[outcomes[i]] > r.Scoreboard.Outcomes[outcomes[j]]
	})
	for _, o := range outcomes {
		fmt.Fprintf(&b, "  %-18s %8d  %6.2f%%\n", o, r.Scoreboard.Outcomes[o], r.Percent(o))
	}

	hands := max(r.Scoreboard.Hands, 1)
	fmt.Fprintf(&b, "Player wins %.2f%%, loses %.2f%%, pushes %.2f%%\n",
		100*float64(r.Scoreboard.Wins)/float64(hands),
		100*float64(r.Scoreboard.Losses)/float64(hands),
		100*float64(r.Scoreboard.Pushes)/float64(hands))
	return b.String()
}

// WriteJSON saves the report to path atomically
func (r Report) WriteJSON(path string) error {
	return fileutil.WriteJSON(path, r)
}
