package vote

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

var ErrNotAnOption = errors.New("not a vote option")

// Poll runs one timed vote over a fixed set of options.
type Poll[C comparable] struct {
	logger *log.Logger
	round  *Round[C]
	window *Window

	options []C
	def     C
}

// NewPoll creates an idle poll
func NewPoll[C comparable](logger *log.Logger, clock quartz.Clock) *Poll[C] {
	return &Poll[C]{
		logger: logger.WithPrefix("vote"),
		round:  NewRound[C](),
		window: NewWindow(clock),
	}
}

// Open starts a fresh round over options for d. onChange hears every
// count change; onClose receives the winner once the deadline passes,
// def when chat is tied or silent. Opening again abandons the previous
// round without closing it.
func (p *Poll[C]) Open(options []C, def C, d time.Duration, onChange ChangeFunc[C], onClose func(winner C)) {
	p.round.Reset()
	p.round.setOnChange(onChange)
	p.options = slices.Clone(options)
	p.def = def
	round := p.round

	p.window.Start(d, func() {
		winner := round.Tally(def)
		p.logger.Debug("Vote closed", "winner", winner, "voters", round.Voters(), "counts", round.Counts())
		if onClose != nil {
			onClose(winner)
		}
	})
	p.logger.Debug("Vote opened", "options", options, "duration", d)
}

// Cast registers voter's choice while the window is open.
func (p *Poll[C]) Cast(voter string, choice C) error {
	if !p.window.Open() {
		return ErrWindowClosed
	}
	if !slices.Contains(p.options, choice) {
		return fmt.Errorf("%w: %v", ErrNotAnOption, choice)
	}
	p.round.Register(voter, choice, nil)
	return nil
}

// Cancel abandons the open round, if any, without a result.
func (p *Poll[C]) Cancel() bool {
	stopped := p.window.Stop()
	p.round.Reset()
	return stopped
}

// IsOpen reports whether votes are being accepted
func (p *Poll[C]) IsOpen() bool { return p.window.Open() }

// Options returns the commands on offer
func (p *Poll[C]) Options() []C { return slices.Clone(p.options) }

// Remaining returns the time left to vote
func (p *Poll[C]) Remaining() time.Duration { return p.window.Remaining() }

// Counts returns the current tally counts
func (p *Poll[C]) Counts() map[C]int { return p.round.Counts() }

// Default returns the command a tied or silent round resolves to
func (p *Poll[C]) Default() C { return p.def }
