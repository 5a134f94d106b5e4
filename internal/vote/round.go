// Package vote aggregates chat votes into a single command.
//
// A Round is the tally itself: one active choice per voter, plurality
// wins and any tie at the top falls back to a caller supplied default.
// A Window bounds a round with a single-shot deadline on a quartz clock
// and a Poll ties the two together for one player decision.
package vote

import "sync"

// ChangeFunc is told the new count of a command whenever it changes
type ChangeFunc[C comparable] func(command C, count int)

// Round is a tally of the latest choice of each voter.
type Round[C comparable] struct {
	mu       sync.Mutex
	voters   map[string]C
	counts   map[C]int
	order    []C
	onChange ChangeFunc[C]
}

// NewRound creates an empty round
func NewRound[C comparable]() *Round[C] {
	r := &Round[C]{}
	r.Reset()
	return r
}

type change[C comparable] struct {
	command C
	count   int
}

// Register records voter's choice. A repeat of the same choice is
// ignored. Changing choice moves the vote, and onChange hears about
// both the decrement and the increment. A non-nil onChange replaces the
// round's callback.
func (r *Round[C]) Register(voter string, command C, onChange ChangeFunc[C]) {
	r.mu.Lock()
	if onChange != nil {
		r.onChange = onChange
	}

	var changes []change[C]
	previous, voted := r.voters[voter]
	switch {
	case voted && previous == command:
		r.mu.Unlock()
		return
	case voted:
		r.counts[previous]--
		changes = append(changes, change[C]{previous, r.counts[previous]})
	}

	if _, seen := r.counts[command]; !seen {
		r.order = append(r.order, command)
	}
	r.voters[voter] = command
	r.counts[command]++
	changes = append(changes, change[C]{command, r.counts[command]})
	notify := r.onChange
	r.mu.Unlock()

	if notify == nil {
		return
	}
	for _, c := range changes {
		notify(c.command, c.count)
	}
}

// Tally returns the command with the strictly greatest count. Any tie
// for the top count, or an empty round, yields def.
func (r *Round[C]) Tally(def C) C {
	r.mu.Lock()
	defer r.mu.Unlock()

	winner, best, tied := def, 0, false
	for _, c := range r.order {
		n := r.counts[c]
		switch {
		case n > best:
			winner, best, tied = c, n, false
		case n == best && n > 0:
			tied = true
		}
	}
	if tied || best == 0 {
		return def
	}
	return winner
}

// Count returns the current count for command
func (r *Round[C]) Count(command C) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[command]
}

// Counts returns a copy of every command's count
func (r *Round[C]) Counts() map[C]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[C]int, len(r.counts))
	for c, n := range r.counts {
		out[c] = n
	}
	return out
}

// Voters returns how many distinct voters have a vote in
func (r *Round[C]) Voters() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voters)
}

func (r *Round[C]) setOnChange(fn ChangeFunc[C]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Reset clears every vote and the change callback
func (r *Round[C]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voters = make(map[string]C)
	r.counts = make(map[C]int)
	r.order = nil
	r.onChange = nil
}
