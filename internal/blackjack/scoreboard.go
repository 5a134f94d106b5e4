package blackjack

import "sync"

// Scoreboard counts judged outcomes for a session. It is safe for
// concurrent readers while the engine records.
type Scoreboard struct {
	mu       sync.RWMutex
	rounds   int
	outcomes map[Outcome]int
}

// ScoreboardSnapshot is a point-in-time copy of a Scoreboard
type ScoreboardSnapshot struct {
	Rounds   int             `json:"rounds"`
	Hands    int             `json:"hands"`
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	Pushes   int             `json:"pushes"`
	Outcomes map[Outcome]int `json:"outcomes"`
}

// NewScoreboard creates an empty scoreboard
func NewScoreboard() *Scoreboard {
	return &Scoreboard{outcomes: make(map[Outcome]int)}
}

// Record adds one judged round
func (s *Scoreboard) Record(results []Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds++
	for _, r := range results {
		s.outcomes[r.Outcome]++
	}
}

// Snapshot returns a copy of the current counts
func (s *Scoreboard) Snapshot() ScoreboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := ScoreboardSnapshot{
		Rounds:   s.rounds,
		Outcomes: make(map[Outcome]int, len(s.outcomes)),
	}
	for o, n := range s.outcomes {
		snap.Outcomes[o] = n
		snap.Hands += n
		switch {
		case o == OutcomePush:
			snap.Pushes += n
		case o.PlayerWon():
			snap.Wins += n
		default:
			snap.Losses += n
		}
	}
	return snap
}
