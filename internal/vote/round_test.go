package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countChange struct {
	command string
	count   int
}

func recordChanges(into *[]countChange) ChangeFunc[string] {
	return func(c string, n int) {
		*into = append(*into, countChange{c, n})
	}
}

func TestRoundTally(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		votes [][2]string
		want  string
	}{
		{"empty round uses default", nil, "stand"},
		{"single vote", [][2]string{{"a", "hit"}}, "hit"},
		{"plurality", [][2]string{{"a", "hit"}, {"b", "hit"}, {"c", "stand"}}, "hit"},
		{"two way tie", [][2]string{{"a", "hit"}, {"b", "split"}}, "stand"},
		{"three way tie", [][2]string{{"a", "hit"}, {"b", "split"}, {"c", "stand"}}, "stand"},
		{"tie broken later", [][2]string{{"a", "hit"}, {"b", "split"}, {"c", "split"}}, "split"},
		{"tie at max twice", [][2]string{{"a", "hit"}, {"b", "split"}, {"c", "hit"}, {"d", "split"}}, "stand"},
		{"lower counts do not matter", [][2]string{{"a", "hit"}, {"b", "hit"}, {"c", "split"}, {"d", "stand"}}, "hit"},
		{"changed vote counts once", [][2]string{{"a", "hit"}, {"a", "split"}, {"b", "hit"}, {"a", "hit"}}, "hit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRound[string]()
			for _, v := range tt.votes {
				r.Register(v[0], v[1], nil)
			}
			assert.Equal(t, tt.want, r.Tally("stand"))
		})
	}
}

func TestRoundRepeatVoteIsSilent(t *testing.T) {
	t.Parallel()

	var changes []countChange
	r := NewRound[string]()
	r.Register("alice", "hit", recordChanges(&changes))
	r.Register("alice", "hit", nil)

	assert.Equal(t, []countChange{{"hit", 1}}, changes)
	assert.Equal(t, 1, r.Count("hit"))
	assert.Equal(t, 1, r.Voters())
}

func TestRoundChangedVoteNotifiesTwice(t *testing.T) {
	t.Parallel()

	var changes []countChange
	r := NewRound[string]()
	r.Register("alice", "hit", recordChanges(&changes))
	r.Register("bob", "hit", nil)
	changes = nil

	r.Register("alice", "stand", nil)
	assert.Equal(t, []countChange{{"hit", 1}, {"stand", 1}}, changes)
	assert.Equal(t, map[string]int{"hit": 1, "stand": 1}, r.Counts())
}

func TestRoundReset(t *testing.T) {
	t.Parallel()

	var changes []countChange
	r := NewRound[string]()
	r.Register("alice", "hit", recordChanges(&changes))
	r.Reset()

	assert.Equal(t, 0, r.Voters())
	assert.Equal(t, "stand", r.Tally("stand"))

	r.Register("alice", "hit", nil)
	assert.Len(t, changes, 1, "callback cleared by reset")
}
