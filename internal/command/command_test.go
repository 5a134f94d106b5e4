package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Command
		ok   bool
	}{
		{"!hit", Hit, true},
		{"!HIT", Hit, true},
		{"  !Stand please", Stand, true},
		{"!split", Split, true},
		{"!start", Start, true},
		{"!restart", Restart, true},
		{"!stop", Stop, true},
		{"hit", "", false},
		{"!", "", false},
		{"!double", "", false},
		{"", "", false},
		{"gg !hit", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	c, ok := Normalize("STAND")
	assert.True(t, ok)
	assert.Equal(t, Stand, c)

	c, ok = Normalize("!Hit")
	assert.True(t, ok)
	assert.Equal(t, Hit, c)

	_, ok = Normalize("fold")
	assert.False(t, ok)
}

func TestClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, Hit.IsVote())
	assert.True(t, Split.IsVote())
	assert.False(t, Start.IsVote())
	assert.True(t, Restart.IsControl())
	assert.False(t, Stand.IsControl())
	assert.Equal(t, "HIT", Hit.Upper())
	assert.Equal(t, []Command{Hit, Stand}, VoteOptions(false))
	assert.Equal(t, []Command{Hit, Stand, Split}, VoteOptions(true))
}
