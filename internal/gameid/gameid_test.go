package gameid

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New()
	assert.Len(t, id, Length)
	assert.NoError(t, Validate(id))
}

func TestNewUnique(t *testing.T) {
	ids := make(map[string]bool)
	for range 100 {
		id := New()
		require.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true
	}
}

func TestNewTimeSorted(t *testing.T) {
	var ids []string
	for range 5 {
		ids = append(ids, New())
		time.Sleep(2 * time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s sorts before %s", ids[i-1], ids[i])
	}
}

func TestRoundTrip(t *testing.T) {
	u := uuid.Must(uuid.NewV7())
	back, err := Parse(Encode(u))
	require.NoError(t, err)
	assert.Equal(t, u, back)
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	created, err := Time(New())
	require.NoError(t, err)
	assert.True(t, created.After(before))
	assert.WithinDuration(t, time.Now(), created, 5*time.Second)
}

func TestValidate(t *testing.T) {
	v4 := Encode(uuid.Must(uuid.NewRandom()))

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", New(), false},
		{"too short", "01h5n0et5q6mt3v7ms123", true},
		{"too long", New() + "a", true},
		{"invalid character", strings.Repeat("u", Length), true},
		{"uppercase", strings.ToUpper(New()), true},
		{"not version 7", v4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			assert.Equal(t, tt.wantErr, err != nil, "Validate(%q) = %v", tt.id, err)
		})
	}
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, alphabet, 32)
	for _, forbidden := range "ilou" {
		assert.NotContains(t, alphabet, string(forbidden))
	}
}
