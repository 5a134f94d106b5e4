package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	t.Parallel()

	t.Run("natural", func(t *testing.T) {
		cards, err := ParseCards("AsKh")
		require.NoError(t, err)
		assert.Equal(t, []Card{NewCard(Ace, Spades), NewCard(King, Hearts)}, cards)
		assert.Equal(t, 21, cards[0].Points()+cards[1].Points())
	})

	t.Run("separators and case", func(t *testing.T) {
		cards, err := ParseCards("td, 9C\t2h")
		require.NoError(t, err)
		assert.Equal(t, []Card{NewCard(Ten, Diamonds), NewCard(Nine, Clubs), NewCard(Two, Hearts)}, cards)
	})

	t.Run("empty", func(t *testing.T) {
		cards, err := ParseCards("")
		require.NoError(t, err)
		assert.Empty(t, cards)
	})

	for input, why := range map[string]string{
		"1s":    "rank",
		"Kz":    "suit",
		"AsK":   "odd length",
		"AsKs9": "trailing rank",
	} {
		t.Run("rejects "+why, func(t *testing.T) {
			_, err := ParseCards(input)
			assert.ErrorIs(t, err, ErrInvalidCard)
		})
	}
}

func TestMustParseCardsPanics(t *testing.T) {
	t.Parallel()

	assert.Len(t, MustParseCards("8s8d"), 2)
	assert.Panics(t, func() { MustParseCards("eight of spades") })
}

func TestOrdinalsRoundTrip(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool, NumCards)
	for o := range NumCards {
		c, err := New(o)
		require.NoError(t, err)
		assert.Equal(t, o, c.Ordinal())
		assert.Equal(t, c, NewCard(c.Rank(), c.Suit()))

		parsed, err := ParseCard(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
		seen[c.String()] = true
	}
	assert.Len(t, seen, NumCards)

	for _, o := range []int{-1, NumCards, 255} {
		_, err := New(o)
		assert.ErrorIs(t, err, ErrInvalidCard, "ordinal %d", o)
	}
}

func TestPoints(t *testing.T) {
	t.Parallel()

	want := map[Rank]int{
		Ace: 11, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
		Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
	}
	for rank, points := range want {
		assert.Equal(t, points, NewCard(rank, Clubs).Points(), rank.Name())
	}
	assert.True(t, NewCard(Ace, Hearts).IsAce())
	assert.False(t, NewCard(King, Hearts).IsAce())
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	ace := NewCard(Ace, Spades)
	assert.Equal(t, "As", ace.String())
	assert.Equal(t, "Ace of Spades", ace.Name())
	assert.Equal(t, "\U0001F0A1", ace.Icon())
	// The glyph block has a Knight between Jack and Queen
	assert.Equal(t, "\U0001F0BD", NewCard(Queen, Hearts).Icon())
	assert.Equal(t, "\U0001F0DB", NewCard(Jack, Clubs).Icon())

	assert.True(t, NewCard(Five, Diamonds).IsRed())
	assert.False(t, NewCard(Five, Clubs).IsRed())
}
