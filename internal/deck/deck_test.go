package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/chatjack/internal/randutil"
)

func TestNewShoe(t *testing.T) {
	t.Parallel()

	t.Run("single deck", func(t *testing.T) {
		d, err := NewShoe(1, randutil.New(42))
		require.NoError(t, err)
		assert.Equal(t, 52, d.Len())
		assert.Equal(t, 1, d.ShoeSize())
		assert.False(t, d.Fixed())
	})

	t.Run("six deck shoe holds each card six times", func(t *testing.T) {
		d, err := NewShoe(6, randutil.New(42))
		require.NoError(t, err)
		assert.Equal(t, 312, d.Len())

		counts := make(map[Card]int)
		for _, c := range d.Remaining() {
			counts[c]++
		}
		assert.Len(t, counts, NumCards)
		for c, n := range counts {
			assert.Equal(t, 6, n, "card %v", c)
		}
	})

	for _, n := range []int{0, -1, 9} {
		_, err := NewShoe(n, nil)
		assert.ErrorIs(t, err, ErrInvalidShoeSize, "shoe size %d", n)
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	t.Parallel()

	a, err := NewShoe(1, randutil.New(7))
	require.NoError(t, err)
	b, err := NewShoe(1, randutil.New(7))
	require.NoError(t, err)
	c, err := NewShoe(1, randutil.New(8))
	require.NoError(t, err)

	assert.Equal(t, a.Remaining(), b.Remaining())
	assert.NotEqual(t, a.Remaining(), c.Remaining())
}

func TestDrawAndPeek(t *testing.T) {
	t.Parallel()

	d, err := NewShoe(1, randutil.New(1))
	require.NoError(t, err)

	top, err := d.Peek()
	require.NoError(t, err)
	drawn, err := d.Draw()
	require.NoError(t, err)
	assert.Equal(t, top, drawn)
	assert.Equal(t, 51, d.Len())

	d.Empty()
	assert.Equal(t, 0, d.Len())

	_, err = d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
	_, err = d.Peek()
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestReshuffle(t *testing.T) {
	t.Parallel()

	d, err := NewShoe(2, randutil.New(3))
	require.NoError(t, err)

	assert.ErrorIs(t, d.Reshuffle(2), ErrDeckNotEmpty)

	d.Empty()
	assert.ErrorIs(t, d.Reshuffle(9), ErrInvalidShoeSize)
	require.NoError(t, d.Reshuffle(2))
	assert.Equal(t, 104, d.Len())
}

func TestFixedDeckDrawsInInputOrder(t *testing.T) {
	t.Parallel()

	want := MustParseCards("AsKd9h2c")
	d := NewFixed(want...)
	assert.True(t, d.Fixed())

	for _, w := range want {
		got, err := d.Draw()
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	_, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
}
