package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"slices"
)

// MaxShoeSize is the largest number of 52-card decks a shoe may hold
const MaxShoeSize = 8

var (
	ErrInvalidShoeSize = errors.New("invalid shoe size")
	ErrEmptyDeck       = errors.New("no cards left")
	ErrDeckNotEmpty    = errors.New("deck is not empty")
)

// Deck is an ordered draw pile. The top of the deck is the end of the
// slice, so Draw pops from the end.
type Deck struct {
	cards    []Card
	shoeSize int
	fixed    bool
	rng      *rand.Rand
}

// NewShoe creates a shuffled shoe of shoeSize standard decks. A nil rng
// uses the global source.
func NewShoe(shoeSize int, rng *rand.Rand) (*Deck, error) {
	if err := validateShoeSize(shoeSize); err != nil {
		return nil, err
	}

	d := &Deck{
		cards: make([]Card, 0, shoeSize*NumCards),
		rng:   rng,
	}
	d.fill(shoeSize)
	d.Shuffle()
	return d, nil
}

// NewFixed creates a deck that deals the given cards in order: cards[0]
// is the first card drawn. Fixed decks are never shuffled implicitly and
// are used to reproduce scenarios.
func NewFixed(cards ...Card) *Deck {
	stored := slices.Clone(cards)
	slices.Reverse(stored)
	return &Deck{
		cards:    stored,
		shoeSize: 1,
		fixed:    true,
	}
}

func validateShoeSize(n int) error {
	if n < 1 || n > MaxShoeSize {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidShoeSize, n, MaxShoeSize)
	}
	return nil
}

func (d *Deck) fill(shoeSize int) {
	d.shoeSize = shoeSize
	for range shoeSize {
		for o := range NumCards {
			d.cards = append(d.cards, Card(o))
		}
	}
}

// Shuffle randomizes the order of the remaining cards using Fisher-Yates
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return 0, ErrEmptyDeck
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, nil
}

// Peek returns the top card without removing it
func (d *Deck) Peek() (Card, error) {
	if len(d.cards) == 0 {
		return 0, fmt.Errorf("card drawn: none: %w", ErrEmptyDeck)
	}
	return d.cards[len(d.cards)-1], nil
}

// Empty discards every remaining card
func (d *Deck) Empty() {
	d.cards = d.cards[:0]
}

// Reshuffle rebuilds a fresh shuffled shoe of shoeSize decks. The deck
// must be empty.
func (d *Deck) Reshuffle(shoeSize int) error {
	if len(d.cards) != 0 {
		return fmt.Errorf("%w: %d cards remaining", ErrDeckNotEmpty, len(d.cards))
	}
	if err := validateShoeSize(shoeSize); err != nil {
		return err
	}
	d.fixed = false
	d.fill(shoeSize)
	d.Shuffle()
	return nil
}

// Len returns the number of cards remaining
func (d *Deck) Len() int {
	return len(d.cards)
}

// ShoeSize returns the number of decks the shoe was built from
func (d *Deck) ShoeSize() int {
	return d.shoeSize
}

// Fixed reports whether the deck was built from a fixed card sequence
func (d *Deck) Fixed() bool {
	return d.fixed
}

// Remaining returns a copy of the undealt cards, top of the deck last
func (d *Deck) Remaining() []Card {
	return slices.Clone(d.cards)
}
