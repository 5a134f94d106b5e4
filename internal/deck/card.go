// Package deck models playing card identity and the draw pile (shoe) a
// blackjack round is dealt from.
package deck

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCard = errors.New("invalid card")
	ErrNotAce      = errors.New("card is not an ace")
)

// Suit represents a card suit. The numeric order is part of the card
// ordinal (suit*13 + rank) and must not change.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Name returns the suit name in plural form ("Spades")
func (s Suit) Name() string {
	switch s {
	case Clubs:
		return "Clubs"
	case Diamonds:
		return "Diamonds"
	case Hearts:
		return "Hearts"
	case Spades:
		return "Spades"
	default:
		return "Unknown"
	}
}

// IsRed returns true for Hearts and Diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank, Ace low in ordinal order.
type Rank uint8

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankChars = "A23456789TJQK"

var rankNames = [...]string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Jack", "Queen", "King",
}

// String returns the single character rank notation
func (r Rank) String() string {
	if int(r) >= len(rankChars) {
		return "?"
	}
	return string(rankChars[r])
}

// Name returns the rank name ("Queen")
func (r Rank) Name() string {
	if int(r) >= len(rankNames) {
		return "Unknown"
	}
	return rankNames[r]
}

// Points returns the blackjack value of the rank with Aces counted high.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten:
		return 10
	default:
		return int(r) + 1
	}
}

const (
	// NumCards is the number of distinct cards in a standard deck
	NumCards = 52

	cardsPerSuit = 13
)

// Card is the immutable identity of a playing card, stored as its
// ordinal in [0, 52).
type Card uint8

// New returns the card with the given ordinal.
func New(ordinal int) (Card, error) {
	if ordinal < 0 || ordinal >= NumCards {
		return 0, fmt.Errorf("%w: ordinal %d", ErrInvalidCard, ordinal)
	}
	return Card(ordinal), nil
}

// NewCard creates a card from rank and suit
func NewCard(rank Rank, suit Suit) Card {
	return Card(uint8(suit)*cardsPerSuit + uint8(rank))
}

// Ordinal returns suit*13 + rank
func (c Card) Ordinal() int { return int(c) }

// Suit returns the card suit
func (c Card) Suit() Suit { return Suit(uint8(c) / cardsPerSuit) }

// Rank returns the card rank
func (c Card) Rank() Rank { return Rank(uint8(c) % cardsPerSuit) }

// Points returns the card's value with Aces counted as 11
func (c Card) Points() int { return c.Rank().Points() }

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool { return c.Rank() == Ace }

// IsRed returns true if the card is red
func (c Card) IsRed() bool { return c.Suit().IsRed() }

// String returns the two character notation, e.g. "As" or "Td".
func (c Card) String() string {
	return c.Rank().String() + strings.ToLower(c.Suit().Name()[:1])
}

// Name returns the long name, e.g. "Ace of Spades".
func (c Card) Name() string {
	return c.Rank().Name() + " of " + c.Suit().Name()
}

// BackIcon is the glyph shown for a face down card
const BackIcon = "\U0001F0A0"

// Icon returns the Unicode playing card glyph for the card.
func (c Card) Icon() string {
	var base rune
	switch c.Suit() {
	case Spades:
		base = 0x1F0A0
	case Hearts:
		base = 0x1F0B0
	case Diamonds:
		base = 0x1F0C0
	default:
		base = 0x1F0D0
	}
	offset := rune(c.Rank()) + 1
	// The Unicode block has a Knight between Jack and Queen.
	if c.Rank() >= Queen {
		offset++
	}
	return string(base + offset)
}

// ParseCard parses two character notation: rank from "A23456789TJQK",
// suit from "cdhs". Case-insensitive.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}

	rank := strings.IndexByte(rankChars, strings.ToUpper(s[:1])[0])
	if rank < 0 {
		return 0, fmt.Errorf("%w: invalid rank in %q", ErrInvalidCard, s)
	}

	var suit Suit
	switch strings.ToLower(s[1:]) {
	case "c":
		suit = Clubs
	case "d":
		suit = Diamonds
	case "h":
		suit = Hearts
	case "s":
		suit = Spades
	default:
		return 0, fmt.Errorf("%w: invalid suit in %q", ErrInvalidCard, s)
	}

	return NewCard(Rank(rank), suit), nil
}

// ParseCards parses a concatenated card string such as "AsKd9h".
// Whitespace and commas between cards are ignored.
func ParseCards(s string) ([]Card, error) {
	s = strings.NewReplacer(" ", "", ",", "", "\t", "").Replace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length card string %q", ErrInvalidCard, s)
	}

	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is like ParseCards but panics on error. Intended for tests.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
