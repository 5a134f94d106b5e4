package blackjack

import (
	"fmt"

	"github.com/lox/chatjack/internal/deck"
)

// AceMode selects whether an Ace in play counts 11 or 1.
type AceMode int

const (
	AceHigh AceMode = iota
	AceLow
)

// PlayedCard is a card in play: an immutable deck.Card plus the placement
// state that changes while it sits in a hand.
type PlayedCard struct {
	card   deck.Card
	hidden bool
	owner  string
	slot   int
	aceLow bool
}

// NewPlayedCard wraps a card for play, face up and unowned.
func NewPlayedCard(c deck.Card) *PlayedCard {
	return &PlayedCard{card: c, slot: -1}
}

// Card returns the underlying card identity
func (pc *PlayedCard) Card() deck.Card { return pc.card }

// Hidden reports whether the card is face down
func (pc *PlayedCard) Hidden() bool { return pc.hidden }

// Hide turns the card face down
func (pc *PlayedCard) Hide() { pc.hidden = true }

// Show turns the card face up
func (pc *PlayedCard) Show() { pc.hidden = false }

// Owner returns the name of the player whose hand holds the card
func (pc *PlayedCard) Owner() string { return pc.owner }

// Slot returns the index of the owning hand, -1 when unowned
func (pc *PlayedCard) Slot() int { return pc.slot }

func (pc *PlayedCard) assign(owner string, slot int) {
	pc.owner = owner
	pc.slot = slot
}

// Points returns the card value, honouring a lowered Ace.
func (pc *PlayedCard) Points() int {
	if pc.card.IsAce() && pc.aceLow {
		return 1
	}
	return pc.card.Points()
}

// SetAce switches an Ace between 11 and 1.
func (pc *PlayedCard) SetAce(mode AceMode) error {
	if !pc.card.IsAce() {
		return fmt.Errorf("set ace on %s: %w", pc.card, deck.ErrNotAce)
	}
	pc.aceLow = mode == AceLow
	return nil
}

// Name returns the card name, or "Hidden" while face down.
func (pc *PlayedCard) Name() string {
	if pc.hidden {
		return "Hidden"
	}
	return pc.card.Name()
}

// Icon returns the card glyph, or the card back while face down.
func (pc *PlayedCard) Icon() string {
	if pc.hidden {
		return deck.BackIcon
	}
	return pc.card.Icon()
}

func (pc *PlayedCard) String() string {
	if pc.hidden {
		return "??"
	}
	return pc.card.String()
}
