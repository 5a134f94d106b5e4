package blackjack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/chatjack/internal/deck"
)

// HandStatus is the lifecycle state of a hand
type HandStatus string

const (
	StatusPlaying   HandStatus = "playing"
	StatusStand     HandStatus = "stand"
	StatusBusted    HandStatus = "busted"
	StatusBlackjack HandStatus = "blackjack"
	StatusSplit     HandStatus = "split"
)

var (
	ErrHandNotPlaying = errors.New("hand is not in play")
	ErrCannotSplit    = errors.New("hand cannot be split")
)

const blackjackScore = 21

// Hand is an ordered run of cards owned by one player seat.
type Hand struct {
	owner     string
	index     int
	cards     []*PlayedCard
	score     int
	status    HandStatus
	fromSplit bool
}

// NewHand creates an empty hand in play for owner at hand index.
func NewHand(owner string, index int) *Hand {
	return &Hand{
		owner:  owner,
		index:  index,
		status: StatusPlaying,
	}
}

// protect guards every mutation: only hands still playing (or sitting on
// 21) may change.
func (h *Hand) protect(op string) error {
	if h.status != StatusPlaying && h.status != StatusBlackjack {
		return fmt.Errorf("%s on %s hand of %s: %w", op, h.status, h.owner, ErrHandNotPlaying)
	}
	return nil
}

// Add places a card in the hand and re-scores it.
func (h *Hand) Add(pc *PlayedCard) error {
	if err := h.protect("add"); err != nil {
		return err
	}
	pc.assign(h.owner, h.index)
	h.cards = append(h.cards, pc)
	h.Accumulate()
	return nil
}

// Accumulate recomputes the score from the cards. Aces start high and
// are lowered one at a time, in card order, while the total exceeds 21.
// Status moves to blackjack on 21 and busted above it.
func (h *Hand) Accumulate() int {
	total := 0
	for _, pc := range h.cards {
		if pc.card.IsAce() {
			_ = pc.SetAce(AceHigh)
		}
		total += pc.Points()
	}
	for _, pc := range h.cards {
		if total <= blackjackScore {
			break
		}
		if pc.card.IsAce() {
			_ = pc.SetAce(AceLow)
			total -= 10
		}
	}
	h.score = total

	if h.status == StatusPlaying || h.status == StatusBlackjack {
		switch {
		case total > blackjackScore:
			h.status = StatusBusted
		case total == blackjackScore:
			h.status = StatusBlackjack
		}
	}
	return total
}

// Stand ends play on the hand.
func (h *Hand) Stand() error {
	if err := h.protect("stand"); err != nil {
		return err
	}
	h.status = StatusStand
	return nil
}

// Split breaks a two card hand into two one card hands owned by the same
// player. The receiver is marked split and no longer plays.
func (h *Hand) Split() (*Hand, *Hand, error) {
	if err := h.protect("split"); err != nil {
		return nil, nil, err
	}
	if len(h.cards) != 2 {
		return nil, nil, fmt.Errorf("%w: %d cards", ErrCannotSplit, len(h.cards))
	}

	first := NewHand(h.owner, h.index)
	second := NewHand(h.owner, h.index+1)
	first.fromSplit, second.fromSplit = true, true
	if err := first.Add(h.cards[0]); err != nil {
		return nil, nil, err
	}
	if err := second.Add(h.cards[1]); err != nil {
		return nil, nil, err
	}

	h.status = StatusSplit
	return first, second, nil
}

// Reset clears the hand for a new round.
func (h *Hand) Reset() {
	h.cards = nil
	h.score = 0
	h.status = StatusPlaying
	h.fromSplit = false
}

func (h *Hand) setIndex(i int) {
	h.index = i
	for _, pc := range h.cards {
		pc.assign(h.owner, i)
	}
}

// Owner returns the owning player's name
func (h *Hand) Owner() string { return h.owner }

// Index returns the hand's position in its owner's hand list
func (h *Hand) Index() int { return h.index }

// Score returns the last accumulated score, hidden cards included
func (h *Hand) Score() int { return h.score }

// Status returns the hand status
func (h *Hand) Status() HandStatus { return h.status }

// Len returns the number of cards held
func (h *Hand) Len() int { return len(h.cards) }

// Cards returns the cards in the order they were added
func (h *Hand) Cards() []*PlayedCard {
	out := make([]*PlayedCard, len(h.cards))
	copy(out, h.cards)
	return out
}

// IsDone reports whether the hand has finished playing
func (h *Hand) IsDone() bool {
	switch h.status {
	case StatusStand, StatusBusted, StatusBlackjack:
		return true
	}
	return false
}

// IsNatural reports a two card 21 dealt directly, not after a split.
func (h *Hand) IsNatural() bool {
	return h.status == StatusBlackjack && len(h.cards) == 2 && !h.fromSplit
}

// IsPair reports two cards of equal rank, the hands offered a split.
func (h *Hand) IsPair() bool {
	return len(h.cards) == 2 && h.cards[0].card.Rank() == h.cards[1].card.Rank()
}

// VisibleScore scores only the face up cards.
func (h *Hand) VisibleScore() int {
	visible := make([]deck.Card, 0, len(h.cards))
	for _, pc := range h.cards {
		if !pc.hidden {
			visible = append(visible, pc.card)
		}
	}
	return Score(visible)
}

func (h *Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, pc := range h.cards {
		parts[i] = pc.String()
	}
	return fmt.Sprintf("[%s] %d (%s)", strings.Join(parts, " "), h.score, h.status)
}

// Score totals cards with the Ace reduction rule applied greedily.
func Score(cards []deck.Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += c.Points()
		if c.IsAce() {
			aces++
		}
	}
	for total > blackjackScore && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
