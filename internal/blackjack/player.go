package blackjack

import (
	"errors"
	"fmt"

	"github.com/lox/chatjack/internal/deck"
)

// Role distinguishes the dealer seat from player seats
type Role string

const (
	RoleDealer Role = "dealer"
	RolePlayer Role = "player"
)

var (
	ErrPlayerDone  = errors.New("player is done")
	ErrHandIndex   = errors.New("hand index out of range")
	ErrDealerSplit = errors.New("dealer cannot split")
)

// Player is a seat at the table holding one hand, or two after a split.
type Player struct {
	name     string
	seat     int
	role     Role
	hands    []*Hand
	done     bool
	hasSplit bool
}

// NewPlayer creates a player seat with a single empty hand
func NewPlayer(name string, seat int) *Player {
	return newPlayer(name, seat, RolePlayer)
}

func newPlayer(name string, seat int, role Role) *Player {
	return &Player{
		name:  name,
		seat:  seat,
		role:  role,
		hands: []*Hand{NewHand(name, 0)},
	}
}

// Name returns the seat name
func (p *Player) Name() string { return p.name }

// Seat returns the seat index
func (p *Player) Seat() int { return p.seat }

// Role returns RolePlayer or RoleDealer
func (p *Player) Role() Role { return p.role }

// IsDone reports whether every hand has finished. This is the turn
// completion signal.
func (p *Player) IsDone() bool { return p.done }

// HasSplit reports whether the player split this round
func (p *Player) HasSplit() bool { return p.hasSplit }

// Hands returns the player's hands
func (p *Player) Hands() []*Hand {
	out := make([]*Hand, len(p.hands))
	copy(out, p.hands)
	return out
}

// Hand returns the hand at index i
func (p *Player) Hand(i int) (*Hand, error) {
	if i < 0 || i >= len(p.hands) {
		return nil, fmt.Errorf("%s hand %d of %d: %w", p.name, i, len(p.hands), ErrHandIndex)
	}
	return p.hands[i], nil
}

// Score returns the score of the first hand
func (p *Player) Score() int { return p.hands[0].Score() }

// ActiveHand returns the index of the first hand still in play, or -1.
func (p *Player) ActiveHand() int {
	for i, h := range p.hands {
		if !h.IsDone() {
			return i
		}
	}
	return -1
}

// CanSplit reports whether a split would be accepted now and is worth
// offering: a single unsplit pair.
func (p *Player) CanSplit() bool {
	return p.role == RolePlayer && !p.done && !p.hasSplit && len(p.hands) == 1 && p.hands[0].IsPair()
}

func (p *Player) guard(handIndex int) (*Hand, error) {
	if p.done {
		return nil, fmt.Errorf("%s: %w", p.name, ErrPlayerDone)
	}
	return p.Hand(handIndex)
}

// Hit adds card to the hand at handIndex.
func (p *Player) Hit(card deck.Card, handIndex int) error {
	return p.take(NewPlayedCard(card), handIndex)
}

func (p *Player) take(pc *PlayedCard, handIndex int) error {
	h, err := p.guard(handIndex)
	if err != nil {
		return err
	}
	if err := h.Add(pc); err != nil {
		return err
	}
	p.updateDone()
	return nil
}

// Stand ends play on the hand at handIndex.
func (p *Player) Stand(handIndex int) error {
	h, err := p.guard(handIndex)
	if err != nil {
		return err
	}
	if err := h.Stand(); err != nil {
		return err
	}
	p.updateDone()
	return nil
}

// Split divides the player's two card hand into two hands.
func (p *Player) Split() error {
	if p.done {
		return fmt.Errorf("%s: %w", p.name, ErrPlayerDone)
	}
	if p.hasSplit {
		return fmt.Errorf("%s already split: %w", p.name, ErrCannotSplit)
	}
	first, second, err := p.hands[0].Split()
	if err != nil {
		return err
	}
	p.hands = []*Hand{first, second}
	for i, h := range p.hands {
		h.setIndex(i)
	}
	p.hasSplit = true
	p.updateDone()
	return nil
}

// Reset prepares the seat for a new round
func (p *Player) Reset() {
	p.hands = []*Hand{NewHand(p.name, 0)}
	p.done = false
	p.hasSplit = false
}

func (p *Player) updateDone() {
	for _, h := range p.hands {
		if !h.IsDone() {
			p.done = false
			return
		}
	}
	p.done = true
}
