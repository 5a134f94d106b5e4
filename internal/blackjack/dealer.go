package blackjack

import (
	"github.com/lox/chatjack/internal/deck"
)

// Decision is the dealer's choice for its next step
type Decision string

const (
	DecisionHit   Decision = "hit"
	DecisionStand Decision = "stand"
)

const (
	dealerStandsOn = 17
	bustThreshold  = 0.5
)

// Dealer is the house seat. It never splits, keeps its second card face
// down until Reveal and plays by a fixed policy.
type Dealer struct {
	*Player
}

// NewDealer creates the dealer seat
func NewDealer(name string) *Dealer {
	return &Dealer{Player: newPlayer(name, -1, RoleDealer)}
}

// Split always fails: dealers never split.
func (d *Dealer) Split() error {
	return ErrDealerSplit
}

func (d *Dealer) hand() *Hand { return d.hands[0] }

// HoleCard returns the second dealt card, nil before it is dealt
func (d *Dealer) HoleCard() *PlayedCard {
	if d.hand().Len() < 2 {
		return nil
	}
	return d.hand().cards[1]
}

// Revealed reports whether the hole card is face up
func (d *Dealer) Revealed() bool {
	hole := d.HoleCard()
	return hole != nil && !hole.Hidden()
}

// Reveal turns the hole card face up
func (d *Dealer) Reveal() {
	if hole := d.HoleCard(); hole != nil {
		hole.Show()
	}
}

// VisibleScore is what observers see: the up card alone while the hole
// card is hidden, the full score afterwards.
func (d *Dealer) VisibleScore() int {
	if d.Revealed() {
		return d.Score()
	}
	return d.hand().VisibleScore()
}

// Probability returns the share of remaining cards that would bust the
// dealer's hand if drawn next.
func (d *Dealer) Probability(remaining []deck.Card) float64 {
	if len(remaining) == 0 {
		return 0
	}

	held := make([]deck.Card, 0, d.hand().Len()+1)
	for _, pc := range d.hand().cards {
		held = append(held, pc.card)
	}

	busts := 0
	for _, c := range remaining {
		if Score(append(held, c)) > blackjackScore {
			busts++
		}
	}
	return float64(busts) / float64(len(remaining))
}

// Decide picks the next dealer step. The simple policy hits below 17.
// The counting policy hits while a bust is less likely than not and the
// hand is under 21.
func (d *Dealer) Decide(remaining []deck.Card, countCards bool) Decision {
	score := d.Score()
	if countCards {
		if d.Probability(remaining) < bustThreshold && score < blackjackScore {
			return DecisionHit
		}
		return DecisionStand
	}
	if score < dealerStandsOn {
		return DecisionHit
	}
	return DecisionStand
}
