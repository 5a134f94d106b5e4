package blackjack

import (
	"encoding/json"
	"fmt"

	"github.com/lox/chatjack/internal/deck"
)

// CardRecord is the wire form of a card in play
type CardRecord struct {
	Ordinal   int    `json:"ordinal"`
	Hidden    bool   `json:"hidden"`
	Owner     string `json:"owner"`
	HandIndex int    `json:"handIndex"`
}

// HandRecord is the wire form of a hand. VisibleScore counts face up
// cards only and is what observers should be shown.
type HandRecord struct {
	Owner        string       `json:"owner"`
	Status       HandStatus   `json:"status"`
	Score        int          `json:"score"`
	VisibleScore int          `json:"visibleScore"`
	Cards        []CardRecord `json:"cards"`
}

// PlayerRecord is the wire form of a player or the dealer
type PlayerRecord struct {
	Name     string       `json:"name"`
	Seat     int          `json:"seat"`
	Role     Role         `json:"role"`
	IsDone   bool         `json:"isDone"`
	HasSplit bool         `json:"hasSplit"`
	Hands    []HandRecord `json:"hands"`
}

// Record projects the card onto its wire form
func (pc *PlayedCard) Record() CardRecord {
	return CardRecord{
		Ordinal:   pc.card.Ordinal(),
		Hidden:    pc.hidden,
		Owner:     pc.owner,
		HandIndex: pc.slot,
	}
}

// PlayedCardFromRecord rebuilds a card in play
func PlayedCardFromRecord(r CardRecord) (*PlayedCard, error) {
	c, err := deck.New(r.Ordinal)
	if err != nil {
		return nil, err
	}
	pc := NewPlayedCard(c)
	pc.hidden = r.Hidden
	pc.assign(r.Owner, r.HandIndex)
	return pc, nil
}

// Record projects the hand onto its wire form
func (h *Hand) Record() HandRecord {
	cards := make([]CardRecord, len(h.cards))
	for i, pc := range h.cards {
		cards[i] = pc.Record()
	}
	return HandRecord{
		Owner:        h.owner,
		Status:       h.status,
		Score:        h.score,
		VisibleScore: h.VisibleScore(),
		Cards:        cards,
	}
}

// HandFromRecord rebuilds a hand at index. The score is re-derived from
// the cards and must agree with the record.
func HandFromRecord(r HandRecord, index int) (*Hand, error) {
	h := NewHand(r.Owner, index)
	for _, cr := range r.Cards {
		pc, err := PlayedCardFromRecord(cr)
		if err != nil {
			return nil, err
		}
		pc.assign(r.Owner, index)
		h.cards = append(h.cards, pc)
	}
	h.status = StatusPlaying
	h.Accumulate()
	if h.score != r.Score {
		return nil, fmt.Errorf("hand of %s: recorded score %d does not match cards (%d)", r.Owner, r.Score, h.score)
	}
	h.status = r.Status
	return h, nil
}

// Record projects the player onto its wire form
func (p *Player) Record() PlayerRecord {
	hands := make([]HandRecord, len(p.hands))
	for i, h := range p.hands {
		hands[i] = h.Record()
	}
	return PlayerRecord{
		Name:     p.name,
		Seat:     p.seat,
		Role:     p.role,
		IsDone:   p.done,
		HasSplit: p.hasSplit,
		Hands:    hands,
	}
}

// PlayerFromRecord rebuilds a player seat
func PlayerFromRecord(r PlayerRecord) (*Player, error) {
	if r.Role == RoleDealer {
		return nil, fmt.Errorf("record for %s is a dealer, use DealerFromRecord", r.Name)
	}
	return playerFromRecord(r)
}

// DealerFromRecord rebuilds the dealer seat
func DealerFromRecord(r PlayerRecord) (*Dealer, error) {
	if r.Role != RoleDealer {
		return nil, fmt.Errorf("record for %s is not a dealer", r.Name)
	}
	p, err := playerFromRecord(r)
	if err != nil {
		return nil, err
	}
	return &Dealer{Player: p}, nil
}

func playerFromRecord(r PlayerRecord) (*Player, error) {
	p := newPlayer(r.Name, r.Seat, r.Role)
	if len(r.Hands) > 0 {
		p.hands = make([]*Hand, 0, len(r.Hands))
		for i, hr := range r.Hands {
			h, err := HandFromRecord(hr, i)
			if err != nil {
				return nil, err
			}
			h.fromSplit = r.HasSplit
			p.hands = append(p.hands, h)
		}
	}
	p.done = r.IsDone
	p.hasSplit = r.HasSplit
	return p, nil
}

func (pc *PlayedCard) MarshalJSON() ([]byte, error) { return json.Marshal(pc.Record()) }

func (pc *PlayedCard) UnmarshalJSON(data []byte) error {
	var r CardRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	rebuilt, err := PlayedCardFromRecord(r)
	if err != nil {
		return err
	}
	*pc = *rebuilt
	return nil
}

func (h *Hand) MarshalJSON() ([]byte, error) { return json.Marshal(h.Record()) }

func (h *Hand) UnmarshalJSON(data []byte) error {
	var r HandRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	index := 0
	if len(r.Cards) > 0 {
		index = r.Cards[0].HandIndex
	}
	rebuilt, err := HandFromRecord(r, index)
	if err != nil {
		return err
	}
	*h = *rebuilt
	return nil
}

func (p *Player) MarshalJSON() ([]byte, error) { return json.Marshal(p.Record()) }

func (p *Player) UnmarshalJSON(data []byte) error {
	var r PlayerRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	rebuilt, err := playerFromRecord(r)
	if err != nil {
		return err
	}
	*p = *rebuilt
	return nil
}

func (d *Dealer) UnmarshalJSON(data []byte) error {
	var r PlayerRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	rebuilt, err := DealerFromRecord(r)
	if err != nil {
		return err
	}
	*d = *rebuilt
	return nil
}

// ActiveHand returns the index of the first hand still playing, -1 when
// none is.
func (r PlayerRecord) ActiveHand() int {
	for i, h := range r.Hands {
		if h.Status == StatusPlaying {
			return i
		}
	}
	return -1
}

// CanSplit reports whether the recorded seat could split: a player that
// has not split holding exactly one pair.
func (r PlayerRecord) CanSplit() bool {
	if r.Role != RolePlayer || r.HasSplit || r.IsDone || len(r.Hands) != 1 {
		return false
	}
	cards := r.Hands[0].Cards
	if len(cards) != 2 {
		return false
	}
	a, errA := deck.New(cards[0].Ordinal)
	b, errB := deck.New(cards[1].Ordinal)
	return errA == nil && errB == nil && a.Rank() == b.Rank()
}

// HiddenOrdinal replaces the ordinal of a face down card in public
// records
const HiddenOrdinal = -1

// Public returns a copy of the hand safe to show people at the table:
// face down cards lose their identity and the score is the visible one.
func (r HandRecord) Public() HandRecord {
	out := r
	out.Cards = make([]CardRecord, len(r.Cards))
	for i, c := range r.Cards {
		if c.Hidden {
			c.Ordinal = HiddenOrdinal
			out.Score = r.VisibleScore
		}
		out.Cards[i] = c
	}
	return out
}

// Public returns a copy of the record with every hand made public
func (r PlayerRecord) Public() PlayerRecord {
	out := r
	out.Hands = make([]HandRecord, len(r.Hands))
	for i, h := range r.Hands {
		out.Hands[i] = h.Public()
	}
	return out
}

// Public returns a copy of the state that does not leak the hole card.
// Records from it can't be rebuilt while a card is hidden.
func (s GameState) Public() GameState {
	out := s
	if s.Dealer != nil {
		d := s.Dealer.Public()
		out.Dealer = &d
	}
	if s.Player != nil {
		p := s.Player.Public()
		out.Player = &p
	}
	if s.Players != nil {
		out.Players = make([]PlayerRecord, len(s.Players))
		for i, p := range s.Players {
			out.Players[i] = p.Public()
		}
	}
	return out
}

// NextPlayer returns the first seat in s that is not done.
func (s GameState) NextPlayer() (PlayerRecord, bool) {
	for _, p := range s.Players {
		if !p.IsDone {
			return p, true
		}
	}
	return PlayerRecord{}, false
}
