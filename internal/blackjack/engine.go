package blackjack

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/chatjack/internal/deck"
)

var (
	ErrAlreadyDealt   = errors.New("game has already started")
	ErrNotDealt       = errors.New("game has not been dealt")
	ErrOutOfTurn      = errors.New("out of turn")
	ErrPlayersNotDone = errors.New("players are not done")
	ErrNotRevealed    = errors.New("hole card has not been revealed")
	ErrDealerNotDone  = errors.New("dealer is not done")
	ErrDealerDone     = errors.New("dealer is done")
	ErrUnknownPlayer  = errors.New("unknown player")
)

// MaxPlayers is the largest number of player seats at the table
const MaxPlayers = 7

// Config holds table settings for an Engine
type Config struct {
	ShoeSize       int
	CountCards     bool
	Players        []string
	DealerName     string
	ReshuffleBelow int
}

// DefaultConfig returns a six deck, single seat table
func DefaultConfig() Config {
	return Config{
		ShoeSize:       6,
		Players:        []string{"chat"},
		DealerName:     "dealer",
		ReshuffleBelow: deck.NumCards,
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithDeck deals from d instead of a freshly shuffled shoe
func WithDeck(d *deck.Deck) Option {
	return func(e *Engine) { e.deck = d }
}

// WithRand shuffles shoes with rng
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithPublisher announces game states to p
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithScoreboard records judged rounds on sb
func WithScoreboard(sb *Scoreboard) Option {
	return func(e *Engine) { e.scoreboard = sb }
}

// Engine drives one dealer and its player seats through rounds.
type Engine struct {
	cfg        Config
	logger     *log.Logger
	deck       *deck.Deck
	rng        *rand.Rand
	publisher  Publisher
	scoreboard *Scoreboard

	dealer   *Dealer
	players  []*Player
	hasDealt bool
	phase    Phase
	outcome  Outcome
	results  []Result
	seq      uint64
	round    int
}

// NewEngine creates an engine ready to deal the first round.
func NewEngine(logger *log.Logger, cfg Config, opts ...Option) (*Engine, error) {
	if len(cfg.Players) == 0 {
		cfg.Players = DefaultConfig().Players
	}
	if len(cfg.Players) > MaxPlayers {
		return nil, fmt.Errorf("%d players exceeds the table limit of %d", len(cfg.Players), MaxPlayers)
	}
	if cfg.DealerName == "" {
		cfg.DealerName = DefaultConfig().DealerName
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger.WithPrefix("engine"),
		publisher: nopPublisher{},
		phase:     PhaseNotDealt,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.deck == nil {
		d, err := deck.NewShoe(cfg.ShoeSize, e.rng)
		if err != nil {
			return nil, err
		}
		e.deck = d
	}
	if e.scoreboard == nil {
		e.scoreboard = NewScoreboard()
	}

	seen := make(map[string]bool, len(cfg.Players))
	for i, name := range cfg.Players {
		if name == "" || seen[name] || name == cfg.DealerName {
			return nil, fmt.Errorf("invalid or duplicate seat name %q", name)
		}
		seen[name] = true
		e.players = append(e.players, NewPlayer(name, i))
	}
	e.dealer = NewDealer(cfg.DealerName)

	return e, nil
}

// Phase returns the current state machine phase
func (e *Engine) Phase() Phase { return e.phase }

// Outcome returns the first seat's judged outcome, empty before Judge
func (e *Engine) Outcome() Outcome { return e.outcome }

// Results returns per-hand results of the last Judge
func (e *Engine) Results() []Result { return append([]Result(nil), e.results...) }

// HasDealt reports whether the current round has been dealt
func (e *Engine) HasDealt() bool { return e.hasDealt }

// Dealer returns the dealer seat
func (e *Engine) Dealer() *Dealer { return e.dealer }

// Players returns the player seats in turn order
func (e *Engine) Players() []*Player { return append([]*Player(nil), e.players...) }

// Deck returns the draw pile
func (e *Engine) Deck() *deck.Deck { return e.deck }

// Scoreboard returns the session outcome counts
func (e *Engine) Scoreboard() *Scoreboard { return e.scoreboard }

// Round returns the number of rounds dealt so far
func (e *Engine) Round() int { return e.round }

// Player looks a seat up by name
func (e *Engine) Player(name string) (*Player, error) {
	for _, p := range e.players {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
}

// Current returns the player whose turn it is: the first seat not yet
// done. Nil before the deal and once every player is done.
func (e *Engine) Current() *Player {
	if !e.hasDealt || e.phase != PhaseDealt {
		return nil
	}
	for _, p := range e.players {
		if !p.done {
			return p
		}
	}
	return nil
}

func (e *Engine) draw() (deck.Card, error) {
	if e.deck.Len() == 0 && !e.deck.Fixed() {
		e.logger.Info("Shoe exhausted mid-round, reshuffling", "shoeSize", e.deck.ShoeSize())
		if err := e.deck.Reshuffle(e.deck.ShoeSize()); err != nil {
			return 0, err
		}
	}
	return e.deck.Draw()
}

// Deal deals two cards to every seat, players first and the dealer last,
// with the dealer's second card face down.
func (e *Engine) Deal() error {
	if e.hasDealt {
		return ErrAlreadyDealt
	}

	for pass := range 2 {
		for _, p := range e.players {
			c, err := e.draw()
			if err != nil {
				return fmt.Errorf("deal to %s: %w", p.name, err)
			}
			if err := p.Hit(c, 0); err != nil {
				return err
			}
		}
		c, err := e.draw()
		if err != nil {
			return fmt.Errorf("deal to dealer: %w", err)
		}
		pc := NewPlayedCard(c)
		if pass == 1 {
			pc.Hide()
		}
		if err := e.dealer.take(pc, 0); err != nil {
			return err
		}
	}

	e.hasDealt = true
	e.round++
	e.phase = PhaseDealt
	e.advance()

	acting := e.Current()
	if acting == nil {
		acting = e.players[0]
	}
	e.logger.Debug("Dealt round", "round", e.round, "dealer", e.dealer.VisibleScore(), "phase", e.phase)
	e.publish(GameStateDealing, acting, "")
	return nil
}

// advance moves to PlayerDone once every seat has finished.
func (e *Engine) advance() {
	if e.phase != PhaseDealt {
		return
	}
	for _, p := range e.players {
		if !p.done {
			return
		}
	}
	e.phase = PhasePlayerDone
}

func (e *Engine) checkTurn(p *Player) error {
	if !e.hasDealt {
		return ErrNotDealt
	}
	if p == nil {
		return fmt.Errorf("%w: nil player", ErrUnknownPlayer)
	}
	if p.done {
		return fmt.Errorf("%w: %s's turn is over", ErrOutOfTurn, p.name)
	}
	if current := e.Current(); current != p {
		return fmt.Errorf("%w: it is not %s's turn", ErrOutOfTurn, p.name)
	}
	return nil
}

// Hit draws a card into the player's hand at handIndex.
func (e *Engine) Hit(p *Player, handIndex int) error {
	if err := e.checkTurn(p); err != nil {
		return err
	}
	h, err := p.Hand(handIndex)
	if err != nil {
		return err
	}
	if h.IsDone() {
		return fmt.Errorf("hit %s hand %d: %w", p.name, handIndex, ErrHandNotPlaying)
	}
	c, err := e.draw()
	if err != nil {
		return err
	}
	if err := p.Hit(c, handIndex); err != nil {
		return err
	}
	e.logger.Debug("Player hit", "player", p.name, "hand", handIndex, "card", c, "score", p.hands[handIndex].score)
	e.afterPlayerAction(p, string(DecisionHit))
	return nil
}

// Stand ends play on the player's hand at handIndex.
func (e *Engine) Stand(p *Player, handIndex int) error {
	if err := e.checkTurn(p); err != nil {
		return err
	}
	if err := p.Stand(handIndex); err != nil {
		return err
	}
	e.logger.Debug("Player stood", "player", p.name, "hand", handIndex)
	e.afterPlayerAction(p, string(DecisionStand))
	return nil
}

// Split splits the player's pair and deals one card to each new hand.
func (e *Engine) Split(p *Player) error {
	if err := e.checkTurn(p); err != nil {
		return err
	}
	if err := p.Split(); err != nil {
		return err
	}
	for i := range p.hands {
		c, err := e.draw()
		if err != nil {
			return err
		}
		if err := p.hands[i].Add(NewPlayedCard(c)); err != nil {
			return err
		}
	}
	p.updateDone()
	e.logger.Debug("Player split", "player", p.name)
	e.afterPlayerAction(p, "split")
	return nil
}

func (e *Engine) afterPlayerAction(p *Player, action string) {
	e.advance()
	e.publish(GameStatePlayerAction, p, action)
}

// Reveal turns the dealer's hole card face up once every player is done.
func (e *Engine) Reveal() error {
	if !e.hasDealt {
		return ErrNotDealt
	}
	if e.phase != PhasePlayerDone {
		return fmt.Errorf("reveal in phase %s: %w", e.phase, ErrPlayersNotDone)
	}
	e.dealer.Reveal()
	e.phase = PhaseRevealed
	if e.dealer.done {
		e.phase = PhaseDealerDone
	}
	e.logger.Debug("Revealed hole card", "dealer", e.dealer.Score())
	e.publish(GameStateRevealHoleCard, nil, "")
	return nil
}

// Decide plays one dealer step by the dealer policy.
func (e *Engine) Decide() (Decision, error) {
	if !e.hasDealt || !e.dealer.Revealed() {
		return "", ErrNotRevealed
	}
	if e.dealer.done {
		return "", ErrDealerDone
	}

	decision := e.dealer.Decide(e.deck.Remaining(), e.cfg.CountCards)
	switch decision {
	case DecisionHit:
		c, err := e.draw()
		if err != nil {
			return "", err
		}
		if err := e.dealer.Hit(c, 0); err != nil {
			return "", err
		}
	default:
		if err := e.dealer.Stand(0); err != nil {
			return "", err
		}
	}

	if e.dealer.done {
		e.phase = PhaseDealerDone
	}
	e.logger.Debug("Dealer acted", "decision", decision, "score", e.dealer.Score())
	e.publish(GameStateDealerAction, nil, string(decision))
	return decision, nil
}

// Judge settles every player hand against the dealer.
func (e *Engine) Judge() ([]Result, error) {
	if !e.hasDealt || e.phase != PhaseDealerDone || !e.dealer.done {
		return nil, fmt.Errorf("judge in phase %s: %w", e.phase, ErrDealerNotDone)
	}

	dealerHand := e.dealer.hand()
	results := make([]Result, 0, len(e.players))
	for _, p := range e.players {
		for i, h := range p.hands {
			results = append(results, Result{
				Player:    p.name,
				HandIndex: i,
				Score:     h.score,
				Outcome:   judge(h, dealerHand),
			})
		}
	}

	e.results = results
	e.outcome = results[0].Outcome
	e.phase = PhaseJudged
	e.scoreboard.Record(results)

	e.logger.Info("Round judged", "round", e.round, "outcome", e.outcome, "dealer", dealerHand.score)
	e.publish(GameStateJudge, nil, "")
	return e.Results(), nil
}

func judge(player, dealer *Hand) Outcome {
	switch {
	case player.status == StatusBusted:
		return OutcomePlayerBust
	case dealer.status == StatusBusted:
		return OutcomeDealerBust
	case player.status == StatusBlackjack && dealer.status != StatusBlackjack:
		return OutcomePlayerBlackjack
	case dealer.status == StatusBlackjack && player.status != StatusBlackjack:
		return OutcomeDealerBlackjack
	case player.score == dealer.score:
		return OutcomePush
	case player.score > dealer.score:
		return OutcomePlayerWin
	default:
		return OutcomeDealerWin
	}
}

// Stop abandons the round: a STOP state is announced with the table as
// it stands, then the table is reset.
func (e *Engine) Stop() error {
	e.publish(GameStateStop, nil, "")
	return e.Reset()
}

// Reset clears every seat for the next round and reshuffles a depleted
// shoe. Fixed decks are left as they are.
func (e *Engine) Reset() error {
	for _, p := range e.players {
		p.Reset()
	}
	e.dealer.Reset()
	e.hasDealt = false
	e.phase = PhaseNotDealt
	e.outcome = OutcomeNone
	e.results = nil

	if !e.deck.Fixed() && e.deck.Len() < e.cfg.ReshuffleBelow {
		e.logger.Info("Reshuffling shoe", "remaining", e.deck.Len(), "shoeSize", e.deck.ShoeSize())
		e.deck.Empty()
		if err := e.deck.Reshuffle(e.deck.ShoeSize()); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot builds the current GameState without publishing it.
func (e *Engine) Snapshot(typ GameStateType, acting *Player) GameState {
	dealer := e.dealer.Record()
	players := make([]PlayerRecord, len(e.players))
	for i, p := range e.players {
		players[i] = p.Record()
	}
	if acting == nil {
		acting = e.players[0]
	}
	player := acting.Record()

	return GameState{
		Seq:     e.seq,
		Type:    typ,
		Phase:   e.phase,
		Dealer:  &dealer,
		Player:  &player,
		Players: players,
		State:   e.outcome,
		Results: e.Results(),
	}
}

func (e *Engine) publish(typ GameStateType, acting *Player, action string) {
	e.seq++
	state := e.Snapshot(typ, acting)
	state.Action = action
	e.publisher.PublishGameState(state)
}
