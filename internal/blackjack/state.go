package blackjack

// Phase is the engine's position in the round state machine
type Phase string

const (
	PhaseNotDealt   Phase = "not_dealt"
	PhaseDealt      Phase = "dealt"
	PhasePlayerDone Phase = "player_done"
	PhaseRevealed   Phase = "revealed"
	PhaseDealerDone Phase = "dealer_done"
	PhaseJudged     Phase = "judged"
)

// Outcome is the judged result of a player hand against the dealer
type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomePlayerBust      Outcome = "player_bust"
	OutcomeDealerBust      Outcome = "dealer_bust"
	OutcomePush            Outcome = "push"
	OutcomePlayerBlackjack Outcome = "player_blackjack"
	OutcomeDealerBlackjack Outcome = "dealer_blackjack"
	OutcomePlayerWin       Outcome = "player_win"
	OutcomeDealerWin       Outcome = "dealer_win"
)

// Outcomes lists every judged outcome in display order
var Outcomes = []Outcome{
	OutcomePlayerBlackjack,
	OutcomePlayerWin,
	OutcomeDealerBust,
	OutcomePush,
	OutcomeDealerWin,
	OutcomeDealerBlackjack,
	OutcomePlayerBust,
}

// PlayerWon reports whether the outcome favours the player
func (o Outcome) PlayerWon() bool {
	switch o {
	case OutcomePlayerBlackjack, OutcomePlayerWin, OutcomeDealerBust:
		return true
	}
	return false
}

// GameStateType names the announcement a GameState carries
type GameStateType string

const (
	GameStateDealing        GameStateType = "DEALING"
	GameStatePlayerAction   GameStateType = "PLAYER_ACTION"
	GameStateRevealHoleCard GameStateType = "REVEAL_HOLE_CARD"
	GameStateDealerAction   GameStateType = "DEALER_ACTION"
	GameStateJudge          GameStateType = "JUDGE"
	GameStateStop           GameStateType = "STOP"
)

// Result is the judged outcome of one player hand
type Result struct {
	Player    string  `json:"player"`
	HandIndex int     `json:"handIndex"`
	Score     int     `json:"score"`
	Outcome   Outcome `json:"outcome"`
}

// GameState is a snapshot announced after every engine transition. The
// records are copies: later engine mutations do not alter a published
// snapshot.
type GameState struct {
	Seq     uint64         `json:"seq"`
	Type    GameStateType  `json:"type"`
	Phase   Phase          `json:"phase"`
	Dealer  *PlayerRecord  `json:"dealer,omitempty"`
	Player  *PlayerRecord  `json:"player,omitempty"`
	Players []PlayerRecord `json:"players,omitempty"`
	Action  string         `json:"action,omitempty"`
	State   Outcome        `json:"state,omitempty"`
	Results []Result       `json:"results,omitempty"`
}

// PlayerDone reports the carried player's done flag
func (s GameState) PlayerDone() bool {
	return s.Player != nil && s.Player.IsDone
}

// DealerDone reports the carried dealer's done flag
func (s GameState) DealerDone() bool {
	return s.Dealer != nil && s.Dealer.IsDone
}

// Publisher receives engine announcements
type Publisher interface {
	PublishGameState(GameState)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(GameState)

func (f PublisherFunc) PublishGameState(s GameState) { f(s) }

type nopPublisher struct{}

func (nopPublisher) PublishGameState(GameState) {}
