package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/chatjack/internal/deck"
	"github.com/lox/chatjack/internal/randutil"
)

func TestEngineDealOrder(t *testing.T) {
	t.Parallel()

	// a1 b1 D1 a2 b2 D2
	eng, rec := fixedEngine(t, "2c3c4c5c6c7c", "a", "b")
	require.NoError(t, eng.Deal())

	a, err := eng.Player("a")
	require.NoError(t, err)
	b, err := eng.Player("b")
	require.NoError(t, err)

	assert.Equal(t, "[2c 5c] 7 (playing)", a.hands[0].String())
	assert.Equal(t, "[3c 6c] 9 (playing)", b.hands[0].String())

	dealerCards := eng.Dealer().hand().Cards()
	require.Len(t, dealerCards, 2)
	assert.False(t, dealerCards[0].Hidden())
	assert.True(t, dealerCards[1].Hidden(), "hole card dealt face down")
	assert.Equal(t, 4, eng.Dealer().VisibleScore())

	assert.Equal(t, PhaseDealt, eng.Phase())
	assert.Same(t, a, eng.Current())
	require.Len(t, rec.states, 1)
	assert.Equal(t, GameStateDealing, rec.states[0].Type)
	assert.Equal(t, "a", rec.states[0].Player.Name)
}

func TestEngineDoubleDeal(t *testing.T) {
	t.Parallel()

	eng, _ := fixedEngine(t, "TcTd8c8d")
	require.NoError(t, eng.Deal())
	err := eng.Deal()
	assert.ErrorIs(t, err, ErrAlreadyDealt)
	assert.EqualError(t, err, "game has already started")
}

func TestEnginePlayerBust(t *testing.T) {
	t.Parallel()

	// Player T,6 then K busts; dealer A,K is a natural and done at the deal.
	eng, rec := fixedEngine(t, "TcAs6dKhKc")
	require.NoError(t, eng.Deal())
	assert.True(t, eng.Dealer().IsDone())

	p := eng.Current()
	require.NotNil(t, p)
	require.NoError(t, eng.Hit(p, 0))
	assert.Equal(t, StatusBusted, p.hands[0].Status())
	assert.Equal(t, PhasePlayerDone, eng.Phase())

	require.NoError(t, eng.Reveal())
	assert.Equal(t, PhaseDealerDone, eng.Phase())

	results, err := eng.Judge()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomePlayerBust, eng.Outcome())
	assert.Equal(t, PhaseJudged, eng.Phase())

	assert.Equal(t, []GameStateType{
		GameStateDealing,
		GameStatePlayerAction,
		GameStateRevealHoleCard,
		GameStateJudge,
	}, rec.types())
	last := rec.states[len(rec.states)-1]
	assert.Equal(t, OutcomePlayerBust, last.State)
}

func TestEnginePush(t *testing.T) {
	t.Parallel()

	// Player T,8 stands on 18; dealer T,8 stands on 18.
	eng, rec := fixedEngine(t, "TcTd8c8d")
	require.NoError(t, eng.Deal())

	require.NoError(t, eng.Stand(eng.Current(), 0))
	require.NoError(t, eng.Reveal())
	assert.Equal(t, PhaseRevealed, eng.Phase())

	playDealer(t, eng)
	_, err := eng.Judge()
	require.NoError(t, err)
	assert.Equal(t, OutcomePush, eng.Outcome())

	assert.Equal(t, []GameStateType{
		GameStateDealing,
		GameStatePlayerAction,
		GameStateRevealHoleCard,
		GameStateDealerAction,
		GameStateJudge,
	}, rec.types())
	assert.Equal(t, "stand", rec.states[3].Action)
}

func TestEngineOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards string
		hits  int
		want  Outcome
	}{
		{"player natural", "AcTd Kc 7d", 0, OutcomePlayerBlackjack},
		{"dealer natural", "TcAd 8c Kd", 0, OutcomeDealerBlackjack},
		{"both naturals push", "AcAd KcKd", 0, OutcomePush},
		{"player wins", "Tc Td 9c 7d", 0, OutcomePlayerWin},
		{"dealer wins", "Tc Td 7c 9d", 0, OutcomeDealerWin},
		{"dealer busts", "Tc Td 8c 6d Kh", 0, OutcomeDealerBust},
		{"player earns twenty one", "5c Td 6c 8d Tc", 1, OutcomePlayerBlackjack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			eng, _ := fixedEngine(t, tt.cards)
			require.NoError(t, eng.Deal())

			p := eng.Players()[0]
			for range tt.hits {
				require.NoError(t, eng.Hit(p, 0))
			}
			if !p.IsDone() {
				require.NoError(t, eng.Stand(p, 0))
			}
			require.NoError(t, eng.Reveal())
			playDealer(t, eng)

			_, err := eng.Judge()
			require.NoError(t, err)
			assert.Equal(t, tt.want, eng.Outcome())
		})
	}
}

func TestEngineTurnEnforcement(t *testing.T) {
	t.Parallel()

	t.Run("acting after the player stood", func(t *testing.T) {
		eng, _ := fixedEngine(t, "TcTd8c8d")
		require.NoError(t, eng.Deal())

		p := eng.Players()[0]
		require.NoError(t, p.Stand(0))

		err := eng.Hit(p, 0)
		assert.ErrorIs(t, err, ErrOutOfTurn)
		assert.Contains(t, err.Error(), "turn is over")
		assert.ErrorIs(t, eng.Stand(p, 0), ErrOutOfTurn)
	})

	t.Run("second seat waits for the first", func(t *testing.T) {
		eng, _ := fixedEngine(t, "2c3c4c5c6c7c8c9c", "a", "b")
		require.NoError(t, eng.Deal())

		b, err := eng.Player("b")
		require.NoError(t, err)
		assert.ErrorIs(t, eng.Hit(b, 0), ErrOutOfTurn)

		a, err := eng.Player("a")
		require.NoError(t, err)
		require.NoError(t, eng.Stand(a, 0))
		assert.Same(t, b, eng.Current())
		require.NoError(t, eng.Hit(b, 0))
	})

	t.Run("acting before the deal", func(t *testing.T) {
		eng, _ := fixedEngine(t, "TcTd8c8d")
		assert.ErrorIs(t, eng.Hit(eng.Players()[0], 0), ErrNotDealt)
	})
}

func TestEnginePhaseGuards(t *testing.T) {
	t.Parallel()

	eng, _ := fixedEngine(t, "TcTd8c7d5c")
	assert.ErrorIs(t, eng.Reveal(), ErrNotDealt)

	require.NoError(t, eng.Deal())
	assert.ErrorIs(t, eng.Reveal(), ErrPlayersNotDone)

	_, err := eng.Decide()
	assert.ErrorIs(t, err, ErrNotRevealed)

	_, err = eng.Judge()
	assert.ErrorIs(t, err, ErrDealerNotDone)

	require.NoError(t, eng.Stand(eng.Current(), 0))
	require.NoError(t, eng.Reveal())

	_, err = eng.Judge()
	assert.ErrorIs(t, err, ErrDealerNotDone, "dealer still has to play")

	decision, err := eng.Decide()
	require.NoError(t, err)
	assert.Equal(t, DecisionStand, decision, "dealer stands on 17")

	_, err = eng.Decide()
	assert.ErrorIs(t, err, ErrDealerDone)
}

func TestEngineSplit(t *testing.T) {
	t.Parallel()

	// Player 8,8 splits and receives 3 and 2; dealer T,7.
	eng, rec := fixedEngine(t, "8cTc8d7c3d2d")
	require.NoError(t, eng.Deal())

	p := eng.Current()
	require.True(t, p.CanSplit())
	require.NoError(t, eng.Split(p))

	hands := p.Hands()
	require.Len(t, hands, 2)
	assert.Equal(t, 11, hands[0].Score())
	assert.Equal(t, 10, hands[1].Score())
	assert.Equal(t, "split", rec.states[len(rec.states)-1].Action)

	assert.Equal(t, 0, p.ActiveHand())
	require.NoError(t, eng.Stand(p, 0))
	assert.Same(t, p, eng.Current(), "second hand still to play")
	assert.Equal(t, 1, p.ActiveHand())
	require.NoError(t, eng.Stand(p, 1))
	assert.Equal(t, PhasePlayerDone, eng.Phase())

	require.NoError(t, eng.Reveal())
	playDealer(t, eng)
	results, err := eng.Judge()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, OutcomeDealerWin, results[0].Outcome)
	assert.Equal(t, 1, results[1].HandIndex)
}

func TestEngineHitOnFinishedSplitHand(t *testing.T) {
	t.Parallel()

	eng, _ := fixedEngine(t, "8cTc8d7c3d2d")
	require.NoError(t, eng.Deal())
	p := eng.Current()
	require.NoError(t, eng.Split(p))
	require.NoError(t, eng.Stand(p, 0))

	remaining := eng.Deck().Len()
	assert.ErrorIs(t, eng.Hit(p, 0), ErrHandNotPlaying)
	assert.Equal(t, remaining, eng.Deck().Len(), "no card drawn for a rejected hit")
}

func TestEngineSnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	eng, rec := fixedEngine(t, "TcTd2c8d5c")
	require.NoError(t, eng.Deal())
	require.NoError(t, eng.Hit(eng.Current(), 0))

	dealt := rec.states[0]
	assert.Len(t, dealt.Player.Hands[0].Cards, 2, "snapshot unaffected by the later hit")
	assert.False(t, dealt.PlayerDone())
	assert.Equal(t, uint64(1), dealt.Seq)
	assert.Equal(t, uint64(2), rec.states[1].Seq)
}

func TestEngineResetAndScoreboard(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	eng, err := NewEngine(quietLogger(), Config{ShoeSize: 1, Players: []string{"chat"}, ReshuffleBelow: 40},
		WithRand(randutil.New(5)), WithPublisher(rec))
	require.NoError(t, err)

	for round := 1; round <= 5; round++ {
		require.NoError(t, eng.Deal())
		p := eng.Current()
		if p != nil {
			require.NoError(t, eng.Stand(p, 0))
		}
		require.NoError(t, eng.Reveal())
		playDealer(t, eng)
		_, err := eng.Judge()
		require.NoError(t, err)
		require.NoError(t, eng.Reset())

		assert.Equal(t, PhaseNotDealt, eng.Phase())
		assert.False(t, eng.HasDealt())
		assert.Equal(t, OutcomeNone, eng.Outcome())
		assert.GreaterOrEqual(t, eng.Deck().Len(), 40, "depleted shoe reshuffled between rounds")
	}

	snap := eng.Scoreboard().Snapshot()
	assert.Equal(t, 5, snap.Rounds)
	assert.Equal(t, 5, snap.Hands)
	assert.Equal(t, 5, snap.Wins+snap.Losses+snap.Pushes)
}

func TestEngineStop(t *testing.T) {
	t.Parallel()

	eng, rec := fixedEngine(t, "TcTd8c8d")
	require.NoError(t, eng.Deal())
	require.NoError(t, eng.Stop())

	assert.Equal(t, GameStateStop, rec.states[len(rec.states)-1].Type)
	assert.Equal(t, PhaseNotDealt, eng.Phase())
	assert.Equal(t, 0, eng.Players()[0].hands[0].Len())
}

func TestEngineFixedDeckRunsOut(t *testing.T) {
	t.Parallel()

	eng, _ := fixedEngine(t, "TcTd8c")
	assert.ErrorIs(t, eng.Deal(), deck.ErrEmptyDeck)
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(quietLogger(), Config{ShoeSize: 0, Players: []string{"chat"}})
	assert.ErrorIs(t, err, deck.ErrInvalidShoeSize)

	_, err = NewEngine(quietLogger(), Config{ShoeSize: 1, Players: []string{"a", "a"}})
	assert.Error(t, err)

	_, err = NewEngine(quietLogger(), Config{ShoeSize: 1, Players: []string{"a", "b", "c", "d", "e", "f", "g", "h"}})
	assert.Error(t, err)

	eng, err := NewEngine(quietLogger(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 312, eng.Deck().Len())
	assert.Len(t, eng.Players(), 1)
}
