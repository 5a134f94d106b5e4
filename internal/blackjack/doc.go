// Package blackjack implements the rules engine for a single-dealer
// blackjack table driven by chat votes.
//
// The Engine is the only mutator of game state. It deals from a
// deck.Deck, enforces turn order across player seats and announces every
// state change as a GameState through a Publisher:
//
//	eng, err := blackjack.NewEngine(logger, blackjack.Config{
//	    ShoeSize: 6,
//	    Players:  []string{"chat"},
//	}, blackjack.WithPublisher(bus))
//	_ = eng.Deal()
//	_ = eng.Hit(eng.Current(), 0)
//
// # Deterministic Testing
//
// Provide a fixed deck to reproduce a round exactly. Cards are dealt in
// the order given, players first, dealer last:
//
//	d := deck.NewFixed(deck.MustParseCards("Tc9d7s6h")...)
//	eng, _ := blackjack.NewEngine(logger, cfg, blackjack.WithDeck(d))
//
// # State Machine
//
// A round moves NotDealt -> Dealt -> PlayerDone -> Revealed ->
// DealerDone -> Judged. Every out-of-order call returns an error
// wrapping one of the package sentinels; nothing is corrected silently.
package blackjack
