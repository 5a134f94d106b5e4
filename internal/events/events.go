// Package events is the in-process bus that decouples the engine, chat
// and renderers. Events form a closed set: only the types declared here
// satisfy Event.
package events

import (
	"time"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/command"
)

// Kind names an event topic
type Kind string

const (
	KindChat              Kind = "chat"
	KindGameState         Kind = "gamestate"
	KindVoteStart         Kind = "voteStart"
	KindWaitForStart      Kind = "waitForStart"
	KindAnimationComplete Kind = "animationComplete"
)

// String returns the topic name
func (k Kind) String() string { return string(k) }

// Event is one of the payload types in this package
type Event interface {
	Kind() Kind
	event()
}

// ChatType is the chat event variant
type ChatType string

const (
	ChatConnected    ChatType = "CONNECTED"
	ChatDisconnected ChatType = "DISCONNECTED"
	ChatVoteUpdate   ChatType = "VOTE_UPDATE"
	ChatVoteEnd      ChatType = "VOTE_END"
	ChatStart        ChatType = "START"
	ChatRestart      ChatType = "RESTART"
	ChatStop         ChatType = "STOP"
)

// ChatEvent reports chat connectivity, vote progress and control intents.
// Command and Count are set for VOTE_UPDATE, Command alone for VOTE_END.
// VoteID names the vote an update or result belongs to.
type ChatEvent struct {
	Type    ChatType        `json:"type"`
	Command command.Command `json:"command,omitempty"`
	Count   int             `json:"count,omitempty"`
	User    string          `json:"user,omitempty"`
	VoteID  uint64          `json:"voteId,omitempty"`
}

// GameStateEvent carries an engine snapshot
type GameStateEvent struct {
	State blackjack.GameState `json:"state"`
}

// VoteStartEvent opens a vote for the named player
type VoteStartEvent struct {
	VoteID   uint64            `json:"voteId"`
	Player   string            `json:"player"`
	Hand     int               `json:"hand"`
	Options  []command.Command `json:"options"`
	Duration time.Duration     `json:"duration"`
}

// WaitForStartEvent says the table is idle until someone starts a round
type WaitForStartEvent struct {
	Reason string `json:"reason,omitempty"`
}

// AnimationCompleteEvent acknowledges that the renderer finished
// presenting the game state with sequence Seq.
type AnimationCompleteEvent struct {
	Seq uint64 `json:"seq"`
}

func (ChatEvent) Kind() Kind              { return KindChat }
func (GameStateEvent) Kind() Kind         { return KindGameState }
func (VoteStartEvent) Kind() Kind         { return KindVoteStart }
func (WaitForStartEvent) Kind() Kind      { return KindWaitForStart }
func (AnimationCompleteEvent) Kind() Kind { return KindAnimationComplete }

func (ChatEvent) event()              {}
func (GameStateEvent) event()         {}
func (VoteStartEvent) event()         {}
func (WaitForStartEvent) event()      {}
func (AnimationCompleteEvent) event() {}
