package server

import (
	"encoding/json"
	"time"

	"github.com/lox/chatjack/internal/command"
	"github.com/lox/chatjack/internal/events"
)

// MessageType names a renderer protocol message
type MessageType string

const (
	// Renderer to server
	MessageTypeAnimationComplete MessageType = "animation_complete"

	// Server to renderer
	MessageTypeWelcome      MessageType = "welcome"
	MessageTypeGameState    MessageType = "gamestate"
	MessageTypeVoteStart    MessageType = "vote_start"
	MessageTypeVoteUpdate   MessageType = "vote_update"
	MessageTypeVoteEnd      MessageType = "vote_end"
	MessageTypeWaitForStart MessageType = "wait_for_start"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for every frame in either direction
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// AnimationCompleteData acknowledges the game state with sequence Seq
type AnimationCompleteData struct {
	Seq uint64 `json:"seq"`
}

// WelcomeData tells a renderer who it is. Only the presenter's
// acknowledgements advance the game.
type WelcomeData struct {
	ConnectionID string `json:"connectionId"`
	SessionID    string `json:"sessionId"`
	Presenter    bool   `json:"presenter"`
}

type VoteStartData struct {
	VoteID     uint64            `json:"voteId"`
	Player     string            `json:"player"`
	Hand       int               `json:"hand"`
	Options    []command.Command `json:"options"`
	DurationMs int64             `json:"durationMs"`
}

type VoteUpdateData struct {
	VoteID  uint64          `json:"voteId"`
	Command command.Command `json:"command"`
	Count   int             `json:"count"`
	User    string          `json:"user,omitempty"`
}

type VoteEndData struct {
	VoteID  uint64          `json:"voteId"`
	Command command.Command `json:"command"`
}

type WaitForStartData struct {
	Reason string `json:"reason,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// messageFor projects a bus event onto the renderer protocol. Events
// renderers don't see return nil.
func messageFor(e events.Event) (*Message, error) {
	switch e := e.(type) {
	case events.GameStateEvent:
		return NewMessage(MessageTypeGameState, e.State)
	case events.VoteStartEvent:
		return NewMessage(MessageTypeVoteStart, VoteStartData{
			VoteID:     e.VoteID,
			Player:     e.Player,
			Hand:       e.Hand,
			Options:    e.Options,
			DurationMs: e.Duration.Milliseconds(),
		})
	case events.WaitForStartEvent:
		return NewMessage(MessageTypeWaitForStart, WaitForStartData{Reason: e.Reason})
	case events.ChatEvent:
		switch e.Type {
		case events.ChatVoteUpdate:
			return NewMessage(MessageTypeVoteUpdate, VoteUpdateData{
				VoteID:  e.VoteID,
				Command: e.Command,
				Count:   e.Count,
				User:    e.User,
			})
		case events.ChatVoteEnd:
			return NewMessage(MessageTypeVoteEnd, VoteEndData{VoteID: e.VoteID, Command: e.Command})
		}
	}
	return nil, nil
}
