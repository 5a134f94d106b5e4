// Package command defines the chat command vocabulary.
package command

import (
	"strings"
)

// Command is a normalised chat command token
type Command string

const (
	Hit     Command = "hit"
	Stand   Command = "stand"
	Split   Command = "split"
	Start   Command = "start"
	Restart Command = "restart"
	Stop    Command = "stop"
)

// Prefix marks a chat message as a command
const Prefix = "!"

var known = map[Command]bool{
	Hit:     true,
	Stand:   true,
	Split:   true,
	Start:   true,
	Restart: true,
	Stop:    true,
}

// String returns the bare token
func (c Command) String() string { return string(c) }

// Upper returns the token as shown in vote options ("HIT")
func (c Command) Upper() string { return strings.ToUpper(string(c)) }

// IsVote reports whether the command is a player action chat votes on
func (c Command) IsVote() bool {
	return c == Hit || c == Stand || c == Split
}

// IsControl reports whether the command drives the round itself
func (c Command) IsControl() bool {
	return c == Start || c == Restart || c == Stop
}

// Valid reports whether c is part of the vocabulary
func (c Command) Valid() bool { return known[c] }

// Parse normalises a chat message into a command. Only the first word
// counts, it must carry the "!" prefix and case is ignored, so
// "!HIT now" is Hit. ok is false for anything else.
func Parse(message string) (Command, bool) {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return "", false
	}
	word, found := strings.CutPrefix(fields[0], Prefix)
	if !found {
		return "", false
	}
	c := Command(strings.ToLower(word))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Normalize accepts a bare or prefixed token in any case. It is used at
// boundaries that already know the text is a command, such as renderer
// or terminal input.
func Normalize(token string) (Command, bool) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, Prefix) {
		token = Prefix + token
	}
	return Parse(token)
}

// VoteOptions returns the player actions offered for a vote.
func VoteOptions(allowSplit bool) []Command {
	if allowSplit {
		return []Command{Hit, Stand, Split}
	}
	return []Command{Hit, Stand}
}
