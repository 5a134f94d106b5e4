package twitch

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyLine = errors.New("empty IRC line")

// Line is one parsed IRC message.
type Line struct {
	Tags    map[string]string
	Prefix  string
	Command string
	Params  []string
}

// ParseLine parses a single IRC line with optional IRCv3 tags:
//
//	@badges=moderator/1;mod=1 :nick!nick@nick.tmi.twitch.tv PRIVMSG #chan :!hit
func ParseLine(raw string) (Line, error) {
	s := strings.TrimRight(raw, "\r\n")
	if s == "" {
		return Line{}, ErrEmptyLine
	}

	var l Line
	if strings.HasPrefix(s, "@") {
		tags, rest, ok := strings.Cut(s[1:], " ")
		if !ok {
			return Line{}, fmt.Errorf("tags without command: %q", raw)
		}
		l.Tags = parseTags(tags)
		s = strings.TrimLeft(rest, " ")
	}
	if strings.HasPrefix(s, ":") {
		prefix, rest, ok := strings.Cut(s[1:], " ")
		if !ok {
			return Line{}, fmt.Errorf("prefix without command: %q", raw)
		}
		l.Prefix = prefix
		s = strings.TrimLeft(rest, " ")
	}

	for s != "" {
		if strings.HasPrefix(s, ":") && l.Command != "" {
			l.Params = append(l.Params, s[1:])
			break
		}
		word, rest, _ := strings.Cut(s, " ")
		if l.Command == "" {
			l.Command = strings.ToUpper(word)
		} else {
			l.Params = append(l.Params, word)
		}
		s = strings.TrimLeft(rest, " ")
	}
	if l.Command == "" {
		return Line{}, fmt.Errorf("no command: %q", raw)
	}
	return l, nil
}

var tagEscapes = strings.NewReplacer(`\:`, ";", `\s`, " ", `\\`, `\`, `\r`, "\r", `\n`, "\n")

func parseTags(s string) map[string]string {
	tags := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		k, v, _ := strings.Cut(kv, "=")
		if k != "" {
			tags[k] = tagEscapes.Replace(v)
		}
	}
	return tags
}

// Nick returns the sender nick from the prefix
func (l Line) Nick() string {
	nick, _, _ := strings.Cut(l.Prefix, "!")
	return nick
}

// Trailing returns the last parameter, the message text of a PRIVMSG
func (l Line) Trailing() string {
	if len(l.Params) == 0 {
		return ""
	}
	return l.Params[len(l.Params)-1]
}

// UserID identifies the sender across name changes. Display names are
// neither unique nor stable, so votes are keyed on this instead. Lines
// without a user-id tag fall back to the login.
func (l Line) UserID() string {
	if id := l.Tags["user-id"]; id != "" {
		return id
	}
	return strings.ToLower(l.Nick())
}

// DisplayName prefers the display-name tag over the nick
func (l Line) DisplayName() string {
	if name := l.Tags["display-name"]; name != "" {
		return name
	}
	return l.Nick()
}

func (l Line) hasBadge(badge string) bool {
	for _, b := range strings.Split(l.Tags["badges"], ",") {
		name, _, _ := strings.Cut(b, "/")
		if name == badge {
			return true
		}
	}
	return false
}

// Moderator reports a channel moderator
func (l Line) Moderator() bool {
	return l.Tags["mod"] == "1" || l.hasBadge("moderator")
}

// Broadcaster reports the channel owner
func (l Line) Broadcaster() bool {
	return l.hasBadge("broadcaster")
}
