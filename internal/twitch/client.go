// Package twitch reads a channel's chat over Twitch's IRC WebSocket
// gateway and forwards it to a game session.
package twitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/chatjack/internal/chat"
)

// DefaultURL is Twitch's IRC WebSocket endpoint
const DefaultURL = "wss://irc-ws.chat.twitch.tv:443"

// anonymous read-only login accepted by Twitch
const (
	anonymousNick = "justinfan31415"
	anonymousPass = "SCHMOOPIIE"
)

var ErrAuthFailed = errors.New("twitch login failed")

// Sink receives chat from the client. *session.Session satisfies it.
type Sink interface {
	Connected() bool
	Disconnected() bool
	HandleMessage(chat.Message) bool
}

// Config identifies the channel and the account reading it
type Config struct {
	URL        string
	Channel    string
	Username   string
	Token      string
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Client is a reconnecting chat reader
type Client struct {
	logger *log.Logger
	clock  quartz.Clock
	cfg    Config
	sink   Sink
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a client for cfg.Channel
func NewClient(logger *log.Logger, clock quartz.Clock, cfg Config, sink Sink) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = time.Minute
	}
	cfg.Channel = strings.ToLower(strings.TrimPrefix(cfg.Channel, "#"))

	return &Client{
		logger: logger.WithPrefix("twitch").With("channel", cfg.Channel),
		clock:  clock,
		cfg:    cfg,
		sink:   sink,
		dialer: websocket.DefaultDialer,
	}
}

// Run reads chat until ctx is cancelled, reconnecting with capped
// exponential backoff whenever the connection drops.
func (c *Client) Run(ctx context.Context) error {
	if c.cfg.Channel == "" {
		return errors.New("twitch: no channel configured")
	}

	backoff := c.cfg.MinBackoff
	for {
		joined, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if joined {
			backoff = c.cfg.MinBackoff
		}
		c.logger.Warn("Chat connection lost, reconnecting", "error", err, "backoff", backoff)

		timer := c.clock.NewTimer(backoff, "twitch", "backoff")
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

// session runs one connection. joined reports whether the channel was
// joined before it ended.
func (c *Client) session(ctx context.Context) (joined bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		if joined {
			c.sink.Disconnected()
		}
	}()

	nick, pass := anonymousNick, anonymousPass
	if c.cfg.Username != "" {
		nick = strings.ToLower(c.cfg.Username)
		pass = c.cfg.Token
		if !strings.HasPrefix(pass, "oauth:") {
			pass = "oauth:" + pass
		}
	}
	for _, line := range []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS " + pass,
		"NICK " + nick,
		"JOIN #" + c.cfg.Channel,
	} {
		if err := c.send(line); err != nil {
			return false, err
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return joined, fmt.Errorf("read: %w", err)
		}
		for _, raw := range strings.Split(string(data), "\r\n") {
			if raw == "" {
				continue
			}
			line, err := ParseLine(raw)
			if err != nil {
				c.logger.Debug("Skipping unparseable line", "line", raw, "error", err)
				continue
			}
			done, err := c.handle(line, nick, &joined)
			if err != nil || done {
				return joined, err
			}
		}
	}
}

func (c *Client) handle(line Line, nick string, joined *bool) (done bool, err error) {
	switch line.Command {
	case "PING":
		return false, c.send("PONG :" + line.Trailing())
	case "JOIN":
		if strings.EqualFold(line.Nick(), nick) && !*joined {
			*joined = true
			c.logger.Info("Joined channel", "nick", nick)
			c.sink.Connected()
		}
	case "PRIVMSG":
		c.sink.HandleMessage(chat.Message{
			User:        line.UserID(),
			Name:        line.DisplayName(),
			Text:        line.Trailing(),
			Moderator:   line.Moderator(),
			Broadcaster: line.Broadcaster(),
		})
	case "NOTICE":
		text := line.Trailing()
		if strings.Contains(text, "Login authentication failed") || strings.Contains(text, "Improperly formatted auth") {
			return true, fmt.Errorf("%w: %s", ErrAuthFailed, text)
		}
		c.logger.Info("Notice", "text", text)
	case "RECONNECT":
		c.logger.Info("Server asked us to reconnect")
		return true, errors.New("server requested reconnect")
	}
	return false, nil
}

func (c *Client) send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n")); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Say sends a message to the channel. It needs an authenticated login.
func (c *Client) Say(text string) error {
	if c.cfg.Username == "" {
		return errors.New("twitch: anonymous connections cannot chat")
	}
	return c.send(fmt.Sprintf("PRIVMSG #%s :%s", c.cfg.Channel, text))
}
