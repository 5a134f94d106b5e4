// Package broadcast mirrors a session's game states onto Redis pub/sub
// so spectators outside the stream can follow the table.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/lox/chatjack/internal/blackjack"
	"github.com/lox/chatjack/internal/events"
)

const defaultQueueSize = 64

// Update is the payload published for every game state
type Update struct {
	Session   string              `json:"session"`
	Seq       uint64              `json:"seq"`
	Type      string              `json:"type"`
	State     blackjack.GameState `json:"state"`
	Timestamp time.Time           `json:"timestamp"`
}

// PublishFunc delivers one payload to a channel
type PublishFunc func(ctx context.Context, channel string, payload []byte) error

// Publisher queues game states from the bus and publishes them from Run.
// The bus is never blocked: when the queue is full the update is dropped.
type Publisher struct {
	logger  *log.Logger
	session string
	channel string
	publish PublishFunc
	queue   chan []byte

	published atomic.Int64
	dropped   atomic.Int64
}

// Dial connects to Redis at addr and checks the connection
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return rdb, nil
}

// New publishes on "<channel>:<sessionID>" through rdb
func New(logger *log.Logger, rdb *redis.Client, channel, sessionID string) *Publisher {
	return newPublisher(logger, channel, sessionID, func(ctx context.Context, ch string, payload []byte) error {
		return rdb.Publish(ctx, ch, payload).Err()
	}, defaultQueueSize)
}

func newPublisher(logger *log.Logger, channel, sessionID string, publish PublishFunc, size int) *Publisher {
	ch := channel + ":" + sessionID
	return &Publisher{
		logger:  logger.WithPrefix("broadcast").With("channel", ch),
		session: sessionID,
		channel: ch,
		publish: publish,
		queue:   make(chan []byte, size),
	}
}

// Channel returns the pub/sub channel name
func (p *Publisher) Channel() string { return p.channel }

// Subscribe forwards game states from bus until the returned function
// is called.
func (p *Publisher) Subscribe(bus *events.Bus) func() {
	return events.On(bus, "broadcast", p.enqueue, events.Remote())
}

func (p *Publisher) enqueue(e events.GameStateEvent) {
	payload, err := json.Marshal(Update{
		Session:   p.session,
		Seq:       e.State.Seq,
		Type:      string(e.State.Type),
		State:     e.State.Public(),
		Timestamp: time.Now(),
	})
	if err != nil {
		p.logger.Error("Failed to encode game state", "seq", e.State.Seq, "error", err)
		return
	}

	select {
	case p.queue <- payload:
	default:
		p.dropped.Add(1)
		p.logger.Warn("Broadcast queue full, dropping game state", "seq", e.State.Seq)
	}
}

// Run publishes queued updates until ctx is cancelled
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("Broadcasting game states")
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-p.queue:
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := p.publish(pubCtx, p.channel, payload)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Warn("Publish failed", "error", err)
				continue
			}
			p.published.Add(1)
		}
	}
}

// Stats returns how many updates were published and dropped
func (p *Publisher) Stats() (published, dropped int64) {
	return p.published.Load(), p.dropped.Load()
}
