package events

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/chatjack/internal/blackjack"
)

// Handler receives events of the kind it subscribed to
type Handler func(Event)

type subscription struct {
	id     uint64
	owner  string
	remote bool
	fn     Handler
}

// SubscribeOption tunes a subscription
type SubscribeOption func(*subscription)

// Remote marks a handler that forwards events out of process. Remote
// handlers are skipped by EmitLocal.
func Remote() SubscribeOption {
	return func(s *subscription) { s.remote = true }
}

// Bus dispatches events synchronously, in subscription order, to the
// handlers registered for the event's kind. Events nobody subscribed to
// are dropped.
type Bus struct {
	logger *log.Logger

	mu       sync.RWMutex
	handlers map[Kind][]*subscription
	nextID   uint64
}

// NewBus creates an empty bus
func NewBus(logger *log.Logger) *Bus {
	return &Bus{
		logger:   logger.WithPrefix("bus"),
		handlers: make(map[Kind][]*subscription),
	}
}

// Subscribe registers fn for kind on behalf of owner and returns a
// function that removes exactly this registration.
func (b *Bus) Subscribe(kind Kind, owner string, fn Handler, opts ...SubscribeOption) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, owner: owner, fn: fn}
	for _, opt := range opts {
		opt(sub)
	}
	b.handlers[kind] = append(b.handlers[kind], sub)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, sub.id) })
	}
}

// On subscribes a handler typed to one event payload.
func On[E Event](b *Bus, owner string, fn func(E), opts ...SubscribeOption) func() {
	var zero E
	return b.Subscribe(zero.Kind(), owner, func(e Event) {
		if typed, ok := e.(E); ok {
			fn(typed)
		}
	}, opts...)
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[kind]
	for i, s := range subs {
		if s.id == id {
			b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeOwner removes every handler registered by owner and
// returns how many were removed.
func (b *Bus) UnsubscribeOwner(owner string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for kind, subs := range b.handlers {
		kept := subs[:0:0]
		for _, s := range subs {
			if s.owner == owner {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		b.handlers[kind] = kept
	}
	return removed
}

// Emit delivers e to every handler for its kind and returns how many
// handlers ran.
func (b *Bus) Emit(e Event) int {
	return b.emit(e, false)
}

// EmitLocal delivers e to in-process handlers only.
func (b *Bus) EmitLocal(e Event) int {
	return b.emit(e, true)
}

func (b *Bus) emit(e Event, localOnly bool) int {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[e.Kind()]))
	for _, s := range b.handlers[e.Kind()] {
		if localOnly && s.remote {
			continue
		}
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Debug("Dropped event with no subscribers", "kind", e.Kind())
		return 0
	}
	b.logger.Debug("Emit", "kind", e.Kind(), "handlers", len(subs))
	for _, s := range subs {
		s.fn(e)
	}
	return len(subs)
}

// Subscribers returns how many handlers are registered for kind
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}

// GameStatePublisher adapts the bus to the engine's publisher, turning
// every engine snapshot into a GameStateEvent.
func GameStatePublisher(b *Bus) blackjack.Publisher {
	return blackjack.PublisherFunc(func(s blackjack.GameState) {
		b.Emit(GameStateEvent{State: s})
	})
}
