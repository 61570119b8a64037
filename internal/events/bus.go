package events

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handler receives published events.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Event)

func (f HandlerFunc) HandleEvent(e Event) {
	f(e)
}

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs []*Subscription
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID      string
	bus     *Bus
	handler Handler
}

// NewBus constructs an empty bus. A nil logger discards handler panics silently.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers handler until the returned subscription is cancelled.
func (b *Bus) Subscribe(handler Handler) *Subscription {
	sub := &Subscription{ID: uuid.NewString(), bus: b, handler: handler}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes the subscription. Later calls are no-ops.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, candidate := range b.subs {
		if candidate == s {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers e to every current subscriber on the calling goroutine.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, e)
	}
}

// deliver isolates one subscriber so a panicking handler cannot starve the rest.
func (b *Bus) deliver(sub *Subscription, e Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("event handler panicked",
				"subscription", sub.ID,
				"kind", e.Kind,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	sub.handler.HandleEvent(e)
}
