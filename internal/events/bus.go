// Package events provides an in-memory, process-wide fan-out of the
// leader.Event metadata notifications the leader FSM consumes. It is a
// development/test stand-in for the Agent's real commit-log event stream;
// a production deployment publishes these from the log/storage engine
// itself.
//
// A mutex-guarded map of subscriber channels, non-blocking sends, and
// context-driven unsubscription.
package events

import (
	"context"
	"log"
	"sync"

	"chronicle/internal/leader"
)

// Bus is an in-memory leader.EventBus implementation.
type Bus struct {
	mu   sync.Mutex
	subs map[uint64]chan leader.Event
	next uint64
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan leader.Event)}
}

// Subscribe implements leader.EventBus. The returned channel is closed
// when ctx is done.
func (b *Bus) Subscribe(ctx context.Context) <-chan leader.Event {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan leader.Event, 16)
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers ev to every current subscriber. A subscriber whose
// buffer is full misses the event; callers that need guaranteed delivery
// should size their own consumption loop accordingly.
func (b *Bus) Publish(ev leader.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("events: subscriber channel full, dropping event kind=%d", ev.Kind)
		}
	}
}
