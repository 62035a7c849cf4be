package leader

import (
	"sync"
	"time"
)

// waitResult is delivered to a registered waiter on reply or timeout.
type waitResult struct {
	info Info
	err  error
}

type waiterEntry struct {
	inc   Incarnation
	ch    chan waitResult
	timer *time.Timer
}

// waiterRegistry tracks clients blocking in WaitForLeader until
// any leader, or a leader distinct from a supplied incarnation, becomes
// visible. Each registration owns its own timeout timer, removed on fire
// regardless of outcome.
type waiterRegistry struct {
	mu      sync.Mutex
	entries map[uint64]*waiterEntry
	next    uint64
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{entries: make(map[uint64]*waiterEntry)}
}

// register adds a waiter and returns the channel it will receive on.
// Delivering a result (notify or timeout) removes the entry and stops its
// timer; a caller that stops waiting before that must call deregister.
func (wr *waiterRegistry) register(inc Incarnation, timeout time.Duration) (ch <-chan waitResult, id uint64) {
	wr.mu.Lock()
	id = wr.next
	wr.next++
	entry := &waiterEntry{inc: inc, ch: make(chan waitResult, 1)}
	entry.timer = time.AfterFunc(timeout, func() {
		wr.fire(id, waitResult{err: ErrNoLeader})
	})
	wr.entries[id] = entry
	wr.mu.Unlock()
	return entry.ch, id
}

// deregister removes a waiter without delivering a result; used when the
// caller's own context is canceled before the timer or a notify fires.
func (wr *waiterRegistry) deregister(id uint64) {
	wr.mu.Lock()
	entry, ok := wr.entries[id]
	if ok {
		delete(wr.entries, id)
	}
	wr.mu.Unlock()
	if ok {
		entry.timer.Stop()
	}
}

func (wr *waiterRegistry) fire(id uint64, res waitResult) {
	wr.mu.Lock()
	entry, ok := wr.entries[id]
	if ok {
		delete(wr.entries, id)
	}
	wr.mu.Unlock()
	if !ok {
		return
	}
	entry.timer.Stop()
	select {
	case entry.ch <- res:
	default:
	}
}

// notify replies to and deregisters every waiter whose incarnation
// differs from the newly published term.
func (wr *waiterRegistry) notify(info Info) {
	wr.mu.Lock()
	var due []uint64
	for id, e := range wr.entries {
		if !e.inc.Term.Equal(info.Term) || e.inc.Any {
			due = append(due, id)
		}
	}
	wr.mu.Unlock()

	for _, id := range due {
		wr.fire(id, waitResult{info: info})
	}
}
