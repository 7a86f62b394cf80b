// Package pool holds searcher-submitted bundles awaiting auction,
// exposing a best-effort event feed for admission/removal notifications.
package pool

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/flashauction/blockengine/bundle"
)

// ErrPoolFull is returned by Add when the pool is already at capacity.
var ErrPoolFull = errors.New("pool: full")

// EventKind distinguishes pool notifications.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
)

// Event is published to subscribers on every admission/removal.
type Event struct {
	Kind EventKind
	ID   bundle.ID
}

// subscriberBuffer bounds how many undelivered events a slow subscriber
// may accumulate before publication starts dropping for it.
const subscriberBuffer = 64

// Subscription is returned by Subscribe. Events arrive on Ch; call
// Unsubscribe when done to release the subscriber slot, mirroring the
// shape of go-ethereum's event.Subscription.
type Subscription struct {
	Ch   <-chan Event
	pool *Pool
	ch   chan Event
}

// Unsubscribe detaches the subscription from the pool's broadcast set.
// Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()
	for i, sub := range s.pool.subs {
		if sub == s.ch {
			s.pool.subs = append(s.pool.subs[:i], s.pool.subs[i+1:]...)
			close(sub)
			break
		}
	}
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Total         int
	Pending       int
	TotalTipValue uint64
	AvgTip        uint64
}

// Pool is a bounded, concurrency-safe collection of admitted bundles. The
// map and the FIFO order are mutated together under one lock so the
// "queue entry implies map entry" invariant is never observed broken.
type Pool struct {
	mu      sync.RWMutex
	maxSize int
	byID    map[bundle.ID]bundle.Bundle
	order   []bundle.ID
	subs    []chan Event
}

// New constructs an empty Pool with the given capacity.
func New(maxSize int) *Pool {
	return &Pool{
		maxSize: maxSize,
		byID:    make(map[bundle.ID]bundle.Bundle),
	}
}

// Add validates b structurally, admits it if the pool has capacity, and
// publishes an Added event, all within a single critical section.
func (p *Pool) Add(b bundle.Bundle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := b.Validate(); err != nil {
		return err
	}
	if len(p.byID) >= p.maxSize {
		return ErrPoolFull
	}
	p.byID[b.ID] = b
	p.order = append(p.order, b.ID)
	p.publishLocked(Event{Kind: EventAdded, ID: b.ID})
	return nil
}

// Get returns the bundle with the given id, if present.
func (p *Pool) Get(id bundle.ID) (bundle.Bundle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.byID[id]
	return b, ok
}

// Remove deletes the bundle with the given id, publishing a Removed event
// if it was present.
func (p *Pool) Remove(id bundle.ID) (bundle.Bundle, bool) {
	p.mu.Lock()
	b, ok := p.byID[id]
	if ok {
		delete(p.byID, id)
		for i, qid := range p.order {
			if qid == id {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	p.mu.Unlock()

	if ok {
		p.publish(Event{Kind: EventRemoved, ID: id})
	}
	return b, ok
}

// Pending returns up to n bundles in insertion order.
func (p *Pool) Pending(n int) []bundle.Bundle {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if n > len(p.order) {
		n = len(p.order)
	}
	out := make([]bundle.Bundle, 0, n)
	for _, id := range p.order[:n] {
		out = append(out, p.byID[id])
	}
	return out
}

// ByTipRange returns every bundle with lo <= tip <= hi, in no particular
// order.
func (p *Pool) ByTipRange(lo, hi uint64) []bundle.Bundle {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []bundle.Bundle
	for _, id := range p.order {
		b := p.byID[id]
		if b.TipLamports >= lo && b.TipLamports <= hi {
			out = append(out, b)
		}
	}
	return out
}

// Stats returns a consistent snapshot of pool occupancy. AvgTip truncates
// and is 0 on an empty pool.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var totalTip uint64
	for _, b := range p.byID {
		totalTip += b.TipLamports
	}

	total := len(p.byID)
	var avg uint64
	if total > 0 {
		avg = totalTip / uint64(total)
	}

	return Stats{
		Total:         total,
		Pending:       total,
		TotalTipValue: totalTip,
		AvgTip:        avg,
	}
}

// Clear empties both the map and the FIFO order, without publishing
// individual Removed events.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID = make(map[bundle.ID]bundle.Bundle)
	p.order = nil
}

// Subscribe registers a new event receiver. The returned channel has a
// bounded buffer; if a subscriber falls behind, subsequent events are
// dropped for it rather than blocking the publisher.
func (p *Pool) Subscribe() *Subscription {
	ch := make(chan Event, subscriberBuffer)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return &Subscription{Ch: ch, pool: p, ch: ch}
}

// publish is best-effort: a subscriber whose buffer is full drops the
// event instead of blocking admission or removal.
func (p *Pool) publish(ev Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.publishLocked(ev)
}

// publishLocked is publish's body, for callers that already hold p.mu
// (in either read or write mode) and need the notification to happen in
// the same critical section as the mutation that produced it.
func (p *Pool) publishLocked(ev Event) {
	for _, sub := range p.subs {
		select {
		case sub <- ev:
		default:
			log.Debug("Pool: subscriber buffer full, dropping event", "bundle", ev.ID)
		}
	}
}
