package services

import (
	"sync"
	"time"
)

const (
	// An inbound edit for an order id is an echo of our own write-back if
	// it arrives within this window of the last sync-back write.
	loopGuardQuietPeriod = 2 * time.Second

	// Entries older than this are dropped from the timestamp table on
	// every write.
	loopGuardRetention = time.Hour
)

// LoopGuard suppresses sheet-edit notifications that are echoes of the
// service's own Master writes. Without it a write-back re-triggers the
// inbound edit handler in an infinite cycle.
type LoopGuard struct {
	mu        sync.Mutex
	lastWrite map[string]time.Time
	now       func() time.Time
}

// NewLoopGuard creates a loop guard on the wall clock.
func NewLoopGuard() *LoopGuard {
	return NewLoopGuardWithClock(time.Now)
}

// NewLoopGuardWithClock creates a loop guard on an injectable clock so the
// quiet period can be tested deterministically.
func NewLoopGuardWithClock(now func() time.Time) *LoopGuard {
	return &LoopGuard{
		lastWrite: make(map[string]time.Time),
		now:       now,
	}
}

// RecordWrite notes that the Master sheet was just written for this order
// and prunes entries past retention.
func (g *LoopGuard) RecordWrite(orderNo string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.lastWrite[orderNo] = now

	for no, at := range g.lastWrite {
		if now.Sub(at) > loopGuardRetention {
			delete(g.lastWrite, no)
		}
	}
}

// ShouldSuppress reports whether an inbound edit for the order falls inside
// the quiet period of the last recorded write.
func (g *LoopGuard) ShouldSuppress(orderNo string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	at, ok := g.lastWrite[orderNo]
	if !ok {
		return false
	}
	return g.now().Sub(at) < loopGuardQuietPeriod
}
