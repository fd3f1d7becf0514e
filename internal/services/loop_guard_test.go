package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when told to.
type fakeClock struct {
	at time.Time
}

func (c *fakeClock) now() time.Time          { return c.at }
func (c *fakeClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func TestLoopGuardSuppressesWithinQuietPeriod(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)}
	guard := NewLoopGuardWithClock(clock.now)

	guard.RecordWrite("ORD-1")

	assert.True(t, guard.ShouldSuppress("ORD-1"))

	clock.advance(1999 * time.Millisecond)
	assert.True(t, guard.ShouldSuppress("ORD-1"))

	clock.advance(time.Millisecond)
	assert.False(t, guard.ShouldSuppress("ORD-1"), "edits at the window boundary pass through")
}

func TestLoopGuardUnknownOrderPassesThrough(t *testing.T) {
	guard := NewLoopGuard()
	assert.False(t, guard.ShouldSuppress("ORD-9"))
}

func TestLoopGuardIsPerOrder(t *testing.T) {
	clock := &fakeClock{at: time.Now()}
	guard := NewLoopGuardWithClock(clock.now)

	guard.RecordWrite("ORD-1")

	assert.True(t, guard.ShouldSuppress("ORD-1"))
	assert.False(t, guard.ShouldSuppress("ORD-2"))
}

func TestLoopGuardPrunesStaleEntries(t *testing.T) {
	clock := &fakeClock{at: time.Now()}
	guard := NewLoopGuardWithClock(clock.now)

	guard.RecordWrite("ORD-1")
	clock.advance(loopGuardRetention + time.Minute)
	guard.RecordWrite("ORD-2")

	guard.mu.Lock()
	defer guard.mu.Unlock()
	assert.NotContains(t, guard.lastWrite, "ORD-1")
	assert.Contains(t, guard.lastWrite, "ORD-2")
}
