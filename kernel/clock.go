package kernel

import (
	"sync/atomic"
	"time"
)

// TickSource reports a monotonic millisecond tick count.
type TickSource interface {
	Ticks() uint64
}

// Clock is the shared millisecond timebase. Interrupt handlers read it to
// timestamp edges; tasks read it to measure intervals.
type Clock struct {
	ticks atomic.Uint64
}

// Ticks returns the current tick count (1ms per tick).
func (c *Clock) Ticks() uint64 {
	return c.ticks.Load()
}

// TickTo advances the clock to seq. Older values are ignored so the clock
// never runs backwards.
func (c *Clock) TickTo(seq uint64) {
	for {
		cur := c.ticks.Load()
		if seq <= cur {
			return
		}
		if c.ticks.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Follow advances the clock from a HAL tick channel until it closes.
func (c *Clock) Follow(ch <-chan uint64) {
	go func() {
		for seq := range ch {
			c.TickTo(seq)
		}
	}()
}

// StartTick starts a 1ms ticker that increments the clock.
func (c *Clock) StartTick() {
	go func() {
		t := time.NewTicker(1 * time.Millisecond)
		defer t.Stop()
		for range t.C {
			c.ticks.Add(1)
		}
	}()
}

// DurationTicks converts d to whole ticks, rounding down.
func DurationTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}

// ManualClock is a TickSource driven explicitly, for tests and simulations.
type ManualClock struct {
	ticks atomic.Uint64
}

// Ticks returns the current tick count.
func (c *ManualClock) Ticks() uint64 {
	return c.ticks.Load()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.ticks.Add(DurationTicks(d))
}

// Set moves the clock to an absolute tick.
func (c *ManualClock) Set(tick uint64) {
	c.ticks.Store(tick)
}
