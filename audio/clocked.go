//go:build !tinygo

package audio

import (
	"sync"
	"time"
)

// Clocked plays nothing. It reads the track length from the file and
// advances the position with wall time, reporting end of track when the
// length runs out. The headless simulator uses it.
type Clocked struct {
	mu    sync.Mutex
	onEnd func()
	now   func() time.Time

	length  time.Duration
	offset  time.Duration
	started time.Time
	playing bool
	muted   bool
	timer   *time.Timer
	gen     uint64
}

// NewClocked returns a clocked backend. onEnd runs on its own goroutine.
func NewClocked(onEnd func()) *Clocked {
	return &Clocked{onEnd: onEnd, now: time.Now}
}

func (c *Clocked) PlayFromPath(path string) error {
	length, err := Length(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	if err != nil {
		return err
	}
	c.length = length
	c.offset = 0
	c.started = c.now()
	c.playing = true
	c.armLocked()
	return nil
}

func (c *Clocked) armLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	remaining := max(c.length-c.offset, 0)
	c.timer = time.AfterFunc(remaining, func() { c.finished(gen) })
}

func (c *Clocked) finished(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.playing {
		c.mu.Unlock()
		return
	}
	c.offset = c.length
	c.playing = false
	c.mu.Unlock()

	if c.onEnd != nil {
		c.onEnd()
	}
}

func (c *Clocked) positionLocked() time.Duration {
	if !c.playing {
		return c.offset
	}
	return min(c.offset+c.now().Sub(c.started), c.length)
}

func (c *Clocked) SetPosition(offset time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = min(max(offset, 0), c.length)
	c.started = c.now()
	if c.playing {
		c.armLocked()
	}
	return nil
}

func (c *Clocked) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clocked) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.length
}

func (c *Clocked) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clocked) stopLocked() {
	c.offset = c.positionLocked()
	c.playing = false
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Clocked) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
}

// Muted reports the last SetMuted value.
func (c *Clocked) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *Clocked) Close() error {
	c.Stop()
	return nil
}
