//go:build !tinygo

package hal

import "time"

// hostTime converts wall-clock time between frames into 1ms ticks.
type hostTime struct {
	ch  chan uint64
	seq uint64
	now func() time.Time

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 64), now: time.Now}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

func (t *hostTime) step() {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.advance(1)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	const tickDur = time.Millisecond
	ticks := uint64(t.acc / tickDur)
	if ticks == 0 {
		return
	}
	t.acc %= tickDur
	t.advance(ticks)
}

// advance publishes only the newest tick; consumers treat ticks as absolute.
func (t *hostTime) advance(n uint64) {
	t.seq += n
	select {
	case t.ch <- t.seq:
	default:
	}
}
