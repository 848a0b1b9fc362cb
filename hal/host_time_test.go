//go:build !tinygo

package hal

import (
	"testing"
	"time"
)

func TestHostTimeStep(t *testing.T) {
	now := time.Unix(100, 0)
	ht := newHostTime()
	ht.now = func() time.Time { return now }

	ht.step()
	if got := <-ht.Ticks(); got != 1 {
		t.Fatalf("first tick = %d, want 1", got)
	}

	now = now.Add(16*time.Millisecond + 500*time.Microsecond)
	ht.step()
	if got := <-ht.Ticks(); got != 17 {
		t.Fatalf("tick = %d, want 17", got)
	}

	now = now.Add(600 * time.Microsecond)
	ht.step()
	if got := <-ht.Ticks(); got != 18 {
		t.Fatalf("tick = %d, want 18 after carrying the remainder", got)
	}

	now = now.Add(100 * time.Microsecond)
	ht.step()
	select {
	case got := <-ht.Ticks():
		t.Fatalf("unexpected tick %d for sub-millisecond step", got)
	default:
	}
}
