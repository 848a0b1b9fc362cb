package hbi

import "testing"

const (
	testDebounce = 50
	testLong     = 2000
)

func TestPressTimerShortPress(t *testing.T) {
	var p pressTimer

	if ev := p.step(true, 100, testDebounce, testLong); ev != pressNone {
		t.Fatalf("press: event %v", ev)
	}
	if ev := p.step(true, 300, testDebounce, testLong); ev != pressNone {
		t.Fatalf("hold: event %v", ev)
	}
	if ev := p.step(false, 400, testDebounce, testLong); ev != pressShort {
		t.Fatalf("release: event %v, want short", ev)
	}
	if p.state != pressIdle {
		t.Fatalf("state = %v, want idle", p.state)
	}
}

func TestPressTimerBounceIgnored(t *testing.T) {
	var p pressTimer

	p.step(true, 100, testDebounce, testLong)
	if ev := p.step(false, 120, testDebounce, testLong); ev != pressNone {
		t.Fatalf("bounce: event %v, want none", ev)
	}
	if p.state != pressIdle {
		t.Fatalf("state = %v, want idle", p.state)
	}
}

func TestPressTimerLongPressFiresOnce(t *testing.T) {
	var p pressTimer
	var longs, shorts int

	for now := uint64(0); now <= 5000; now += 10 {
		switch p.step(true, now, testDebounce, testLong) {
		case pressLong:
			longs++
		case pressShort:
			shorts++
		}
	}
	if ev := p.step(false, 5010, testDebounce, testLong); ev != pressNone {
		t.Fatalf("release after long press: event %v", ev)
	}
	if longs != 1 || shorts != 0 {
		t.Fatalf("longs=%d shorts=%d, want 1 0", longs, shorts)
	}
	if p.state != pressIdle {
		t.Fatalf("state = %v, want idle", p.state)
	}
}

func TestPressTimerThresholdBoundary(t *testing.T) {
	var p pressTimer

	p.step(true, 1000, testDebounce, testLong)
	// Released exactly at the threshold: only the long press fires.
	if ev := p.step(false, 1000+testLong, testDebounce, testLong); ev != pressLong {
		t.Fatalf("event at threshold = %v, want long", ev)
	}
	if ev := p.step(false, 1000+testLong+10, testDebounce, testLong); ev != pressNone {
		t.Fatalf("event after threshold release = %v, want none", ev)
	}
}
