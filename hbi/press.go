package hbi

type pressState uint8

const (
	pressIdle pressState = iota
	pressStarted
	pressLongDispatched
)

type pressEvent uint8

const (
	pressNone pressEvent = iota
	pressShort
	pressLong
)

// pressTimer tracks one push button. Times are clock ticks.
type pressTimer struct {
	state pressState
	start uint64
}

// step advances the timer with the current button level. A long press is
// reported once per physical press and wins over a short press at the
// threshold.
func (p *pressTimer) step(pressed bool, now, debounce, long uint64) pressEvent {
	switch p.state {
	case pressIdle:
		if pressed {
			p.state = pressStarted
			p.start = now
		}
	case pressStarted:
		elapsed := now - p.start
		if elapsed >= long {
			p.state = pressLongDispatched
			return pressLong
		}
		if !pressed {
			p.state = pressIdle
			if elapsed >= debounce {
				return pressShort
			}
		}
	case pressLongDispatched:
		if !pressed {
			p.state = pressIdle
		}
	}
	return pressNone
}
