package hbi

import (
	"math/bits"

	"baer/hal"
	"baer/kernel"
)

// onInputInterrupt runs in interrupt context.
func (c *Controller) onInputInterrupt(hal.GPIOPin) {
	c.queue.TrySend(kernel.Event{Kind: eventInputChanged})
}

// processSnapshot compares a raw snapshot with the previous one and
// dispatches the lowest changed line. It reports whether an action was
// dispatched.
func (c *Controller) processSnapshot(snap uint32) bool {
	snap &= idleSnapshot
	diff := snap ^ c.lastSnapshot
	if diff == 0 {
		return false
	}
	// A changed line that now reads high was released.
	released := diff&snap != 0
	c.lastSnapshot = snap

	if released != c.cfg.ReleaseInsteadOfPress {
		return false
	}
	c.dispatch(bits.TrailingZeros32(diff))
	return true
}

func (c *Controller) dispatch(line int) {
	if !c.actionsEnabled.Load() {
		c.log.Debug("action suppressed", "line", line)
		return
	}
	c.dispatched.Add(1)

	m := c.table.entries[line]
	c.log.Debug("dispatch", "line", line, "action", m.Action)
	switch m.Action {
	case ActionPlaySlot:
		c.player.PlayNextFromSlot(c.table.slotOf[line])
	case ActionPlay:
		c.player.Play()
	case ActionPause:
		c.player.Pause()
	case ActionStop:
		c.player.Stop()
	case ActionNext:
		c.player.Next()
	case ActionPrev:
		c.player.Prev()
	}
	c.refreshLeds()
}
