package hbi

import (
	"baer/hal"
	"baer/kernel"
)

// decodeEncoder maps the phase levels read after an A edge to a volume
// event. Equal phases turn the volume down.
func decodeEncoder(a, b, reverse bool) uint8 {
	up := a != b
	if reverse {
		up = !up
	}
	if up {
		return eventVolumeUp
	}
	return eventVolumeDown
}

// onEncoderInterrupt runs in interrupt context.
func (c *Controller) onEncoderInterrupt(hal.GPIOPin) {
	now := c.clock.Ticks()
	if c.encSeen.Load() && now-c.encLastTick.Load() < c.encDebounceTicks {
		return
	}
	c.encLastTick.Store(now)
	c.encSeen.Store(true)

	a, errA := c.pins.EncoderA.Read()
	b, errB := c.pins.EncoderB.Read()
	if errA != nil || errB != nil {
		return
	}
	c.queue.TrySend(kernel.Event{Kind: decodeEncoder(a, b, c.cfg.ReverseEncoder)})
}

// pollEncoderButton runs the long-press timer once per worker cycle.
func (c *Controller) pollEncoderButton() {
	if c.pins.EncoderButton == nil {
		return
	}
	switch c.press.step(c.EncoderButtonPressed(), c.clock.Ticks(), c.debounceTicks, c.longPressTicks) {
	case pressShort:
		if !c.actionsEnabled.Load() {
			return
		}
		if info, ok := c.player.PlayingInfo(); ok && !info.Paused() {
			c.player.Pause()
		} else {
			c.player.Play()
		}
	case pressLong:
		c.log.Info("long press, shutting down")
		if fn, ok := c.onShutdown.Load().(func()); ok && fn != nil {
			fn()
		}
	}
}
