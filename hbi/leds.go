package hbi

// SetReadyToPlay turns the power-ready LEDs on or off. It also ends an
// AllLedsOn/AllLedsOff override.
func (c *Controller) SetReadyToPlay(ready bool) {
	c.readyToPlay.Store(ready)
	c.override.Store(false)
	c.ledsDirty.Store(true)
}

// SetVegas starts or stops cycling the slot LEDs.
func (c *Controller) SetVegas(on bool) {
	c.vegas.Store(on)
}

// AllLedsOn lights every LED until the next SetReadyToPlay.
func (c *Controller) AllLedsOn() {
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	c.override.Store(true)
	if err := c.io.SetAll(true); err != nil {
		c.log.Error("all leds on failed", "err", err)
	}
	c.ledsDirty.Store(true)
}

// AllLedsOff darkens every LED until the next SetReadyToPlay.
func (c *Controller) AllLedsOff() {
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	c.override.Store(true)
	if err := c.io.SetAll(false); err != nil {
		c.log.Error("all leds off failed", "err", err)
	}
	c.ledsDirty.Store(true)
}

// computeMask ORs the playing slot, the vegas scanner and the power-ready
// lines.
func (c *Controller) computeMask() uint32 {
	var mask uint32
	if info, ok := c.player.PlayingInfo(); ok {
		if line := c.table.lineForSlot(info.Slot); line >= 0 {
			mask |= 1 << line
		}
	}
	if c.vegas.Load() {
		if lines := c.table.slotLines(); len(lines) > 0 {
			now := c.clock.Ticks()
			if now-c.vegasLast >= c.vegasTicks {
				c.vegasLast = now
				c.vegasIndex = (c.vegasIndex + 1) % len(lines)
			}
			mask |= 1 << lines[c.vegasIndex%len(lines)]
		}
	}
	if c.readyToPlay.Load() {
		mask |= c.table.powerMask
	}
	return mask
}

// refreshLeds writes the overlay mask when it differs from the last one
// applied. A failed write leaves the last mask unchanged.
func (c *Controller) refreshLeds() {
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	if c.override.Load() {
		return
	}
	if c.ledsDirty.Swap(false) {
		c.maskValid = false
	}
	mask := c.computeMask()
	if c.maskValid && mask == c.lastMask {
		return
	}
	if err := c.io.WriteMask(mask); err != nil {
		c.log.Error("led write failed", "mask", mask, "err", err)
		return
	}
	c.lastMask = mask
	c.maskValid = true
}
