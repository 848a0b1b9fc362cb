// Package bus serializes access to the shared two-wire peripheral bus.
package bus

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// ErrNoDevice is returned when nothing acknowledges an address.
var ErrNoDevice = errors.New("bus: no device")

// Arbiter owns exclusive access to the bus. Every transaction, and every
// composite sequence run through Do, holds the lock for its full duration.
//
// Acquisition has no timeout; a wedged peripheral blocks all callers.
type Arbiter struct {
	mu  sync.Mutex
	i2c drivers.I2C
	log *slog.Logger

	txs  atomic.Uint64
	errs atomic.Uint64
}

// New wraps i2c. The returned Arbiter itself implements drivers.I2C, one
// locked transaction per Tx.
func New(i2c drivers.I2C, log *slog.Logger) *Arbiter {
	if log == nil {
		log = slog.Default()
	}
	return &Arbiter{i2c: i2c, log: log.With("module", "BUS")}
}

// Acquire blocks until the caller holds the bus.
func (a *Arbiter) Acquire() { a.mu.Lock() }

// Release gives the bus back.
func (a *Arbiter) Release() { a.mu.Unlock() }

// Tx performs one transaction while holding the bus.
func (a *Arbiter) Tx(addr uint16, w, r []byte) error {
	a.Acquire()
	defer a.Release()
	return a.tx(addr, w, r)
}

func (a *Arbiter) tx(addr uint16, w, r []byte) error {
	a.txs.Add(1)
	err := a.i2c.Tx(addr, w, r)
	if err != nil {
		a.errs.Add(1)
	}
	return err
}

// Do runs fn with the bus held. fn must use the bus it is handed and not
// the Arbiter, which would deadlock.
func (a *Arbiter) Do(fn func(bus drivers.I2C) error) error {
	a.Acquire()
	defer a.Release()
	return fn(lockedBus{a})
}

type lockedBus struct{ a *Arbiter }

func (b lockedBus) Tx(addr uint16, w, r []byte) error { return b.a.tx(addr, w, r) }

// Stats reports the number of transactions and failed transactions.
func (a *Arbiter) Stats() (txs, errs uint64) {
	return a.txs.Load(), a.errs.Load()
}

// Scan probes every 7-bit address by reading register 0 and returns the
// ones that answered.
func (a *Arbiter) Scan() []uint8 {
	var found []uint8
	var buf [1]byte
	for addr := uint8(0x08); addr < 0x78; addr++ {
		if err := a.Tx(uint16(addr), []byte{0x00}, buf[:]); err == nil {
			found = append(found, addr)
		}
	}
	a.log.Debug("scan complete", "devices", len(found))
	return found
}
