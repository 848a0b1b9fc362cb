// Package power samples the battery and decides when the device has to
// shut down. It also switches the supply rails.
package power

import (
	"log/slog"
	"sync"
	"time"

	"baer/hal"
	"baer/kernel"
)

// minValidVolts separates a real cell from a missing or faulty gauge.
const minValidVolts = 0.5

// Gauge reads the cell.
type Gauge interface {
	Voltage() (float32, error)
	Percent() (float32, error)
}

// ChargeSense reports whether a charger is feeding the cell.
type ChargeSense interface {
	Charging() bool
}

// PinChargeSense reads the charger status output, which pulls low while
// charging.
type PinChargeSense struct {
	Pin hal.GPIOPin
}

// Charging reports false if the pin is missing or unreadable.
func (s PinChargeSense) Charging() bool {
	if s.Pin == nil {
		return false
	}
	level, err := s.Pin.Read()
	return err == nil && !level
}

// Config tunes the monitor.
type Config struct {
	BatteryPresent  bool
	ShutdownVoltage float32
	CheckInterval   time.Duration
}

// DefaultConfig returns the factory settings.
func DefaultConfig() Config {
	return Config{
		BatteryPresent:  true,
		ShutdownVoltage: 3.0,
		CheckInterval:   5 * time.Second,
	}
}

// State is one battery reading.
type State struct {
	Voltage  float32
	Percent  float32
	Charging bool
}

// Monitor samples the gauge and decides shutdown.
type Monitor struct {
	cfg    Config
	gauge  Gauge
	charge ChargeSense
	clock  kernel.TickSource
	log    *slog.Logger

	mu        sync.Mutex
	checked   bool
	lastCheck uint64
	interval  uint64

	state kernel.Snapshot[State]
}

// NewMonitor returns a monitor. charge may be nil when there is no charger
// status line.
func NewMonitor(cfg Config, gauge Gauge, charge ChargeSense, clock kernel.TickSource, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		cfg:      cfg,
		gauge:    gauge,
		charge:   charge,
		clock:    clock,
		log:      log.With("module", "POWER"),
		interval: kernel.DurationTicks(cfg.CheckInterval),
	}
}

// State returns the last reading and whether one was taken.
func (m *Monitor) State() (State, bool) {
	s, ok, _ := m.state.Load()
	return s, ok
}

// Sample reads the gauge and charger and publishes the result.
func (m *Monitor) Sample() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleLocked()
}

func (m *Monitor) sampleLocked() (State, error) {
	var s State
	v, err := m.gauge.Voltage()
	if err != nil {
		return s, err
	}
	p, err := m.gauge.Percent()
	if err != nil {
		return s, err
	}
	s = State{Voltage: v, Percent: p}
	if m.charge != nil {
		s.Charging = m.charge.Charging()
	}
	m.state.Publish(s)
	return s, nil
}

// SampleAndCheckShutdown reads the battery and reports whether the device
// must power off. A charging cell, a reading below 0.5V and a gauge error
// never request shutdown.
func (m *Monitor) SampleAndCheckShutdown() bool {
	if !m.cfg.BatteryPresent {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkLocked()
}

func (m *Monitor) checkLocked() bool {
	s, err := m.sampleLocked()
	if err != nil {
		m.log.Error("battery read failed", "err", err)
		return false
	}
	m.log.Info("battery", "volts", s.Voltage, "percent", s.Percent, "charging", s.Charging)
	if s.Charging {
		return false
	}
	return s.Voltage > minValidVolts && s.Voltage <= m.cfg.ShutdownVoltage
}

// CheckShutdown is SampleAndCheckShutdown at most once per check interval.
// Between checks it reports false without touching the bus.
func (m *Monitor) CheckShutdown() bool {
	if !m.cfg.BatteryPresent {
		return false
	}
	now := m.clock.Ticks()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checked && now-m.lastCheck < m.interval {
		return false
	}
	m.checked = true
	m.lastCheck = now
	return m.checkLocked()
}
