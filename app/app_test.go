package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"baer/config"
	"baer/devices/tas5806"
	"baer/hal"
	"baer/player"
)

type fakeDecoder struct {
	mu      sync.Mutex
	path    string
	pos     time.Duration
	playing bool
	closed  bool
}

func (d *fakeDecoder) PlayFromPath(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.path, d.pos, d.playing = path, 0, true
	return nil
}

func (d *fakeDecoder) SetPosition(offset time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = offset
	return nil
}

func (d *fakeDecoder) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

func (d *fakeDecoder) Duration() time.Duration { return time.Minute }

func (d *fakeDecoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
}

func (d *fakeDecoder) SetMuted(bool) {}

func (d *fakeDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func testCatalog() player.Catalog {
	cat := make(player.Catalog, 4)
	for s := range cat {
		cat[s].Dir = fmt.Sprintf("/PAW%02d", s+1)
		for i := 0; i < 3; i++ {
			cat[s].Tracks = append(cat[s].Tracks, player.Track{Path: fmt.Sprintf("/PAW%02d/%02d.mp3", s+1, i+1)})
		}
	}
	return cat
}

func testOptions() Options {
	cfg := config.Default()
	cfg.Timing.PeripheralStartup = 0
	cfg.Timing.LongPress = 200 * time.Millisecond
	cfg.Power.CheckInterval = 50 * time.Millisecond
	return Options{
		Config:   cfg,
		Catalog:  testCatalog(),
		Autoplay: -1,
		NewDecoder: func(func()) (Decoder, error) {
			return &fakeDecoder{}, nil
		},
	}
}

type device struct {
	app    *App
	sim    *hal.Simulator
	cancel context.CancelFunc
	errc   chan error
	once   sync.Once
	err    error
}

// wait returns the headless runner's result.
func (d *device) wait(t *testing.T) error {
	t.Helper()
	d.once.Do(func() {
		select {
		case d.err = <-d.errc:
		case <-time.After(5 * time.Second):
			t.Fatal("device did not stop")
		}
	})
	return d.err
}

// startDevice boots an app on the headless simulator. before runs against
// the simulator ahead of Boot.
func startDevice(t *testing.T, opts Options, sim hal.SimConfig, before func(*hal.Simulator)) (*device, error) {
	t.Helper()
	sim.Pins = opts.Config.HALPins()
	ctx, cancel := context.WithCancel(context.Background())
	d := &device{cancel: cancel, errc: make(chan error, 1)}
	booted := make(chan error, 1)

	go func() {
		d.errc <- hal.RunHeadless(ctx, func(h hal.HAL) func() error {
			a, err := New(h, opts)
			if err != nil {
				booted <- err
				return func() error { return err }
			}
			d.app = a
			d.sim = hal.SimulatorOf(h)
			if before != nil {
				before(d.sim)
			}
			err = a.Boot(ctx)
			booted <- err
			if err != nil {
				return func() error { return err }
			}
			return a.Step
		}, hal.HeadlessConfig{Hz: 200, Sim: sim})
	}()

	t.Cleanup(func() {
		cancel()
		d.wait(t)
	})
	select {
	case err := <-booted:
		return d, err
	case <-time.After(5 * time.Second):
		t.Fatal("boot did not finish")
		return nil, nil
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func litLines(levels [hal.SimLines]uint8) uint32 {
	var mask uint32
	for i, v := range levels {
		if v != 0 {
			mask |= 1 << i
		}
	}
	return mask
}

func TestBootAndButtonPlay(t *testing.T) {
	d, err := startDevice(t, testOptions(), hal.SimConfig{BatteryVolts: 3.8, BatteryPercent: 70}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if st := d.app.Status(); st.Stage != "ready" || st.BootOverride || st.HasTrack {
		t.Fatalf("status after boot = %+v", st)
	}
	ctrl2, vol := d.sim.Amplifier()
	if ctrl2&0x03 != tas5806.StatePlay || vol != 130 {
		t.Fatalf("amplifier ctrl2 %#02x volume %d, want play at 130", ctrl2, vol)
	}
	eventually(t, "leds to settle dark", func() bool { return litLines(d.sim.LEDLevels()) == 0 })

	d.sim.SetLine(1, true)
	eventually(t, "slot 1 to play", func() bool {
		info, ok := d.app.Engine().PlayingInfo()
		return ok && info.Slot == 1 && info.Index == 0
	})
	eventually(t, "slot 1 led", func() bool { return litLines(d.sim.LEDLevels()) == 1<<1 })
	d.sim.SetLine(1, false)

	d.sim.TurnEncoder(true)
	eventually(t, "volume up", func() bool {
		_, vol := d.sim.Amplifier()
		return vol == 135
	})

	d.sim.SetLine(21, true)
	eventually(t, "pause", func() bool {
		info, ok := d.app.Engine().PlayingInfo()
		return ok && info.Paused()
	})
}

func TestAutoplayAndBootOverride(t *testing.T) {
	opts := testOptions()
	opts.Autoplay = 2
	d, err := startDevice(t, opts, hal.SimConfig{BatteryVolts: 3.8}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if info, ok := d.app.Engine().PlayingInfo(); !ok || info.Slot != 2 {
		t.Fatalf("autoplay: PlayingInfo() = %+v, %v", info, ok)
	}

	held, err := startDevice(t, opts, hal.SimConfig{BatteryVolts: 3.8}, func(s *hal.Simulator) {
		s.SetLine(5, true)
	})
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if !held.app.Status().BootOverride {
		t.Fatal("held button not reported")
	}
	if _, ok := held.app.Engine().PlayingInfo(); ok {
		t.Fatal("autoplay ran despite the boot override")
	}
}

func TestLongPressShutsDown(t *testing.T) {
	d, err := startDevice(t, testOptions(), hal.SimConfig{BatteryVolts: 3.8}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	d.app.Engine().PlayNextFromSlot(0)

	d.sim.SetEncoderButton(true)
	eventually(t, "shutdown to start", func() bool { return d.app.Status().ShutdownReason != "" })
	d.sim.SetEncoderButton(false)

	if err := d.wait(t); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("runner err = %v, want ErrPoweredOff", err)
	}
	st := d.app.Status()
	if !st.PoweredOff || st.ShutdownReason != "long press" || st.HasTrack {
		t.Fatalf("status after shutdown = %+v", st)
	}
	if lit := litLines(d.sim.LEDLevels()); lit != 0 {
		t.Fatalf("leds lit after shutdown: %06x", lit)
	}
	if ctrl2, _ := d.sim.Amplifier(); ctrl2&0x03 != tas5806.StateDeepSleep {
		t.Fatalf("amplifier ctrl2 = %#02x, want deep sleep", ctrl2)
	}
	if err := d.app.Step(); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Step after shutdown = %v", err)
	}
}

func TestLowBatteryAtBoot(t *testing.T) {
	d, err := startDevice(t, testOptions(), hal.SimConfig{BatteryVolts: 2.9}, nil)
	if !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Boot err = %v, want ErrPoweredOff", err)
	}
	if st := d.app.Status(); st.ShutdownReason != "battery low" {
		t.Fatalf("status = %+v", st)
	}
}

func TestChargingBootsOnLowBattery(t *testing.T) {
	_, err := startDevice(t, testOptions(), hal.SimConfig{BatteryVolts: 2.9, Charging: true}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
}

func TestLowBatteryWhileRunning(t *testing.T) {
	d, err := startDevice(t, testOptions(), hal.SimConfig{BatteryVolts: 3.8, BatteryPercent: 40}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	d.sim.SetBattery(2.95, 1)
	if err := d.wait(t); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("runner err = %v, want ErrPoweredOff", err)
	}
	if st := d.app.Status(); st.ShutdownReason != "battery low" {
		t.Fatalf("status = %+v", st)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	opts := testOptions()
	opts.Config.Timing.WorkerCycle = 0
	if _, err := New(hal.New(hal.SimConfig{}), opts); err == nil {
		t.Fatal("New with an invalid config: want error")
	}
}

func TestStatusLines(t *testing.T) {
	s := Status{Stage: "ready", Volume: 100, MaxVol: 254}
	if got := statusLines(s); got[0] != "STOPPED" || got[len(got)-1] != "volume 100/254" {
		t.Fatalf("stopped lines = %q", got)
	}

	s.HasTrack = true
	s.Playing = player.PlayingInfo{Slot: 1, Index: 0, Total: 3, Path: "/m/PAW02/01.mp3", CurrentTime: 75 * time.Second, Duration: 3 * time.Minute}
	s.HasPower = true
	s.Power.Voltage, s.Power.Percent, s.Power.Charging = 3.91, 80, true
	got := statusLines(s)
	want := []string{"PLAYING", "slot 2  track 1/3", "01.mp3", "01:15 / 03:00", "volume 100/254", "battery 3.91V 80% charging"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("statusLines = %q, want %q", got, want)
	}

	s.PoweredOff, s.ShutdownReason = true, "long press"
	if got := statusLines(s); got[0] != "OFF (long press)" {
		t.Fatalf("off line = %q", got[0])
	}
}
