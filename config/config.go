// Package config loads the device configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"baer/catalog"
	"baer/hal"
	"baer/hbi"
	"baer/player"
	"baer/power"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. BAER_AUDIO_MAX_VOLUME.
const EnvPrefix = "BAER"

type Config struct {
	Name           string   `mapstructure:"name" yaml:"name"`
	BatteryPresent bool     `mapstructure:"battery_present" yaml:"battery_present"`
	MediaRoot      string   `mapstructure:"media_root" yaml:"media_root"`
	MetaCache      string   `mapstructure:"meta_cache" yaml:"meta_cache"`
	Slots          []string `mapstructure:"slots" yaml:"slots"`

	HBI    HBIConfig    `mapstructure:"hbi" yaml:"hbi"`
	Audio  AudioConfig  `mapstructure:"audio" yaml:"audio"`
	Power  PowerConfig  `mapstructure:"power" yaml:"power"`
	Timing TimingConfig `mapstructure:"timing" yaml:"timing"`
	Pins   PinsConfig   `mapstructure:"pins" yaml:"pins"`
}

type HBIConfig struct {
	ReverseNose           bool           `mapstructure:"reverse_nose" yaml:"reverse_nose"`
	ReleaseInsteadOfPress bool           `mapstructure:"release_instead_of_press" yaml:"release_instead_of_press"`
	LEDBrightness         uint8          `mapstructure:"led_brightness" yaml:"led_brightness"`
	IOMapping             []MappingEntry `mapstructure:"io_mapping" yaml:"io_mapping"`
}

// MappingEntry is one line of io_mapping. Type is an action name or its
// legacy number.
type MappingEntry struct {
	Type     string `mapstructure:"type" yaml:"type"`
	Payload  string `mapstructure:"payload" yaml:"payload,omitempty"`
	PowerLED bool   `mapstructure:"power_led" yaml:"power_led,omitempty"`
}

type AudioConfig struct {
	InitialVolume     int `mapstructure:"initial_volume" yaml:"initial_volume"`
	MinVolume         int `mapstructure:"min_volume" yaml:"min_volume"`
	MaxVolume         int `mapstructure:"max_volume" yaml:"max_volume"`
	VolumeEncoderStep int `mapstructure:"volume_encoder_step" yaml:"volume_encoder_step"`
}

type PowerConfig struct {
	ShutdownVoltage float32       `mapstructure:"shutdown_voltage" yaml:"shutdown_voltage"`
	CheckInterval   time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
}

type TimingConfig struct {
	ButtonDebounce    time.Duration `mapstructure:"button_debounce" yaml:"button_debounce"`
	EncoderDebounce   time.Duration `mapstructure:"encoder_debounce" yaml:"encoder_debounce"`
	LongPress         time.Duration `mapstructure:"long_press" yaml:"long_press"`
	WorkerCycle       time.Duration `mapstructure:"worker_cycle" yaml:"worker_cycle"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	VegasStep         time.Duration `mapstructure:"vegas_step" yaml:"vegas_step"`
	PeripheralStartup time.Duration `mapstructure:"peripheral_startup" yaml:"peripheral_startup"`
}

// PinsConfig holds board GPIO numbers. -1 means not connected.
type PinsConfig struct {
	SDA            int `mapstructure:"sda" yaml:"sda"`
	SCL            int `mapstructure:"scl" yaml:"scl"`
	InputInt       int `mapstructure:"input_int" yaml:"input_int"`
	EncoderA       int `mapstructure:"encoder_a" yaml:"encoder_a"`
	EncoderB       int `mapstructure:"encoder_b" yaml:"encoder_b"`
	EncoderButton  int `mapstructure:"encoder_button" yaml:"encoder_button"`
	ChargeStatus   int `mapstructure:"charge_status" yaml:"charge_status"`
	LEDReset       int `mapstructure:"led_reset" yaml:"led_reset"`
	CodecPowerDown int `mapstructure:"codec_power_down" yaml:"codec_power_down"`
	PowerSave      int `mapstructure:"power_save" yaml:"power_save"`
	HVEnable       int `mapstructure:"hv_enable" yaml:"hv_enable"`
	VCCPEnable     int `mapstructure:"vccp_enable" yaml:"vccp_enable"`
	SDClock        int `mapstructure:"sd_clock" yaml:"sd_clock"`
	SDOut          int `mapstructure:"sd_out" yaml:"sd_out"`
	SDIn           int `mapstructure:"sd_in" yaml:"sd_in"`
	SDSelect       int `mapstructure:"sd_select" yaml:"sd_select"`
}

// Default returns the factory configuration of the rev 2 board.
func Default() Config {
	hc := hbi.DefaultConfig()
	pc := player.DefaultConfig()
	wc := power.DefaultConfig()

	mapping := make([]MappingEntry, hbi.Lines)
	for i, m := range hc.Mappings {
		mapping[i] = MappingEntry{Type: m.Action.String(), Payload: m.Payload, PowerLED: m.PowerLED}
	}

	return Config{
		Name:           "HoerBaer",
		BatteryPresent: wc.BatteryPresent,
		MediaRoot:      "media",
		MetaCache:      "_metaCache.json",
		Slots:          append([]string(nil), hc.SlotDirs...),
		HBI: HBIConfig{
			LEDBrightness: 0x40,
			IOMapping:     mapping,
		},
		Audio: AudioConfig{
			InitialVolume:     pc.InitialVolume,
			MinVolume:         pc.MinVolume,
			MaxVolume:         pc.MaxVolume,
			VolumeEncoderStep: pc.VolumeStep,
		},
		Power: PowerConfig{
			ShutdownVoltage: wc.ShutdownVoltage,
			CheckInterval:   wc.CheckInterval,
		},
		Timing: TimingConfig{
			ButtonDebounce:    hc.ButtonDebounce,
			EncoderDebounce:   hc.EncoderDebounce,
			LongPress:         hc.LongPress,
			WorkerCycle:       hc.Cycle,
			RefreshInterval:   pc.RefreshInterval,
			VegasStep:         hc.VegasStep,
			PeripheralStartup: 300 * time.Millisecond,
		},
		Pins: PinsConfig{
			SDA:            10,
			SCL:            11,
			InputInt:       7,
			EncoderA:       4,
			EncoderB:       5,
			EncoderButton:  6,
			ChargeStatus:   47,
			LEDReset:       15,
			CodecPowerDown: 14,
			PowerSave:      45,
			HVEnable:       42,
			VCCPEnable:     48,
			SDClock:        36,
			SDOut:          35,
			SDIn:           37,
			SDSelect:       34,
		},
	}
}

// Load reads path (YAML or JSON by extension) over the defaults and applies
// BAER_* environment overrides. An empty path loads defaults and
// environment only. On any error Load returns Default() and the error, so
// the caller can log it and carry on.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := setDefaults(v, Default()); err != nil {
		return Default(), err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Default(), fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	})
	if err != nil {
		return Default(), fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// setDefaults registers every key of def so environment overrides apply
// to keys absent from the file.
func setDefaults(v *viper.Viper, def Config) error {
	raw, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	for k, val := range m {
		v.SetDefault(k, val)
	}
	return nil
}

// Validate rejects settings the device cannot run with.
func (c Config) Validate() error {
	var errs []error
	if len(c.HBI.IOMapping) > hbi.Lines {
		errs = append(errs, fmt.Errorf("config: io_mapping has %d entries, max %d", len(c.HBI.IOMapping), hbi.Lines))
	}
	for i, e := range c.HBI.IOMapping {
		if _, err := hbi.ParseAction(e.Type); err != nil {
			errs = append(errs, fmt.Errorf("config: io_mapping[%d]: %w", i, err))
		}
	}
	if c.Audio.MinVolume < 0 || c.Audio.MaxVolume > 254 || c.Audio.MinVolume > c.Audio.MaxVolume {
		errs = append(errs, fmt.Errorf("config: volume range %d..%d outside 0..254", c.Audio.MinVolume, c.Audio.MaxVolume))
	}
	if c.Audio.VolumeEncoderStep <= 0 {
		errs = append(errs, errors.New("config: volume_encoder_step must be positive"))
	}
	if c.Timing.WorkerCycle <= 0 {
		errs = append(errs, errors.New("config: worker_cycle must be positive"))
	}
	if c.Timing.LongPress <= c.Timing.ButtonDebounce {
		errs = append(errs, errors.New("config: long_press must exceed button_debounce"))
	}
	return errors.Join(errs...)
}

// Controller returns the input/output controller settings. Lines missing
// from io_mapping are unmapped.
func (c Config) Controller() hbi.Config {
	hc := hbi.DefaultConfig()
	var m [hbi.Lines]hbi.Mapping
	for i, e := range c.HBI.IOMapping {
		if i >= hbi.Lines {
			break
		}
		a, _ := hbi.ParseAction(e.Type)
		m[i] = hbi.Mapping{Action: a, Payload: e.Payload, PowerLED: e.PowerLED}
	}
	hc.Mappings = m
	hc.SlotDirs = c.Slots
	hc.ReverseEncoder = c.HBI.ReverseNose
	hc.ReleaseInsteadOfPress = c.HBI.ReleaseInsteadOfPress
	hc.ButtonDebounce = c.Timing.ButtonDebounce
	hc.EncoderDebounce = c.Timing.EncoderDebounce
	hc.LongPress = c.Timing.LongPress
	hc.Cycle = c.Timing.WorkerCycle
	hc.VegasStep = c.Timing.VegasStep
	return hc
}

// Player returns the playback engine settings.
func (c Config) Player() player.Config {
	return player.Config{
		InitialVolume:   c.Audio.InitialVolume,
		MinVolume:       c.Audio.MinVolume,
		MaxVolume:       c.Audio.MaxVolume,
		VolumeStep:      c.Audio.VolumeEncoderStep,
		RefreshInterval: c.Timing.RefreshInterval,
	}
}

// PowerMonitor returns the battery monitor settings.
func (c Config) PowerMonitor() power.Config {
	return power.Config{
		BatteryPresent:  c.BatteryPresent,
		ShutdownVoltage: c.Power.ShutdownVoltage,
		CheckInterval:   c.Power.CheckInterval,
	}
}

// HALPins returns the pins the HAL backend needs.
func (c Config) HALPins() hal.Pins {
	return hal.Pins{
		SDA:           c.Pins.SDA,
		SCL:           c.Pins.SCL,
		InputInt:      c.Pins.InputInt,
		EncoderA:      c.Pins.EncoderA,
		EncoderB:      c.Pins.EncoderB,
		EncoderButton: c.Pins.EncoderButton,
		ChargeStatus:  c.Pins.ChargeStatus,
	}
}

// SDPins returns the media card SPI lines.
func (c Config) SDPins() catalog.SDPins {
	return catalog.SDPins{SCK: c.Pins.SDClock, SDO: c.Pins.SDOut, SDI: c.Pins.SDIn, CS: c.Pins.SDSelect}
}

// MetaCachePath resolves the cache file against the media root.
func (c Config) MetaCachePath() string {
	if c.MetaCache == "" || filepath.IsAbs(c.MetaCache) {
		return c.MetaCache
	}
	return filepath.Join(c.MediaRoot, c.MetaCache)
}

// WriteYAML renders c.
func WriteYAML(w io.Writer, c Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return enc.Close()
}

// WriteDefault writes the default configuration to path unless the file
// exists.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := WriteYAML(f, Default()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
