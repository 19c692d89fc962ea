// Package config resolves the boot configuration. MCU builds use a
// compiled-in board profile; host builds may load YAML and apply
// POWERPICO_* environment overrides on top.
package config

import (
	"time"

	"powerpico/drivers/mcp9808"
	"powerpico/drivers/tmp102"
	"powerpico/errcode"
	"powerpico/types"

	"github.com/chewxy/math32"
)

// DefaultBoard is the profile used when nothing else selects one.
const DefaultBoard = "powerpico"

// EmbeddedLookup allows overriding how board profiles are resolved.
var EmbeddedLookup = func(board string) (func() types.Config, bool) {
	f, ok := embeddedConfigs[board]
	return f, ok
}

// Default is the bare PowerPico profile: every optional subsystem off,
// 5 Hz refresh at the stock 125 MHz clock.
func Default() types.Config {
	return types.Config{
		Board:           DefaultBoard,
		Platform:        types.PlatformSim,
		Debug:           false,
		I2CEnabled:      false,
		WatchdogEnabled: false,
		RefreshRateHz:   5,
		CollectGarbage:  true,
		Clock: types.ClockConfig{
			TargetHz:  125_000_000,
			DefaultHz: 125_000_000,
		},
		Watchdog: types.WatchdogConfig{TimeoutMs: 5000},
		I2C: types.BusConfig{
			ID:          "i2c1",
			SDA:         14,
			SCL:         15,
			FrequencyHz: 100_000,
			TxTimeoutMs: 50,
		},
		Sensors: []types.SensorConfig{
			{Name: "board", Model: types.ModelTMP102, Address: tmp102.Address},
		},
		Fault: types.FaultConfig{Policy: types.PolicyRetry, Retries: 1},
		Analog: []types.ChannelConfig{
			{Name: "vin", Pin: 26, FullScaleVolts: 3.3, FullScaleCount: 65535},
			{Name: "vbat", Pin: 27, FullScaleVolts: 3.3, FullScaleCount: 65535},
			{Name: "vsys", Pin: 28, FullScaleVolts: 3.3, FullScaleCount: 65535},
		},
		Heartbeat: types.HeartbeatConfig{Pin: types.OnboardLED, StartupBlinkMs: 1000},
	}
}

// Embedded returns the compiled-in profile for board.
func Embedded(board string) (types.Config, error) {
	f, ok := EmbeddedLookup(board)
	if !ok {
		return types.Config{}, errcode.Wrap(errcode.NotFound, "config", "no embedded config for board: "+board, nil)
	}
	cfg := f()
	cfg.Board = board
	return cfg, nil
}

func invalid(field, msg string) error {
	return errcode.Wrap(errcode.InvalidParams, "config", field+": "+msg, nil)
}

// Validate rejects configurations the loop cannot honour. Every error is
// errcode.InvalidParams naming the offending field.
func Validate(cfg types.Config) error {
	if cfg.RefreshRateHz == 0 || cfg.RefreshRateHz > 1000 {
		return invalid("refresh_rate_hz", "must be 1..1000")
	}
	if cfg.Clock.DefaultHz == 0 {
		return invalid("clock.default_hz", "must be set")
	}

	if cfg.I2CEnabled {
		if cfg.I2C.ID == "" {
			return invalid("i2c.id", "must be set")
		}
		if cfg.I2C.TxTimeoutMs == 0 {
			return invalid("i2c.tx_timeout_ms", "must be positive")
		}
		if cfg.TxTimeout() > cfg.SampleWindow() {
			return invalid("i2c.tx_timeout_ms", "must fit in the sampling window of "+cfg.SampleWindow().String())
		}
		if cfg.Fault.Retries < 0 {
			return invalid("fault.retries", "must not be negative")
		}
		switch cfg.Fault.Policy {
		case "", types.PolicySkip, types.PolicyRetry:
		case types.PolicyHalt:
			if !cfg.WatchdogEnabled {
				return invalid("fault.policy", "halt requires the watchdog")
			}
		default:
			return invalid("fault.policy", "unknown policy "+cfg.Fault.Policy)
		}
		seen := make(map[uint16]string, len(cfg.Sensors))
		for _, s := range cfg.Sensors {
			if err := validateSensor(s); err != nil {
				return err
			}
			if other, dup := seen[s.Address]; dup {
				return invalid("sensors", s.Name+" shares its address with "+other)
			}
			seen[s.Address] = s.Name
		}
	}

	for _, ch := range cfg.Analog {
		if err := ValidateChannel(ch); err != nil {
			return err
		}
	}

	if cfg.WatchdogEnabled {
		timeout := cfg.WatchdogTimeout()
		if budget := WorstCaseIteration(cfg); timeout <= budget {
			return invalid("watchdog.timeout_ms", "must exceed the worst-case iteration of "+budget.String())
		}
		if cfg.StartupBlink() >= timeout {
			return invalid("heartbeat.startup_blink_ms", "must be shorter than the watchdog timeout")
		}
	}
	return nil
}

func validateSensor(s types.SensorConfig) error {
	if s.Name == "" {
		return invalid("sensors", "every sensor needs a name")
	}
	if !types.ValidAddress(s.Address) {
		return invalid("sensors", s.Name+": address outside 0x08..0x77")
	}
	var lo, hi uint16
	switch s.Model {
	case types.ModelTMP102:
		lo, hi = tmp102.AddressMin, tmp102.AddressMax
	case types.ModelMCP9808:
		lo, hi = mcp9808.AddressMin, mcp9808.AddressMax
	default:
		return invalid("sensors", s.Name+": unknown model "+s.Model)
	}
	if s.Address < lo || s.Address > hi {
		return invalid("sensors", s.Name+": address not selectable on "+s.Model)
	}
	return nil
}

// ValidateChannel checks an analog channel's full-scale parameters: a finite
// positive voltage and a non-zero count.
func ValidateChannel(ch types.ChannelConfig) error {
	v := ch.FullScaleVolts
	if math32.IsNaN(v) || math32.IsInf(v, 0) || v <= 0 {
		return invalid("analog", ch.Name+": full_scale_volts must be finite and positive")
	}
	if ch.FullScaleCount == 0 {
		return invalid("analog", ch.Name+": full_scale_count must be non-zero")
	}
	return nil
}

// WorstCaseIteration is the longest an iteration can take between feeds.
// Bus sampling is confined to Config.SampleWindow, so failing devices cannot
// push an iteration past its period.
func WorstCaseIteration(cfg types.Config) time.Duration {
	return cfg.RefreshPeriod()
}
