package config

import (
	"testing"

	"powerpico/errcode"
	"powerpico/types"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.False(t, cfg.Debug)
	assert.False(t, cfg.I2CEnabled)
	assert.False(t, cfg.WatchdogEnabled)
	assert.Equal(t, uint32(5), cfg.RefreshRateHz)
	assert.Equal(t, uint32(125_000_000), cfg.Clock.TargetHz)
	assert.Equal(t, "200ms", cfg.RefreshPeriod().String())
}

func TestEmbeddedProfilesAreValid(t *testing.T) {
	for name := range embeddedConfigs {
		cfg, err := Embedded(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, cfg.Board)
		assert.NoError(t, Validate(cfg), name)
	}
}

func TestEmbeddedUnknownBoard(t *testing.T) {
	_, err := Embedded("pico-w")
	assert.ErrorIs(t, err, errcode.NotFound)
}

func TestEmbeddedLookupOverride(t *testing.T) {
	old := EmbeddedLookup
	EmbeddedLookup = func(board string) (func() types.Config, bool) {
		if board != "bench" {
			return nil, false
		}
		return func() types.Config {
			cfg := Default()
			cfg.RefreshRateHz = 10
			return cfg
		}, true
	}
	t.Cleanup(func() { EmbeddedLookup = old })

	cfg, err := Embedded("bench")
	require.NoError(t, err)
	assert.Equal(t, uint32(10), cfg.RefreshRateHz)
	assert.Equal(t, "bench", cfg.Board)
}

func TestEmbeddedProfilesDoNotShareSlices(t *testing.T) {
	dev, err := Embedded("powerpico-dev")
	require.NoError(t, err)
	assert.Len(t, dev.Sensors, 2)
	assert.Len(t, Default().Sensors, 1)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(*types.Config)
		ok   bool
	}{
		{"default", func(*types.Config) {}, true},
		{"zero rate", func(c *types.Config) { c.RefreshRateHz = 0 }, false},
		{"rate above 1kHz", func(c *types.Config) { c.RefreshRateHz = 2000 }, false},
		{"no default clock", func(c *types.Config) { c.Clock.DefaultHz = 0 }, false},
		{"bus without id", func(c *types.Config) { c.I2CEnabled = true; c.I2C.ID = "" }, false},
		{"bus without timeout", func(c *types.Config) { c.I2CEnabled = true; c.I2C.TxTimeoutMs = 0 }, false},
		{"bus timeout beyond window", func(c *types.Config) { c.I2CEnabled = true; c.I2C.TxTimeoutMs = 181 }, false},
		{"bus timeout fills window", func(c *types.Config) { c.I2CEnabled = true; c.I2C.TxTimeoutMs = 180 }, true},
		{"reserved address", func(c *types.Config) { c.I2CEnabled = true; c.Sensors[0].Address = 0x78 }, false},
		{"address wrong for model", func(c *types.Config) { c.I2CEnabled = true; c.Sensors[0].Address = 0x18 }, false},
		{"unknown model", func(c *types.Config) { c.I2CEnabled = true; c.Sensors[0].Model = "lm75" }, false},
		{"unnamed sensor", func(c *types.Config) { c.I2CEnabled = true; c.Sensors[0].Name = "" }, false},
		{"duplicate address", func(c *types.Config) {
			c.I2CEnabled = true
			c.Sensors = append(c.Sensors, types.SensorConfig{Name: "twin", Model: types.ModelTMP102, Address: 0x48})
		}, false},
		{"sensor checks skipped with bus off", func(c *types.Config) { c.Sensors[0].Model = "lm75" }, true},
		{"unknown policy", func(c *types.Config) { c.I2CEnabled = true; c.Fault.Policy = "reboot" }, false},
		{"negative retries", func(c *types.Config) { c.I2CEnabled = true; c.Fault.Retries = -1 }, false},
		{"halt without watchdog", func(c *types.Config) { c.I2CEnabled = true; c.Fault.Policy = types.PolicyHalt }, false},
		{"halt with watchdog", func(c *types.Config) {
			c.I2CEnabled, c.WatchdogEnabled = true, true
			c.Fault.Policy = types.PolicyHalt
		}, true},
		{"nan full scale", func(c *types.Config) { c.Analog[1].FullScaleVolts = math32.NaN() }, false},
		{"zero count", func(c *types.Config) { c.Analog[2].FullScaleCount = 0 }, false},
		{"watchdog below period", func(c *types.Config) { c.WatchdogEnabled = true; c.Watchdog.TimeoutMs = 200 }, false},
		{"watchdog above period", func(c *types.Config) { c.WatchdogEnabled = true; c.Watchdog.TimeoutMs = 201 }, false},
		{"watchdog covers blink", func(c *types.Config) { c.WatchdogEnabled = true; c.Watchdog.TimeoutMs = 1001 }, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.edit(&cfg)
			err := Validate(cfg)
			if c.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, errcode.InvalidParams)
		})
	}
}

func TestWorstCaseIteration(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "200ms", WorstCaseIteration(cfg).String())

	// Retries and bus timeouts are confined to the sampling window.
	cfg.I2CEnabled = true
	cfg.Fault = types.FaultConfig{Policy: types.PolicyRetry, Retries: 5}
	cfg.Sensors = append(cfg.Sensors, types.SensorConfig{Name: "b", Model: types.ModelTMP102, Address: 0x49})
	assert.Equal(t, "200ms", WorstCaseIteration(cfg).String())
	assert.Equal(t, "180ms", cfg.SampleWindow().String())
}
