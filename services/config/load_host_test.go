package config

import (
	"os"
	"path/filepath"
	"testing"

	"powerpico/errcode"
	"powerpico/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
debug: true
i2c_enabled: true
refresh_rate_hz: 10
i2c:
  id: i2c0
  sda: 4
  scl: 5
  frequency_hz: 400000
  tx_timeout_ms: 25
sensors:
  - name: inlet
    model: mcp9808
    address: 0x19
analog:
  - name: v12
    pin: 26
    full_scale_volts: 14.85
    full_scale_count: 65535
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadOverlaysDefault(t *testing.T) {
	p := writeFile(t, t.TempDir(), "powerpico.yaml", sampleYAML)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.True(t, cfg.I2CEnabled)
	assert.Equal(t, uint32(10), cfg.RefreshRateHz)
	assert.Equal(t, "i2c0", cfg.I2C.ID)
	assert.Equal(t, []types.SensorConfig{{Name: "inlet", Model: types.ModelMCP9808, Address: 0x19}}, cfg.Sensors)
	require.Len(t, cfg.Analog, 1, "lists replace the profile's lists")
	assert.Equal(t, float32(14.85), cfg.Analog[0].FullScaleVolts)

	// untouched keys keep the profile values
	assert.Equal(t, uint32(125_000_000), cfg.Clock.DefaultHz)
	assert.Equal(t, types.OnboardLED, cfg.Heartbeat.Pin)
}

func TestLoadNamedBoard(t *testing.T) {
	p := writeFile(t, t.TempDir(), "field.yaml", "board: powerpico-field\nrefresh_rate_hz: 2\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "powerpico-field", cfg.Board)
	assert.True(t, cfg.WatchdogEnabled)
	assert.Equal(t, types.PolicyHalt, cfg.Fault.Policy)
	assert.Equal(t, uint32(2), cfg.RefreshRateHz)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, errcode.NotFound)

	_, err = Load(writeFile(t, dir, "bad.yaml", "refresh_rate_hz: [1, 2\n"))
	assert.ErrorIs(t, err, errcode.InvalidParams)

	_, err = Load(writeFile(t, dir, "unknown.yaml", "board: nope\n"))
	assert.ErrorIs(t, err, errcode.NotFound)

	_, err = Load(writeFile(t, dir, "invalid.yaml", "refresh_rate_hz: 0\n"))
	assert.ErrorIs(t, err, errcode.InvalidParams)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, map[string]string{
		"POWERPICO_DEBUG":            "1",
		"POWERPICO_I2C_ENABLED":      "true",
		"POWERPICO_WATCHDOG_ENABLED": "true",
		"POWERPICO_REFRESH_RATE_HZ":  "20",
		"POWERPICO_CLOCK_TARGET_HZ":  "133000000",
		"POWERPICO_PLATFORM":         "periph",
		"POWERPICO_FAULT_POLICY":     "skip",
		"UNRELATED":                  "x",
	})
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.I2CEnabled)
	assert.True(t, cfg.WatchdogEnabled)
	assert.Equal(t, uint32(20), cfg.RefreshRateHz)
	assert.Equal(t, uint32(133_000_000), cfg.Clock.TargetHz)
	assert.Equal(t, types.PlatformPeriph, cfg.Platform)
	assert.Equal(t, types.PolicySkip, cfg.Fault.Policy)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, ApplyEnv(&cfg, map[string]string{"POWERPICO_DEBUG": "maybe"}), errcode.InvalidParams)
	assert.ErrorIs(t, ApplyEnv(&cfg, map[string]string{"POWERPICO_REFRESH_RATE_HZ": "-5"}), errcode.InvalidParams)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, EnvFile, "POWERPICO_REFRESH_RATE_HZ=10\nPOWERPICO_BOARD=powerpico-dev\n")

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "powerpico-dev", cfg.Board)
	assert.Equal(t, uint32(10), cfg.RefreshRateHz)

	// process environment beats .env
	t.Setenv("POWERPICO_REFRESH_RATE_HZ", "4")
	cfg, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), cfg.RefreshRateHz)

	// an explicit file beats the board selector
	p := writeFile(t, dir, "x.yaml", "refresh_rate_hz: 8\n")
	cfg, err = Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultBoard, cfg.Board)
	assert.Equal(t, uint32(4), cfg.RefreshRateHz, "environment applies after the file")
}

func TestResolveValidatesAfterOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POWERPICO_REFRESH_RATE_HZ", "0")
	_, err := Resolve("")
	assert.ErrorIs(t, err, errcode.InvalidParams)
}
