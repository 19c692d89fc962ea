package types

import (
	"time"

	"powerpico/x/timex"
)

// Config is the complete boot configuration. It is resolved once at boot and
// never mutated afterwards; changing it requires a reboot.
type Config struct {
	// Board selects the compiled-in board profile on MCU builds.
	Board string `yaml:"board"`
	// Platform selects the host backend: "sim" or "periph". Ignored on MCU.
	Platform string `yaml:"platform"`

	Debug           bool   `yaml:"debug"`
	I2CEnabled      bool   `yaml:"i2c_enabled"`
	WatchdogEnabled bool   `yaml:"watchdog_enabled"`
	RefreshRateHz   uint32 `yaml:"refresh_rate_hz"`

	// CollectGarbage runs a collection at the end of every iteration.
	CollectGarbage bool `yaml:"collect_garbage"`
	// RequireSensors aborts boot when a configured sensor is absent from the
	// bus scan.
	RequireSensors bool `yaml:"require_sensors"`

	Clock     ClockConfig     `yaml:"clock"`
	Watchdog  WatchdogConfig  `yaml:"watchdog"`
	I2C       BusConfig       `yaml:"i2c"`
	Sensors   []SensorConfig  `yaml:"sensors"`
	Fault     FaultConfig     `yaml:"fault"`
	Analog    []ChannelConfig `yaml:"analog"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

// Host platforms.
const (
	PlatformSim    = "sim"
	PlatformPeriph = "periph"
)

type ClockConfig struct {
	TargetHz  uint32 `yaml:"target_hz"`
	DefaultHz uint32 `yaml:"default_hz"`
}

type WatchdogConfig struct {
	TimeoutMs uint32 `yaml:"timeout_ms"`
}

type BusConfig struct {
	ID          string `yaml:"id"` // "i2c0"/"i2c1" on the Pico, periph bus name on Linux
	SDA         int    `yaml:"sda"`
	SCL         int    `yaml:"scl"`
	FrequencyHz uint32 `yaml:"frequency_hz"`
	TxTimeoutMs uint32 `yaml:"tx_timeout_ms"`
}

// 7-bit addresses outside 0x08..0x77 are reserved by the I²C specification.
const (
	FirstAddress = 0x08
	LastAddress  = 0x77
)

// ValidAddress reports whether addr is a non-reserved 7-bit address.
func ValidAddress(addr uint16) bool {
	return addr >= FirstAddress && addr <= LastAddress
}

// Sensor models understood by the bus device driver.
const (
	ModelTMP102  = "tmp102"
	ModelMCP9808 = "mcp9808"
)

type SensorConfig struct {
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	Address uint16 `yaml:"address"`
}

// Fault policies for a failed temperature read.
const (
	PolicySkip  = "skip"
	PolicyRetry = "retry"
	PolicyHalt  = "halt"
)

type FaultConfig struct {
	Policy  string `yaml:"policy"`
	Retries int    `yaml:"retries"`
}

// ChannelConfig describes one analog input. Each channel carries its own
// full-scale parameters.
type ChannelConfig struct {
	Name           string  `yaml:"name"`
	Pin            int     `yaml:"pin"`
	FullScaleVolts float32 `yaml:"full_scale_volts"`
	FullScaleCount uint32  `yaml:"full_scale_count"`
}

// OnboardLED selects the board's built-in LED for the heartbeat.
const OnboardLED = -1

type HeartbeatConfig struct {
	Pin            int    `yaml:"pin"`
	StartupBlinkMs uint32 `yaml:"startup_blink_ms"`
}

// RefreshPeriod is 1000/rate milliseconds, truncated.
func (c Config) RefreshPeriod() time.Duration { return timex.PeriodFromHz(c.RefreshRateHz) }

// SampleWindow is the part of each period bus sampling may use. The last
// tenth is left for analog reads, the heartbeat and scheduling jitter.
func (c Config) SampleWindow() time.Duration {
	p := c.RefreshPeriod()
	return p - p/10
}

func (c Config) WatchdogTimeout() time.Duration {
	return time.Duration(c.Watchdog.TimeoutMs) * time.Millisecond
}

func (c Config) TxTimeout() time.Duration {
	return time.Duration(c.I2C.TxTimeoutMs) * time.Millisecond
}

func (c Config) StartupBlink() time.Duration {
	return time.Duration(c.Heartbeat.StartupBlinkMs) * time.Millisecond
}
