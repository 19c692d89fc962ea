package core

import (
	"time"

	"powerpico/types"

	"tinygo.org/x/drivers"
)

// ---- Board contracts ----
//
// A Board hands out the process-wide peripherals. Everything it returns is
// owned by the supervisor's single control goroutine; the only peripheral
// shared across goroutines is the I²C bus, and that is serialised by the
// supervisor's bus owner, not here.

// ClockControl reads and applies the core clock.
type ClockControl interface {
	CurrentHz() uint32
	// SetHz applies a new core frequency. Implementations that cannot
	// reconfigure at runtime return errcode.Unsupported.
	SetHz(hz uint32) error
}

// ADC is one analog input channel.
type ADC interface {
	ReadRaw() (uint32, error)
}

// OutputPin is a single digital output.
type OutputPin interface {
	Set(level bool)
	Get() bool
}

// Watchdog is the hardware reset timer.
type Watchdog interface {
	Configure(timeout time.Duration) error
	Start() error
	// Update feeds the watchdog. It has no failure mode.
	Update()
}

// Board is a platform's set of peripherals.
type Board interface {
	Name() string
	Clock() ClockControl
	// I2C returns a configured raw bus. It must be called after the clock is
	// settled since the bus divider derives from the core clock.
	I2C(cfg types.BusConfig) (drivers.I2C, error)
	ADC(cfg types.ChannelConfig) (ADC, error)
	LED(pin int) (OutputPin, error)
	Watchdog() (Watchdog, error)
}
