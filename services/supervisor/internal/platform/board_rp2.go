// services/supervisor/internal/platform/board_rp2.go
//go:build rp2040 || rp2350

package platform

import (
	"io"
	"machine"
	"time"

	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// Ensure the board satisfies the contracts at compile time.
var _ core.Board = (*rp2Board)(nil)

// RP2040 watchdog counter limit (errata RP2040-E1 halves the usable range).
const maxWatchdogMs = 8388

// ADC-capable GPIOs on the Pico.
const (
	adcPinMin = 26
	adcPinMax = 29
)

// Debug console on GP8/GP9 (UART1), per the board pinout.
const (
	consoleTX   = machine.Pin(8)
	consoleRX   = machine.Pin(9)
	consoleBaud = 115200
)

// New returns the Pico board. The platform selector is ignored on MCU builds.
func New(cfg types.Config) (core.Board, error) { return &rp2Board{}, nil }

// Console returns the UART debug console when debug output is enabled, or
// nil to keep using the USB console through print.
func Console(cfg types.Config) io.Writer {
	if !cfg.Debug {
		return nil
	}
	u := uartx.UART1
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: consoleBaud,
		TX:       consoleTX,
		RX:       consoleRX,
	}); err != nil {
		println("[platform] uart console unavailable:", err.Error())
		return nil
	}
	return u
}

type rp2Board struct {
	adcReady bool
}

func (*rp2Board) Name() string              { return "rp2" }
func (*rp2Board) Clock() core.ClockControl { return rp2Clock{} }

// ---- Clock ----

type rp2Clock struct{}

func (rp2Clock) CurrentHz() uint32 { return machine.CPUFrequency() }

// SetHz accepts only the frequency the runtime already configured. The
// TinyGo runtime sets up the PLLs before main and exposes no reconfiguration.
func (rp2Clock) SetHz(hz uint32) error {
	if hz == machine.CPUFrequency() {
		return nil
	}
	return errcode.Wrap(errcode.Unsupported, "rp2 clock", "runtime PLL reconfiguration not available", nil)
}

// ---- I²C ----

func (*rp2Board) I2C(cfg types.BusConfig) (drivers.I2C, error) {
	var hw *machine.I2C
	switch cfg.ID {
	case "i2c0":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	sda := machine.Pin(cfg.SDA)
	scl := machine.Pin(cfg.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{
		SCL:       scl,
		SDA:       sda,
		Frequency: cfg.FrequencyHz,
	}); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "rp2 i2c", cfg.ID, err)
	}
	return hw, nil
}

// ---- ADC ----

type rp2ADC struct{ a machine.ADC }

// ReadRaw returns the sample scaled to 16 bits by the machine package.
func (r rp2ADC) ReadRaw() (uint32, error) { return uint32(r.a.Get()), nil }

func (b *rp2Board) ADC(cfg types.ChannelConfig) (core.ADC, error) {
	if cfg.Pin < adcPinMin || cfg.Pin > adcPinMax {
		return nil, errcode.Wrap(errcode.InvalidParams, "rp2 adc", cfg.Name+": not an ADC pin", nil)
	}
	if !b.adcReady {
		machine.InitADC()
		b.adcReady = true
	}
	a := machine.ADC{Pin: machine.Pin(cfg.Pin)}
	a.Configure(machine.ADCConfig{})
	return rp2ADC{a: a}, nil
}

// ---- GPIO ----

type rp2Pin struct{ p machine.Pin }

func (r rp2Pin) Set(level bool) { r.p.Set(level) }
func (r rp2Pin) Get() bool      { return r.p.Get() }

func (*rp2Board) LED(pin int) (core.OutputPin, error) {
	p := machine.LED
	if pin != types.OnboardLED {
		if pin < 0 || pin > 29 {
			return nil, errcode.Wrap(errcode.InvalidParams, "rp2 led", "pin outside GP0..GP29", nil)
		}
		p = machine.Pin(pin)
	}
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return rp2Pin{p: p}, nil
}

// ---- Watchdog ----

type rp2Watchdog struct{}

func (*rp2Board) Watchdog() (core.Watchdog, error) { return rp2Watchdog{}, nil }

func (rp2Watchdog) Configure(timeout time.Duration) error {
	ms := timeout.Milliseconds()
	if ms <= 0 || ms > maxWatchdogMs {
		return errcode.Wrap(errcode.InvalidParams, "rp2 watchdog", "timeout outside 1..8388 ms", nil)
	}
	return machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: uint32(ms)})
}

func (rp2Watchdog) Start() error { return machine.Watchdog.Start() }
func (rp2Watchdog) Update()      { machine.Watchdog.Update() }
