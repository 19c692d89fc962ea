// services/supervisor/internal/platform/periph_linux.go
//go:build linux && !rp2040 && !rp2350

package platform

import (
	"os"
	"strconv"
	"strings"
	"time"

	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Linux single-board computer backend (e.g. a Raspberry Pi carrying the same
// sensor board). I²C and GPIO go through periph.io; the watchdog is the
// kernel's /dev/watchdog; analog inputs come from an IIO ADC in sysfs.

const (
	watchdogDev = "/dev/watchdog"
	iioDevice   = "/sys/bus/iio/devices/iio:device0/"
	cpuFreqCur  = "/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq"
)

var _ core.Board = (*periphBoard)(nil)

type periphBoard struct {
	defaultHz uint32
	buses     []i2c.BusCloser
}

func newPeriph(cfg types.Config) (core.Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "periph", "host init", err)
	}
	return &periphBoard{defaultHz: cfg.Clock.DefaultHz}, nil
}

func (*periphBoard) Name() string { return "periph" }

func (b *periphBoard) Clock() core.ClockControl { return periphClock{fallback: b.defaultHz} }

// ---- Clock ----

// periphClock reports the governor's current frequency. Frequency scaling
// belongs to the kernel, so only the current value is accepted.
type periphClock struct{ fallback uint32 }

func (c periphClock) CurrentHz() uint32 {
	raw, err := os.ReadFile(cpuFreqCur)
	if err != nil {
		return c.fallback
	}
	khz, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 32)
	if err != nil {
		return c.fallback
	}
	return uint32(khz * 1000)
}

func (c periphClock) SetHz(hz uint32) error {
	if hz == c.CurrentHz() {
		return nil
	}
	return errcode.Wrap(errcode.Unsupported, "periph clock", "frequency is owned by the kernel governor", nil)
}

// ---- I²C ----

func (b *periphBoard) I2C(cfg types.BusConfig) (drivers.I2C, error) {
	bus, err := i2creg.Open(cfg.ID)
	if err != nil {
		return nil, errcode.Wrap(errcode.UnknownBus, "periph i2c", cfg.ID, err)
	}
	if cfg.FrequencyHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(cfg.FrequencyHz) * physic.Hertz); err != nil {
			_ = bus.Close()
			return nil, errcode.Wrap(errcode.InvalidParams, "periph i2c", "set speed", err)
		}
	}
	b.buses = append(b.buses, bus)
	return bus, nil
}

// ---- ADC (IIO sysfs) ----

type iioADC struct{ path string }

func (a iioADC) ReadRaw() (uint32, error) {
	raw, err := os.ReadFile(a.path)
	if err != nil {
		return 0, errcode.Wrap(errcode.NoAck, "iio adc", a.path, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 32)
	if err != nil {
		return 0, errcode.Wrap(errcode.Malformed, "iio adc", a.path, err)
	}
	return uint32(v), nil
}

func (*periphBoard) ADC(cfg types.ChannelConfig) (core.ADC, error) {
	path := iioDevice + "in_voltage" + strconv.Itoa(cfg.Pin) + "_raw"
	if _, err := os.Stat(path); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "iio adc", cfg.Name, err)
	}
	return iioADC{path: path}, nil
}

// ---- GPIO ----

type periphPin struct{ p gpio.PinIO }

func (r periphPin) Set(level bool) { _ = r.p.Out(gpio.Level(level)) }
func (r periphPin) Get() bool      { return r.p.Read() == gpio.High }

func (*periphBoard) LED(pin int) (core.OutputPin, error) {
	if pin == types.OnboardLED {
		return nil, errcode.Wrap(errcode.InvalidParams, "periph led", "no onboard LED; set heartbeat.pin", nil)
	}
	p := gpioreg.ByName("GPIO" + strconv.Itoa(pin))
	if p == nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "periph led", "unknown pin", nil)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "periph led", p.Name(), err)
	}
	return periphPin{p: p}, nil
}

// ---- Watchdog ----

type linuxWatchdog struct {
	timeout time.Duration
	f       *os.File
}

func (*periphBoard) Watchdog() (core.Watchdog, error) { return &linuxWatchdog{}, nil }

func (w *linuxWatchdog) Configure(timeout time.Duration) error {
	if timeout < time.Second {
		return errcode.Wrap(errcode.InvalidParams, "linux watchdog", "timeout below 1 s", nil)
	}
	w.timeout = timeout
	return nil
}

// Start opens the device, which arms it, then applies the timeout in whole
// seconds, rounded up.
func (w *linuxWatchdog) Start() error {
	f, err := os.OpenFile(watchdogDev, os.O_WRONLY, 0)
	if err != nil {
		return errcode.Wrap(errcode.Unsupported, "linux watchdog", watchdogDev, err)
	}
	secs := int((w.timeout + time.Second - 1) / time.Second)
	if err := unix.IoctlSetPointerInt(int(f.Fd()), unix.WDIOC_SETTIMEOUT, secs); err != nil {
		_ = f.Close()
		return errcode.Wrap(errcode.InvalidParams, "linux watchdog", "set timeout", err)
	}
	w.f = f
	return nil
}

func (w *linuxWatchdog) Update() {
	if w.f == nil {
		return
	}
	_, _ = w.f.Write([]byte{0})
}
