// services/supervisor/internal/platform/sim.go
//go:build !rp2040 && !rp2350

package platform

import (
	"sync"
	"sync/atomic"
	"time"

	"powerpico/drivers/mcp9808"
	"powerpico/drivers/tmp102"
	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"
	"powerpico/x/pll"
	"powerpico/x/timex"

	"tinygo.org/x/drivers"
)

var _ core.Board = (*SimBoard)(nil)

// SimAmbient is the temperature simulated sensors report until changed.
const SimAmbient = 25.0

// SimBoard is an in-process board for host runs and tests. Sensors and
// analog channels named in the config are pre-populated.
type SimBoard struct {
	Clk *SimClock
	Bus *SimI2C
	WD  *SimWatchdog

	mu   sync.Mutex
	adcs map[int]*SimADC
	pins map[int]*SimPin
}

// NewSim builds a simulation board. clk drives the watchdog's notion of
// time; nil means the wall clock.
func NewSim(cfg types.Config, clk timex.Clock) *SimBoard {
	if clk == nil {
		clk = timex.System{}
	}
	b := &SimBoard{
		Clk:  &SimClock{hz: cfg.Clock.DefaultHz},
		Bus:  &SimI2C{devices: make(map[uint16]*SimDevice)},
		WD:   &SimWatchdog{clk: clk},
		adcs: make(map[int]*SimADC),
		pins: make(map[int]*SimPin),
	}
	for _, s := range cfg.Sensors {
		d := b.Bus.Attach(s.Address)
		switch s.Model {
		case types.ModelTMP102:
			d.SetReg(tmp102.RegTemperature, tmp102.Encode(SimAmbient))
		case types.ModelMCP9808:
			d.SetReg(mcp9808.RegAmbient, mcp9808.Encode(SimAmbient))
			d.SetReg(mcp9808.RegManufacturerID, [2]byte{0x00, mcp9808.ManufacturerID})
			d.SetReg(mcp9808.RegDeviceID, [2]byte{mcp9808.DeviceID, 0x00})
		}
	}
	for _, ch := range cfg.Analog {
		b.adcs[ch.Pin] = &SimADC{raw: ch.FullScaleCount / 2}
	}
	return b
}

func (b *SimBoard) Name() string              { return "sim" }
func (b *SimBoard) Clock() core.ClockControl { return b.Clk }

func (b *SimBoard) I2C(types.BusConfig) (drivers.I2C, error) { return b.Bus, nil }

func (b *SimBoard) ADC(cfg types.ChannelConfig) (core.ADC, error) {
	return b.ADCAt(cfg.Pin), nil
}

// ADCAt returns (creating if needed) the simulated channel on pin.
func (b *SimBoard) ADCAt(pin int) *SimADC {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.adcs[pin]
	if !ok {
		a = &SimADC{}
		b.adcs[pin] = a
	}
	return a
}

func (b *SimBoard) LED(pin int) (core.OutputPin, error) { return b.Pin(pin), nil }

// Pin returns (creating if needed) the simulated output on pin.
func (b *SimBoard) Pin(pin int) *SimPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[pin]
	if !ok {
		p = &SimPin{}
		b.pins[pin] = p
	}
	return p
}

func (b *SimBoard) Watchdog() (core.Watchdog, error) { return b.WD, nil }

// ----------------------------- Clock -----------------------------------------

// SimClock accepts any frequency the RP2040 system PLL can reach exactly.
type SimClock struct {
	mu      sync.Mutex
	hz      uint32
	applied int
}

func (c *SimClock) CurrentHz() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hz
}

func (c *SimClock) SetHz(hz uint32) error {
	if _, ok := pll.Solve(hz); !ok {
		return errcode.UnsupportedClock
	}
	c.mu.Lock()
	c.hz = hz
	c.applied++
	c.mu.Unlock()
	return nil
}

// Applied counts successful SetHz calls.
func (c *SimClock) Applied() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

// ----------------------------- I²C -------------------------------------------

// SimI2C is a shared two-wire bus with register-file devices. It counts
// transactions that overlap in time, which a correctly serialised caller
// never produces.
type SimI2C struct {
	mu      sync.Mutex
	devices map[uint16]*SimDevice
	txs     int

	inflight atomic.Int32
	overlaps atomic.Int32
}

var _ drivers.I2C = (*SimI2C)(nil)

// Attach places a device at addr, replacing any previous one.
func (b *SimI2C) Attach(addr uint16) *SimDevice {
	d := &SimDevice{regs: make(map[byte][2]byte)}
	b.mu.Lock()
	b.devices[addr] = d
	b.mu.Unlock()
	return d
}

// Detach removes the device at addr.
func (b *SimI2C) Detach(addr uint16) {
	b.mu.Lock()
	delete(b.devices, addr)
	b.mu.Unlock()
}

func (b *SimI2C) Device(addr uint16) (*SimDevice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[addr]
	return d, ok
}

func (b *SimI2C) Tx(addr uint16, w, r []byte) error {
	if b.inflight.Add(1) > 1 {
		b.overlaps.Add(1)
	}
	defer b.inflight.Add(-1)

	b.mu.Lock()
	d := b.devices[addr]
	b.txs++
	b.mu.Unlock()
	if d == nil {
		return errcode.NoAck
	}
	return d.tx(w, r)
}

// Txs counts all transactions, acknowledged or not.
func (b *SimI2C) Txs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}

// Overlaps counts transactions that started while another was in flight.
func (b *SimI2C) Overlaps() int { return int(b.overlaps.Load()) }

// SimDevice answers register reads: a write sets the register pointer, a
// read returns the register's bytes.
type SimDevice struct {
	mu    sync.Mutex
	regs  map[byte][2]byte
	ptr   byte
	noAck bool
	hang  chan struct{}
	onTx  func()
}

func (d *SimDevice) SetReg(reg byte, v [2]byte) {
	d.mu.Lock()
	d.regs[reg] = v
	d.mu.Unlock()
}

// SetNoAck makes every transaction fail to acknowledge.
func (d *SimDevice) SetNoAck(v bool) {
	d.mu.Lock()
	d.noAck = v
	d.mu.Unlock()
}

// SetHang makes transactions block until release is closed. nil clears it.
func (d *SimDevice) SetHang(release chan struct{}) {
	d.mu.Lock()
	d.hang = release
	d.mu.Unlock()
}

// SetOnTx installs a hook run at the start of every transaction, e.g. to
// advance a manual clock by the transaction's cost.
func (d *SimDevice) SetOnTx(fn func()) {
	d.mu.Lock()
	d.onTx = fn
	d.mu.Unlock()
}

func (d *SimDevice) tx(w, r []byte) error {
	d.mu.Lock()
	hook, hang, noAck := d.onTx, d.hang, d.noAck
	d.mu.Unlock()

	if hook != nil {
		hook()
	}
	if hang != nil {
		<-hang
	}
	if noAck {
		return errcode.NoAck
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(w) > 0 {
		d.ptr = w[0]
	}
	v := d.regs[d.ptr]
	copy(r, v[:])
	return nil
}

// ----------------------------- ADC -------------------------------------------

type SimADC struct {
	mu  sync.Mutex
	raw uint32
	err error
}

func (a *SimADC) Set(raw uint32) {
	a.mu.Lock()
	a.raw = raw
	a.mu.Unlock()
}

func (a *SimADC) SetErr(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

func (a *SimADC) ReadRaw() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raw, a.err
}

// ----------------------------- GPIO ------------------------------------------

// SimPin records every level written to it.
type SimPin struct {
	mu      sync.Mutex
	level   bool
	history []bool
}

func (p *SimPin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.history = append(p.history, level)
	p.mu.Unlock()
}

func (p *SimPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// History returns a copy of all levels written, oldest first.
func (p *SimPin) History() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.history...)
}

// ----------------------------- Watchdog --------------------------------------

// SimWatchdog records feed intervals and flags an expiry when an interval
// reaches the timeout. It never resets the process.
type SimWatchdog struct {
	mu      sync.Mutex
	clk     timex.Clock
	timeout time.Duration
	started bool
	lastFed time.Time
	feeds   int
	maxGap  time.Duration
	expired bool
}

func (w *SimWatchdog) Configure(timeout time.Duration) error {
	if timeout <= 0 {
		return errcode.Wrap(errcode.InvalidParams, "sim watchdog", "timeout must be positive", nil)
	}
	w.mu.Lock()
	w.timeout = timeout
	w.mu.Unlock()
	return nil
}

func (w *SimWatchdog) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timeout <= 0 {
		return errcode.Wrap(errcode.InvalidParams, "sim watchdog", "not configured", nil)
	}
	w.started = true
	w.lastFed = w.clk.Now()
	return nil
}

func (w *SimWatchdog) Update() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	now := w.clk.Now()
	gap := now.Sub(w.lastFed)
	if gap > w.maxGap {
		w.maxGap = gap
	}
	if gap >= w.timeout {
		w.expired = true
	}
	w.lastFed = now
	w.feeds++
}

// Expired reports whether any feed interval, including the one still open,
// reached the timeout.
func (w *SimWatchdog) Expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expired {
		return true
	}
	return w.started && w.clk.Now().Sub(w.lastFed) >= w.timeout
}

func (w *SimWatchdog) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *SimWatchdog) Feeds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.feeds
}

// MaxGap is the longest closed interval between Start/Update calls.
func (w *SimWatchdog) MaxGap() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxGap
}
