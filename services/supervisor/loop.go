package supervisor

import (
	"context"
	"runtime"
	"time"

	"powerpico/errcode"
	"powerpico/services/config"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"
	"powerpico/x/logx"
	"powerpico/x/timex"
)

// Options carries the collaborators Boot does not take from the board.
type Options struct {
	// Clock paces the loop. Nil means the wall clock.
	Clock timex.Clock
	// Log receives boot and fault lines. Nil discards.
	Log *logx.Logger
	// Sink, if set, observes every iteration's report. The report is reused
	// by the next iteration; copy what must outlive the call.
	Sink func(*Report)
}

// Report is what one iteration did. Every fault of the iteration is in it.
type Report struct {
	Iteration    uint64
	Start        time.Time
	Temperatures []TemperatureReading
	Voltages     []VoltageSample
	Heartbeat    bool
	Pace         Pace
	Fed          bool
	Halted       bool
}

// Faults counts readings that carry an error.
func (r *Report) Faults() int {
	n := 0
	for i := range r.Temperatures {
		if r.Temperatures[i].Err != errcode.OK {
			n++
		}
	}
	for i := range r.Voltages {
		if r.Voltages[i].Err != errcode.OK {
			n++
		}
	}
	return n
}

// Context is the supervisor's whole state. It is owned by the single control
// goroutine that calls Step or Run.
type Context struct {
	cfg   types.Config
	board core.Board
	clk   timex.Clock
	log   *logx.Logger
	sink  func(*Report)
	state types.State

	bus       *Bus
	found     []uint16
	slots     []sensorSlot
	policy    FaultPolicy
	retries   int
	txTimeout time.Duration

	channels []*AnalogChannel
	heart    *Heartbeat
	wd       *WatchdogSupervisor
	sched    *Scheduler

	iteration uint64
	halted    bool
	report    Report
}

func (c *Context) abort(op string, err error) (*Context, error) {
	c.log.Error("boot aborted", logx.Str("step", op), logx.Err(err))
	if c.bus != nil {
		c.bus.Close()
	}
	return nil, err
}

// Boot brings the board from reset to steady state in a fixed order: clock,
// bus and discovery, analog inputs, watchdog, heartbeat, startup blink.
// Any configuration fault aborts boot with its error.
func Boot(cfg types.Config, board core.Board, opt Options) (*Context, error) {
	c := &Context{
		cfg:   cfg,
		board: board,
		clk:   opt.Clock,
		log:   opt.Log,
		sink:  opt.Sink,
		state: types.StateBooting,
	}
	if c.clk == nil {
		c.clk = timex.System{}
	}
	if c.log == nil {
		c.log = logx.Discard()
	}

	c.log.Info("booting",
		logx.Str("board", board.Name()),
		logx.Uint("rate_hz", uint64(cfg.RefreshRateHz)),
		logx.Bool("i2c", cfg.I2CEnabled),
		logx.Bool("watchdog", cfg.WatchdogEnabled))

	if err := config.Validate(cfg); err != nil {
		return c.abort("config", err)
	}

	// Clock first: the bus divider and the scheduler derive from it.
	applied, err := ConfigureClock(board.Clock(), cfg.Clock)
	if err != nil {
		return c.abort("clock", err)
	}
	c.log.Info("clock", logx.Uint("hz", uint64(board.Clock().CurrentHz())), logx.Bool("changed", applied))

	if cfg.I2CEnabled {
		if err := c.bootBus(); err != nil {
			return c.abort("i2c", err)
		}
	}

	for _, ch := range cfg.Analog {
		adc, err := board.ADC(ch)
		if err != nil {
			return c.abort("analog", err)
		}
		a, err := NewAnalogChannel(ch, adc)
		if err != nil {
			return c.abort("analog", err)
		}
		c.channels = append(c.channels, a)
	}

	c.wd = NewWatchdogSupervisor(nil, c.clk)
	if cfg.WatchdogEnabled {
		hw, err := board.Watchdog()
		if err != nil {
			return c.abort("watchdog", err)
		}
		c.wd = NewWatchdogSupervisor(hw, c.clk)
		if err := c.wd.Arm(cfg.WatchdogTimeout()); err != nil {
			return c.abort("watchdog", err)
		}
		c.log.Info("watchdog armed", logx.Dur("timeout", cfg.WatchdogTimeout()))
	}

	pin, err := board.LED(cfg.Heartbeat.Pin)
	if err != nil {
		return c.abort("heartbeat", err)
	}
	c.heart = NewHeartbeat(pin)
	c.heart.Set(false)

	if blink := cfg.StartupBlink(); blink > 0 {
		c.heart.Set(true)
		c.clk.Sleep(blink)
		c.heart.Toggle()
		c.wd.Feed()
	}

	c.sched = NewScheduler(c.clk, cfg.RefreshPeriod())
	c.report.Temperatures = make([]TemperatureReading, 0, len(c.slots))
	c.report.Voltages = make([]VoltageSample, 0, len(c.channels))
	c.state = types.StateSteady
	c.log.Info("steady", logx.Dur("period", c.sched.Period()))
	return c, nil
}

func (c *Context) bootBus() error {
	cfg := c.cfg
	policy, err := ParseFaultPolicy(cfg.Fault.Policy)
	if err != nil {
		return err
	}
	c.policy, c.retries, c.txTimeout = policy, cfg.Fault.Retries, cfg.TxTimeout()

	hw, err := c.board.I2C(cfg.I2C)
	if err != nil {
		return err
	}
	c.bus = NewBus(cfg.I2C.ID, hw, c.txTimeout)
	c.found = c.bus.Scan()
	c.log.Info("bus scan", logx.Str("bus", cfg.I2C.ID), logx.Int("devices", int64(len(c.found))))
	for _, a := range c.found {
		c.log.Debug("bus device", logx.Addr("addr", a))
	}

	for _, sc := range cfg.Sensors {
		s, err := NewSensor(sc, c.bus)
		if err != nil {
			return err
		}
		slot := sensorSlot{sensor: s, present: contains(c.found, sc.Address), lastErr: errcode.OK}
		if !slot.present {
			slot.lastErr = errcode.NotFound
			if cfg.RequireSensors {
				return errcode.Wrap(errcode.NotFound, "i2c", sc.Name+" absent from scan", nil)
			}
			c.log.Warn("sensor absent", logx.Str("sensor", sc.Name), logx.Addr("addr", sc.Address))
		}
		c.slots = append(c.slots, slot)
	}
	return nil
}

func contains(addrs []uint16, a uint16) bool {
	for _, x := range addrs {
		if x == a {
			return true
		}
	}
	return false
}

// Step runs one iteration: temperatures, voltages, heartbeat, sleep for the
// rest of the period, watchdog feed, then release of transient memory.
func (c *Context) Step() *Report {
	start := c.clk.Now()
	deadline := start.Add(c.cfg.SampleWindow())
	r := &c.report
	r.Iteration = c.iteration
	r.Start = start
	r.Temperatures = r.Temperatures[:0]
	r.Voltages = r.Voltages[:0]

	for i := range c.slots {
		s := &c.slots[i]
		t := s.sample(c.policy, c.retries, c.clk.Now, deadline, c.txTimeout)
		c.noteTemperature(s, t)
		r.Temperatures = append(r.Temperatures, t)
	}

	for _, ch := range c.channels {
		v := ch.ReadVoltage()
		if v.Err != errcode.OK {
			c.faultLog(v.Err)("voltage fault", logx.Str("channel", v.Channel), logx.Uint("raw", uint64(v.Raw)), logx.Str("err", string(v.Err)))
		} else {
			c.log.Debug("voltage", logx.Str("channel", v.Channel), logx.Milli("v", v.Volts))
		}
		r.Voltages = append(r.Voltages, v)
	}

	c.heart.Toggle()
	r.Heartbeat = c.heart.Phase()

	r.Pace = c.sched.SleepRemaining(start)
	if r.Pace.Overrun {
		c.log.Debug("overrun", logx.Dur("elapsed", r.Pace.Elapsed))
	}

	r.Fed = false
	if !c.halted {
		c.wd.Feed()
		r.Fed = c.wd.Armed()
	}
	r.Halted = c.halted
	c.iteration++

	if c.sink != nil {
		c.sink(r)
	}
	if c.cfg.CollectGarbage {
		runtime.GC()
	}
	return r
}

// noteTemperature logs a reading and applies the halt policy. A fault is
// logged at warn level when it first appears or changes, then at debug.
func (c *Context) noteTemperature(s *sensorSlot, t TemperatureReading) {
	fields := []logx.Field{logx.Str("sensor", t.Sensor), logx.Addr("addr", t.Address)}
	switch {
	case t.Err == errcode.OK:
		if s.lastErr != errcode.OK {
			c.log.Info("sensor recovered", append(fields, logx.Milli("c", t.Celsius))...)
		} else {
			c.log.Debug("temperature", append(fields, logx.Milli("c", t.Celsius))...)
		}
	case t.Err != s.lastErr:
		c.faultLog(t.Err)("sensor fault", append(fields, logx.Str("err", string(t.Err)), logx.Int("attempts", int64(t.Attempts)))...)
	default:
		c.log.Debug("sensor fault", append(fields, logx.Str("err", string(t.Err)))...)
	}
	s.lastErr = t.Err

	// An absent sensor was accepted at boot and a skipped one was never
	// addressed; neither can halt the board.
	if c.policy == PolicyHalt && !c.halted && t.Err != errcode.OK && t.Err != errcode.NotFound && t.Err != errcode.Skipped {
		c.halted = true
		c.log.Error("halting: watchdog feeds stopped", append(fields, logx.Str("err", string(t.Err)))...)
	}
}

// faultLog picks the level for a fault report: warn for the
// transient faults a device can produce, error for anything unclassified.
func (c *Context) faultLog(code errcode.Code) func(string, ...logx.Field) {
	if errcode.Transient(code) {
		return c.log.Warn
	}
	return c.log.Error
}

// Run steps until ctx is done. Firmware passes context.Background and never
// returns; hosts cancel to stop.
func (c *Context) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.Close()
			return ctx.Err()
		default:
		}
		c.Step()
	}
}

// Close releases the bus worker. The Context must not be stepped afterwards.
func (c *Context) Close() {
	if c.bus != nil {
		c.bus.Close()
		c.bus = nil
	}
}

func (c *Context) State() types.State              { return c.state }
func (c *Context) Config() types.Config            { return c.cfg }
func (c *Context) Iteration() uint64               { return c.iteration }
func (c *Context) Halted() bool                    { return c.halted }
func (c *Context) Heartbeat() *Heartbeat           { return c.heart }
func (c *Context) Watchdog() *WatchdogSupervisor   { return c.wd }
func (c *Context) Scheduler() *Scheduler           { return c.sched }
func (c *Context) Channels() []*AnalogChannel      { return c.channels }
func (c *Context) Bus() *Bus                       { return c.bus }
func (c *Context) Policy() FaultPolicy             { return c.policy }

// Discovered returns the addresses that answered the boot scan.
func (c *Context) Discovered() []uint16 { return c.found }

// Sensors returns the configured sensors in sampling order.
func (c *Context) Sensors() []TemperatureSensor {
	out := make([]TemperatureSensor, len(c.slots))
	for i := range c.slots {
		out[i] = c.slots[i].sensor
	}
	return out
}
