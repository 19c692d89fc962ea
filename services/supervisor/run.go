package supervisor

import (
	"context"
	"io"

	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/services/supervisor/internal/platform"
	"powerpico/types"
	"powerpico/x/logx"
)

// Console returns the platform's debug console, or nil for the default
// print output.
func Console(cfg types.Config) io.Writer { return platform.Console(cfg) }

// Run boots the platform board selected by cfg and runs the loop until ctx
// is done.
func Run(ctx context.Context, cfg types.Config, log *logx.Logger) error {
	board, err := platform.New(cfg)
	if err != nil {
		return err
	}
	c, err := Boot(cfg, board, Options{Log: log})
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// Diagnosis is a one-shot survey of the board.
type Diagnosis struct {
	Board        string
	ClockHz      uint32
	Found        []uint16
	Temperatures []TemperatureReading
	Voltages     []VoltageSample
}

// Faults counts readings that carry an error.
func (d *Diagnosis) Faults() int {
	r := Report{Temperatures: d.Temperatures, Voltages: d.Voltages}
	return r.Faults()
}

// Diagnose boots board with the watchdog and startup blink disabled, then
// reads every configured sensor and analog channel once.
func Diagnose(cfg types.Config, board core.Board, log *logx.Logger) (*Diagnosis, error) {
	cfg.WatchdogEnabled = false
	cfg.Heartbeat.StartupBlinkMs = 0
	if cfg.Fault.Policy == types.PolicyHalt {
		cfg.Fault.Policy = types.PolicyRetry
	}
	c, err := Boot(cfg, board, Options{Log: log})
	if err != nil {
		return nil, err
	}
	defer c.Close()

	d := &Diagnosis{
		Board:   board.Name(),
		ClockHz: board.Clock().CurrentHz(),
		Found:   c.Discovered(),
	}
	for _, s := range c.Sensors() {
		t := TemperatureReading{Sensor: s.Name(), Address: s.Address()}
		if !contains(d.Found, s.Address()) {
			t.Err = errcode.NotFound
			d.Temperatures = append(d.Temperatures, t)
			continue
		}
		t.Attempts = 1
		if v, err := s.Read(); err != nil {
			t.Err = errcode.Of(err)
		} else {
			t.Celsius = v
		}
		d.Temperatures = append(d.Temperatures, t)
	}
	for _, ch := range c.Channels() {
		d.Voltages = append(d.Voltages, ch.ReadVoltage())
	}
	return d, nil
}

// DiagnosePlatform runs Diagnose on the platform board selected by cfg.
func DiagnosePlatform(cfg types.Config, log *logx.Logger) (*Diagnosis, error) {
	board, err := platform.New(cfg)
	if err != nil {
		return nil, err
	}
	return Diagnose(cfg, board, log)
}
