package supervisor

import (
	"time"

	"powerpico/drivers/mcp9808"
	"powerpico/drivers/tmp102"
	"powerpico/errcode"
	"powerpico/types"

	"tinygo.org/x/drivers"
)

// TemperatureSensor is one temperature device on the shared bus. Alternate
// models substitute freely without touching the loop.
type TemperatureSensor interface {
	Name() string
	Address() uint16
	// Read returns degrees Celsius, or a coded error: errcode.NoAck,
	// errcode.Timeout or errcode.Busy for transport faults, errcode.Malformed
	// for a decoded value outside the model's documented range.
	Read() (float32, error)
}

// NewSensor builds the driver for cfg.Model on bus.
func NewSensor(cfg types.SensorConfig, bus drivers.I2C) (TemperatureSensor, error) {
	switch cfg.Model {
	case types.ModelTMP102:
		d := tmp102.New(bus)
		d.Configure(tmp102.Config{Address: cfg.Address})
		return &tmp102Sensor{name: cfg.Name, dev: d}, nil
	case types.ModelMCP9808:
		d := mcp9808.New(bus)
		d.Configure(mcp9808.Config{Address: cfg.Address})
		return &mcp9808Sensor{name: cfg.Name, dev: d}, nil
	default:
		return nil, errcode.Wrap(errcode.InvalidParams, "sensor", cfg.Name+": unknown model "+cfg.Model, nil)
	}
}

type tmp102Sensor struct {
	name string
	dev  tmp102.Device
}

func (s *tmp102Sensor) Name() string           { return s.name }
func (s *tmp102Sensor) Address() uint16        { return s.dev.Address }
func (s *tmp102Sensor) Read() (float32, error) { return s.dev.ReadCelsius() }

type mcp9808Sensor struct {
	name string
	dev  mcp9808.Device
}

func (s *mcp9808Sensor) Name() string           { return s.name }
func (s *mcp9808Sensor) Address() uint16        { return s.dev.Address }
func (s *mcp9808Sensor) Read() (float32, error) { return s.dev.ReadCelsius() }

// FaultPolicy decides what a failed temperature read does to the iteration.
type FaultPolicy uint8

const (
	// PolicySkip reports the fault once and keeps the previous value.
	PolicySkip FaultPolicy = iota
	// PolicyRetry re-reads up to the retry budget while the period allows,
	// then behaves like PolicySkip.
	PolicyRetry
	// PolicyHalt retries like PolicyRetry, then stops feeding the watchdog so
	// the board resets.
	PolicyHalt
)

// ParseFaultPolicy maps a config string to a policy. Empty means retry.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch s {
	case types.PolicySkip:
		return PolicySkip, nil
	case "", types.PolicyRetry:
		return PolicyRetry, nil
	case types.PolicyHalt:
		return PolicyHalt, nil
	}
	return 0, errcode.Wrap(errcode.InvalidParams, "fault", "unknown policy "+s, nil)
}

func (p FaultPolicy) String() string {
	switch p {
	case PolicySkip:
		return types.PolicySkip
	case PolicyRetry:
		return types.PolicyRetry
	case PolicyHalt:
		return types.PolicyHalt
	default:
		return "unknown"
	}
}

// TemperatureReading is one iteration's result for one sensor. It is owned
// by the iteration that produced it.
type TemperatureReading struct {
	Sensor  string
	Address uint16
	// Celsius is the fresh value when Err is OK, otherwise the last good
	// value if Stale is set. With neither, there is no value.
	Celsius  float32
	Stale    bool
	Err      errcode.Code
	Attempts int
}

// Valid reports whether Celsius carries a value, fresh or stale.
func (r TemperatureReading) Valid() bool { return r.Err == errcode.OK || r.Stale }

// sensorSlot carries a sensor's state across iterations.
type sensorSlot struct {
	sensor   TemperatureSensor
	present  bool // answered the boot scan
	last     float32
	haveLast bool
	lastErr  errcode.Code
}

// sample reads the sensor with policy. An attempt, the first included,
// starts only while a whole bounded transaction (txBudget) still fits before
// deadline, so a failing sensor never stretches the loop period. A sensor
// with no room left is reported errcode.Skipped without touching the bus.
func (s *sensorSlot) sample(policy FaultPolicy, retries int, now func() time.Time, deadline time.Time, txBudget time.Duration) TemperatureReading {
	r := TemperatureReading{Sensor: s.sensor.Name(), Address: s.sensor.Address()}
	if !s.present {
		r.Err = errcode.NotFound
		s.keepLast(&r)
		return r
	}

	attempts := 1
	if policy != PolicySkip && retries > 0 {
		attempts += retries
	}
	var err error = errcode.Skipped
	for i := 0; i < attempts; i++ {
		if now().Add(txBudget).After(deadline) {
			break
		}
		r.Attempts++
		var c float32
		if c, err = s.sensor.Read(); err == nil {
			r.Celsius = c
			r.Err = errcode.OK
			s.last, s.haveLast = c, true
			return r
		}
	}
	r.Err = errcode.Of(err)
	s.keepLast(&r)
	return r
}

func (s *sensorSlot) keepLast(r *TemperatureReading) {
	if s.haveLast {
		r.Celsius = s.last
		r.Stale = true
	}
}
