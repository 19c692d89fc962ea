package supervisor

import (
	"powerpico/errcode"
	"powerpico/services/config"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"
)

// AnalogChannel converts raw ADC counts to volts with a fixed per-channel
// ratio. No averaging, filtering or calibration is applied; every read is an
// independent point sample.
type AnalogChannel struct {
	name           string
	pin            int
	fullScaleVolts float32
	fullScaleCount uint32
	voltsPerCount  float32
	adc            core.ADC
}

// VoltageSample is one converted reading.
type VoltageSample struct {
	Channel string
	Raw     uint32
	Volts   float32
	Err     errcode.Code
}

// NewAnalogChannel validates cfg and binds it to adc.
func NewAnalogChannel(cfg types.ChannelConfig, adc core.ADC) (*AnalogChannel, error) {
	if err := config.ValidateChannel(cfg); err != nil {
		return nil, err
	}
	return &AnalogChannel{
		name:           cfg.Name,
		pin:            cfg.Pin,
		fullScaleVolts: cfg.FullScaleVolts,
		fullScaleCount: cfg.FullScaleCount,
		voltsPerCount:  cfg.FullScaleVolts / float32(cfg.FullScaleCount),
		adc:            adc,
	}, nil
}

func (c *AnalogChannel) Name() string            { return c.name }
func (c *AnalogChannel) Pin() int                { return c.pin }
func (c *AnalogChannel) VoltsPerCount() float32  { return c.voltsPerCount }
func (c *AnalogChannel) FullScaleCount() uint32  { return c.fullScaleCount }
func (c *AnalogChannel) FullScaleVolts() float32 { return c.fullScaleVolts }

// Convert maps a raw count to volts. A count above full scale means the
// channel parameters do not match the converter and is errcode.OutOfRange.
func (c *AnalogChannel) Convert(raw uint32) (float32, error) {
	if raw > c.fullScaleCount {
		return 0, errcode.Wrap(errcode.OutOfRange, "analog", c.name, nil)
	}
	return float32(raw) * c.voltsPerCount, nil
}

// ReadVoltage samples the channel once.
func (c *AnalogChannel) ReadVoltage() VoltageSample {
	s := VoltageSample{Channel: c.name}
	raw, err := c.adc.ReadRaw()
	if err != nil {
		s.Err = errcode.Of(err)
		return s
	}
	s.Raw = raw
	v, err := c.Convert(raw)
	if err != nil {
		s.Err = errcode.Of(err)
		return s
	}
	s.Volts = v
	return s
}
