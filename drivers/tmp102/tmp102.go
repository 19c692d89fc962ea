// Package tmp102 provides a driver for the TI TMP102 digital temperature
// sensor.
//
// Temperature register (pointer 0x00), two bytes, MSB first:
//
//	normal mode:   T11..T0 in bits 15..4, bits 3..0 zero
//	extended mode: T12..T0 in bits 15..3, bit 0 set (EM flag)
//
// Both are two's complement with 0.0625 °C per LSB. +25.0 °C reads as
// 0x19 0x00, -25.0 °C as 0xE7 0x00.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package tmp102

import (
	"powerpico/errcode"
	"powerpico/x/mathx"

	"tinygo.org/x/drivers"
)

// I2C addresses selectable by the ADD0 pin.
const (
	Address    = 0x48
	AddressMin = 0x48
	AddressMax = 0x4B
)

// Register pointers.
const (
	RegTemperature = 0x00
	RegConfig      = 0x01
	RegTLow        = 0x02
	RegTHigh       = 0x03
)

// Documented operating range (extended mode reaches +150 °C).
const (
	MinCelsius = -55
	MaxCelsius = 150
)

// LSB is the temperature resolution in °C.
const LSB = 0.0625

const emFlag = 0x01

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
}

// Device wraps an I2C connection to a TMP102.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [1]byte
	r [2]byte
}

// New creates a new TMP102 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config. It does not touch the device.
func (d *Device) Configure(cfg Config) {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
}

// ReadRaw returns the two temperature register bytes.
func (d *Device) ReadRaw() ([2]byte, error) {
	d.w[0] = RegTemperature
	if err := d.bus.Tx(d.Address, d.w[:], d.r[:]); err != nil {
		return [2]byte{}, busError(err)
	}
	return d.r, nil
}

// ReadCelsius reads and decodes the temperature. A value outside the
// documented range is reported as errcode.Malformed and never clamped.
func (d *Device) ReadCelsius() (float32, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return 0, err
	}
	c := Decode(raw)
	if !mathx.Between(c, MinCelsius, MaxCelsius) {
		return 0, errcode.Wrap(errcode.Malformed, "tmp102", "temperature outside -55..150", nil)
	}
	return c, nil
}

// Decode converts temperature register bytes to °C.
func Decode(raw [2]byte) float32 {
	v := int16(uint16(raw[0])<<8 | uint16(raw[1]))
	if raw[1]&emFlag != 0 {
		return float32(v>>3) * LSB
	}
	return float32(v>>4) * LSB
}

// Encode produces normal-mode register bytes for c, truncated to the
// 0.0625 °C grid. Used by simulated devices.
func Encode(c float32) [2]byte {
	code := int16(c/LSB) << 4
	return [2]byte{byte(uint16(code) >> 8), byte(code)}
}

// busError maps a failed transaction to NoAck unless the transport already
// classified it (timeout, busy).
func busError(err error) error {
	switch errcode.Of(err) {
	case errcode.Timeout, errcode.Busy, errcode.NoAck:
		return err
	}
	return errcode.Wrap(errcode.NoAck, "tmp102", "", err)
}
