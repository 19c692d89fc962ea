// Package mcp9808 provides a driver for the Microchip MCP9808 digital
// temperature sensor.
//
// Ambient temperature register (pointer 0x05), two bytes, MSB first:
//
//	bit 15..13  alert flags (Tcrit, Tupper, Tlower), ignored here
//	bit 12      sign
//	bit 11..0   magnitude, 0.0625 °C per LSB
//
// A negative reading is magnitude - 256 °C. +25.0 °C reads as 0x01 0x90,
// -25.0 °C as 0x1E 0x70.
package mcp9808

import (
	"powerpico/errcode"
	"powerpico/x/mathx"

	"tinygo.org/x/drivers"
)

// I2C addresses selectable by A2..A0.
const (
	Address    = 0x18
	AddressMin = 0x18
	AddressMax = 0x1F
)

// Register pointers.
const (
	RegConfig         = 0x01
	RegAmbient        = 0x05
	RegManufacturerID = 0x06
	RegDeviceID       = 0x07
	RegResolution     = 0x08
)

// Identification values.
const (
	ManufacturerID = 0x0054
	DeviceID       = 0x04 // upper byte of RegDeviceID
)

// Documented accuracy range.
const (
	MinCelsius = -40
	MaxCelsius = 125
)

// LSB is the temperature resolution in °C at the power-on resolution.
const LSB = 0.0625

const (
	signBit  = 0x1000
	magMask  = 0x0FFF
	dataMask = 0x1FFF
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x18 if zero.
	Address uint16
}

// Device wraps an I2C connection to an MCP9808.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [1]byte
	r [2]byte
}

// New creates a new MCP9808 connection. The I2C bus must already be configured.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config. It does not touch the device.
func (d *Device) Configure(cfg Config) {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
}

func (d *Device) readWord(reg byte) ([2]byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:], d.r[:]); err != nil {
		return [2]byte{}, busError(err)
	}
	return d.r, nil
}

// Identify checks the manufacturer and device ID registers.
func (d *Device) Identify() error {
	m, err := d.readWord(RegManufacturerID)
	if err != nil {
		return err
	}
	id, err := d.readWord(RegDeviceID)
	if err != nil {
		return err
	}
	if uint16(m[0])<<8|uint16(m[1]) != ManufacturerID || id[0] != DeviceID {
		return errcode.Wrap(errcode.Malformed, "mcp9808", "unexpected identification", nil)
	}
	return nil
}

// ReadRaw returns the two ambient temperature register bytes.
func (d *Device) ReadRaw() ([2]byte, error) { return d.readWord(RegAmbient) }

// ReadCelsius reads and decodes the ambient temperature. A value outside the
// documented range is reported as errcode.Malformed and never clamped.
func (d *Device) ReadCelsius() (float32, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return 0, err
	}
	c := Decode(raw)
	if !mathx.Between(c, MinCelsius, MaxCelsius) {
		return 0, errcode.Wrap(errcode.Malformed, "mcp9808", "temperature outside -40..125", nil)
	}
	return c, nil
}

// Decode converts ambient temperature register bytes to °C.
func Decode(raw [2]byte) float32 {
	v := (uint16(raw[0])<<8 | uint16(raw[1])) & dataMask
	t := int32(v & magMask)
	if v&signBit != 0 {
		t -= signBit
	}
	return float32(t) * LSB
}

// Encode produces register bytes for c with the alert flags clear.
func Encode(c float32) [2]byte {
	code := uint16(int32(c/LSB)) & dataMask
	return [2]byte{byte(code >> 8), byte(code)}
}

func busError(err error) error {
	switch errcode.Of(err) {
	case errcode.Timeout, errcode.Busy, errcode.NoAck:
		return err
	}
	return errcode.Wrap(errcode.NoAck, "mcp9808", "", err)
}
