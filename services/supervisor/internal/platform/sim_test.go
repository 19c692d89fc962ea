//go:build !rp2040 && !rp2350

package platform

import (
	"testing"
	"time"

	"powerpico/drivers/mcp9808"
	"powerpico/drivers/tmp102"
	"powerpico/errcode"
	"powerpico/types"
	"powerpico/x/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simCfg() types.Config {
	return types.Config{
		Clock: types.ClockConfig{DefaultHz: 125_000_000},
		Sensors: []types.SensorConfig{
			{Name: "board", Model: types.ModelTMP102, Address: 0x48},
			{Name: "ambient", Model: types.ModelMCP9808, Address: 0x18},
		},
		Analog: []types.ChannelConfig{{Name: "vin", Pin: 26, FullScaleVolts: 3.3, FullScaleCount: 4095}},
	}
}

func TestNewSimPopulatesDevices(t *testing.T) {
	b := NewSim(simCfg(), nil)

	r := make([]byte, 2)
	require.NoError(t, b.Bus.Tx(0x48, []byte{tmp102.RegTemperature}, r))
	assert.Equal(t, []byte{0x19, 0x00}, r)

	require.NoError(t, b.Bus.Tx(0x18, []byte{mcp9808.RegManufacturerID}, r))
	assert.Equal(t, []byte{0x00, 0x54}, r)

	raw, err := b.ADCAt(26).ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, uint32(2047), raw)
}

func TestSimDeviceRegisterPointer(t *testing.T) {
	b := NewSim(types.Config{}, nil)
	d := b.Bus.Attach(0x4A)
	d.SetReg(0x01, [2]byte{0x60, 0xA0})

	r := make([]byte, 2)
	require.NoError(t, b.Bus.Tx(0x4A, []byte{0x01}, nil))
	require.NoError(t, b.Bus.Tx(0x4A, nil, r), "a bare read uses the last pointer")
	assert.Equal(t, []byte{0x60, 0xA0}, r)
	assert.Equal(t, 2, b.Bus.Txs())
}

func TestSimI2CFaults(t *testing.T) {
	b := NewSim(types.Config{}, nil)
	assert.ErrorIs(t, b.Bus.Tx(0x50, nil, make([]byte, 1)), errcode.NoAck)

	d := b.Bus.Attach(0x50)
	d.SetNoAck(true)
	assert.ErrorIs(t, b.Bus.Tx(0x50, nil, make([]byte, 1)), errcode.NoAck)

	d.SetNoAck(false)
	release := make(chan struct{})
	d.SetHang(release)
	done := make(chan error, 1)
	go func() { done <- b.Bus.Tx(0x50, nil, make([]byte, 1)) }()
	select {
	case <-done:
		t.Fatal("hung device answered")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	assert.NoError(t, <-done)

	b.Bus.Detach(0x50)
	_, ok := b.Bus.Device(0x50)
	assert.False(t, ok)
}

func TestSimClockValidatesPLL(t *testing.T) {
	c := NewSim(simCfg(), nil).Clk
	assert.ErrorIs(t, c.SetHz(123_456_789), errcode.UnsupportedClock)
	require.NoError(t, c.SetHz(270_000_000))
	assert.Equal(t, uint32(270_000_000), c.CurrentHz())
	assert.Equal(t, 1, c.Applied())
}

func TestSimWatchdog(t *testing.T) {
	clk := timex.NewManual(time.Unix(0, 0))
	w := NewSim(types.Config{}, clk).WD

	assert.Error(t, w.Start(), "start before configure")
	require.NoError(t, w.Configure(time.Second))
	require.NoError(t, w.Start())

	clk.Advance(400 * time.Millisecond)
	w.Update()
	clk.Advance(999 * time.Millisecond)
	w.Update()
	assert.False(t, w.Expired())
	assert.Equal(t, 999*time.Millisecond, w.MaxGap())
	assert.Equal(t, 2, w.Feeds())

	clk.Advance(time.Second)
	assert.True(t, w.Expired())
}

func TestNewHostPlatform(t *testing.T) {
	b, err := New(types.Config{})
	require.NoError(t, err)
	assert.Equal(t, "sim", b.Name())

	_, err = New(types.Config{Platform: "bogus"})
	assert.ErrorIs(t, err, errcode.InvalidParams)
	assert.Nil(t, Console(types.Config{Debug: true}))
}
