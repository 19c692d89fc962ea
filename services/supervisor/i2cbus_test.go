package supervisor

import (
	"sync"
	"testing"
	"time"

	"powerpico/drivers/tmp102"
	"powerpico/errcode"
	"powerpico/services/supervisor/internal/platform"
	"powerpico/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimBus() *platform.SimI2C {
	return platform.NewSim(types.Config{}, nil).Bus
}

func TestBusSerialisesConcurrentCallers(t *testing.T) {
	hw := newSimBus()
	for a := uint16(0x48); a <= 0x4B; a++ {
		d := hw.Attach(a)
		d.SetReg(tmp102.RegTemperature, tmp102.Encode(20))
		d.SetOnTx(func() { time.Sleep(200 * time.Microsecond) })
	}
	b := NewBus("i2c1", hw, time.Second)
	defer b.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			addr := uint16(0x48 + g%4)
			r := make([]byte, 2)
			for i := 0; i < 20; i++ {
				assert.NoError(t, b.Tx(addr, []byte{tmp102.RegTemperature}, r))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 160, hw.Txs())
	assert.Zero(t, hw.Overlaps(), "transactions overlapped on the wire")
}

func TestBusTxTimesOutOnHungDevice(t *testing.T) {
	hw := newSimBus()
	release := make(chan struct{})
	hw.Attach(0x48).SetHang(release)
	b := NewBus("i2c1", hw, 20*time.Millisecond)
	defer b.Close()
	defer close(release)

	r := []byte{0xAA, 0xBB}
	start := time.Now()
	err := b.Tx(0x48, []byte{0}, r)
	assert.ErrorIs(t, err, errcode.Timeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []byte{0xAA, 0xBB}, r, "caller buffer untouched after timeout")
}

func TestBusBusyWhenQueueFull(t *testing.T) {
	hw := newSimBus()
	release := make(chan struct{})
	hw.Attach(0x48).SetHang(release)
	b := NewBus("i2c1", hw, 10*time.Millisecond)
	defer b.Close()
	defer close(release)

	// The first request occupies the worker; the next four fill the queue.
	var codes []errcode.Code
	for i := 0; i < 6; i++ {
		codes = append(codes, errcode.Of(b.Tx(0x48, []byte{0}, make([]byte, 2))))
	}
	assert.Equal(t, errcode.Timeout, codes[0])
	assert.Equal(t, errcode.Busy, codes[5])
}

func TestBusTxBoundedByOneTimeout(t *testing.T) {
	hw := newSimBus()
	release := make(chan struct{})
	hw.Attach(0x48).SetHang(release)
	const timeout = 100 * time.Millisecond
	b := NewBus("i2c1", hw, timeout)
	defer b.Close()
	defer close(release)

	// The worker is stuck, so enqueue succeeds and completion never comes.
	// Enqueue and completion share one deadline.
	for i := 0; i < 3; i++ {
		start := time.Now()
		assert.ErrorIs(t, b.Tx(0x48, []byte{0}, make([]byte, 2)), errcode.Timeout)
		assert.Less(t, time.Since(start), 2*timeout)
	}
}

func TestBusMissingDeviceIsNoAck(t *testing.T) {
	b := NewBus("i2c1", newSimBus(), 20*time.Millisecond)
	defer b.Close()
	assert.ErrorIs(t, b.Tx(0x50, []byte{0}, make([]byte, 2)), errcode.NoAck)
}

func TestBusScan(t *testing.T) {
	hw := newSimBus()
	hw.Attach(0x48)
	hw.Attach(0x18)
	hw.Attach(0x03) // reserved, never probed
	b := NewBus("i2c1", hw, 20*time.Millisecond)
	defer b.Close()

	assert.Equal(t, []uint16{0x18, 0x48}, b.Scan())
	assert.Equal(t, types.LastAddress-types.FirstAddress+1, hw.Txs())
}

func TestBusReadsIntoCallerBuffer(t *testing.T) {
	hw := newSimBus()
	hw.Attach(0x48).SetReg(tmp102.RegTemperature, [2]byte{0x19, 0x00})
	b := NewBus("i2c1", hw, 20*time.Millisecond)
	defer b.Close()

	r := make([]byte, 2)
	require.NoError(t, b.Tx(0x48, []byte{tmp102.RegTemperature}, r))
	assert.Equal(t, []byte{0x19, 0x00}, r)
}
