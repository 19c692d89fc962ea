package supervisor

import (
	"time"

	"powerpico/errcode"
	"powerpico/types"

	"tinygo.org/x/drivers"
)

type i2cReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// Bus owns one shared two-wire bus. A single worker goroutine performs every
// transaction, so there is exactly one outstanding transaction at a time no
// matter how many logical readers exist. Every Tx is bounded: enqueue plus
// completion wait at most the configured timeout.
//
// The timeout runs on wall time, not the loop's injected clock: it bounds a
// physical transaction. On the board both are the same clock.
//
// Request buffers are private to the worker. A transaction that times out may
// still complete on the wire later; it then writes into its own copy, never
// into the caller's slice.
type Bus struct {
	id      string
	hw      drivers.I2C
	reqs    chan i2cReq
	quit    chan struct{}
	timeout time.Duration
}

// Ensure compile-time conformance with drivers.I2C
var _ drivers.I2C = (*Bus)(nil)

// NewBus starts the worker for hw. timeout <= 0 means no deadline.
func NewBus(id string, hw drivers.I2C, timeout time.Duration) *Bus {
	b := &Bus{
		id:      id,
		hw:      hw,
		reqs:    make(chan i2cReq, 4),
		quit:    make(chan struct{}),
		timeout: timeout,
	}
	go b.loop()
	return b
}

func (b *Bus) loop() {
	for {
		select {
		case req := <-b.reqs:
			err := b.hw.Tx(req.addr, req.w, req.r)
			// best-effort reply; do not block the worker
			select {
			case req.done <- err:
			default:
			}
		case <-b.quit:
			return
		}
	}
}

// Close stops the worker. Transactions issued afterwards time out.
func (b *Bus) Close() { close(b.quit) }

func (b *Bus) ID() string { return b.id }

// Tx performs one write-then-read transaction.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	req := i2cReq{addr: addr, done: make(chan error, 1)}
	if len(w) > 0 {
		req.w = append([]byte(nil), w...)
	}
	if len(r) > 0 {
		req.r = make([]byte, len(r))
	}

	if b.timeout <= 0 {
		b.reqs <- req
		err := <-req.done
		if err == nil {
			copy(r, req.r)
		}
		return err
	}

	// One deadline covers enqueue and completion, so a Tx never takes
	// longer than the timeout in total.
	t := time.NewTimer(b.timeout)
	defer t.Stop()
	select {
	case b.reqs <- req:
	case <-t.C:
		return errcode.Busy
	}
	select {
	case err := <-req.done:
		if err == nil {
			copy(r, req.r)
		}
		return err
	case <-t.C:
		return errcode.Timeout
	}
}

// Scan probes every non-reserved address with a one-byte read and returns
// the addresses that acknowledged, in ascending order.
func (b *Bus) Scan() []uint16 {
	var found []uint16
	var buf [1]byte
	for addr := uint16(types.FirstAddress); addr <= types.LastAddress; addr++ {
		if b.Tx(addr, nil, buf[:]) == nil {
			found = append(found, addr)
		}
	}
	return found
}
