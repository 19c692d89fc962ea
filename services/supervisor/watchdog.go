package supervisor

import (
	"time"

	"powerpico/services/supervisor/internal/core"
	"powerpico/x/mathx"
	"powerpico/x/timex"
)

// WatchdogSupervisor arms the hardware watchdog once and feeds it. Omitting
// feeds is the only way this package triggers a reset.
type WatchdogSupervisor struct {
	hw      core.Watchdog
	clk     timex.Clock
	armed   bool
	timeout time.Duration
	lastFed time.Time
	maxGap  time.Duration
}

func NewWatchdogSupervisor(hw core.Watchdog, clk timex.Clock) *WatchdogSupervisor {
	return &WatchdogSupervisor{hw: hw, clk: clk}
}

// Arm configures and starts the watchdog, then feeds it immediately so the
// first interval starts now. Arming twice is a no-op.
func (w *WatchdogSupervisor) Arm(timeout time.Duration) error {
	if w.armed {
		return nil
	}
	if err := w.hw.Configure(timeout); err != nil {
		return err
	}
	if err := w.hw.Start(); err != nil {
		return err
	}
	w.armed = true
	w.timeout = timeout
	w.lastFed = w.clk.Now()
	w.hw.Update()
	return nil
}

// Feed resets the countdown. Before Arm it does nothing.
func (w *WatchdogSupervisor) Feed() {
	if !w.armed {
		return
	}
	now := w.clk.Now()
	w.maxGap = mathx.Max(w.maxGap, now.Sub(w.lastFed))
	w.lastFed = now
	w.hw.Update()
}

func (w *WatchdogSupervisor) Armed() bool            { return w.armed }
func (w *WatchdogSupervisor) Timeout() time.Duration { return w.timeout }
func (w *WatchdogSupervisor) LastFed() time.Time     { return w.lastFed }

// MaxGap is the longest interval seen between consecutive feeds.
func (w *WatchdogSupervisor) MaxGap() time.Duration { return w.maxGap }
