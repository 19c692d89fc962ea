package supervisor

import (
	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"
	"powerpico/x/pll"
)

// ConfigureClock applies cfg.TargetHz once at boot when it differs from the
// default frequency. It must run before the bus divider or the scheduler is
// derived from the core clock.
//
// A frequency the system PLL cannot reach exactly is errcode.UnsupportedClock;
// it is never rounded. Calling again with the clock already at the target is
// a no-op. The returned flag reports whether a new frequency was applied.
func ConfigureClock(clk core.ClockControl, cfg types.ClockConfig) (bool, error) {
	target := cfg.TargetHz
	if target == 0 || target == cfg.DefaultHz {
		return false, nil
	}
	if clk.CurrentHz() == target {
		return false, nil
	}
	if _, ok := pll.Solve(target); !ok {
		return false, errcode.Wrap(errcode.UnsupportedClock, "clock", "no exact PLL setting", nil)
	}
	if err := clk.SetHz(target); err != nil {
		return false, errcode.Wrap(errcode.Of(err), "clock", "apply target", err)
	}
	return true, nil
}
