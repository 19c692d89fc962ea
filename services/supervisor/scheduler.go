package supervisor

import (
	"time"

	"powerpico/x/mathx"
	"powerpico/x/timex"
)

// Scheduler paces a fixed-period loop. An overrun iteration is followed by
// no sleep at all; lost time is never made up.
type Scheduler struct {
	clk    timex.Clock
	period time.Duration
}

func NewScheduler(clk timex.Clock, period time.Duration) *Scheduler {
	return &Scheduler{clk: clk, period: period}
}

func (s *Scheduler) Period() time.Duration { return s.period }

// Pace is what one SleepRemaining call measured and did.
type Pace struct {
	Elapsed time.Duration
	Slept   time.Duration
	Overrun bool
}

// SleepRemaining sleeps max(0, period-elapsed) where elapsed is measured
// from start.
func (s *Scheduler) SleepRemaining(start time.Time) Pace {
	p := Pace{Elapsed: mathx.NonNegative(s.clk.Now().Sub(start))}
	if p.Elapsed >= s.period {
		p.Overrun = p.Elapsed > s.period
		return p
	}
	p.Slept = s.period - p.Elapsed
	s.clk.Sleep(p.Slept)
	return p
}
