package supervisor

import (
	"testing"
	"time"

	"powerpico/x/timex"

	"github.com/stretchr/testify/assert"
)

func TestSleepRemaining(t *testing.T) {
	cases := []struct {
		name    string
		work    time.Duration
		slept   time.Duration
		overrun bool
	}{
		{"idle", 0, 200 * time.Millisecond, false},
		{"50ms work at 5Hz", 50 * time.Millisecond, 150 * time.Millisecond, false},
		{"exact period", 200 * time.Millisecond, 0, false},
		{"250ms work at 5Hz", 250 * time.Millisecond, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			clk := timex.NewManual(epoch)
			s := NewScheduler(clk, timex.PeriodFromHz(5))
			start := clk.Now()
			clk.Advance(c.work)

			p := s.SleepRemaining(start)
			assert.Equal(t, c.work, p.Elapsed)
			assert.Equal(t, c.slept, p.Slept)
			assert.Equal(t, c.overrun, p.Overrun)
			assert.Equal(t, start.Add(c.work+c.slept), clk.Now())
		})
	}
}

func TestSleepRemainingNeverNegative(t *testing.T) {
	clk := timex.NewManual(epoch)
	s := NewScheduler(clk, 100*time.Millisecond)
	for work := time.Duration(0); work < 400*time.Millisecond; work += 7 * time.Millisecond {
		start := clk.Now()
		clk.Advance(work)
		s.SleepRemaining(start)
	}
	for _, d := range clk.Slept() {
		assert.Positive(t, d)
	}
}

func TestSleepRemainingNoBacklog(t *testing.T) {
	clk := timex.NewManual(epoch)
	s := NewScheduler(clk, 200*time.Millisecond)

	start := clk.Now()
	clk.Advance(250 * time.Millisecond)
	assert.Zero(t, s.SleepRemaining(start).Slept)

	// The next normal iteration sleeps its full remainder; the 50ms overrun
	// is not deducted.
	start = clk.Now()
	clk.Advance(50 * time.Millisecond)
	assert.Equal(t, 150*time.Millisecond, s.SleepRemaining(start).Slept)
}

func TestSleepRemainingClockStepBack(t *testing.T) {
	clk := timex.NewManual(epoch)
	s := NewScheduler(clk, 200*time.Millisecond)
	p := s.SleepRemaining(epoch.Add(time.Second))
	assert.Zero(t, p.Elapsed)
	assert.Equal(t, 200*time.Millisecond, p.Slept)
}
