package timex

import (
	"sync"
	"time"
)

// PeriodFromHz returns the loop period for a refresh rate, truncated to whole
// milliseconds (1000/rate ms). freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(1000/freqHz) * time.Millisecond
}

// Clock is the time source used by loops that must be testable without
// real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Sleep never sleeps for a negative or zero duration.
func (System) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Manual is a Clock that only moves when told to. Sleep advances it.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func NewManual(start time.Time) *Manual { return &Manual{now: start} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Sleep records every request, including non-positive ones, so tests can
// assert that no negative sleep was ever issued.
func (m *Manual) Sleep(d time.Duration) {
	m.mu.Lock()
	m.slept = append(m.slept, d)
	if d > 0 {
		m.now = m.now.Add(d)
	}
	m.mu.Unlock()
}

// Advance moves the clock forward without recording a sleep.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Slept returns a copy of all recorded sleep requests.
func (m *Manual) Slept() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.slept...)
}
