package supervisor

import "powerpico/services/supervisor/internal/core"

// Heartbeat drives the liveness indicator. It is purely observational.
type Heartbeat struct {
	pin   core.OutputPin
	phase bool
}

func NewHeartbeat(pin core.OutputPin) *Heartbeat { return &Heartbeat{pin: pin} }

// Set forces a known phase.
func (h *Heartbeat) Set(on bool) {
	h.phase = on
	h.pin.Set(on)
}

// Toggle inverts the phase. Called once per iteration.
func (h *Heartbeat) Toggle() { h.Set(!h.phase) }

func (h *Heartbeat) Phase() bool { return h.phase }
