package types

// State of the supervisory loop.
type State uint8

const (
	StateBooting State = iota
	StateSteady
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateSteady:
		return "steady"
	default:
		return "unknown"
	}
}
