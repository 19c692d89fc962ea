package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"
	UnknownBus    Code = "unknown_bus"

	// Boot-time configuration faults.
	UnsupportedClock Code = "unsupported_clock"

	// Bus device faults.
	NotFound   Code = "not_found"    // absent from the discovery scan
	NoAck      Code = "no_ack"       // addressed device did not acknowledge
	Malformed  Code = "malformed"    // decoded value outside the documented range
	OutOfRange Code = "out_of_range" // raw analog count outside full scale
	Skipped    Code = "skipped"      // no bounded transaction fitted in the period

	Error Code = "error" // generic fallback
)

// E keeps an operation, a short message and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped *E carrying code X.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E. A nil cause is allowed.
func Wrap(c Code, op, msg string, err error) *E {
	return &E{C: c, Op: op, Msg: msg, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}

// Transient reports whether a fault should be handled inside the current
// loop iteration rather than aborting boot.
func Transient(c Code) bool {
	switch c {
	case NoAck, Malformed, OutOfRange, Timeout, Busy, NotFound, Skipped:
		return true
	}
	return false
}
