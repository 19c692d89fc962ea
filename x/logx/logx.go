// Package logx is a small levelled logger for firmware builds.
//
// Lines look like:
//
//	[supervisor] WARN sensor fault sensor=board addr=0x48 err=no_ack
//
// Formatting goes through x/conv into a fixed stack buffer so the hot path
// does not pull in fmt. With a nil writer, lines go through the builtin print,
// which is the USB console on the Pico and stderr on the host.
package logx

import (
	"io"
	"sync"
	"time"

	"powerpico/x/conv"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// sink is shared by a logger and all of its children.
type sink struct {
	mu  sync.Mutex
	out io.Writer
	min Level
}

// Logger writes tagged lines to a shared sink.
type Logger struct {
	tag string
	s   *sink
}

// New returns a logger writing to out (nil: builtin print) at or above min.
func New(tag string, out io.Writer, min Level) *Logger {
	return &Logger{tag: tag, s: &sink{out: out, min: min}}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return New("", io.Discard, LevelError+1) }

// With returns a child logger with a different tag and the same sink.
func (l *Logger) With(tag string) *Logger { return &Logger{tag: tag, s: l.s} }

// Enabled reports whether lines at lv would be written.
func (l *Logger) Enabled(lv Level) bool { return lv >= l.s.min }

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(lv Level, msg string, fields []Field) {
	if !l.Enabled(lv) {
		return
	}
	var line [256]byte
	b := line[:0]
	b = append(b, '[')
	b = append(b, l.tag...)
	b = append(b, "] "...)
	b = append(b, lv.String()...)
	b = append(b, ' ')
	b = append(b, msg...)
	for _, f := range fields {
		b = append(b, ' ')
		b = f.appendTo(b)
	}
	b = append(b, '\n')

	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.s.out == nil {
		print(string(b))
		return
	}
	_, _ = l.s.out.Write(b)
}

type fieldKind uint8

const (
	kindStr fieldKind = iota
	kindInt
	kindUint
	kindHex
	kindMilli
	kindBool
)

// Field is a key/value pair appended to a log line.
type Field struct {
	key  string
	kind fieldKind
	s    string
	i    int64
	u    uint64
}

func Str(k, v string) Field        { return Field{key: k, kind: kindStr, s: v} }
func Int(k string, v int64) Field  { return Field{key: k, kind: kindInt, i: v} }
func Uint(k string, v uint64) Field { return Field{key: k, kind: kindUint, u: v} }

// Addr formats a 7-bit bus address as 0xNN.
func Addr(k string, v uint16) Field { return Field{key: k, kind: kindHex, u: uint64(v)} }

// Milli formats v with three decimals. Use it for volts and degrees.
func Milli(k string, v float32) Field {
	m := float64(v) * 1000
	if m < 0 {
		m -= 0.5
	} else {
		m += 0.5
	}
	return Field{key: k, kind: kindMilli, i: int64(m)}
}

func Bool(k string, v bool) Field {
	f := Field{key: k, kind: kindBool}
	if v {
		f.u = 1
	}
	return f
}

// Dur formats a duration in whole milliseconds under key k+"_ms".
func Dur(k string, d time.Duration) Field {
	return Field{key: k + "_ms", kind: kindInt, i: d.Milliseconds()}
}

// Err formats an error under key "err". A nil error formats as "ok".
func Err(err error) Field {
	if err == nil {
		return Str("err", "ok")
	}
	return Str("err", err.Error())
}

func (f Field) appendTo(b []byte) []byte {
	var num [24]byte
	b = append(b, f.key...)
	b = append(b, '=')
	switch f.kind {
	case kindStr:
		return append(b, f.s...)
	case kindInt:
		return append(b, conv.Itoa(num[:], f.i)...)
	case kindUint:
		return append(b, conv.Utoa(num[:], f.u)...)
	case kindHex:
		return append(b, conv.Hex(num[:], f.u, 2)...)
	case kindMilli:
		return append(b, conv.Milli(num[:], f.i)...)
	case kindBool:
		if f.u != 0 {
			return append(b, "true"...)
		}
		return append(b, "false"...)
	}
	return b
}
