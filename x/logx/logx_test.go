package logx

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("supervisor", &buf, LevelDebug)

	l.Warn("sensor fault",
		Str("sensor", "board"),
		Addr("addr", 0x48),
		Err(errors.New("no_ack")),
		Milli("celsius", -0.25),
		Dur("slept", 150*time.Millisecond),
		Bool("fed", true),
		Uint("iter", 7),
		Int("delta", -3),
	)

	assert.Equal(t,
		"[supervisor] WARN sensor fault sensor=board addr=0x48 err=no_ack celsius=-0.250 slept_ms=150 fed=true iter=7 delta=-3\n",
		buf.String())
}

func TestLevelFilteringAndChildren(t *testing.T) {
	var buf bytes.Buffer
	root := New("main", &buf, LevelInfo)
	child := root.With("clock")

	root.Debug("hidden")
	child.Info("applied", Uint("hz", 125_000_000))
	child.Error("failed", Err(nil))

	assert.Equal(t, "[clock] INFO applied hz=125000000\n[clock] ERROR failed err=ok\n", buf.String())
	assert.False(t, root.Enabled(LevelDebug))
	assert.True(t, child.Enabled(LevelWarn))
}

func TestDiscardWritesNothing(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(LevelError))
	l.Error("dropped")
}
