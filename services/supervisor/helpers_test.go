package supervisor

import (
	"bytes"
	"testing"
	"time"

	"powerpico/services/config"
	"powerpico/services/supervisor/internal/platform"
	"powerpico/types"
	"powerpico/x/logx"
	"powerpico/x/timex"

	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0)

// simConfig is the field profile on the simulation board with a short bus
// timeout so hang tests stay fast.
func simConfig() types.Config {
	cfg := config.Default()
	cfg.Platform = types.PlatformSim
	cfg.I2CEnabled = true
	cfg.WatchdogEnabled = true
	cfg.CollectGarbage = false
	cfg.I2C.TxTimeoutMs = 20
	cfg.Fault = types.FaultConfig{Policy: types.PolicyRetry, Retries: 1}
	return cfg
}

type rig struct {
	cfg      types.Config
	board    *platform.SimBoard
	clk      *timex.Manual
	logs     *bytes.Buffer
	ctx      *Context
	onReport func(*Report)
}

func newRig(cfg types.Config) *rig {
	r := &rig{cfg: cfg, clk: timex.NewManual(epoch), logs: &bytes.Buffer{}}
	r.board = platform.NewSim(cfg, r.clk)
	return r
}

func (r *rig) boot() error {
	var err error
	r.ctx, err = Boot(r.cfg, r.board, Options{
		Clock: r.clk,
		Log:   logx.New("supervisor", r.logs, logx.LevelDebug),
		Sink: func(rep *Report) {
			if r.onReport != nil {
				r.onReport(rep)
			}
		},
	})
	return err
}

func bootRig(t *testing.T, cfg types.Config) *rig {
	t.Helper()
	r := newRig(cfg)
	require.NoError(t, r.boot())
	t.Cleanup(r.ctx.Close)
	return r
}

// sensor returns the simulated device behind the first configured sensor.
func (r *rig) sensor(t *testing.T) *platform.SimDevice {
	t.Helper()
	d, ok := r.board.Bus.Device(r.cfg.Sensors[0].Address)
	require.True(t, ok)
	return d
}
