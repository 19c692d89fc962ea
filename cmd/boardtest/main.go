// cmd/boardtest/main.go
package main

import (
	"time"

	"powerpico/errcode"
	"powerpico/services/config"
	"powerpico/services/supervisor"
	"powerpico/x/logx"
)

// ---------- Configuration ----------

const (
	// Allow USB CDC to enumerate before we print.
	settle = 2 * time.Second

	// Gap between diagnostic passes. 0 = run once.
	repeatEvery = 5 * time.Second
)

func main() {
	time.Sleep(settle)

	cfg, err := config.Resolve("")
	if err != nil {
		println("[boardtest] ERROR config:", err.Error())
		select {}
	}
	// Diagnostics always probe the bus and print everything.
	cfg.I2CEnabled = true
	cfg.Debug = true
	log := logx.New("boardtest", supervisor.Console(cfg), logx.LevelDebug)

	for pass := 1; ; pass++ {
		d, err := supervisor.DiagnosePlatform(cfg, log.With("supervisor"))
		if err != nil {
			log.Error("diagnose", logx.Err(err))
		} else {
			report(log, pass, d)
		}
		if repeatEvery == 0 {
			select {}
		}
		time.Sleep(repeatEvery)
	}
}

func report(log *logx.Logger, pass int, d *supervisor.Diagnosis) {
	log.Info("pass",
		logx.Int("n", int64(pass)),
		logx.Str("board", d.Board),
		logx.Uint("clock_hz", uint64(d.ClockHz)),
		logx.Int("devices", int64(len(d.Found))))
	for _, a := range d.Found {
		log.Info("found", logx.Addr("addr", a))
	}
	for _, t := range d.Temperatures {
		if t.Err != errcode.OK {
			log.Warn("temperature", logx.Str("sensor", t.Sensor), logx.Addr("addr", t.Address), logx.Str("err", string(t.Err)))
			continue
		}
		log.Info("temperature", logx.Str("sensor", t.Sensor), logx.Addr("addr", t.Address), logx.Milli("c", t.Celsius))
	}
	for _, v := range d.Voltages {
		if v.Err != errcode.OK {
			log.Warn("voltage", logx.Str("channel", v.Channel), logx.Uint("raw", uint64(v.Raw)), logx.Str("err", string(v.Err)))
			continue
		}
		log.Info("voltage", logx.Str("channel", v.Channel), logx.Uint("raw", uint64(v.Raw)), logx.Milli("v", v.Volts))
	}
	log.Info("done", logx.Int("faults", int64(d.Faults())))
}
