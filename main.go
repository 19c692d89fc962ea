package main

import (
	"context"
	"time"

	"powerpico/services/config"
	"powerpico/services/supervisor"
	"powerpico/x/logx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	cfg, err := config.Resolve("")
	if err != nil {
		println("[main] ERROR config:", err.Error())
		halt()
	}

	level := logx.LevelInfo
	if cfg.Debug {
		level = logx.LevelDebug
	}
	log := logx.New("supervisor", supervisor.Console(cfg), level)

	// Returns only on a boot fault; steady state runs until reset.
	if err := supervisor.Run(context.Background(), cfg, log); err != nil {
		log.Error("stopped", logx.Err(err))
	}
	halt()
}

// halt parks the control goroutine. An armed watchdog resets the board;
// otherwise it stays here for inspection.
func halt() { select {} }
