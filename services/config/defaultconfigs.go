package config

import (
	"powerpico/drivers/mcp9808"
	"powerpico/types"
)

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board name (Config.Board, or the -ldflags board on MCU builds)
// Val: constructor for that board's profile
// -----------------------------------------------------------------------------

var embeddedConfigs = map[string]func() types.Config{
	"powerpico": Default,
	"powerpico-field": func() types.Config {
		cfg := Default()
		cfg.I2CEnabled = true
		cfg.WatchdogEnabled = true
		cfg.Fault = types.FaultConfig{Policy: types.PolicyHalt, Retries: 2}
		return cfg
	},
	"powerpico-dev": func() types.Config {
		cfg := Default()
		cfg.Debug = true
		cfg.I2CEnabled = true
		cfg.Sensors = append(cfg.Sensors, types.SensorConfig{
			Name: "ambient", Model: types.ModelMCP9808, Address: mcp9808.Address,
		})
		return cfg
	},
}
