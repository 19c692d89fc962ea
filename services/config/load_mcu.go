//go:build rp2040 || rp2350

package config

import "powerpico/types"

// Board is set at link time (-ldflags "-X powerpico/services/config.Board=...").
var Board = DefaultBoard

// Resolve returns the compiled-in profile for Board. There is no file system
// or environment on the MCU; path is ignored.
func Resolve(string) (types.Config, error) {
	cfg, err := Embedded(Board)
	if err != nil {
		return types.Config{}, err
	}
	return cfg, Validate(cfg)
}
