// services/supervisor/internal/platform/board_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"io"

	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"
)

// New returns the host board selected by cfg.Platform. An empty selector
// means the simulation board.
func New(cfg types.Config) (core.Board, error) {
	switch cfg.Platform {
	case "", types.PlatformSim:
		return NewSim(cfg, nil), nil
	case types.PlatformPeriph:
		return newPeriph(cfg)
	default:
		return nil, errcode.Wrap(errcode.InvalidParams, "platform", "unknown platform "+cfg.Platform, nil)
	}
}

// Console is nil on the host: print already goes to stderr.
func Console(types.Config) io.Writer { return nil }
