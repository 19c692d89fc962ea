// services/supervisor/internal/platform/periph_other.go
//go:build !linux && !rp2040 && !rp2350

package platform

import (
	"powerpico/errcode"
	"powerpico/services/supervisor/internal/core"
	"powerpico/types"
)

func newPeriph(types.Config) (core.Board, error) {
	return nil, errcode.Wrap(errcode.Unsupported, "periph", "linux only", nil)
}
