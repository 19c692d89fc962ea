// Package pll solves RP2040 system PLL settings.
//
// The system PLL multiplies the 12 MHz crystal reference by FBDIV into the
// VCO, then divides by POSTDIV1*POSTDIV2:
//
//	out = 12 MHz * FBDIV / (POSTDIV1 * POSTDIV2)
//
// A frequency is supported only if it is reachable exactly within the
// datasheet limits. Nothing is rounded to a nearby frequency.
package pll

// Limits from the RP2040 datasheet (REFDIV fixed at 1).
const (
	RefHz      = 12_000_000
	FBDivMin   = 16
	FBDivMax   = 320
	VCOMinHz   = 750_000_000
	VCOMaxHz   = 1_600_000_000
	PostDivMax = 7
)

// Config is one PLL setting.
type Config struct {
	FBDiv    uint32
	PostDiv1 uint32
	PostDiv2 uint32
	VCOHz    uint64
}

// OutHz is the resulting system clock.
func (c Config) OutHz() uint32 {
	if c.PostDiv1 == 0 || c.PostDiv2 == 0 {
		return 0
	}
	return uint32(c.VCOHz / uint64(c.PostDiv1*c.PostDiv2))
}

// Solve finds an exact setting for hz. The search order prefers the highest
// VCO and the largest first post divider, as the Pico SDK does.
func Solve(hz uint32) (Config, bool) {
	if hz == 0 {
		return Config{}, false
	}
	for fb := uint32(FBDivMax); fb >= FBDivMin; fb-- {
		vco := uint64(RefHz) * uint64(fb)
		if vco < VCOMinHz || vco > VCOMaxHz {
			continue
		}
		for pd1 := uint32(PostDivMax); pd1 >= 1; pd1-- {
			for pd2 := pd1; pd2 >= 1; pd2-- {
				div := uint64(pd1 * pd2)
				if vco%div == 0 && vco/div == uint64(hz) {
					return Config{FBDiv: fb, PostDiv1: pd1, PostDiv2: pd2, VCOHz: vco}, true
				}
			}
		}
	}
	return Config{}, false
}
