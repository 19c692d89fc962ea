// Package conv formats numbers into caller-provided buffers without fmt or
// strconv, so log lines on the MCU stay allocation-light.
package conv

// Itoa writes base-10 representation of n into buf and returns the used slice.
// buf should be length >= 20 for int64. Negative numbers supported.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	out := Utoa(buf, uint64(-n))
	i := len(buf) - len(out)
	if i == 0 {
		return out
	}
	i--
	buf[i] = '-'
	return buf[i:]
}

// Utoa writes base-10 representation of n into buf and returns the used slice.
// buf should be length >= 20 for uint64.
func Utoa(buf []byte, n uint64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
		return buf[i:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	return buf[i:]
}

const hexd = "0123456789abcdef"

// Hex writes n as "0x" followed by exactly digits lower-case hex digits.
// buf should be length >= digits+2.
func Hex(buf []byte, n uint64, digits int) []byte {
	if len(buf) < digits+2 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < digits; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	i -= 2
	buf[i], buf[i+1] = '0', 'x'
	return buf[i:]
}

// Milli writes a thousandths-scaled integer as a decimal with three
// fractional digits: 25000 -> "25.000", -250 -> "-0.250".
func Milli(buf []byte, m int64) []byte {
	if len(buf) < 24 {
		return buf[:0]
	}
	neg := m < 0
	u := uint64(m)
	if neg {
		u = uint64(-m)
	}
	i := len(buf)
	frac := u % 1000
	for j := 0; j < 3; j++ {
		i--
		buf[i] = byte('0' + frac%10)
		frac /= 10
	}
	i--
	buf[i] = '.'
	whole := Utoa(buf[:i], u/1000)
	i -= len(whole)
	if neg {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}
