package palette

import "math"

// Quantize maps an 8-bit luminance sample onto a palette of n glyphs.
//
// The index is floor(s/255 * (n-1)) computed in integer arithmetic, so s == 255
// lands exactly on n-1. With invert the index is mirrored to (n-1) - idx.
// Quantize returns 0 for n < 1.
func Quantize(s uint8, n int, invert bool) int {
	if n < 1 {
		return 0
	}
	idx := int(s) * (n - 1) / 255
	idx = clampIndex(idx, n)
	if invert {
		idx = n - 1 - idx
	}
	return idx
}

// QuantizeNormalized is the float form of [Quantize] for samples in [0, 1].
// Values outside the range, including NaN, are clamped.
func QuantizeNormalized(v float64, n int, invert bool) int {
	if n < 1 {
		return 0
	}
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	idx := clampIndex(int(math.Floor(v*float64(n-1))), n)
	if invert {
		idx = n - 1 - idx
	}
	return idx
}

func clampIndex(idx, n int) int {
	switch {
	case idx < 0:
		return 0
	case idx > n-1:
		return n - 1
	default:
		return idx
	}
}
