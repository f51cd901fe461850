package grayscale

import "fmt"

// Buffer is an immutable grid of 8-bit luminance samples.
//
// Samples are stored row-major with the origin at the top-left, so the sample
// at (x, y) lives at index x + y*Width(). The invariant
// len(samples) == width*height always holds.
type Buffer struct {
	samples []uint8
	width   int
	height  int
}

// NewBuffer builds a buffer from a copy of samples.
// It fails if either dimension is not positive or if the sample count does not
// equal width*height.
func NewBuffer(width, height int, samples []uint8) (*Buffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grayscale: buffer dimensions must be positive, got %dx%d", width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("grayscale: buffer has %d samples, want %d (%dx%d)", len(samples), width*height, width, height)
	}
	owned := make([]uint8, len(samples))
	copy(owned, samples)
	return newBuffer(width, height, owned), nil
}

// Uniform builds a width x height buffer where every sample is v.
func Uniform(width, height int, v uint8) (*Buffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grayscale: buffer dimensions must be positive, got %dx%d", width, height)
	}
	samples := make([]uint8, width*height)
	for i := range samples {
		samples[i] = v
	}
	return newBuffer(width, height, samples), nil
}

// newBuffer takes ownership of samples without copying.
func newBuffer(width, height int, samples []uint8) *Buffer {
	return &Buffer{samples: samples, width: width, height: height}
}

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.width }

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.height }

// Len returns the number of samples (Width*Height).
func (b *Buffer) Len() int { return len(b.samples) }

// At returns the sample at column x, row y. It panics if the coordinates are
// out of range, like a slice index would.
func (b *Buffer) At(x, y int) uint8 {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		panic(fmt.Sprintf("grayscale: At(%d, %d) out of range %dx%d", x, y, b.width, b.height))
	}
	return b.samples[x+y*b.width]
}

// Normalized returns the sample at (x, y) scaled to [0, 1].
func (b *Buffer) Normalized(x, y int) float64 {
	return float64(b.At(x, y)) / 255
}

// Row returns a copy of row y.
func (b *Buffer) Row(y int) []uint8 {
	if y < 0 || y >= b.height {
		panic(fmt.Sprintf("grayscale: Row(%d) out of range %d", y, b.height))
	}
	row := make([]uint8, b.width)
	copy(row, b.samples[y*b.width:(y+1)*b.width])
	return row
}

// Samples returns a copy of all samples in row-major order.
func (b *Buffer) Samples() []uint8 {
	out := make([]uint8, len(b.samples))
	copy(out, b.samples)
	return out
}
