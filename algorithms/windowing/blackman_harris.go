package windowing

import (
	"fmt"
	"math"
)

// BlackmanHarris represents a 4-term Blackman-Harris window function.
// Very low sidelobes (-92 dB) at the cost of a wider main lobe.
type BlackmanHarris struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewBlackmanHarris creates a new Blackman-Harris window
func NewBlackmanHarris(size int, symmetric bool) *BlackmanHarris {
	b := &BlackmanHarris{
		size:      size,
		symmetric: symmetric,
	}
	b.generate()
	return b
}

// generate creates Blackman-Harris window coefficients
func (b *BlackmanHarris) generate() {
	b.coefficients = make([]float64, b.size)

	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)

	denominator := float64(b.size)
	if b.symmetric {
		denominator = float64(b.size - 1)
	}

	for i := 0; i < b.size; i++ {
		x := 2 * math.Pi * float64(i) / denominator
		b.coefficients[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x) - a3*math.Cos(3*x)
	}
}

// ApplyTo writes src*window into dst
func (b *BlackmanHarris) ApplyTo(dst, src []float64) {
	applyTo(dst, src, b.coefficients)
}

// ApplyInPlace applies the window to a signal in-place
func (b *BlackmanHarris) ApplyInPlace(signal []float64) error {
	if len(signal) != b.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), b.size)
	}

	for i := 0; i < b.size; i++ {
		signal[i] *= b.coefficients[i]
	}

	return nil
}

// Coefficients returns the window coefficients
func (b *BlackmanHarris) Coefficients() []float64 {
	return b.coefficients
}

// Size returns the window size
func (b *BlackmanHarris) Size() int {
	return b.size
}

// Type returns the window type
func (b *BlackmanHarris) Type() string {
	return "blackman_harris"
}
