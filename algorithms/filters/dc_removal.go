package filters

import (
	"math"
)

// DCRemoval is a first-order DC blocking filter:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// A DC offset in the input biases frame energy, autocorrelation, and LPC
// coefficients, so the engine runs every incoming hop through this filter
// before analysis.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio
//     Applications", https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	pole float64 // R, 0 < R < 1
	x1   float64
	y1   float64
}

// NewDCRemoval creates a filter with the given -3 dB cutoff. The pole is
// approximated as R = 1 - 2*pi*fc/fs, accurate for cutoffs far below
// Nyquist.
func NewDCRemoval(sampleRate int, cutoffHz float64) *DCRemoval {
	pole := 1 - 2*math.Pi*cutoffHz/float64(sampleRate)
	if pole < 0.9 {
		pole = 0.9
	}
	if pole >= 1 {
		pole = 0.9995
	}
	return &DCRemoval{pole: pole}
}

// ProcessInPlace filters samples in place, carrying state across calls so
// consecutive hops form one continuous stream.
func (dc *DCRemoval) ProcessInPlace(samples []float64) {
	x1, y1 := dc.x1, dc.y1
	for i, x := range samples {
		y := x - x1 + dc.pole*y1
		samples[i] = y
		x1, y1 = x, y
	}
	dc.x1, dc.y1 = x1, y1
}

// Reset clears the filter state.
func (dc *DCRemoval) Reset() {
	dc.x1, dc.y1 = 0, 0
}
