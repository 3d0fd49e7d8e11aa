package filters

// PreEmphasis implements the first-order highpass
//
//	y[n] = x[n] - a*x[n-1]
//
// used ahead of LPC analysis to flatten the glottal spectral tilt
// (roughly -6 dB/octave in voiced speech) so higher formants contribute
// to the prediction error on equal footing with F1.
//
// References:
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 4
type PreEmphasis struct {
	coefficient float64
}

// NewPreEmphasis creates a filter with the given coefficient; 0.97 is the
// usual choice for speech.
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{coefficient: coefficient}
}

// Apply writes the filtered frame into dst. The first sample passes
// through unchanged; each frame is treated independently, which is the
// convention for frame-based LPC. dst and src must have equal length.
func (pe *PreEmphasis) Apply(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	dst[0] = src[0]
	for i := 1; i < len(src); i++ {
		dst[i] = src[i] - pe.coefficient*src[i-1]
	}
}
