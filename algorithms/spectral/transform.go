package spectral

// BinMapping describes how analysis bins map to frequencies in Hz.
// Uniform mappings (FFT, zoom FFT) are described by a start frequency and a
// constant step; non-uniform mappings (CQT) carry explicit bin centers.
type BinMapping struct {
	Uniform bool      `json:"uniform"`
	StartHz float64   `json:"start_hz"` // frequency of bin 0 (uniform only)
	StepHz  float64   `json:"step_hz"`  // bin spacing (uniform only)
	Centers []float64 `json:"centers"`  // per-bin center frequencies (non-uniform)
	NumBins int       `json:"num_bins"`
}

// Freq returns the center frequency of the given bin.
func (m *BinMapping) Freq(bin int) float64 {
	if bin < 0 || bin >= m.NumBins {
		return 0.0
	}
	if m.Uniform {
		return m.StartHz + float64(bin)*m.StepHz
	}
	return m.Centers[bin]
}

// BinFor returns the bin whose center is nearest to the given frequency,
// clamped to the valid range.
func (m *BinMapping) BinFor(hz float64) int {
	if m.NumBins == 0 {
		return 0
	}

	if m.Uniform {
		if m.StepHz <= 0 {
			return 0
		}
		bin := int((hz-m.StartHz)/m.StepHz + 0.5)
		if bin < 0 {
			return 0
		}
		if bin >= m.NumBins {
			return m.NumBins - 1
		}
		return bin
	}

	// Centers are ascending; binary search for the nearest.
	lo, hi := 0, m.NumBins-1
	for lo < hi {
		mid := (lo + hi) / 2
		if m.Centers[mid] < hz {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo > 0 && hz-m.Centers[lo-1] < m.Centers[lo]-hz {
		return lo - 1
	}
	return lo
}

// Transform is the contract shared by the three spectral transforms.
// Implementations pre-size every buffer at construction; Forward performs
// no allocation.
type Transform interface {
	// Forward analyzes the most recent MinInputLen samples of frame and
	// fills the magnitude buffer. An under-length frame zero-fills the
	// output and returns false instead of faulting; this is expected
	// during startup and configuration transitions.
	Forward(frame []float64) bool

	// Magnitudes returns the transform's owned magnitude buffer. Valid
	// until the next Forward call.
	Magnitudes() []float64

	// Mapping returns the bin-to-frequency descriptor.
	Mapping() *BinMapping

	// MinInputLen returns the number of input samples Forward requires.
	MinInputLen() int

	// Reset clears any internal history.
	Reset()
}
