package pitch

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/common"
)

// Autocorrelation implements normalized autocorrelation pitch estimation.
// The correlation at each lag is normalized by the geometric mean of the
// energies of the two overlapping segments, computed in O(1) per lag from
// a prefix-sum energy table, then the maximum above the confidence floor
// is refined by parabolic interpolation.
//
// Reference: Rabiner, L.R. (1977). "On the use of autocorrelation
// analysis for pitch detection".
type Autocorrelation struct {
	params Params

	energy []float64 // prefix sums of x^2, energy[i] = sum of x[0..i-1]^2
	norm   []float64 // normalized correlation per lag
}

// NewAutocorrelation creates a normalized autocorrelation estimator.
func NewAutocorrelation(params Params) *Autocorrelation {
	return &Autocorrelation{
		params: params,
		energy: make([]float64, params.FrameSize+1),
		norm:   make([]float64, params.FrameSize),
	}
}

// Detect estimates pitch for a single frame.
func (ac *Autocorrelation) Detect(frame []float64) Estimate {
	n := len(frame)
	if n > ac.params.FrameSize {
		frame = frame[:ac.params.FrameSize]
		n = ac.params.FrameSize
	}

	minLag, maxLag := ac.params.lagRange()
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if maxLag <= minLag {
		return Unvoiced(0)
	}

	// Prefix-sum energy table.
	ac.energy[0] = 0
	for i := 0; i < n; i++ {
		ac.energy[i+1] = ac.energy[i] + frame[i]*frame[i]
	}

	totalEnergy := ac.energy[n]
	if totalEnergy < 1e-12 {
		return Unvoiced(0)
	}

	for tau := minLag; tau <= maxLag; tau++ {
		corr := 0.0
		for j := 0; j < n-tau; j++ {
			corr += frame[j] * frame[j+tau]
		}

		// Energies of the leading and lagged segments from prefix sums.
		e1 := ac.energy[n-tau]
		e2 := ac.energy[n] - ac.energy[tau]

		denom := math.Sqrt(e1 * e2)
		if denom > 1e-12 {
			ac.norm[tau] = corr / denom
		} else {
			ac.norm[tau] = 0
		}
	}

	// Pick the lag of maximum normalized correlation that is a local
	// maximum.
	bestTau := -1
	bestCorr := 0.0
	for tau := minLag; tau <= maxLag; tau++ {
		c := ac.norm[tau]
		if c <= bestCorr {
			continue
		}
		if tau > minLag && tau < maxLag && (c < ac.norm[tau-1] || c < ac.norm[tau+1]) {
			continue
		}
		bestTau = tau
		bestCorr = c
	}

	confidence := common.Clamp01(bestCorr)
	if bestTau < 0 || confidence < ac.params.MinConfidence {
		return Unvoiced(confidence)
	}

	tau := common.ParabolicPeak(ac.norm[:maxLag+1], bestTau)
	if tau <= 0 {
		return Unvoiced(confidence)
	}

	freq := ac.params.clampFreq(float64(ac.params.SampleRate) / tau)

	return Estimate{
		Frequency:  freq,
		Confidence: confidence,
		Voiced:     true,
	}
}

// Reset is a no-op; the estimator is stateless across frames
func (ac *Autocorrelation) Reset() {}
