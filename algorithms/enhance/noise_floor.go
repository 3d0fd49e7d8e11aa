package enhance

import (
	"math"
)

const (
	// Quantile tracked per bin for the noise floor. The 10th percentile
	// sits below speech energy even in continuously voiced passages.
	noiseFloorQuantile = 0.10
	// Soft gate knee: bins below gateKnee times the floor estimate are
	// attenuated quadratically rather than clipped to a hard threshold.
	gateKnee = 2.0
)

// NoiseFloor performs spectral subtraction against a per-bin streaming
// percentile of the power spectrum. Oversubtraction and the spectral
// floor follow Berouti et al. (1979); the floor estimate itself is a
// P-square quantile per bin, so no noise-only calibration pass is needed.
type NoiseFloor struct {
	estimators []*P2Quantile
}

// NewNoiseFloor creates an estimator for spectra with numBins bins.
func NewNoiseFloor(numBins int) *NoiseFloor {
	nf := &NoiseFloor{estimators: make([]*P2Quantile, numBins)}
	for i := range nf.estimators {
		nf.estimators[i] = NewP2Quantile(noiseFloorQuantile)
	}
	return nf
}

// Reset discards the accumulated floor estimates.
func (nf *NoiseFloor) Reset() {
	for _, e := range nf.estimators {
		e.Reset()
	}
}

// Process updates the floor estimate and subtracts it from mags in place.
// silent marks frames with no vocal activity; the floor adapts twice as
// fast on those since every bin is then a noise observation. amount in
// [0, 1] scales both the oversubtraction strength and the wet/dry blend;
// 0 leaves mags untouched aside from the estimate update.
func (nf *NoiseFloor) Process(mags []float64, silent bool, amount float64) {
	n := len(mags)
	if n > len(nf.estimators) {
		n = len(nf.estimators)
	}

	alpha := 1 + 2*amount     // oversubtraction factor
	beta := 0.1 - 0.09*amount // spectral floor, fraction of input power

	for i := 0; i < n; i++ {
		power := mags[i] * mags[i]
		est := nf.estimators[i]
		est.Add(power)
		if silent {
			est.Add(power)
		}
		if amount <= 0 {
			continue
		}
		noise := est.Value()

		clean := power - alpha*noise
		if floor := beta * power; clean < floor {
			clean = floor
		}
		if knee := gateKnee * noise; noise > 0 && power < knee {
			g := power / knee
			clean *= g * g
		}

		out := math.Sqrt(clean)
		mags[i] = (1-amount)*mags[i] + amount*out
	}
}
