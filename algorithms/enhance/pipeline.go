package enhance

import (
	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

// Amounts holds the user-facing strength of each stage, all in [0, 1].
// Zero disables a stage's effect while keeping its running estimates warm.
type Amounts struct {
	NoiseReduction float64 `json:"noise_reduction"`
	HPSS           float64 `json:"hpss"`
	HarmonicComb   float64 `json:"harmonic_comb"`
	Smoothing      float64 `json:"smoothing"`
}

// Smoother is the temporal or spectral smoothing stage of a Pipeline.
type Smoother interface {
	Process(mags []float64, amount float64)
	Reset()
}

// Pipeline chains the enhancement stages over a magnitude spectrum in a
// fixed order: noise floor subtraction first (it needs the raw noise
// statistics), harmonic-percussive separation, pitch-guided comb
// filtering, then smoothing last so it operates on the cleaned spectrum.
type Pipeline struct {
	amounts Amounts

	noise    *NoiseFloor
	hpss     *HPSS
	comb     *HarmonicComb
	smoother Smoother

	hnrDB float64
}

// NewPipeline creates a pipeline for spectra with numBins bins.
// smoother is typically an ExponentialSmoother or BilateralSmoother.
func NewPipeline(numBins int, amounts Amounts, smoother Smoother) *Pipeline {
	return &Pipeline{
		amounts:  amounts,
		noise:    NewNoiseFloor(numBins),
		hpss:     NewHPSS(numBins),
		comb:     NewHarmonicComb(numBins),
		smoother: smoother,
	}
}

// SetAmounts replaces the stage strengths without touching running state.
func (p *Pipeline) SetAmounts(a Amounts) { p.amounts = a }

// HNRdB returns the harmonics-to-noise ratio measured by the comb stage
// on the most recent voiced frame, 0 when unvoiced.
func (p *Pipeline) HNRdB() float64 { return p.hnrDB }

// Process runs all stages over mags in place. f0 <= 0 skips the comb.
// silent marks frames with no vocal activity for the noise estimator.
func (p *Pipeline) Process(mags []float64, mapping *spectral.BinMapping, f0 float64, silent bool) {
	p.noise.Process(mags, silent, p.amounts.NoiseReduction)
	p.hpss.Process(mags, p.amounts.HPSS)
	p.hnrDB = p.comb.Process(mags, mapping, f0, p.amounts.HarmonicComb)
	p.smoother.Process(mags, p.amounts.Smoothing)
}

// Reset clears all stage state.
func (p *Pipeline) Reset() {
	p.noise.Reset()
	p.hpss.Reset()
	p.hnrDB = 0
	p.smoother.Reset()
}
