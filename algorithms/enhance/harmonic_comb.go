package enhance

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

const (
	combMaxHarmonics    = 16
	combToleranceCents  = 80.0
	combBoostGain       = 0.5 // peak boost on harmonic bins, scaled by amount
	combAttenuationGain = 0.6 // attenuation between harmonics, scaled by amount
)

// HarmonicComb emphasizes energy at integer multiples of the detected
// pitch and attenuates the inter-harmonic noise floor. Each harmonic gets
// a triangular pass region whose width is a fixed interval in cents, so
// higher harmonics get proportionally wider regions, absorbing small
// pitch estimation errors.
//
// Process also reports the harmonics-to-noise ratio over the combed
// range, a standard voice quality measure.
type HarmonicComb struct {
	gains []float64
}

// NewHarmonicComb creates a comb for spectra with numBins bins.
func NewHarmonicComb(numBins int) *HarmonicComb {
	return &HarmonicComb{gains: make([]float64, numBins)}
}

// Process applies the comb to mags in place and returns the HNR in dB.
// f0 <= 0 (unvoiced) leaves the spectrum untouched and reports 0.
// amount in [0, 1] scales both the boost and the attenuation.
func (hc *HarmonicComb) Process(mags []float64, mapping *spectral.BinMapping, f0, amount float64) float64 {
	if f0 <= 0 || mapping == nil {
		return 0
	}
	n := len(mags)
	if n > len(hc.gains) {
		n = len(hc.gains)
	}
	maxHz := mapping.Freq(n - 1)

	ratio := math.Pow(2, combToleranceCents/1200)
	atten := 1 - combAttenuationGain*amount

	// Default to attenuation across the combed range, then carve the
	// triangular harmonic regions back out.
	topHarmonic := 0
	for h := 1; h <= combMaxHarmonics; h++ {
		if float64(h)*f0 > maxHz {
			break
		}
		topHarmonic = h
	}
	if topHarmonic == 0 {
		return 0
	}
	combTop := mapping.BinFor(float64(topHarmonic) * f0 * ratio)
	if combTop >= n {
		combTop = n - 1
	}
	for i := 0; i <= combTop; i++ {
		hc.gains[i] = atten
	}

	harmEnergy, noiseEnergy := 0.0, 0.0
	for h := 1; h <= topHarmonic; h++ {
		center := float64(h) * f0
		lo := mapping.BinFor(center / ratio)
		hi := mapping.BinFor(center * ratio)
		if hi >= n {
			hi = n - 1
		}
		peak := mapping.BinFor(center)
		for i := lo; i <= hi; i++ {
			// Triangular weight, 1 at the harmonic center falling to 0
			// at the tolerance edges.
			var tri float64
			if i <= peak {
				if span := peak - lo; span > 0 {
					tri = float64(i-lo) / float64(span)
				} else {
					tri = 1
				}
			} else {
				if span := hi - peak; span > 0 {
					tri = float64(hi-i) / float64(span)
				} else {
					tri = 1
				}
			}
			g := atten + (1+combBoostGain*amount-atten)*tri
			if g > hc.gains[i] {
				hc.gains[i] = g
			}
			harmEnergy += tri * mags[i] * mags[i]
		}
	}

	for i := 0; i <= combTop; i++ {
		noiseEnergy += mags[i] * mags[i]
		mags[i] *= hc.gains[i]
	}
	noiseEnergy -= harmEnergy
	if noiseEnergy < 1e-12 {
		noiseEnergy = 1e-12
	}
	if harmEnergy <= 0 {
		return 0
	}
	return 10 * math.Log10(harmEnergy/noiseEnergy)
}
