package spectral

import (
	"math"
)

// SpectralFlatness computes band-limited spectral flatness (Wiener
// entropy): the ratio of geometric to arithmetic mean of the magnitudes
// inside a frequency band. Voiced speech concentrates energy at
// harmonics, giving low flatness; breath and fricative noise approaches
// 1.0.
type SpectralFlatness struct {
	minThreshold float64 // Minimum value to avoid log(0)
	lowHz        float64
	highHz       float64
}

// NewSpectralFlatness creates a flatness calculator limited to
// [lowHz, highHz]
func NewSpectralFlatness(lowHz, highHz float64) *SpectralFlatness {
	return &SpectralFlatness{
		minThreshold: 1e-10,
		lowHz:        lowHz,
		highHz:       highHz,
	}
}

// Compute calculates flatness over the configured band of the given
// spectrum. Returns a value in [0, 1]; an empty or silent band reports
// 1.0 (noise-like), which keeps the voicing composite conservative on
// degenerate input.
func (sf *SpectralFlatness) Compute(magnitudes []float64, mapping *BinMapping) float64 {
	if len(magnitudes) == 0 || mapping.NumBins == 0 {
		return 1.0
	}

	lo := mapping.BinFor(sf.lowHz)
	hi := mapping.BinFor(sf.highHz)
	if hi >= len(magnitudes) {
		hi = len(magnitudes) - 1
	}
	if lo > hi {
		return 1.0
	}

	logSum := 0.0
	arithSum := 0.0
	count := 0

	for i := lo; i <= hi; i++ {
		m := math.Max(magnitudes[i], sf.minThreshold)
		logSum += math.Log(m)
		arithSum += m
		count++
	}

	if count == 0 {
		return 1.0
	}

	geometricMean := math.Exp(logSum / float64(count))
	arithmeticMean := arithSum / float64(count)

	if arithmeticMean <= sf.minThreshold {
		return 1.0
	}

	flatness := geometricMean / arithmeticMean
	if flatness > 1.0 {
		flatness = 1.0
	}

	return flatness
}
