package pitch

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/common"
	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

// HarmonicSummation estimates pitch from a magnitude spectrum: each of a
// dense log-spaced set of candidate fundamentals is scored by summing
// 1/h-weighted magnitudes at each harmonic's nearest bin, up to the
// Nyquist-limited harmonic count. Confidence combines the normalized best
// score with the gap to the best candidate outside a semitone of the
// winner.
//
// Reference: Schroeder, M.R. (1968). "Period histogram and product
// spectrum"; Hermes, D.J. (1988). "Measurement of pitch by subharmonic
// summation".
type HarmonicSummation struct {
	params Params

	// MaxHarmonics bounds the summation per candidate.
	MaxHarmonics int

	// CandidatesPerOctave sets the candidate grid density.
	CandidatesPerOctave int

	candidates []float64 // log-spaced candidate fundamentals
	scores     []float64
}

// NewHarmonicSummation creates a harmonic summation estimator with a
// precomputed candidate grid.
func NewHarmonicSummation(params Params) *HarmonicSummation {
	hs := &HarmonicSummation{
		params:              params,
		MaxHarmonics:        10,
		CandidatesPerOctave: 48,
	}

	octaves := math.Log2(params.MaxHz / params.MinHz)
	count := int(math.Ceil(octaves * float64(hs.CandidatesPerOctave)))
	if count < 1 {
		count = 1
	}

	hs.candidates = make([]float64, count)
	hs.scores = make([]float64, count)
	for i := range hs.candidates {
		hs.candidates[i] = params.MinHz * math.Pow(2.0, float64(i)/float64(hs.CandidatesPerOctave))
	}

	return hs
}

// DetectSpectrum estimates pitch from a magnitude spectrum.
func (hs *HarmonicSummation) DetectSpectrum(magnitudes []float64, mapping *spectral.BinMapping) Estimate {
	if len(magnitudes) == 0 || mapping.NumBins == 0 {
		return Unvoiced(0)
	}

	nyquist := float64(hs.params.SampleRate) / 2.0

	maxMag := 0.0
	for _, m := range magnitudes {
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag < 1e-12 {
		return Unvoiced(0)
	}

	bestIdx := -1
	bestScore := 0.0
	for i, f0 := range hs.candidates {
		score := 0.0
		weightSum := 0.0
		for h := 1; h <= hs.MaxHarmonics; h++ {
			hf := f0 * float64(h)
			if hf > nyquist {
				break
			}
			bin := mapping.BinFor(hf)
			if bin >= len(magnitudes) {
				break
			}
			w := 1.0 / float64(h)
			score += w * magnitudes[bin]
			weightSum += w
		}

		if weightSum > 0 {
			score /= weightSum * maxMag
		}
		hs.scores[i] = score

		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore <= 0 {
		return Unvoiced(0)
	}

	// Runner-up: the best candidate at least a semitone away from the
	// winner. A close runner-up means the spectrum is ambiguous.
	bestFreq := hs.candidates[bestIdx]
	runnerUp := 0.0
	for i, s := range hs.scores {
		if math.Abs(common.CentsBetween(bestFreq, hs.candidates[i])) < 100.0 {
			continue
		}
		if s > runnerUp {
			runnerUp = s
		}
	}

	gap := 1.0
	if bestScore > 0 {
		gap = common.Clamp01(1.0 - runnerUp/bestScore)
	}

	confidence := common.Clamp01(bestScore * (0.5 + 0.5*gap))
	if confidence < hs.params.MinConfidence {
		return Unvoiced(confidence)
	}

	// Parabolic refinement over the log-spaced grid.
	idx := common.ParabolicPeak(hs.scores, bestIdx)
	freq := hs.params.clampFreq(
		hs.params.MinHz * math.Pow(2.0, idx/float64(hs.CandidatesPerOctave)))

	return Estimate{
		Frequency:  freq,
		Confidence: confidence,
		Voiced:     true,
	}
}

// Reset is a no-op; the estimator is stateless across frames
func (hs *HarmonicSummation) Reset() {}
