package formant

import (
	"math"
	"math/cmplx"
)

const (
	// Roots with near-zero imaginary part are real poles (spectral tilt,
	// not resonances) and are discarded.
	minRootImag = 0.001
	// Pole magnitude limits: below the lower bound the resonance is too
	// damped to be a formant, above the upper the filter is marginally
	// stable and the bandwidth estimate meaningless.
	minRootMag = 0.80
	maxRootMag = 0.9995

	maxCandidatesPerBand = 6
)

// Candidate is a resonance hypothesis extracted from one LPC pole.
type Candidate struct {
	Frequency float64 `json:"frequency"` // Hz
	Bandwidth float64 `json:"bandwidth"` // -3 dB bandwidth, Hz
	Cost      float64 `json:"cost"`      // quality cost, lower is better
}

// rootToCandidate converts a complex pole to a (frequency, bandwidth)
// pair. ok is false for real poles, over-damped poles, and poles outside
// the stability margin.
func rootToCandidate(root complex128, sampleRate int) (freq, bw float64, ok bool) {
	im := imag(root)
	if math.Abs(im) <= minRootImag {
		return 0, 0, false
	}
	mag := cmplx.Abs(root)
	if mag <= minRootMag || mag >= maxRootMag {
		return 0, 0, false
	}
	sr := float64(sampleRate)
	freq = math.Atan2(math.Abs(im), real(root)) * sr / (2 * math.Pi)
	bw = -sr / math.Pi * math.Log(mag)
	return freq, bw, true
}

// candidatePool holds the best candidates for one formant band, sorted by
// ascending cost. Fixed capacity, no allocations.
type candidatePool struct {
	items [maxCandidatesPerBand]Candidate
	count int
}

func (p *candidatePool) reset() { p.count = 0 }

func (p *candidatePool) insert(c Candidate) {
	if p.count < len(p.items) {
		p.items[p.count] = c
		p.count++
	} else if c.Cost < p.items[p.count-1].Cost {
		p.items[p.count-1] = c
	} else {
		return
	}
	// Bubble the new entry into place.
	for i := p.count - 1; i > 0 && p.items[i].Cost < p.items[i-1].Cost; i-- {
		p.items[i], p.items[i-1] = p.items[i-1], p.items[i]
	}
}
