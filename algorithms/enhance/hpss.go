package enhance

import (
	"math"
)

const (
	// History depth and frequency half-width of the median filters.
	hpssHistoryFrames   = 9
	hpssFreqHalfWidth   = 4
	hpssMaskExponent    = 2.0
	hpssDownsampleLimit = 1024
)

// HPSS suppresses percussive (broadband, transient) energy with
// harmonic-percussive source separation by median filtering (Fitzgerald
// 2010): energy that persists across frames at a fixed bin is harmonic,
// energy that spreads across bins within one frame is percussive. A soft
// Wiener-style mask built from the two medians is applied to the
// magnitude spectrum.
type HPSS struct {
	numBins    int
	downsample int // 1 or 2
	dsBins     int

	history [hpssHistoryFrames][]float64 // ring of downsampled spectra
	filled  int
	head    int

	ds   []float64 // current downsampled spectrum
	mask []float64

	med [hpssHistoryFrames + 2*hpssFreqHalfWidth + 1]float64
}

// NewHPSS creates a separator for spectra with numBins bins. Wide spectra
// are median filtered at half resolution to bound per-frame cost.
func NewHPSS(numBins int) *HPSS {
	down := 1
	if numBins > hpssDownsampleLimit {
		down = 2
	}
	dsBins := (numBins + down - 1) / down
	h := &HPSS{
		numBins:    numBins,
		downsample: down,
		dsBins:     dsBins,
		ds:         make([]float64, dsBins),
		mask:       make([]float64, dsBins),
	}
	for i := range h.history {
		h.history[i] = make([]float64, dsBins)
	}
	return h
}

// Reset clears the frame history.
func (h *HPSS) Reset() {
	h.filled = 0
	h.head = 0
}

// Process applies the harmonic mask to mags in place. amount in [0, 1]
// blends between the input and the fully masked spectrum; 0 still
// advances the history so a later increase has context to work with.
func (h *HPSS) Process(mags []float64, amount float64) {
	n := len(mags)
	if n > h.numBins {
		n = h.numBins
	}

	// Downsample by averaging adjacent bins.
	if h.downsample == 1 {
		copy(h.ds[:n], mags[:n])
	} else {
		for i := 0; i < h.dsBins; i++ {
			lo := i * h.downsample
			hi := lo + h.downsample
			if hi > n {
				hi = n
			}
			sum := 0.0
			for j := lo; j < hi; j++ {
				sum += mags[j]
			}
			if hi > lo {
				h.ds[i] = sum / float64(hi-lo)
			} else {
				h.ds[i] = 0
			}
		}
	}

	copy(h.history[h.head], h.ds)
	h.head = (h.head + 1) % hpssHistoryFrames
	if h.filled < hpssHistoryFrames {
		h.filled++
	}

	if amount <= 0 {
		return
	}

	p := hpssMaskExponent
	for i := 0; i < h.dsBins; i++ {
		// Harmonic estimate: median across the frame history at this bin.
		buf := h.med[:0]
		for f := 0; f < h.filled; f++ {
			buf = append(buf, h.history[f][i])
		}
		harm := median(buf)

		// Percussive estimate: median across neighboring bins this frame.
		lo, hi := i-hpssFreqHalfWidth, i+hpssFreqHalfWidth
		if lo < 0 {
			lo = 0
		}
		if hi >= h.dsBins {
			hi = h.dsBins - 1
		}
		buf = h.med[:0]
		for j := lo; j <= hi; j++ {
			buf = append(buf, h.ds[j])
		}
		perc := median(buf)

		hp := math.Pow(harm, p)
		pp := math.Pow(perc, p)
		if hp+pp <= 0 {
			h.mask[i] = 1
		} else {
			h.mask[i] = hp / (hp + pp)
		}
	}

	for i := 0; i < n; i++ {
		m := h.mask[i/h.downsample]
		mags[i] *= (1 - amount) + amount*m
	}
}

// median sorts buf in place and returns its middle element.
func median(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	for i := 1; i < len(buf); i++ {
		for j := i; j > 0 && buf[j] < buf[j-1]; j-- {
			buf[j], buf[j-1] = buf[j-1], buf[j]
		}
	}
	return buf[len(buf)/2]
}
