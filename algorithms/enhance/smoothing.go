package enhance

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/common"
)

const (
	bilateralRadius      = 4
	bilateralTimeDepth   = 2 // past frames joining the current one
	bilateralSigmaBins   = 2.0
	bilateralSigmaFrames = 1.0
	bilateralSigmaDB     = 6.0
	exponentialMaxAlpha  = 0.9 // heaviest temporal smoothing at amount 1
)

// ExponentialSmoother applies a per-bin first-order lowpass across frames.
// Cheap and effective against frame-to-frame shimmer, at the cost of
// smearing fast transitions.
type ExponentialSmoother struct {
	state  []float64
	primed bool
}

// NewExponentialSmoother creates a smoother for spectra with numBins bins.
func NewExponentialSmoother(numBins int) *ExponentialSmoother {
	return &ExponentialSmoother{state: make([]float64, numBins)}
}

// Reset drops the temporal state; the next frame passes through as is.
func (s *ExponentialSmoother) Reset() { s.primed = false }

// Process smooths mags in place. amount in [0, 1] maps to the feedback
// coefficient; 0 is a pass-through.
func (s *ExponentialSmoother) Process(mags []float64, amount float64) {
	n := len(mags)
	if n > len(s.state) {
		n = len(s.state)
	}
	if !s.primed {
		copy(s.state[:n], mags[:n])
		s.primed = true
		return
	}
	alpha := exponentialMaxAlpha * common.Clamp01(amount)
	for i := 0; i < n; i++ {
		v := alpha*s.state[i] + (1-alpha)*mags[i]
		s.state[i] = v
		mags[i] = v
	}
}

// BilateralSmoother smooths over a time-by-frequency neighborhood with a
// product of three Gaussians: spatial over bins, spatial over frames, and
// intensity evaluated in dB. Broad noise is averaged while spectral peaks
// and onsets keep their edges (Tomasi & Manduchi 1998, applied to the
// spectrogram). The time axis is causal: the neighborhood spans the
// current frame and the last bilateralTimeDepth raw input frames.
type BilateralSmoother struct {
	spatial  [2*bilateralRadius + 1]float64
	temporal [bilateralTimeDepth + 1]float64

	// Ring of raw input frames, pre-blend, with their dB views.
	hist    [bilateralTimeDepth][]float64
	histDB  [bilateralTimeDepth][]float64
	histLen int
	histPos int

	db  []float64
	out []float64
}

// NewBilateralSmoother creates a smoother for spectra with numBins bins.
func NewBilateralSmoother(numBins int) *BilateralSmoother {
	b := &BilateralSmoother{
		db:  make([]float64, numBins),
		out: make([]float64, numBins),
	}
	for t := range b.hist {
		b.hist[t] = make([]float64, numBins)
		b.histDB[t] = make([]float64, numBins)
	}
	for k := -bilateralRadius; k <= bilateralRadius; k++ {
		x := float64(k) / bilateralSigmaBins
		b.spatial[k+bilateralRadius] = math.Exp(-0.5 * x * x)
	}
	for dt := range b.temporal {
		x := float64(dt) / bilateralSigmaFrames
		b.temporal[dt] = math.Exp(-0.5 * x * x)
	}
	return b
}

// Reset drops the frame history; the next frame is filtered along the
// frequency axis only.
func (b *BilateralSmoother) Reset() {
	b.histLen = 0
	b.histPos = 0
}

// Process smooths mags in place. amount in [0, 1] blends the filtered
// spectrum with the input. The raw input frame enters the history even
// when amount is 0, so the time neighborhood stays current through a
// bypassed stretch.
func (b *BilateralSmoother) Process(mags []float64, amount float64) {
	amount = common.Clamp01(amount)
	n := len(mags)
	if n > len(b.db) {
		n = len(b.db)
	}
	for i := 0; i < n; i++ {
		b.db[i] = common.LinearToDB(mags[i])
	}
	if amount <= 0 {
		b.push(mags[:n])
		return
	}

	for i := 0; i < n; i++ {
		sum, wsum := 0.0, 0.0
		for k := -bilateralRadius; k <= bilateralRadius; k++ {
			j := i + k
			if j < 0 || j >= n {
				continue
			}
			ws := b.spatial[k+bilateralRadius]
			for dt := 0; dt <= b.histLen; dt++ {
				fm, fdb := mags, b.db
				if dt > 0 {
					idx := (b.histPos - dt + bilateralTimeDepth) % bilateralTimeDepth
					fm, fdb = b.hist[idx], b.histDB[idx]
				}
				dd := (fdb[j] - b.db[i]) / bilateralSigmaDB
				w := b.temporal[dt] * ws * math.Exp(-0.5*dd*dd)
				sum += w * fm[j]
				wsum += w
			}
		}
		if wsum > 0 {
			b.out[i] = sum / wsum
		} else {
			b.out[i] = mags[i]
		}
	}

	b.push(mags[:n])
	for i := 0; i < n; i++ {
		mags[i] = (1-amount)*mags[i] + amount*b.out[i]
	}
}

func (b *BilateralSmoother) push(mags []float64) {
	copy(b.hist[b.histPos], mags)
	copy(b.histDB[b.histPos], b.db[:len(mags)])
	b.histPos = (b.histPos + 1) % bilateralTimeDepth
	if b.histLen < bilateralTimeDepth {
		b.histLen++
	}
}
