package display

import (
	"github.com/RyanBlaney/vocalis/algorithms/common"
	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

// Mapper reduces an analysis magnitude spectrum to a fixed number of
// display bins spaced on a perceptual scale. Each display bin takes the
// maximum over the analysis bins it covers, so narrowband peaks survive
// the reduction instead of being averaged away.
//
// The analysis-to-display bin ranges are precomputed at construction;
// Process performs no allocations.
type Mapper struct {
	bins    int
	scale   Scale
	lo, hi  []int     // inclusive analysis bin range per display bin
	centers []float64 // display bin center frequencies, Hz
	out     []float64
	outDB   []float64
}

// NewMapper builds a mapper from the analysis bin layout to numBins
// display bins covering [minHz, maxHz] on the given scale. Every display
// bin is guaranteed to cover at least one analysis bin: bins narrower
// than the analysis resolution borrow the nearest analysis bin, so low
// display frequencies on perceptual scales never render empty.
func NewMapper(mapping *spectral.BinMapping, numBins int, scale Scale, minHz, maxHz float64) *Mapper {
	m := &Mapper{
		bins:    numBins,
		scale:   scale,
		lo:      make([]int, numBins),
		hi:      make([]int, numBins),
		centers: make([]float64, numBins),
		out:     make([]float64, numBins),
		outDB:   make([]float64, numBins),
	}

	sLo := scale.ToScale(minHz)
	sHi := scale.ToScale(maxHz)
	step := (sHi - sLo) / float64(numBins)

	last := mapping.NumBins - 1
	for d := 0; d < numBins; d++ {
		edgeLo := scale.ToHz(sLo + float64(d)*step)
		edgeHi := scale.ToHz(sLo + float64(d+1)*step)
		m.centers[d] = scale.ToHz(sLo + (float64(d)+0.5)*step)

		lo := mapping.BinFor(edgeLo)
		hi := mapping.BinFor(edgeHi)
		// BinFor returns the nearest bin; pull edges back inside the bin
		// range so adjacent display bins do not double-count.
		if hi > lo && mapping.Freq(hi) > edgeHi {
			hi--
		}
		if lo > last {
			lo = last
		}
		if hi < lo {
			hi = lo
		}
		m.lo[d], m.hi[d] = lo, hi
	}
	return m
}

// NumBins returns the display bin count.
func (m *Mapper) NumBins() int { return m.bins }

// Centers returns the display bin center frequencies in Hz. The slice is
// owned by the Mapper.
func (m *Mapper) Centers() []float64 { return m.centers }

// Process maps the analysis magnitudes to display bins and returns the
// magnitude and dB views. Both slices are reused across calls.
func (m *Mapper) Process(mags []float64) (linear, db []float64) {
	for d := 0; d < m.bins; d++ {
		hi := m.hi[d]
		if hi >= len(mags) {
			hi = len(mags) - 1
		}
		peak := 0.0
		for i := m.lo[d]; i <= hi; i++ {
			if mags[i] > peak {
				peak = mags[i]
			}
		}
		m.out[d] = peak
		m.outDB[d] = common.LinearToDB(peak)
	}
	return m.out, m.outDB
}
