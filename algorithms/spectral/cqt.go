package spectral

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/vocalis/algorithms/common"
)

// MaxCQTKernelLen is the hard ceiling on kernel length. The minimum
// frequency is raised until the longest kernel fits, which bounds both
// latency and memory regardless of configuration.
const MaxCQTKernelLen = 8192

// CQT is the constant-Q transform: logarithmically spaced bins with
// constant relative bandwidth, computed by direct convolution against
// precomputed variable-length windowed-exponential kernels.
//
// Q = 1/(2^(1/binsPerOctave) - 1); kernel length for center frequency f
// is Q*sampleRate/f, so low bins get long kernels (fine frequency
// resolution) and high bins get short ones (fine time resolution).
//
// Reference: Brown, J.C. (1991). "Calculation of a constant Q spectral
// transform".
type CQT struct {
	sampleRate    int
	binsPerOctave int
	minHz         float64
	q             float64

	kernels [][]complex128 // one Hann-windowed complex exponential per bin
	mags    []float64
	mapping BinMapping
}

// NewCQT creates a constant-Q transform covering [minHz, maxHz]. minHz is
// clamped upward so no kernel exceeds MaxCQTKernelLen.
func NewCQT(sampleRate, binsPerOctave int, minHz, maxHz float64) *CQT {
	if binsPerOctave < 3 {
		binsPerOctave = 3
	}

	q := 1.0 / (math.Pow(2.0, 1.0/float64(binsPerOctave)) - 1.0)

	// Longest kernel belongs to the lowest bin; raise minHz until it fits.
	minAllowedHz := q * float64(sampleRate) / float64(MaxCQTKernelLen)
	minHz = math.Max(minHz, minAllowedHz)

	nyquist := float64(sampleRate) / 2.0
	maxHz = common.Clamp(maxHz, minHz*2.0, nyquist*0.95)

	numBins := int(math.Ceil(float64(binsPerOctave) * math.Log2(maxHz/minHz)))
	if numBins < 1 {
		numBins = 1
	}

	c := &CQT{
		sampleRate:    sampleRate,
		binsPerOctave: binsPerOctave,
		minHz:         minHz,
		q:             q,
	}

	centers := make([]float64, 0, numBins)
	kernels := make([][]complex128, 0, numBins)

	for b := 0; b < numBins; b++ {
		freq := minHz * math.Pow(2.0, float64(b)/float64(binsPerOctave))
		if freq > maxHz {
			break
		}

		length := int(math.Ceil(q * float64(sampleRate) / freq))
		if length < 2 {
			length = 2
		}
		if length > MaxCQTKernelLen {
			length = MaxCQTKernelLen
		}

		kernels = append(kernels, buildKernel(freq, sampleRate, length))
		centers = append(centers, freq)
	}

	c.kernels = kernels
	c.mags = make([]float64, len(kernels))
	c.mapping = BinMapping{
		Uniform: false,
		Centers: centers,
		NumBins: len(centers),
	}

	return c
}

// buildKernel creates a normalized Hann-windowed complex exponential.
func buildKernel(freq float64, sampleRate, length int) []complex128 {
	kernel := make([]complex128, length)
	omega := -2.0 * math.Pi * freq / float64(sampleRate)

	wsum := 0.0
	for n := range kernel {
		w := 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(n)/float64(length-1)))
		kernel[n] = complex(w, 0) * cmplx.Exp(complex(0, omega*float64(n)))
		wsum += w
	}

	if wsum > 0 {
		scale := complex(2.0/wsum, 0)
		for n := range kernel {
			kernel[n] *= scale
		}
	}

	return kernel
}

// Forward convolves each kernel against the tail of frame. Bins whose
// kernel is longer than the frame are zeroed rather than faulted, so a
// short frame degrades the low end instead of failing the whole
// transform.
func (c *CQT) Forward(frame []float64) bool {
	complete := true

	for b, kernel := range c.kernels {
		if len(frame) < len(kernel) {
			c.mags[b] = 0
			complete = false
			continue
		}

		src := frame[len(frame)-len(kernel):]
		var acc complex128
		for n, k := range kernel {
			acc += complex(src[n], 0) * k
		}
		c.mags[b] = cmplx.Abs(acc)
	}

	return complete
}

// Magnitudes returns the transform's magnitude buffer
func (c *CQT) Magnitudes() []float64 {
	return c.mags
}

// Mapping returns the bin-to-frequency descriptor
func (c *CQT) Mapping() *BinMapping {
	return &c.mapping
}

// MinInputLen returns the longest kernel length
func (c *CQT) MinInputLen() int {
	if len(c.kernels) == 0 {
		return 0
	}
	return len(c.kernels[0])
}

// Q returns the quality factor
func (c *CQT) Q() float64 {
	return c.q
}

// Reset is a no-op; the CQT carries no history
func (c *CQT) Reset() {}
