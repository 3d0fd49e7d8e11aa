package spectral

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RyanBlaney/vocalis/algorithms/common"
	"github.com/RyanBlaney/vocalis/algorithms/windowing"
)

// ZoomFFT analyzes a narrow band at increased resolution. It frequency-
// shifts the band start to baseband with a precomputed complex
// exponential, low-pass filters with a windowed-sinc FIR, decimates by the
// zoom factor and runs a smaller complex FFT. Resolution is
// sampleRate/(fftSize*zoom) at proportionally higher latency: Forward
// needs fftSize*zoom input samples.
//
// Reference: Hoyos, S., Sadler, B.M. (2005) and the classic zoom-FFT
// construction in Lyons, "Understanding Digital Signal Processing".
type ZoomFFT struct {
	fftSize    int
	zoom       int
	sampleRate int
	startHz    float64

	window windowing.Window
	cfft   *fourier.CmplxFFT

	osc       []complex128 // heterodyne exponential, one per input sample
	fir       []float64    // low-pass taps, unity DC gain
	shifted   []complex128 // heterodyned input
	decimated []complex128 // filtered, decimated, windowed
	coeffs    []complex128
	mags      []float64
	mapping   BinMapping
}

// NewZoomFFT creates a zoom transform centered on centerHz. The band is
// clamped inside [0, Nyquist].
func NewZoomFFT(sampleRate, fftSize, zoom int, centerHz float64, windowType string) *ZoomFFT {
	fftSize = common.NextPowerOfTwo(fftSize)
	if zoom < 2 {
		zoom = 2
	}

	nyquist := float64(sampleRate) / 2.0
	span := nyquist / float64(zoom)
	startHz := common.Clamp(centerHz-span/2.0, 0.0, nyquist-span)

	n := fftSize * zoom

	z := &ZoomFFT{
		fftSize:    fftSize,
		zoom:       zoom,
		sampleRate: sampleRate,
		startHz:    startHz,
		window:     windowing.New(windowType, fftSize),
		cfft:       fourier.NewCmplxFFT(fftSize),
		osc:        make([]complex128, n),
		shifted:    make([]complex128, n),
		decimated:  make([]complex128, fftSize),
		coeffs:     make([]complex128, fftSize),
		mags:       make([]float64, fftSize/2+1),
		mapping: BinMapping{
			Uniform: true,
			StartHz: startHz,
			StepHz:  float64(sampleRate) / float64(fftSize*zoom),
			NumBins: fftSize/2 + 1,
		},
	}

	// Heterodyne table: multiplying by exp(-j2π f0 n/fs) moves f0 to DC.
	omega := -2.0 * math.Pi * startHz / float64(sampleRate)
	for i := range z.osc {
		z.osc[i] = cmplx.Exp(complex(0, omega*float64(i)))
	}

	z.fir = designLowpass(zoom)

	return z
}

// designLowpass builds a Hamming-windowed sinc low-pass with cutoff just
// inside the decimated Nyquist, normalized to unity DC gain.
func designLowpass(zoom int) []float64 {
	length := 8*zoom + 1
	mid := length / 2
	cutoff := 0.45 / float64(zoom) // cycles per input sample

	taps := make([]float64, length)
	sum := 0.0
	for k := range taps {
		x := float64(k - mid)
		var s float64
		if x == 0 {
			s = 2.0 * cutoff
		} else {
			s = math.Sin(2.0*math.Pi*cutoff*x) / (math.Pi * x)
		}
		w := 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(k)/float64(length-1))
		taps[k] = s * w
		sum += taps[k]
	}

	for k := range taps {
		taps[k] /= sum
	}

	return taps
}

// Forward analyzes the most recent fftSize*zoom samples of frame.
func (z *ZoomFFT) Forward(frame []float64) bool {
	n := len(z.shifted)
	if len(frame) < n {
		for i := range z.mags {
			z.mags[i] = 0
		}
		return false
	}

	src := frame[len(frame)-n:]
	for i := range src {
		z.shifted[i] = complex(src[i], 0) * z.osc[i]
	}

	// Filter and decimate in one pass.
	mid := len(z.fir) / 2
	winCoeffs := z.window.Coefficients()
	for m := 0; m < z.fftSize; m++ {
		center := m * z.zoom
		var acc complex128
		for k, tap := range z.fir {
			idx := center + mid - k
			if idx < 0 || idx >= n {
				continue
			}
			acc += complex(tap, 0) * z.shifted[idx]
		}
		z.decimated[m] = acc * complex(winCoeffs[m], 0)
	}

	z.cfft.Coefficients(z.coeffs, z.decimated)

	// The band of interest sits in the non-negative half; the mirrored
	// half holds content from below the band start and is discarded.
	for i := range z.mags {
		z.mags[i] = cmplx.Abs(z.coeffs[i])
	}

	return true
}

// Magnitudes returns the transform's magnitude buffer
func (z *ZoomFFT) Magnitudes() []float64 {
	return z.mags
}

// Mapping returns the bin-to-frequency descriptor
func (z *ZoomFFT) Mapping() *BinMapping {
	return &z.mapping
}

// MinInputLen returns the required input length
func (z *ZoomFFT) MinInputLen() int {
	return z.fftSize * z.zoom
}

// Reset is a no-op; the zoom FFT processes each frame independently
func (z *ZoomFFT) Reset() {}
