package spectral

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RyanBlaney/vocalis/algorithms/common"
	"github.com/RyanBlaney/vocalis/algorithms/windowing"
)

// FFTTransform is the uniform-resolution spectral transform: a windowed
// real FFT with a precomputed plan. Resolution is sampleRate/fftSize.
type FFTTransform struct {
	fftSize    int
	sampleRate int

	window windowing.Window
	fft    *fourier.FFT

	input   []float64
	coeffs  []complex128
	mags    []float64
	mapping BinMapping
}

// NewFFTTransform creates a uniform FFT transform. fftSize is rounded up
// to a power of two.
func NewFFTTransform(sampleRate, fftSize int, windowType string) *FFTTransform {
	fftSize = common.NextPowerOfTwo(fftSize)
	numBins := fftSize/2 + 1

	return &FFTTransform{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		window:     windowing.New(windowType, fftSize),
		fft:        fourier.NewFFT(fftSize),
		input:      make([]float64, fftSize),
		coeffs:     make([]complex128, numBins),
		mags:       make([]float64, numBins),
		mapping: BinMapping{
			Uniform: true,
			StartHz: 0,
			StepHz:  float64(sampleRate) / float64(fftSize),
			NumBins: numBins,
		},
	}
}

// Forward computes the magnitude spectrum of the most recent fftSize
// samples of frame.
func (t *FFTTransform) Forward(frame []float64) bool {
	if len(frame) < t.fftSize {
		for i := range t.mags {
			t.mags[i] = 0
		}
		return false
	}

	t.window.ApplyTo(t.input, frame[len(frame)-t.fftSize:])
	t.fft.Coefficients(t.coeffs, t.input)

	for i, c := range t.coeffs {
		t.mags[i] = cmplx.Abs(c)
	}

	return true
}

// Magnitudes returns the transform's magnitude buffer
func (t *FFTTransform) Magnitudes() []float64 {
	return t.mags
}

// Mapping returns the bin-to-frequency descriptor
func (t *FFTTransform) Mapping() *BinMapping {
	return &t.mapping
}

// MinInputLen returns the required input length
func (t *FFTTransform) MinInputLen() int {
	return t.fftSize
}

// Reset is a no-op; the uniform FFT carries no history
func (t *FFTTransform) Reset() {}
