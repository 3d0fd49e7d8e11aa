package pitch

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RyanBlaney/vocalis/algorithms/common"
	"github.com/RyanBlaney/vocalis/algorithms/windowing"
)

// Cepstrum implements cepstral pitch estimation: windowed FFT, log
// magnitude, inverse FFT back to the quefrency domain, then a peak search
// over the lag range. The cepstral peak prominence (peak above the local
// mean, in dB) doubles as a periodicity signal for the voicing detector.
//
// References:
//   - Noll, A.M. (1967). "Cepstrum pitch determination"
//   - Hillenbrand, J., Houde, R.A. (1996). "Acoustic correlates of breathy
//     vocal quality"
type Cepstrum struct {
	params  Params
	fftSize int

	window windowing.Window
	fft    *fourier.FFT

	input    []float64
	coeffs   []complex128
	logMag   []complex128
	cepstrum []float64

	cfft *fourier.CmplxFFT
	cep  []complex128

	lastCPPdB float64
}

// NewCepstrum creates a cepstral estimator with pre-sized buffers.
func NewCepstrum(params Params) *Cepstrum {
	fftSize := common.NextPowerOfTwo(params.FrameSize)

	return &Cepstrum{
		params:   params,
		fftSize:  fftSize,
		window:   windowing.NewHann(fftSize, true),
		fft:      fourier.NewFFT(fftSize),
		input:    make([]float64, fftSize),
		coeffs:   make([]complex128, fftSize/2+1),
		logMag:   make([]complex128, fftSize),
		cepstrum: make([]float64, fftSize),
		cfft:     fourier.NewCmplxFFT(fftSize),
		cep:      make([]complex128, fftSize),
	}
}

// Detect estimates pitch for a single frame.
func (c *Cepstrum) Detect(frame []float64) Estimate {
	c.lastCPPdB = 0

	if len(frame) < c.params.FrameSize {
		return Unvoiced(0)
	}

	minLag, maxLag := c.params.lagRange()
	if maxLag > c.fftSize/2-1 {
		maxLag = c.fftSize/2 - 1
	}
	if maxLag <= minLag {
		return Unvoiced(0)
	}

	// Windowed FFT, zero-padded to the transform size.
	for i := range c.input {
		c.input[i] = 0
	}
	c.window.ApplyTo(c.input, frame[:min(len(frame), c.fftSize)])
	c.fft.Coefficients(c.coeffs, c.input)

	// Log magnitude mirrored into a full-length spectrum so the inverse
	// transform yields the real cepstrum.
	half := len(c.coeffs)
	for i := 0; i < half; i++ {
		lm := math.Log(cmplx.Abs(c.coeffs[i]) + 1e-10)
		c.logMag[i] = complex(lm, 0)
		if i > 0 && i < half-1 {
			c.logMag[c.fftSize-i] = complex(lm, 0)
		}
	}

	c.cfft.Sequence(c.cep, c.logMag)
	scale := 1.0 / float64(c.fftSize)
	for i := range c.cepstrum {
		c.cepstrum[i] = real(c.cep[i]) * scale
	}

	// Peak in the quefrency range.
	peakLag := minLag
	peakVal := c.cepstrum[minLag]
	meanAbs := 0.0
	for q := minLag; q <= maxLag; q++ {
		v := c.cepstrum[q]
		if v > peakVal {
			peakVal = v
			peakLag = q
		}
		meanAbs += math.Abs(v)
	}
	meanAbs /= float64(maxLag - minLag + 1)

	if peakVal <= 0 || meanAbs <= 0 {
		return Unvoiced(0)
	}

	// Prominence of the peak above the local mean, in dB.
	cppDB := 20.0 * math.Log10(peakVal/math.Max(meanAbs, 1e-10))
	if cppDB < 0 {
		cppDB = 0
	}
	c.lastCPPdB = cppDB

	confidence := common.Clamp01(cppDB / 20.0)
	if confidence < c.params.MinConfidence {
		return Unvoiced(confidence)
	}

	lag := common.ParabolicPeak(c.cepstrum[:maxLag+1], peakLag)
	if lag <= 0 {
		return Unvoiced(confidence)
	}

	freq := c.params.clampFreq(float64(c.params.SampleRate) / lag)

	return Estimate{
		Frequency:  freq,
		Confidence: confidence,
		Voiced:     true,
	}
}

// CPPdB returns the cepstral peak prominence of the last analyzed frame
// in dB. Zero when the last frame had no usable cepstral peak.
func (c *Cepstrum) CPPdB() float64 {
	return c.lastCPPdB
}

// Reset clears the CPP memory
func (c *Cepstrum) Reset() {
	c.lastCPPdB = 0
}
