package pitch

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

// Estimate is the output of one pitch algorithm for one frame.
// Frequency is 0 exactly when Voiced is false; a voiced frequency always
// lies within the configured [MinHz, MaxHz] range.
type Estimate struct {
	Frequency  float64 `json:"frequency"`  // Hz; 0 when unvoiced
	Confidence float64 `json:"confidence"` // 0-1
	Voiced     bool    `json:"voiced"`
}

// Unvoiced returns an estimate for a frame with no usable pitch, carrying
// whatever residual confidence the algorithm measured.
func Unvoiced(confidence float64) Estimate {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Estimate{Confidence: confidence}
}

// Detector is the contract shared by the time-domain pitch algorithms.
// Implementations pre-size all working buffers at construction; Detect
// performs no allocation.
type Detector interface {
	Detect(frame []float64) Estimate
	Reset()
}

// SpectrumDetector is implemented by frequency-domain algorithms that
// consume a magnitude spectrum instead of the raw frame.
type SpectrumDetector interface {
	DetectSpectrum(magnitudes []float64, mapping *spectral.BinMapping) Estimate
	Reset()
}

// Params contains the settings shared by every estimator.
type Params struct {
	SampleRate int     `json:"sample_rate"`
	FrameSize  int     `json:"frame_size"`
	MinHz      float64 `json:"min_hz"`
	MaxHz      float64 `json:"max_hz"`

	// Threshold is the CMND acceptance threshold for the YIN family.
	Threshold float64 `json:"threshold"`

	// MinConfidence gates the voiced flag.
	MinConfidence float64 `json:"min_confidence"`
}

// DefaultParams returns estimator parameters tuned for vocals.
func DefaultParams(sampleRate, frameSize int) Params {
	return Params{
		SampleRate:    sampleRate,
		FrameSize:     frameSize,
		MinHz:         60.0,
		MaxHz:         1200.0,
		Threshold:     0.15,
		MinConfidence: 0.5,
	}
}

// lagRange converts the frequency range to a lag range, clamped to the
// frame. A degenerate range (maxLag <= minLag) means the frame is too
// short for the configured minimum frequency; callers report unvoiced.
func (p *Params) lagRange() (minLag, maxLag int) {
	if p.MaxHz > 0 {
		minLag = int(float64(p.SampleRate) / p.MaxHz)
	}
	if minLag < 1 {
		minLag = 1
	}

	if p.MinHz > 0 {
		maxLag = int(float64(p.SampleRate) / p.MinHz)
	}
	if maxLag > p.FrameSize-1 {
		maxLag = p.FrameSize - 1
	}

	return minLag, maxLag
}

// clampFreq keeps an interpolated frequency inside the configured range.
func (p *Params) clampFreq(freq float64) float64 {
	return math.Min(math.Max(freq, p.MinHz), p.MaxHz)
}
