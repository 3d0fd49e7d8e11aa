package pitch

import (
	"github.com/RyanBlaney/vocalis/algorithms/common"
)

// YIN implements the difference-function pitch estimator: squared
// difference over the lag range, cumulative mean normalization, first lag
// below threshold that is also a local minimum, parabolic interpolation
// for sub-sample precision.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music".
type YIN struct {
	params Params

	diff []float64 // squared difference function, indexed by lag
	cmnd []float64 // cumulative mean normalized difference
}

// NewYIN creates a YIN estimator with pre-sized working buffers.
func NewYIN(params Params) *YIN {
	return &YIN{
		params: params,
		diff:   make([]float64, params.FrameSize),
		cmnd:   make([]float64, params.FrameSize),
	}
}

// Detect estimates pitch for a single frame.
func (y *YIN) Detect(frame []float64) Estimate {
	n := len(frame)
	if n > y.params.FrameSize {
		frame = frame[:y.params.FrameSize]
		n = y.params.FrameSize
	}

	minLag, maxLag := y.params.lagRange()
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if maxLag <= minLag {
		return Unvoiced(0)
	}

	// Difference function over the full frame.
	for tau := 1; tau <= maxLag; tau++ {
		sum := 0.0
		for j := 0; j < n-tau; j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		y.diff[tau] = sum
	}

	// Cumulative mean normalized difference: d[tau]*tau / sum(d[1..tau]).
	y.cmnd[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau <= maxLag; tau++ {
		runningSum += y.diff[tau]
		if runningSum > 0 {
			y.cmnd[tau] = y.diff[tau] * float64(tau) / runningSum
		} else {
			y.cmnd[tau] = 1.0
		}
	}

	// First dip below threshold, descended to its local minimum.
	bestTau := -1
	minCMND := 1.0
	for t := minLag; t <= maxLag; t++ {
		if y.cmnd[t] < minCMND {
			minCMND = y.cmnd[t]
		}
		if y.cmnd[t] < y.params.Threshold {
			for t+1 <= maxLag && y.cmnd[t+1] < y.cmnd[t] {
				t++
			}
			bestTau = t
			break
		}
	}

	if bestTau < 0 {
		// No dip below threshold. The depth of the best dip still says
		// something about periodicity, so report it as confidence.
		return Unvoiced(1.0 - minCMND)
	}

	confidence := common.Clamp01(1.0 - y.cmnd[bestTau])

	tau := float64(bestTau)
	if bestTau > 1 && bestTau < maxLag {
		tau = common.ParabolicPeak(y.cmnd[:maxLag+1], bestTau)
	}
	if tau <= 0 {
		return Unvoiced(confidence)
	}

	freq := y.params.clampFreq(float64(y.params.SampleRate) / tau)

	return Estimate{
		Frequency:  freq,
		Confidence: confidence,
		Voiced:     true,
	}
}

// Reset is a no-op; YIN is stateless across frames
func (y *YIN) Reset() {}
