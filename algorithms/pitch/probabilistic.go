package pitch

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/common"
)

// maxCandidates bounds the number of CMND minima considered per frame.
const maxCandidates = 5

// Probabilistic implements multi-candidate pitch estimation on top of the
// normalized difference function. Up to maxCandidates local minima become
// weighted candidates; each is scored by probability squared minus a
// continuity penalty against the last reported pitch in log-frequency
// space, and a minimum-probability gate decides voicing. The continuity
// term suppresses the octave errors a single-dip search is prone to.
//
// Reference: Mauch, M., Dixon, S. (2014). "pYIN: A fundamental frequency
// estimator using probabilistic threshold distributions".
type Probabilistic struct {
	params Params

	// ContinuityPenalty scales the log2 frequency jump cost.
	ContinuityPenalty float64

	diff []float64
	cmnd []float64

	candTau  []int
	candProb []float64

	lastPitch float64
}

// NewProbabilistic creates a probabilistic estimator.
func NewProbabilistic(params Params) *Probabilistic {
	return &Probabilistic{
		params:            params,
		ContinuityPenalty: 0.35,
		diff:              make([]float64, params.FrameSize),
		cmnd:              make([]float64, params.FrameSize),
		candTau:           make([]int, 0, maxCandidates),
		candProb:          make([]float64, 0, maxCandidates),
	}
}

// Detect estimates pitch for a single frame.
func (pr *Probabilistic) Detect(frame []float64) Estimate {
	n := len(frame)
	if n > pr.params.FrameSize {
		frame = frame[:pr.params.FrameSize]
		n = pr.params.FrameSize
	}

	minLag, maxLag := pr.params.lagRange()
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if maxLag <= minLag {
		return Unvoiced(0)
	}

	for tau := 1; tau <= maxLag; tau++ {
		sum := 0.0
		for j := 0; j < n-tau; j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		pr.diff[tau] = sum
	}

	pr.cmnd[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau <= maxLag; tau++ {
		runningSum += pr.diff[tau]
		if runningSum > 0 {
			pr.cmnd[tau] = pr.diff[tau] * float64(tau) / runningSum
		} else {
			pr.cmnd[tau] = 1.0
		}
	}

	// Collect local minima of the CMND as candidates, keeping the
	// deepest maxCandidates dips.
	pr.candTau = pr.candTau[:0]
	pr.candProb = pr.candProb[:0]

	for tau := minLag + 1; tau < maxLag; tau++ {
		v := pr.cmnd[tau]
		if v >= 1.0 || v > pr.cmnd[tau-1] || v > pr.cmnd[tau+1] {
			continue
		}

		prob := common.Clamp01(1.0 - v)

		if len(pr.candTau) < maxCandidates {
			pr.candTau = append(pr.candTau, tau)
			pr.candProb = append(pr.candProb, prob)
			continue
		}

		// Replace the weakest stored candidate if this dip is deeper.
		weakest := 0
		for i := 1; i < len(pr.candProb); i++ {
			if pr.candProb[i] < pr.candProb[weakest] {
				weakest = i
			}
		}
		if prob > pr.candProb[weakest] {
			pr.candTau[weakest] = tau
			pr.candProb[weakest] = prob
		}
	}

	if len(pr.candTau) == 0 {
		return Unvoiced(0)
	}

	// Score: probability squared minus the log-frequency jump penalty
	// against the last reported pitch.
	bestIdx := -1
	bestScore := math.Inf(-1)
	for i, tau := range pr.candTau {
		freq := float64(pr.params.SampleRate) / float64(tau)
		score := pr.candProb[i] * pr.candProb[i]

		if pr.lastPitch > 0 && freq > 0 {
			jump := math.Abs(math.Log2(freq / pr.lastPitch))
			score -= pr.ContinuityPenalty * jump
		}

		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	prob := pr.candProb[bestIdx]
	if prob < pr.params.MinConfidence {
		return Unvoiced(prob)
	}

	tau := common.ParabolicPeak(pr.cmnd[:maxLag+1], pr.candTau[bestIdx])
	if tau <= 0 {
		return Unvoiced(prob)
	}

	freq := pr.params.clampFreq(float64(pr.params.SampleRate) / tau)
	pr.lastPitch = freq

	return Estimate{
		Frequency:  freq,
		Confidence: prob,
		Voiced:     true,
	}
}

// Reset clears the continuity memory
func (pr *Probabilistic) Reset() {
	pr.lastPitch = 0
}
