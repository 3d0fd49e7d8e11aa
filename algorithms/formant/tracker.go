package formant

import (
	"math"

	"github.com/RyanBlaney/vocalis/algorithms/filters"
)

const (
	maxBeamWidth = 8

	// Continuity scoring. The allowed per-frame jump widens the longer the
	// tracker has gone without a valid observation, so it can reacquire
	// after silence or a dropped frame without a penalty spike.
	baseMaxDeltaHz      = 150.0
	deltaGrowthPerMiss  = 0.5
	maxFramesSinceSeen  = 30
	jumpPenaltyWeight   = 1.0
	swapPenaltyWeight   = 1.5
	separationWeight    = 0.5
	comfortSeparationHz = 400.0

	// Carried cost is discounted each frame so confidence reflects recent
	// agreement rather than the whole history.
	costDecay = 0.8
)

// Params configures a Tracker.
type Params struct {
	SampleRate int       `json:"sample_rate"`
	FrameSize  int       `json:"frame_size"`
	Order      int       `json:"order"`  // LPC order, 0 selects a rule of thumb
	Method     LPCMethod `json:"method"` // coefficient recursion
	BeamWidth  int       `json:"beam_width"`

	// Formant band limits in Hz.
	F1MinHz float64 `json:"f1_min_hz"`
	F1MaxHz float64 `json:"f1_max_hz"`
	F2MinHz float64 `json:"f2_min_hz"`
	F2MaxHz float64 `json:"f2_max_hz"`

	MaxBandwidthHz  float64 `json:"max_bandwidth_hz"`
	MinSeparationHz float64 `json:"min_separation_hz"`

	// SmoothingMs is the time constant of the output smoother;
	// HopSeconds is the analysis hop interval it is evaluated over.
	SmoothingMs float64 `json:"smoothing_ms"`
	HopSeconds  float64 `json:"hop_seconds"`
}

// DefaultParams returns tracking parameters tuned for adult speech.
func DefaultParams(sampleRate int) Params {
	return Params{
		SampleRate:      sampleRate,
		FrameSize:       2048,
		Order:           0,
		Method:          MethodLevinson,
		BeamWidth:       4,
		F1MinHz:         200,
		F1MaxHz:         1000,
		F2MinHz:         800,
		F2MaxHz:         3000,
		MaxBandwidthHz:  3500,
		MinSeparationHz: 250,
		SmoothingMs:     40,
		HopSeconds:      512.0 / float64(sampleRate),
	}
}

// Result is one frame of formant tracking output.
type Result struct {
	Valid      bool    `json:"valid"`
	F1         float64 `json:"f1"` // Hz, smoothed
	F2         float64 `json:"f2"` // Hz, smoothed
	B1         float64 `json:"b1"` // Hz
	B2         float64 `json:"b2"` // Hz
	Confidence float64 `json:"confidence"` // [0, 1]
}

// beamState is one tracking hypothesis.
type beamState struct {
	f1, f2   float64 // raw observations, Hz
	b1, b2   float64
	sf1, sf2 float64 // smoothed outputs
	cost     float64
	flags    int // penalty flags incurred on the last transition
}

// Tracker extracts F1/F2 formant trajectories: LPC analysis per frame,
// pole extraction by root finding, then a beam search over (F1, F2)
// candidate pairs that favors smooth trajectories over per-frame optima
// (after Talkin's dynamic programming approach to pitch and formant
// tracking).
//
// Track performs no allocations; all state is sized at construction.
type Tracker struct {
	params Params
	lpc    *LPCAnalyzer
	solver *RootSolver

	preEmph *filters.PreEmphasis
	window  []float64 // Hamming coefficients
	work    []float64 // pre-emphasized, windowed frame

	poolF1 candidatePool
	poolF2 candidatePool

	beam    [maxBeamWidth]beamState
	next    [maxBeamWidth]beamState
	beamLen int

	framesSinceSeen int
	alpha           float64 // output smoothing coefficient
}

// NewTracker creates a formant tracker.
func NewTracker(params Params) *Tracker {
	if params.BeamWidth < 1 {
		params.BeamWidth = 1
	}
	if params.BeamWidth > maxBeamWidth {
		params.BeamWidth = maxBeamWidth
	}
	// Keep F2 candidates outside F1's reach and clamp to Nyquist.
	nyquist := float64(params.SampleRate) / 2
	if params.F2MaxHz > 0.95*nyquist {
		params.F2MaxHz = 0.95 * nyquist
	}

	n := params.FrameSize
	window := make([]float64, n)
	for i := range window {
		window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	lpc := NewLPCAnalyzer(params.Order, n, params.SampleRate, params.Method)

	alpha := 1.0
	if params.SmoothingMs > 0 && params.HopSeconds > 0 {
		alpha = 1 - math.Exp(-params.HopSeconds*1000/params.SmoothingMs)
	}

	return &Tracker{
		params:  params,
		lpc:     lpc,
		solver:  NewRootSolver(lpc.Order()),
		preEmph: filters.NewPreEmphasis(0.97),
		window:  window,
		work:    make([]float64, n),
		alpha:   alpha,
	}
}

// Reset clears all tracking state.
func (t *Tracker) Reset() {
	t.beamLen = 0
	t.framesSinceSeen = 0
}

// Track processes one frame and returns the current formant estimate.
// An invalid Result means no plausible candidate pair was found this
// frame; existing hypotheses are retained for reacquisition.
func (t *Tracker) Track(frame []float64) Result {
	n := t.params.FrameSize
	if len(frame) < n {
		return t.miss()
	}
	src := frame[len(frame)-n:]

	// Pre-emphasis flattens the glottal spectral tilt so high formants
	// are not swamped by F1 energy, then a Hamming window.
	t.preEmph.Apply(t.work, src)
	for i := 0; i < n; i++ {
		t.work[i] *= t.window[i]
	}

	if !t.lpc.Analyze(t.work) {
		return t.miss()
	}
	roots := t.solver.Solve(t.lpc.Coefficients())
	if roots == nil {
		return t.miss()
	}

	t.poolF1.reset()
	t.poolF2.reset()
	for _, r := range roots {
		// Conjugate pairs describe the same resonance; keep the
		// upper-half-plane root only.
		if imag(r) <= minRootImag {
			continue
		}
		freq, bw, ok := rootToCandidate(r, t.params.SampleRate)
		if !ok || bw > t.params.MaxBandwidthHz {
			continue
		}
		c := Candidate{Frequency: freq, Bandwidth: bw, Cost: bw / t.params.MaxBandwidthHz}
		if freq >= t.params.F1MinHz && freq <= t.params.F1MaxHz {
			t.poolF1.insert(c)
		}
		if freq >= t.params.F2MinHz && freq <= t.params.F2MaxHz {
			t.poolF2.insert(c)
		}
	}
	if t.poolF1.count == 0 || t.poolF2.count == 0 {
		return t.miss()
	}

	maxDelta := baseMaxDeltaHz * (1 + deltaGrowthPerMiss*float64(t.framesSinceSeen))

	nextLen := 0
	for i := 0; i < t.poolF1.count; i++ {
		c1 := t.poolF1.items[i]
		for j := 0; j < t.poolF2.count; j++ {
			c2 := t.poolF2.items[j]
			sep := c2.Frequency - c1.Frequency
			if sep < t.params.MinSeparationHz {
				continue
			}

			local := c1.Cost + c2.Cost
			if sep < comfortSeparationHz {
				local += separationWeight * (1 - sep/comfortSeparationHz)
			}

			if t.beamLen == 0 {
				nextLen = t.offer(nextLen, beamState{
					f1: c1.Frequency, f2: c2.Frequency,
					b1: c1.Bandwidth, b2: c2.Bandwidth,
					sf1: c1.Frequency, sf2: c2.Frequency,
					cost: local,
				})
				continue
			}

			for k := 0; k < t.beamLen; k++ {
				prev := &t.beam[k]
				cont, flags := 0.0, 0

				jump1 := math.Abs(c1.Frequency-prev.f1) / maxDelta
				jump2 := math.Abs(c2.Frequency-prev.f2) / maxDelta
				cont += (jump1 + jump2) / 2
				if jump1 > 1 {
					cont += jumpPenaltyWeight * (jump1 - 1)
					flags++
				}
				if jump2 > 1 {
					cont += jumpPenaltyWeight * (jump2 - 1)
					flags++
				}
				// A candidate pair that crosses the previous trajectory
				// usually means F1 and F2 assignments swapped.
				if c1.Frequency > prev.f2 || c2.Frequency < prev.f1 {
					cont += swapPenaltyWeight
					flags++
				}

				nextLen = t.offer(nextLen, beamState{
					f1: c1.Frequency, f2: c2.Frequency,
					b1: c1.Bandwidth, b2: c2.Bandwidth,
					sf1:   prev.sf1 + t.alpha*(c1.Frequency-prev.sf1),
					sf2:   prev.sf2 + t.alpha*(c2.Frequency-prev.sf2),
					cost:  prev.cost*costDecay + local + cont,
					flags: flags,
				})
			}
		}
	}
	if nextLen == 0 {
		return t.miss()
	}

	// The lowest-cost hypothesis wins unless the runner-up is markedly
	// cleaner: at least two fewer penalty flags at comparable cost.
	winner := 0
	if nextLen > 1 {
		ru := t.next[1]
		if ru.flags <= t.next[0].flags-2 && ru.cost <= t.next[0].cost*1.25 {
			winner = 1
		}
	}

	t.beamLen = nextLen
	copy(t.beam[:nextLen], t.next[:nextLen])
	if winner != 0 {
		t.beam[0], t.beam[winner] = t.beam[winner], t.beam[0]
	}
	t.framesSinceSeen = 0

	w := &t.beam[0]
	return Result{
		Valid:      true,
		F1:         w.sf1,
		F2:         w.sf2,
		B1:         w.b1,
		B2:         w.b2,
		Confidence: 1 / (1 + math.Max(0, w.cost)),
	}
}

// offer inserts a hypothesis into the sorted next beam, keeping the best
// BeamWidth entries. Returns the updated length.
func (t *Tracker) offer(length int, s beamState) int {
	width := t.params.BeamWidth
	if length == width {
		if s.cost >= t.next[length-1].cost {
			return length
		}
		length--
	}
	i := length
	for i > 0 && t.next[i-1].cost > s.cost {
		t.next[i] = t.next[i-1]
		i--
	}
	t.next[i] = s
	return length + 1
}

func (t *Tracker) miss() Result {
	if t.framesSinceSeen < maxFramesSinceSeen {
		t.framesSinceSeen++
	}
	return Result{}
}
