package voicing

import (
	"github.com/RyanBlaney/vocalis/algorithms/common"
	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

// State is the smoothed voicing classification.
type State int

const (
	Silence State = iota
	Unvoiced
	Voiced
)

func (s State) String() string {
	switch s {
	case Silence:
		return "silence"
	case Unvoiced:
		return "unvoiced"
	case Voiced:
		return "voiced"
	default:
		return "unknown"
	}
}

// Params contains the voicing detector settings.
type Params struct {
	SampleRate int `json:"sample_rate"`

	// SilenceMarginDB is the SNR margin below which a frame is Silence.
	SilenceMarginDB float64 `json:"silence_margin_db"`

	// Hysteresis thresholds on the smoothed composite score.
	VoicedThreshold   float64 `json:"voiced_threshold"`
	UnvoicedThreshold float64 `json:"unvoiced_threshold"`

	// HangoverFrames holds Voiced through brief dips.
	HangoverFrames int `json:"hangover_frames"`

	// Composite score smoothing coefficients.
	ScoreAttack  float64 `json:"score_attack"`
	ScoreRelease float64 `json:"score_release"`

	// Noise floor tracking coefficients: FloorAttack moves the floor
	// toward louder frames, FloorRelease toward quieter ones. The
	// attack is kept slow so sustained speech does not drag the floor
	// up; the release is fast so quiet gaps recapture it.
	FloorAttack  float64 `json:"floor_attack"`
	FloorRelease float64 `json:"floor_release"`

	// Composite weights, normalized by their sum.
	PeriodicityWeight float64 `json:"periodicity_weight"`
	FlatnessWeight    float64 `json:"flatness_weight"`
	ZCRWeight         float64 `json:"zcr_weight"`
	EnergyWeight      float64 `json:"energy_weight"`

	// Band limits for the spectral flatness cue.
	FlatnessLowHz  float64 `json:"flatness_low_hz"`
	FlatnessHighHz float64 `json:"flatness_high_hz"`
}

// DefaultParams returns detector settings tuned for close-mic vocals.
func DefaultParams(sampleRate int) Params {
	return Params{
		SampleRate:        sampleRate,
		SilenceMarginDB:   6.0,
		VoicedThreshold:   0.6,
		UnvoicedThreshold: 0.4,
		HangoverFrames:    8,
		ScoreAttack:       0.5,
		ScoreRelease:      0.2,
		FloorAttack:       0.02,
		FloorRelease:      0.30,
		PeriodicityWeight: 0.45,
		FlatnessWeight:    0.20,
		ZCRWeight:         0.15,
		EnergyWeight:      0.20,
		FlatnessLowHz:     300.0,
		FlatnessHighHz:    5000.0,
	}
}

// Result is the smoothed voicing classification for one frame.
type Result struct {
	State        State   `json:"state"`
	Score        float64 `json:"score"` // smoothed composite, 0-1
	EnergyDB     float64 `json:"energy_db"`
	NoiseFloorDB float64 `json:"noise_floor_db"`
}

// Detector fuses frame energy, periodicity confidence, zero-crossing
// rate and band-limited spectral flatness, over an adaptive noise floor
// with hysteresis, into a voiced/unvoiced/silence classification.
//
// The state machine starts in Silence. Voiced is entered when the
// smoothed composite reaches VoicedThreshold (arming the hangover
// counter) and held while the score stays above UnvoicedThreshold or the
// hangover is non-zero; otherwise the state falls to Unvoiced. Frames
// below the silence SNR margin short-circuit to Silence unless the
// hangover keeps a Voiced state alive.
type Detector struct {
	params    Params
	weightSum float64

	flatness *spectral.SpectralFlatness
	zcr      *spectral.ZeroCrossingRate

	noiseFloorDB  float64
	floorPrimed   bool
	smoothedScore float64
	hangover      int
	state         State
}

// NewDetector creates a voicing detector.
func NewDetector(params Params) *Detector {
	weightSum := params.PeriodicityWeight + params.FlatnessWeight +
		params.ZCRWeight + params.EnergyWeight
	if weightSum <= 0 {
		params.PeriodicityWeight = 1.0
		weightSum = 1.0
	}

	return &Detector{
		params:    params,
		weightSum: weightSum,
		flatness:  spectral.NewSpectralFlatness(params.FlatnessLowHz, params.FlatnessHighHz),
		zcr:       spectral.NewZeroCrossingRate(params.SampleRate),
		state:     Silence,
	}
}

// Process classifies one frame. pitchConfidence is the active pitch
// estimator's confidence; cppDB is the cepstral peak prominence when the
// cepstral estimator ran this frame (0 otherwise).
func (d *Detector) Process(frame []float64, magnitudes []float64, mapping *spectral.BinMapping, pitchConfidence, cppDB float64) Result {
	energyDB := common.LinearToDB(common.RMS(frame))

	// Adaptive noise floor.
	if !d.floorPrimed {
		d.noiseFloorDB = energyDB
		d.floorPrimed = true
	} else if energyDB > d.noiseFloorDB {
		d.noiseFloorDB += d.params.FloorAttack * (energyDB - d.noiseFloorDB)
	} else {
		d.noiseFloorDB += d.params.FloorRelease * (energyDB - d.noiseFloorDB)
	}

	snr := energyDB - d.noiseFloorDB

	if snr < d.params.SilenceMarginDB {
		// Inside the hangover window a Voiced state holds through the
		// dip; otherwise the frame is Silence.
		if d.state == Voiced && d.hangover > 0 {
			d.hangover--
			return Result{
				State:        Voiced,
				Score:        d.smoothedScore,
				EnergyDB:     energyDB,
				NoiseFloorDB: d.noiseFloorDB,
			}
		}

		d.state = Silence
		d.smoothedScore += d.params.ScoreRelease * (0 - d.smoothedScore)
		return Result{
			State:        Silence,
			Score:        0,
			EnergyDB:     energyDB,
			NoiseFloorDB: d.noiseFloorDB,
		}
	}

	// Composite score.
	periodicity := pitchConfidence
	if cpp := common.Clamp01(cppDB / 20.0); cpp > periodicity {
		periodicity = cpp
	}

	flatScore := 1.0 - d.flatness.Compute(magnitudes, mapping)
	zcrScore := 1.0 - common.Clamp01(2.0*d.zcr.ComputeNormalized(frame))
	energyScore := common.Clamp01(snr / 30.0)

	score := (d.params.PeriodicityWeight*periodicity +
		d.params.FlatnessWeight*flatScore +
		d.params.ZCRWeight*zcrScore +
		d.params.EnergyWeight*energyScore) / d.weightSum

	// Asymmetric smoothing.
	if score > d.smoothedScore {
		d.smoothedScore += d.params.ScoreAttack * (score - d.smoothedScore)
	} else {
		d.smoothedScore += d.params.ScoreRelease * (score - d.smoothedScore)
	}
	d.smoothedScore = common.Clamp01(d.smoothedScore)

	// Hysteresis.
	switch {
	case d.smoothedScore >= d.params.VoicedThreshold:
		d.state = Voiced
		d.hangover = d.params.HangoverFrames
	case d.state == Voiced && d.smoothedScore > d.params.UnvoicedThreshold:
		// Hold.
	case d.state == Voiced && d.hangover > 0:
		d.hangover--
	default:
		d.state = Unvoiced
	}

	return Result{
		State:        d.state,
		Score:        d.smoothedScore,
		EnergyDB:     energyDB,
		NoiseFloorDB: d.noiseFloorDB,
	}
}

// State returns the current classification without processing a frame
func (d *Detector) State() State {
	return d.state
}

// Reset returns the detector to its initial Silence state
func (d *Detector) Reset() {
	d.state = Silence
	d.smoothedScore = 0
	d.hangover = 0
	d.noiseFloorDB = 0
	d.floorPrimed = false
}
