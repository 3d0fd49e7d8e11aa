package config

// Boundaries and defaults for the analysis engine configuration.
// Invalid values are clamped by Sanitize rather than rejected: every knob
// here is an internal tuning parameter, not user-facing data.
const (
	DefaultSampleRate = 48000
	DefaultFrameSize  = 2048
	DefaultHopSize    = 512

	MinSampleRate = 8000
	MaxSampleRate = 192000
	MinFrameSize  = 128
	MaxFrameSize  = 16384

	DefaultPitchMinHz = 60.0
	DefaultPitchMaxHz = 1200.0

	DefaultFormantOrder = 12
	MaxFormantOrder     = 30
	DefaultBeamWidth    = 6
	MaxBeamWidth        = 32

	DefaultDisplayBins = 512
	MaxDisplayBins     = 8192

	MaxZoomFactor    = 64
	MaxBinsPerOctave = 96
)

// Transform type names.
const (
	TransformFFT  = "fft"
	TransformZoom = "zoom"
	TransformCQT  = "cqt"
)

// Pitch algorithm names.
const (
	PitchYIN             = "yin"
	PitchAutocorrelation = "autocorrelation"
	PitchCepstrum        = "cepstrum"
	PitchProbabilistic   = "probabilistic"
	PitchHarmonicSum     = "harmonic_sum"
)

// LPC method names.
const (
	LPCLevinson = "levinson"
	LPCBurg     = "burg"
)

// Smoothing mode names.
const (
	SmoothingExponential = "exponential"
	SmoothingBilateral   = "bilateral"
)

// Display frequency scale names.
const (
	ScaleLinear = "linear"
	ScaleLog    = "log"
	ScaleMel    = "mel"
	ScaleERB    = "erb"
	ScaleBark   = "bark"
)

// Config holds every runtime knob consumed by the analysis engine.
// A Config is applied atomically: the engine rebuilds all buffers and
// resets all stateful trackers on Reconfigure.
type Config struct {
	SampleRate int `yaml:"sample_rate"`
	FrameSize  int `yaml:"frame_size"`
	HopSize    int `yaml:"hop_size"`

	Transform TransformConfig `yaml:"transform"`
	Pitch     PitchConfig     `yaml:"pitch"`
	Voicing   VoicingConfig   `yaml:"voicing"`
	Formant   FormantConfig   `yaml:"formant"`
	Enhance   EnhanceConfig   `yaml:"enhancement"`
	Display   DisplayConfig   `yaml:"display"`
}

// TransformConfig selects and parameterizes the spectral transform.
type TransformConfig struct {
	Type    string `yaml:"type"`     // fft, zoom, cqt
	FFTSize int    `yaml:"fft_size"` // power of two
	Window  string `yaml:"window"`   // hann, hamming, blackman_harris

	// Zoom FFT settings
	ZoomFactor   int     `yaml:"zoom_factor"`
	ZoomCenterHz float64 `yaml:"zoom_center_hz"`

	// CQT settings
	BinsPerOctave int     `yaml:"bins_per_octave"`
	CQTMinHz      float64 `yaml:"cqt_min_hz"`
	CQTMaxHz      float64 `yaml:"cqt_max_hz"`
}

// PitchConfig selects and parameterizes the pitch estimator.
type PitchConfig struct {
	Algorithm     string  `yaml:"algorithm"`
	MinHz         float64 `yaml:"min_hz"`
	MaxHz         float64 `yaml:"max_hz"`
	YinThreshold  float64 `yaml:"yin_threshold"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// VoicingConfig parameterizes the voicing state machine.
type VoicingConfig struct {
	SilenceMarginDB   float64 `yaml:"silence_margin_db"` // SNR margin below which a frame is Silence
	VoicedThreshold   float64 `yaml:"voiced_threshold"`
	UnvoicedThreshold float64 `yaml:"unvoiced_threshold"`
	HangoverFrames    int     `yaml:"hangover_frames"`

	// Composite score smoothing (per-frame one-pole coefficients)
	ScoreAttack  float64 `yaml:"score_attack"`
	ScoreRelease float64 `yaml:"score_release"`

	// Adaptive noise floor tracking coefficients
	FloorAttack  float64 `yaml:"floor_attack"`
	FloorRelease float64 `yaml:"floor_release"`

	// Composite weights, normalized by their sum at configure time
	PeriodicityWeight float64 `yaml:"periodicity_weight"`
	FlatnessWeight    float64 `yaml:"flatness_weight"`
	ZCRWeight         float64 `yaml:"zcr_weight"`
	EnergyWeight      float64 `yaml:"energy_weight"`
}

// FormantConfig parameterizes LPC analysis and the beam tracker.
type FormantConfig struct {
	Method    string `yaml:"method"` // levinson, burg
	Order     int    `yaml:"order"`
	Preset    string `yaml:"preset"` // speech, soprano, alto, tenor, bass
	BeamWidth int    `yaml:"beam_width"`

	// Band limits; zero values are filled in from the preset
	F1MinHz float64 `yaml:"f1_min_hz"`
	F1MaxHz float64 `yaml:"f1_max_hz"`
	F2MinHz float64 `yaml:"f2_min_hz"`
	F2MaxHz float64 `yaml:"f2_max_hz"`

	MaxBandwidthHz float64 `yaml:"max_bandwidth_hz"`
	SmoothingMs    float64 `yaml:"smoothing_ms"`
}

// EnhanceConfig holds the user-facing enhancement amounts, all in [0,1].
type EnhanceConfig struct {
	NoiseReduction float64 `yaml:"noise_reduction"`
	HPSS           float64 `yaml:"hpss"`
	HarmonicComb   float64 `yaml:"harmonic_comb"`
	Smoothing      float64 `yaml:"smoothing"`
	SmoothingMode  string  `yaml:"smoothing_mode"`
}

// DisplayConfig parameterizes the analysis-bin to display-bin mapper.
type DisplayConfig struct {
	Bins  int     `yaml:"bins"`
	Scale string  `yaml:"scale"`
	MinHz float64 `yaml:"min_hz"`
	MaxHz float64 `yaml:"max_hz"`
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		SampleRate: DefaultSampleRate,
		FrameSize:  DefaultFrameSize,
		HopSize:    DefaultHopSize,
		Transform: TransformConfig{
			Type:          TransformFFT,
			FFTSize:       DefaultFrameSize,
			Window:        "hann",
			ZoomFactor:    4,
			ZoomCenterHz:  1000.0,
			BinsPerOctave: 24,
			CQTMinHz:      55.0,
			CQTMaxHz:      8000.0,
		},
		Pitch: PitchConfig{
			Algorithm:     PitchYIN,
			MinHz:         DefaultPitchMinHz,
			MaxHz:         DefaultPitchMaxHz,
			YinThreshold:  0.15,
			MinConfidence: 0.5,
		},
		Voicing: VoicingConfig{
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
		},
		Formant: FormantConfig{
			Method:         LPCLevinson,
			Order:          DefaultFormantOrder,
			Preset:         "speech",
			BeamWidth:      DefaultBeamWidth,
			MaxBandwidthHz: 600.0,
			SmoothingMs:    40.0,
		},
		Enhance: EnhanceConfig{
			NoiseReduction: 0.5,
			HPSS:           0.0,
			HarmonicComb:   0.0,
			Smoothing:      0.3,
			SmoothingMode:  SmoothingExponential,
		},
		Display: DisplayConfig{
			Bins:  DefaultDisplayBins,
			Scale: ScaleLog,
			MinHz: 50.0,
			MaxHz: 12000.0,
		},
	}
}

// clampInt keeps v within [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat keeps v within [lo, hi].
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextPowerOfTwo rounds n up to the nearest power of two.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Sanitize clamps every field into its valid range and resolves enum
// fallbacks. It never reports an error: out-of-range values here are
// tuning mistakes, and the engine degrades gracefully instead of refusing
// to run.
func (c *Config) Sanitize() {
	c.SampleRate = clampInt(c.SampleRate, MinSampleRate, MaxSampleRate)
	c.FrameSize = clampInt(nextPowerOfTwo(c.FrameSize), MinFrameSize, MaxFrameSize)
	c.HopSize = clampInt(c.HopSize, 16, c.FrameSize)

	nyquist := float64(c.SampleRate) / 2.0

	// Transform
	t := &c.Transform
	switch t.Type {
	case TransformFFT, TransformZoom, TransformCQT:
	default:
		t.Type = TransformFFT
	}
	t.FFTSize = clampInt(nextPowerOfTwo(t.FFTSize), MinFrameSize, MaxFrameSize)
	switch t.Window {
	case "hann", "hamming", "blackman_harris":
	default:
		t.Window = "hann"
	}
	t.ZoomFactor = clampInt(t.ZoomFactor, 2, MaxZoomFactor)
	t.ZoomCenterHz = clampFloat(t.ZoomCenterHz, 0, nyquist)
	t.BinsPerOctave = clampInt(t.BinsPerOctave, 3, MaxBinsPerOctave)
	t.CQTMinHz = clampFloat(t.CQTMinHz, 10.0, nyquist/4)
	t.CQTMaxHz = clampFloat(t.CQTMaxHz, t.CQTMinHz*2, nyquist)

	// Pitch
	p := &c.Pitch
	switch p.Algorithm {
	case PitchYIN, PitchAutocorrelation, PitchCepstrum, PitchProbabilistic, PitchHarmonicSum:
	default:
		p.Algorithm = PitchYIN
	}
	p.MinHz = clampFloat(p.MinHz, 20.0, nyquist/4)
	p.MaxHz = clampFloat(p.MaxHz, p.MinHz+1.0, nyquist/2)
	p.YinThreshold = clampFloat(p.YinThreshold, 0.01, 0.9)
	p.MinConfidence = clampFloat(p.MinConfidence, 0.0, 1.0)

	// Voicing
	v := &c.Voicing
	v.SilenceMarginDB = clampFloat(v.SilenceMarginDB, 0.0, 60.0)
	v.VoicedThreshold = clampFloat(v.VoicedThreshold, 0.0, 1.0)
	v.UnvoicedThreshold = clampFloat(v.UnvoicedThreshold, 0.0, v.VoicedThreshold)
	v.HangoverFrames = clampInt(v.HangoverFrames, 0, 1000)
	v.ScoreAttack = clampFloat(v.ScoreAttack, 0.001, 1.0)
	v.ScoreRelease = clampFloat(v.ScoreRelease, 0.001, 1.0)
	v.FloorAttack = clampFloat(v.FloorAttack, 0.001, 1.0)
	v.FloorRelease = clampFloat(v.FloorRelease, 0.001, 1.0)
	v.PeriodicityWeight = clampFloat(v.PeriodicityWeight, 0.0, 10.0)
	v.FlatnessWeight = clampFloat(v.FlatnessWeight, 0.0, 10.0)
	v.ZCRWeight = clampFloat(v.ZCRWeight, 0.0, 10.0)
	v.EnergyWeight = clampFloat(v.EnergyWeight, 0.0, 10.0)
	if v.PeriodicityWeight+v.FlatnessWeight+v.ZCRWeight+v.EnergyWeight <= 0 {
		v.PeriodicityWeight = 1.0
	}

	// Formant
	f := &c.Formant
	switch f.Method {
	case LPCLevinson, LPCBurg:
	default:
		f.Method = LPCLevinson
	}
	f.Order = clampInt(f.Order, 4, MaxFormantOrder)
	f.BeamWidth = clampInt(f.BeamWidth, 1, MaxBeamWidth)
	applyFormantPreset(f)
	f.F1MinHz = clampFloat(f.F1MinHz, 50.0, nyquist)
	f.F1MaxHz = clampFloat(f.F1MaxHz, f.F1MinHz+50.0, nyquist)
	f.F2MinHz = clampFloat(f.F2MinHz, f.F1MinHz, nyquist)
	f.F2MaxHz = clampFloat(f.F2MaxHz, f.F2MinHz+50.0, nyquist)
	f.MaxBandwidthHz = clampFloat(f.MaxBandwidthHz, 50.0, 3500.0)
	f.SmoothingMs = clampFloat(f.SmoothingMs, 0.0, 1000.0)

	// Enhancement
	e := &c.Enhance
	e.NoiseReduction = clampFloat(e.NoiseReduction, 0.0, 1.0)
	e.HPSS = clampFloat(e.HPSS, 0.0, 1.0)
	e.HarmonicComb = clampFloat(e.HarmonicComb, 0.0, 1.0)
	e.Smoothing = clampFloat(e.Smoothing, 0.0, 1.0)
	switch e.SmoothingMode {
	case SmoothingExponential, SmoothingBilateral:
	default:
		e.SmoothingMode = SmoothingExponential
	}

	// Display
	d := &c.Display
	d.Bins = clampInt(d.Bins, 8, MaxDisplayBins)
	switch d.Scale {
	case ScaleLinear, ScaleLog, ScaleMel, ScaleERB, ScaleBark:
	default:
		d.Scale = ScaleLog
	}
	d.MinHz = clampFloat(d.MinHz, 1.0, nyquist)
	d.MaxHz = clampFloat(d.MaxHz, d.MinHz+1.0, nyquist)
}

// applyFormantPreset fills zero band limits from the named preset.
// Band layouts follow typical F1/F2 ranges for each voice type.
func applyFormantPreset(f *FormantConfig) {
	type bands struct{ f1lo, f1hi, f2lo, f2hi float64 }

	presets := map[string]bands{
		"speech":  {200, 1000, 800, 3000},
		"soprano": {300, 1200, 1000, 3500},
		"alto":    {250, 1050, 900, 3200},
		"tenor":   {220, 950, 850, 2900},
		"bass":    {180, 850, 750, 2600},
	}

	b, ok := presets[f.Preset]
	if !ok {
		f.Preset = "speech"
		b = presets["speech"]
	}

	if f.F1MinHz == 0 {
		f.F1MinHz = b.f1lo
	}
	if f.F1MaxHz == 0 {
		f.F1MaxHz = b.f1hi
	}
	if f.F2MinHz == 0 {
		f.F2MinHz = b.f2lo
	}
	if f.F2MaxHz == 0 {
		f.F2MaxHz = b.f2hi
	}
}
