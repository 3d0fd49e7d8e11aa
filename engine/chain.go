package engine

import (
	"github.com/RyanBlaney/vocalis/algorithms/display"
	"github.com/RyanBlaney/vocalis/algorithms/enhance"
	"github.com/RyanBlaney/vocalis/algorithms/filters"
	"github.com/RyanBlaney/vocalis/algorithms/formant"
	"github.com/RyanBlaney/vocalis/algorithms/pitch"
	"github.com/RyanBlaney/vocalis/algorithms/spectral"
	"github.com/RyanBlaney/vocalis/algorithms/voicing"
	"github.com/RyanBlaney/vocalis/config"
)

// chain owns every per-hop component and buffer. A chain is built whole
// at configuration time and replaced whole on Reconfigure; the analysis
// goroutine is its only user after construction, so processing needs no
// locks and performs no allocation.
type chain struct {
	cfg config.Config

	frame  []float64 // sliding analysis window
	hopBuf []float64
	dc     *filters.DCRemoval

	transform spectral.Transform
	detector  pitch.Detector         // time-domain primary, nil when spectral
	spectralD pitch.SpectrumDetector // spectrum-domain primary, nil otherwise
	cepstrum  *pitch.Cepstrum        // CPP source, may double as detector
	voicing   *voicing.Detector
	tracker   *formant.Tracker
	pipeline  *enhance.Pipeline
	mapper    *display.Mapper

	work []float64 // enhancement working copy of the magnitude spectrum
	snap Snapshot  // staging buffer for publication

	frameIndex uint64
	hopSeconds float64
}

func newChain(cfg *config.Config) *chain {
	c := &chain{
		cfg:        *cfg,
		hopBuf:     make([]float64, cfg.HopSize),
		dc:         filters.NewDCRemoval(cfg.SampleRate, 20.0),
		hopSeconds: float64(cfg.HopSize) / float64(cfg.SampleRate),
	}

	t := &cfg.Transform
	switch t.Type {
	case config.TransformZoom:
		c.transform = spectral.NewZoomFFT(cfg.SampleRate, t.FFTSize, t.ZoomFactor, t.ZoomCenterHz, t.Window)
	case config.TransformCQT:
		c.transform = spectral.NewCQT(cfg.SampleRate, t.BinsPerOctave, t.CQTMinHz, t.CQTMaxHz)
	default:
		c.transform = spectral.NewFFTTransform(cfg.SampleRate, t.FFTSize, t.Window)
	}
	mapping := c.transform.Mapping()
	numBins := mapping.NumBins

	// The sliding window must satisfy the transform's input need: the
	// zoom FFT consumes fftSize*zoom samples and the CQT's lowest bin may
	// carry a kernel longer than the analysis frame. Time-domain stages
	// still see the most recent FrameSize samples.
	winLen := max(cfg.FrameSize, c.transform.MinInputLen())
	c.frame = make([]float64, winLen)

	pp := pitch.Params{
		SampleRate:    cfg.SampleRate,
		FrameSize:     cfg.FrameSize,
		MinHz:         cfg.Pitch.MinHz,
		MaxHz:         cfg.Pitch.MaxHz,
		Threshold:     cfg.Pitch.YinThreshold,
		MinConfidence: cfg.Pitch.MinConfidence,
	}
	c.cepstrum = pitch.NewCepstrum(pp)
	switch cfg.Pitch.Algorithm {
	case config.PitchAutocorrelation:
		c.detector = pitch.NewAutocorrelation(pp)
	case config.PitchCepstrum:
		c.detector = c.cepstrum
	case config.PitchProbabilistic:
		c.detector = pitch.NewProbabilistic(pp)
	case config.PitchHarmonicSum:
		c.spectralD = pitch.NewHarmonicSummation(pp)
	default:
		c.detector = pitch.NewYIN(pp)
	}

	vp := voicing.DefaultParams(cfg.SampleRate)
	vp.SilenceMarginDB = cfg.Voicing.SilenceMarginDB
	vp.VoicedThreshold = cfg.Voicing.VoicedThreshold
	vp.UnvoicedThreshold = cfg.Voicing.UnvoicedThreshold
	vp.HangoverFrames = cfg.Voicing.HangoverFrames
	vp.ScoreAttack = cfg.Voicing.ScoreAttack
	vp.ScoreRelease = cfg.Voicing.ScoreRelease
	vp.FloorAttack = cfg.Voicing.FloorAttack
	vp.FloorRelease = cfg.Voicing.FloorRelease
	vp.PeriodicityWeight = cfg.Voicing.PeriodicityWeight
	vp.FlatnessWeight = cfg.Voicing.FlatnessWeight
	vp.ZCRWeight = cfg.Voicing.ZCRWeight
	vp.EnergyWeight = cfg.Voicing.EnergyWeight
	c.voicing = voicing.NewDetector(vp)

	method := formant.MethodLevinson
	if cfg.Formant.Method == config.LPCBurg {
		method = formant.MethodBurg
	}
	fp := formant.DefaultParams(cfg.SampleRate)
	fp.FrameSize = cfg.FrameSize
	fp.Order = cfg.Formant.Order
	fp.Method = method
	fp.BeamWidth = cfg.Formant.BeamWidth
	fp.F1MinHz = cfg.Formant.F1MinHz
	fp.F1MaxHz = cfg.Formant.F1MaxHz
	fp.F2MinHz = cfg.Formant.F2MinHz
	fp.F2MaxHz = cfg.Formant.F2MaxHz
	fp.MaxBandwidthHz = cfg.Formant.MaxBandwidthHz
	fp.SmoothingMs = cfg.Formant.SmoothingMs
	fp.HopSeconds = c.hopSeconds
	c.tracker = formant.NewTracker(fp)

	var smoother enhance.Smoother
	if cfg.Enhance.SmoothingMode == config.SmoothingBilateral {
		smoother = enhance.NewBilateralSmoother(numBins)
	} else {
		smoother = enhance.NewExponentialSmoother(numBins)
	}
	c.pipeline = enhance.NewPipeline(numBins, enhance.Amounts{
		NoiseReduction: cfg.Enhance.NoiseReduction,
		HPSS:           cfg.Enhance.HPSS,
		HarmonicComb:   cfg.Enhance.HarmonicComb,
		Smoothing:      cfg.Enhance.Smoothing,
	}, smoother)

	c.mapper = display.NewMapper(mapping, cfg.Display.Bins,
		display.ScaleByName(cfg.Display.Scale), cfg.Display.MinHz, cfg.Display.MaxHz)

	c.work = make([]float64, numBins)
	c.snap.DisplayDB = make([]float64, cfg.Display.Bins)
	return c
}

// consume slides the analysis window by one hop. Incoming samples are DC
// blocked first; an offset would bias frame energy and the LPC normal
// equations.
func (c *chain) consume(hop []float64) {
	c.dc.ProcessInPlace(hop)
	n := len(c.frame)
	h := len(hop)
	copy(c.frame, c.frame[h:])
	copy(c.frame[n-h:], hop)
}

// process runs the full per-hop analysis over the current window and
// returns the staged snapshot. The caller publishes it.
func (c *chain) process(markers Marker) *Snapshot {
	c.frameIndex++
	c.transform.Forward(c.frame)
	mags := c.transform.Magnitudes()
	mapping := c.transform.Mapping()

	// Time-domain stages work on the newest FrameSize samples; the full
	// window exists only to feed the transform.
	recent := c.frame[len(c.frame)-c.cfg.FrameSize:]

	// The cepstral estimator always runs: its peak prominence feeds the
	// voicing detector even when another algorithm reports the pitch.
	cepEst := c.cepstrum.Detect(recent)
	cppDB := c.cepstrum.CPPdB()

	var est pitch.Estimate
	switch {
	case c.spectralD != nil:
		est = c.spectralD.DetectSpectrum(mags, mapping)
	case c.detector == c.cepstrum:
		est = cepEst
	default:
		est = c.detector.Detect(recent)
	}

	vres := c.voicing.Process(recent, mags, mapping, est.Confidence, cppDB)
	fres := c.tracker.Track(recent)

	f0 := 0.0
	if est.Voiced && vres.State == voicing.Voiced {
		f0 = est.Frequency
	}
	copy(c.work, mags)
	c.pipeline.Process(c.work, mapping, f0, vres.State == voicing.Silence)
	_, db := c.mapper.Process(c.work)

	s := &c.snap
	s.FrameIndex = c.frameIndex
	s.TimeSec = float64(c.frameIndex) * c.hopSeconds
	s.Pitch = est
	s.CPPdB = cppDB
	s.Voicing = vres
	s.Formant = fres
	s.HNRdB = c.pipeline.HNRdB()
	copy(s.DisplayDB, db)
	s.Markers = markers
	return s
}
