package config

import "testing"

func TestSanitizeIdempotent(t *testing.T) {
	cfg := Default()
	cfg.Sanitize()
	once := *cfg
	cfg.Sanitize()
	if *cfg != once {
		t.Errorf("second Sanitize changed the config:\n got %+v\nwant %+v", *cfg, once)
	}
}

func TestSanitizeClampsCore(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 1000
	cfg.FrameSize = 3000 // not a power of two
	cfg.HopSize = 100000
	cfg.Sanitize()

	if cfg.SampleRate != MinSampleRate {
		t.Errorf("SampleRate = %d, want %d", cfg.SampleRate, MinSampleRate)
	}
	if cfg.FrameSize != 4096 {
		t.Errorf("FrameSize = %d, want 4096", cfg.FrameSize)
	}
	if cfg.HopSize != cfg.FrameSize {
		t.Errorf("HopSize = %d, want clamped to FrameSize %d", cfg.HopSize, cfg.FrameSize)
	}
}

func TestSanitizeEnumFallbacks(t *testing.T) {
	cfg := Default()
	cfg.Transform.Type = "wavelet"
	cfg.Transform.Window = "kaiser"
	cfg.Pitch.Algorithm = "swipe"
	cfg.Formant.Method = "covariance"
	cfg.Enhance.SmoothingMode = "median"
	cfg.Display.Scale = "chromatic"
	cfg.Sanitize()

	if cfg.Transform.Type != TransformFFT {
		t.Errorf("Transform.Type = %q, want fft", cfg.Transform.Type)
	}
	if cfg.Transform.Window != "hann" {
		t.Errorf("Transform.Window = %q, want hann", cfg.Transform.Window)
	}
	if cfg.Pitch.Algorithm != PitchYIN {
		t.Errorf("Pitch.Algorithm = %q, want yin", cfg.Pitch.Algorithm)
	}
	if cfg.Formant.Method != LPCLevinson {
		t.Errorf("Formant.Method = %q, want levinson", cfg.Formant.Method)
	}
	if cfg.Enhance.SmoothingMode != SmoothingExponential {
		t.Errorf("Enhance.SmoothingMode = %q, want exponential", cfg.Enhance.SmoothingMode)
	}
	if cfg.Display.Scale != ScaleLog {
		t.Errorf("Display.Scale = %q, want log", cfg.Display.Scale)
	}
}

func TestSanitizeOrderedRanges(t *testing.T) {
	cfg := Default()
	cfg.Pitch.MinHz = 500
	cfg.Pitch.MaxHz = 100 // inverted
	cfg.Voicing.VoicedThreshold = 0.3
	cfg.Voicing.UnvoicedThreshold = 0.8 // above voiced
	cfg.Display.MinHz = 8000
	cfg.Display.MaxHz = 100 // inverted
	cfg.Sanitize()

	if cfg.Pitch.MaxHz <= cfg.Pitch.MinHz {
		t.Errorf("pitch range stayed inverted: [%v, %v]", cfg.Pitch.MinHz, cfg.Pitch.MaxHz)
	}
	if cfg.Voicing.UnvoicedThreshold > cfg.Voicing.VoicedThreshold {
		t.Errorf("unvoiced threshold %v above voiced %v",
			cfg.Voicing.UnvoicedThreshold, cfg.Voicing.VoicedThreshold)
	}
	if cfg.Display.MaxHz <= cfg.Display.MinHz {
		t.Errorf("display range stayed inverted: [%v, %v]", cfg.Display.MinHz, cfg.Display.MaxHz)
	}
}

func TestSanitizeRespectsNyquist(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 8000
	cfg.Pitch.MaxHz = 10000
	cfg.Transform.ZoomCenterHz = 20000
	cfg.Transform.CQTMaxHz = 20000
	cfg.Display.MaxHz = 22000
	cfg.Sanitize()

	nyquist := float64(cfg.SampleRate) / 2
	if cfg.Pitch.MaxHz > nyquist/2 {
		t.Errorf("Pitch.MaxHz = %v above half-nyquist %v", cfg.Pitch.MaxHz, nyquist/2)
	}
	if cfg.Transform.ZoomCenterHz > nyquist {
		t.Errorf("ZoomCenterHz = %v above nyquist", cfg.Transform.ZoomCenterHz)
	}
	if cfg.Transform.CQTMaxHz > nyquist {
		t.Errorf("CQTMaxHz = %v above nyquist", cfg.Transform.CQTMaxHz)
	}
	if cfg.Display.MaxHz > nyquist {
		t.Errorf("Display.MaxHz = %v above nyquist", cfg.Display.MaxHz)
	}
}

func TestFormantPresets(t *testing.T) {
	for _, preset := range []string{"speech", "soprano", "alto", "tenor", "bass"} {
		cfg := Default()
		cfg.Formant.Preset = preset
		cfg.Formant.F1MinHz = 0
		cfg.Formant.F1MaxHz = 0
		cfg.Formant.F2MinHz = 0
		cfg.Formant.F2MaxHz = 0
		cfg.Sanitize()

		f := cfg.Formant
		if f.F1MinHz <= 0 || f.F1MaxHz <= f.F1MinHz {
			t.Errorf("%s: F1 band [%v, %v] invalid", preset, f.F1MinHz, f.F1MaxHz)
		}
		if f.F2MinHz < f.F1MinHz || f.F2MaxHz <= f.F2MinHz {
			t.Errorf("%s: F2 band [%v, %v] invalid", preset, f.F2MinHz, f.F2MaxHz)
		}
	}
}

func TestFormantPresetKeepsExplicitBands(t *testing.T) {
	cfg := Default()
	cfg.Formant.Preset = "soprano"
	cfg.Formant.F1MinHz = 333
	cfg.Sanitize()
	if cfg.Formant.F1MinHz != 333 {
		t.Errorf("explicit F1MinHz overridden: %v", cfg.Formant.F1MinHz)
	}
}

func TestUnknownPresetFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Formant.Preset = "baritone"
	cfg.Sanitize()
	if cfg.Formant.Preset != "speech" {
		t.Errorf("Preset = %q, want speech", cfg.Formant.Preset)
	}
}

func TestEnhanceAmountsClamped(t *testing.T) {
	cfg := Default()
	cfg.Enhance.NoiseReduction = 3.0
	cfg.Enhance.HPSS = -1.0
	cfg.Sanitize()
	if cfg.Enhance.NoiseReduction != 1.0 {
		t.Errorf("NoiseReduction = %v, want 1.0", cfg.Enhance.NoiseReduction)
	}
	if cfg.Enhance.HPSS != 0.0 {
		t.Errorf("HPSS = %v, want 0.0", cfg.Enhance.HPSS)
	}
}

func TestZeroVoicingWeightsRecovered(t *testing.T) {
	cfg := Default()
	cfg.Voicing.PeriodicityWeight = 0
	cfg.Voicing.FlatnessWeight = 0
	cfg.Voicing.ZCRWeight = 0
	cfg.Voicing.EnergyWeight = 0
	cfg.Sanitize()
	sum := cfg.Voicing.PeriodicityWeight + cfg.Voicing.FlatnessWeight +
		cfg.Voicing.ZCRWeight + cfg.Voicing.EnergyWeight
	if sum <= 0 {
		t.Error("all-zero voicing weights survived Sanitize")
	}
}
