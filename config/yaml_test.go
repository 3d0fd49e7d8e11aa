package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocalis.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
sample_rate: 44100
hop_size: 256
transform:
  type: cqt
  bins_per_octave: 48
pitch:
  algorithm: probabilistic
  min_hz: 80
enhancement:
  noise_reduction: 0.8
display:
  scale: mel
  bins: 256
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.HopSize != 256 {
		t.Errorf("HopSize = %d, want 256", cfg.HopSize)
	}
	if cfg.Transform.Type != TransformCQT {
		t.Errorf("Transform.Type = %q, want cqt", cfg.Transform.Type)
	}
	if cfg.Transform.BinsPerOctave != 48 {
		t.Errorf("BinsPerOctave = %d, want 48", cfg.Transform.BinsPerOctave)
	}
	if cfg.Pitch.Algorithm != PitchProbabilistic {
		t.Errorf("Pitch.Algorithm = %q, want probabilistic", cfg.Pitch.Algorithm)
	}
	if cfg.Pitch.MinHz != 80 {
		t.Errorf("Pitch.MinHz = %v, want 80", cfg.Pitch.MinHz)
	}
	if cfg.Enhance.NoiseReduction != 0.8 {
		t.Errorf("NoiseReduction = %v, want 0.8", cfg.Enhance.NoiseReduction)
	}
	if cfg.Display.Scale != ScaleMel || cfg.Display.Bins != 256 {
		t.Errorf("display = (%q, %d), want (mel, 256)", cfg.Display.Scale, cfg.Display.Bins)
	}

	// Untouched keys keep their defaults.
	if cfg.FrameSize != DefaultFrameSize {
		t.Errorf("FrameSize = %d, want default %d", cfg.FrameSize, DefaultFrameSize)
	}
	if cfg.Formant.Method != LPCLevinson {
		t.Errorf("Formant.Method = %q, want default levinson", cfg.Formant.Method)
	}
}

func TestLoadFileSanitizes(t *testing.T) {
	path := writeConfigFile(t, `
frame_size: 3000
pitch:
  algorithm: nonsense
enhancement:
  hpss: 5.0
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FrameSize != 4096 {
		t.Errorf("FrameSize = %d, want rounded up to 4096", cfg.FrameSize)
	}
	if cfg.Pitch.Algorithm != PitchYIN {
		t.Errorf("Pitch.Algorithm = %q, want yin fallback", cfg.Pitch.Algorithm)
	}
	if cfg.Enhance.HPSS != 1.0 {
		t.Errorf("HPSS = %v, want clamped to 1.0", cfg.Enhance.HPSS)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile on a missing path returned nil error")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := writeConfigFile(t, "sample_rate: [not, an, int]\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile on malformed YAML returned nil error")
	}
}
