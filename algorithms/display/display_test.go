package display

import (
	"math"
	"testing"

	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

func TestScaleRoundTrip(t *testing.T) {
	scales := []Scale{ScaleLinear, ScaleLog, ScaleMel, ScaleERB, ScaleBark}
	freqs := []float64{50, 220, 1000, 4000, 12000}
	for _, s := range scales {
		for _, f := range freqs {
			got := s.ToHz(s.ToScale(f))
			if math.Abs(got-f) > 1e-6*f {
				t.Errorf("scale %v: round trip %v -> %v", s, f, got)
			}
		}
	}
}

func TestScaleMonotonic(t *testing.T) {
	scales := []Scale{ScaleLinear, ScaleLog, ScaleMel, ScaleERB, ScaleBark}
	for _, s := range scales {
		prev := s.ToScale(20)
		for f := 40.0; f <= 20000; f *= 1.5 {
			v := s.ToScale(f)
			if v <= prev {
				t.Fatalf("scale %v not increasing at %v Hz", s, f)
			}
			prev = v
		}
	}
}

func TestScaleReferenceValues(t *testing.T) {
	// 1000 Hz anchors: 1000 mel by construction of the mel formula.
	if mel := ScaleMel.ToScale(1000); math.Abs(mel-999.99) > 1 {
		t.Errorf("mel(1000 Hz) = %v, want about 1000", mel)
	}
	// Traunmueller: 1000 Hz is about 8.5 Bark.
	if bark := ScaleBark.ToScale(1000); math.Abs(bark-8.5) > 0.2 {
		t.Errorf("bark(1000 Hz) = %v, want about 8.5", bark)
	}
}

func TestScaleByName(t *testing.T) {
	cases := map[string]Scale{
		"linear": ScaleLinear, "log": ScaleLog, "erb": ScaleERB,
		"bark": ScaleBark, "mel": ScaleMel, "bogus": ScaleMel,
	}
	for name, want := range cases {
		if got := ScaleByName(name); got != want {
			t.Errorf("ScaleByName(%q) = %v, want %v", name, got, want)
		}
	}
}

func uniformMapping(bins int, stepHz float64) *spectral.BinMapping {
	return &spectral.BinMapping{Uniform: true, StepHz: stepHz, NumBins: bins}
}

func TestMapperEveryBinCovered(t *testing.T) {
	// 1025 analysis bins at ~23.4 Hz; 256 mel display bins down to 50 Hz.
	// The lowest mel bins are narrower than one analysis bin and must
	// still borrow a neighbor.
	mapping := uniformMapping(1025, 23.4)
	m := NewMapper(mapping, 256, ScaleMel, 50, 12000)

	for d := 0; d < m.NumBins(); d++ {
		if m.hi[d] < m.lo[d] {
			t.Fatalf("display bin %d covers no analysis bins", d)
		}
		if m.lo[d] < 0 || m.hi[d] >= mapping.NumBins {
			t.Fatalf("display bin %d range [%d,%d] out of bounds", d, m.lo[d], m.hi[d])
		}
	}
}

func TestMapperMaxHold(t *testing.T) {
	mapping := uniformMapping(1025, 23.4)
	m := NewMapper(mapping, 64, ScaleLinear, 0, 12000)

	mags := make([]float64, 1025)
	mags[500] = 1.0 // single narrowband peak
	linear, db := m.Process(mags)

	peak := 0
	for i, v := range linear {
		if v > linear[peak] {
			peak = i
		}
	}
	if linear[peak] != 1.0 {
		t.Errorf("max-hold lost the peak: %v", linear[peak])
	}
	// The display bin containing analysis bin 500 must carry it.
	freq := mapping.Freq(500)
	centers := m.Centers()
	if math.Abs(centers[peak]-freq) > (centers[1]-centers[0])*1.5 {
		t.Errorf("peak at display center %.0f Hz, want near %.0f", centers[peak], freq)
	}
	if db[peak] != 0 {
		t.Errorf("peak dB = %v, want 0 for unit magnitude", db[peak])
	}
}

func TestMapperCentersMonotonic(t *testing.T) {
	mapping := uniformMapping(1025, 23.4)
	for _, s := range []Scale{ScaleLinear, ScaleLog, ScaleMel, ScaleERB, ScaleBark} {
		m := NewMapper(mapping, 128, s, 50, 12000)
		centers := m.Centers()
		for i := 1; i < len(centers); i++ {
			if centers[i] <= centers[i-1] {
				t.Fatalf("scale %v: centers not increasing at %d", s, i)
			}
		}
	}
}

func TestMapperProcessNoAlloc(t *testing.T) {
	mapping := uniformMapping(1025, 23.4)
	m := NewMapper(mapping, 256, ScaleMel, 50, 12000)
	mags := make([]float64, 1025)
	for i := range mags {
		mags[i] = float64(i % 13)
	}
	m.Process(mags)

	allocs := testing.AllocsPerRun(50, func() {
		m.Process(mags)
	})
	if allocs != 0 {
		t.Errorf("Process allocates %v times per call, want 0", allocs)
	}
}
