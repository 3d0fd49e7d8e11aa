package spectral

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	dspfft "github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/vocalis/algorithms/windowing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func peakBin(mags []float64) int {
	best := 0
	for i, m := range mags {
		if m > mags[best] {
			best = i
		}
	}
	return best
}

func TestFFTTransformMatchesReference(t *testing.T) {
	const sr, size = 48000, 2048
	frame := sine(1000, sr, size)

	tr := NewFFTTransform(sr, size, "hann")
	if !tr.Forward(frame) {
		t.Fatal("Forward returned false on a full frame")
	}
	got := tr.Magnitudes()

	// Reference: identical window, then an independent FFT implementation.
	win := windowing.New("hann", size)
	windowed := make([]float64, size)
	win.ApplyTo(windowed, frame)
	ref := dspfft.FFTReal(windowed)

	for i := 0; i <= size/2; i++ {
		want := cmplx.Abs(ref[i])
		if math.Abs(got[i]-want) > 1e-6*(1+want) {
			t.Fatalf("bin %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestFFTTransformPeakFrequency(t *testing.T) {
	const sr, size = 48000, 2048
	tr := NewFFTTransform(sr, size, "hann")
	tr.Forward(sine(1000, sr, size))

	peak := peakBin(tr.Magnitudes())
	freq := tr.Mapping().Freq(peak)
	if math.Abs(freq-1000) > tr.Mapping().StepHz {
		t.Errorf("peak at %.1f Hz, want 1000 within one bin", freq)
	}
}

func TestFFTTransformShortInput(t *testing.T) {
	tr := NewFFTTransform(48000, 2048, "hann")
	if tr.Forward(make([]float64, 100)) {
		t.Error("Forward must return false on a short frame")
	}
	for i, m := range tr.Magnitudes() {
		if m != 0 {
			t.Fatalf("bin %d not zeroed after short input", i)
		}
	}
}

func TestFFTTransformForwardNoAlloc(t *testing.T) {
	const sr, size = 48000, 2048
	tr := NewFFTTransform(sr, size, "hann")
	frame := sine(220, sr, size)
	allocs := testing.AllocsPerRun(50, func() {
		tr.Forward(frame)
	})
	if allocs != 0 {
		t.Errorf("Forward allocates %v times per call, want 0", allocs)
	}
}

func TestZoomFFTPeakInsideBand(t *testing.T) {
	const sr = 48000
	tr := NewZoomFFT(sr, 1024, 8, 1000, "hann")
	frame := sine(1000, sr, tr.MinInputLen())
	if !tr.Forward(frame) {
		t.Fatal("Forward returned false with MinInputLen samples")
	}

	m := tr.Mapping()
	peak := peakBin(tr.Magnitudes())
	freq := m.Freq(peak)
	if math.Abs(freq-1000) > 2*m.StepHz {
		t.Errorf("peak at %.2f Hz, want 1000 within two zoomed bins (step %.3f)", freq, m.StepHz)
	}

	// The zoomed band must actually be narrower than the full spectrum.
	span := m.StepHz * float64(m.NumBins)
	if span > float64(sr)/2/4 {
		t.Errorf("zoom band spans %.0f Hz, want well under Nyquist", span)
	}
}

func TestZoomFFTShortInput(t *testing.T) {
	tr := NewZoomFFT(48000, 1024, 8, 1000, "hann")
	if tr.Forward(make([]float64, tr.MinInputLen()-1)) {
		t.Error("Forward must return false below MinInputLen")
	}
}

func TestCQTPeakNearTone(t *testing.T) {
	const sr = 48000
	tr := NewCQT(sr, 24, 110, 6000)
	frame := sine(440, sr, tr.MinInputLen())
	if !tr.Forward(frame) {
		t.Fatal("Forward returned false with MinInputLen samples")
	}

	m := tr.Mapping()
	freq := m.Freq(peakBin(tr.Magnitudes()))
	// Within a quarter tone of the input.
	if math.Abs(math.Log2(freq/440))*1200 > 50 {
		t.Errorf("peak at %.2f Hz, want 440 within 50 cents", freq)
	}
}

func TestCQTMappingMonotonic(t *testing.T) {
	tr := NewCQT(48000, 24, 110, 6000)
	m := tr.Mapping()
	for i := 1; i < m.NumBins; i++ {
		if m.Freq(i) <= m.Freq(i-1) {
			t.Fatalf("bin centers not increasing at %d", i)
		}
	}
	// BinFor must invert Freq to the nearest bin.
	for _, bin := range []int{0, m.NumBins / 2, m.NumBins - 1} {
		if got := m.BinFor(m.Freq(bin)); got != bin {
			t.Errorf("BinFor(Freq(%d)) = %d", bin, got)
		}
	}
}

func TestSpectralFlatness(t *testing.T) {
	const sr, size = 48000, 2048
	tr := NewFFTTransform(sr, size, "hann")
	sf := NewSpectralFlatness(300, 5000)

	tr.Forward(sine(1000, sr, size))
	tonal := sf.Compute(tr.Magnitudes(), tr.Mapping())

	tr.Forward(whiteNoise(size, 7))
	noisy := sf.Compute(tr.Magnitudes(), tr.Mapping())

	if tonal >= noisy {
		t.Errorf("flatness: tone %v must be below noise %v", tonal, noisy)
	}
	if tonal < 0 || tonal > 1 || noisy < 0 || noisy > 1 {
		t.Errorf("flatness out of [0,1]: tone %v, noise %v", tonal, noisy)
	}

	silent := make([]float64, tr.Mapping().NumBins)
	if got := sf.Compute(silent, tr.Mapping()); got != 1.0 {
		t.Errorf("silent band flatness = %v, want 1", got)
	}
}

func TestZeroCrossingRate(t *testing.T) {
	const sr = 48000
	zcr := NewZeroCrossingRate(sr)
	frame := sine(100, sr, sr) // one second
	got := zcr.Compute(frame)
	// A 100 Hz sine crosses zero 200 times per second.
	if math.Abs(got-200) > 4 {
		t.Errorf("ZCR = %v crossings/sec, want about 200", got)
	}

	norm := zcr.ComputeNormalized(frame)
	if norm < 0 || norm > 1 {
		t.Errorf("normalized ZCR = %v, want [0,1]", norm)
	}
}

func BenchmarkFFTTransformForward(b *testing.B) {
	const sr, size = 48000, 2048
	tr := NewFFTTransform(sr, size, "hann")
	frame := sine(220, sr, size)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		tr.Forward(frame)
	}
}
