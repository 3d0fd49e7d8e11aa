package voicing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/vocalis/algorithms/spectral"
)

const (
	testSampleRate = 48000
	testFrameSize  = 2048
)

func harmonicTone(f0, amp float64, n int) []float64 {
	out := make([]float64, n)
	for h := 1; h <= 5; h++ {
		a := amp / float64(h)
		for i := range out {
			out[i] += a * math.Sin(2*math.Pi*f0*float64(h)*float64(i)/testSampleRate)
		}
	}
	return out
}

func quietNoise(amp float64, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * (rng.Float64()*2 - 1)
	}
	return out
}

type fixture struct {
	det *Detector
	tr  *spectral.FFTTransform
}

func newFixture() *fixture {
	return &fixture{
		det: NewDetector(DefaultParams(testSampleRate)),
		tr:  spectral.NewFFTTransform(testSampleRate, testFrameSize, "hann"),
	}
}

func (f *fixture) process(frame []float64, pitchConf, cppDB float64) Result {
	f.tr.Forward(frame)
	return f.det.Process(frame, f.tr.Magnitudes(), f.tr.Mapping(), pitchConf, cppDB)
}

func TestStartsInSilence(t *testing.T) {
	f := newFixture()
	res := f.process(make([]float64, testFrameSize), 0, 0)
	if res.State != Silence {
		t.Errorf("state on silent input = %v, want Silence", res.State)
	}
}

func TestVoicedTone(t *testing.T) {
	f := newFixture()
	// Prime the noise floor with quiet frames first.
	for i := 0; i < 10; i++ {
		f.process(quietNoise(1e-4, testFrameSize, int64(i)), 0, 0)
	}

	var res Result
	tone := harmonicTone(220, 0.5, testFrameSize)
	for n := 0; n < 10; n++ {
		res = f.process(tone, 0.9, 15)
	}
	if res.State != Voiced {
		t.Fatalf("state on a loud harmonic tone = %v (score %.2f), want Voiced", res.State, res.Score)
	}
	if res.Score < 0 || res.Score > 1 {
		t.Errorf("score %v outside [0,1]", res.Score)
	}
	if res.EnergyDB <= res.NoiseFloorDB {
		t.Errorf("energy %v dB must exceed floor %v dB when voiced", res.EnergyDB, res.NoiseFloorDB)
	}
}

func TestHangoverHoldsThroughDip(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		f.process(quietNoise(1e-4, testFrameSize, int64(i)), 0, 0)
	}
	tone := harmonicTone(220, 0.5, testFrameSize)
	for n := 0; n < 10; n++ {
		f.process(tone, 0.9, 15)
	}
	if f.det.State() != Voiced {
		t.Fatal("setup did not reach Voiced")
	}

	// A brief weak frame should not immediately drop the state.
	res := f.process(harmonicTone(220, 0.02, testFrameSize), 0.4, 5)
	if res.State != Voiced {
		t.Errorf("state after a one-frame dip = %v, want Voiced held by hangover", res.State)
	}
}

func TestFallsBackToSilence(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		f.process(quietNoise(1e-4, testFrameSize, int64(i)), 0, 0)
	}
	tone := harmonicTone(220, 0.5, testFrameSize)
	for n := 0; n < 10; n++ {
		f.process(tone, 0.9, 15)
	}

	var res Result
	for i := 0; i < 60; i++ {
		res = f.process(quietNoise(1e-4, testFrameSize, int64(100+i)), 0, 0)
	}
	if res.State != Silence {
		t.Errorf("state after sustained quiet = %v, want Silence", res.State)
	}
}

func TestHysteresisNoFlapping(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		f.process(quietNoise(1e-4, testFrameSize, int64(i)), 0, 0)
	}

	// A borderline signal must not alternate states every frame.
	borderline := harmonicTone(220, 0.05, testFrameSize)
	var states []State
	for n := 0; n < 40; n++ {
		res := f.process(borderline, 0.55, 8)
		states = append(states, res.State)
	}
	transitions := 0
	for i := 1; i < len(states); i++ {
		if states[i] != states[i-1] {
			transitions++
		}
	}
	if transitions > 4 {
		t.Errorf("%d state transitions on a steady borderline signal, want few", transitions)
	}
}

func TestNoiseFloorAsymmetry(t *testing.T) {
	// The floor rises slowly toward sustained loud input and falls
	// quickly when the signal drops, so speech does not lift the floor
	// into silencing itself while quiet gaps recapture it fast.
	f := newFixture()
	var res Result
	for i := 0; i < 10; i++ {
		res = f.process(quietNoise(1e-4, testFrameSize, int64(i)), 0, 0)
	}
	quietFloor := res.NoiseFloorDB

	tone := harmonicTone(220, 0.5, testFrameSize)
	for n := 0; n < 10; n++ {
		res = f.process(tone, 0.9, 15)
	}
	gap := res.EnergyDB - quietFloor
	risen := res.NoiseFloorDB - quietFloor
	if gap <= 0 {
		t.Fatal("tone not louder than the primed floor")
	}
	if risen > 0.3*gap {
		t.Errorf("floor rose %.1f of a %.1f dB gap over 10 loud frames, want a slow rise", risen, gap)
	}

	for i := 0; i < 10; i++ {
		res = f.process(quietNoise(1e-4, testFrameSize, int64(100+i)), 0, 0)
	}
	if remaining := res.NoiseFloorDB - quietFloor; remaining > 0.1*risen {
		t.Errorf("floor still %.1f dB above the quiet level after 10 quiet frames, want a fast fall", remaining)
	}
}

func TestReset(t *testing.T) {
	f := newFixture()
	tone := harmonicTone(220, 0.5, testFrameSize)
	for n := 0; n < 10; n++ {
		f.process(tone, 0.9, 15)
	}
	f.det.Reset()
	if f.det.State() != Silence {
		t.Errorf("state after Reset = %v, want Silence", f.det.State())
	}
}

func TestProcessNoAlloc(t *testing.T) {
	f := newFixture()
	tone := harmonicTone(220, 0.5, testFrameSize)
	f.tr.Forward(tone)
	mags, mapping := f.tr.Magnitudes(), f.tr.Mapping()
	f.det.Process(tone, mags, mapping, 0.9, 15)

	allocs := testing.AllocsPerRun(50, func() {
		f.det.Process(tone, mags, mapping, 0.9, 15)
	})
	if allocs != 0 {
		t.Errorf("Process allocates %v times per call, want 0", allocs)
	}
}

func TestStateString(t *testing.T) {
	if Silence.String() != "silence" || Unvoiced.String() != "unvoiced" || Voiced.String() != "voiced" {
		t.Error("State.String mismatch")
	}
}
