package common

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5,0,1) = %v, want 1", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5,0,1) = %v, want 0", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp(0.5,0,1) = %v, want 0.5", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024, 1025: 2048}
	for in, want := range cases {
		if got := NextPowerOfTwo(in); got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCentsBetween(t *testing.T) {
	if got := CentsBetween(440, 880); math.Abs(got-1200) > 1e-9 {
		t.Errorf("octave = %v cents, want 1200", got)
	}
	if got := CentsBetween(440, 440); got != 0 {
		t.Errorf("unison = %v cents, want 0", got)
	}
}

func TestParabolicPeakMaximum(t *testing.T) {
	// Samples of -(x-2.3)^2: vertex at 2.3.
	f := func(x float64) float64 { return -(x - 2.3) * (x - 2.3) }
	data := []float64{f(0), f(1), f(2), f(3), f(4)}
	got := ParabolicPeak(data, 2)
	if math.Abs(got-2.3) > 1e-9 {
		t.Errorf("peak = %v, want 2.3", got)
	}
}

func TestParabolicPeakMinimum(t *testing.T) {
	// The same interpolation refines minima, used by the CMND dip search.
	f := func(x float64) float64 { return (x - 1.7) * (x - 1.7) }
	data := []float64{f(0), f(1), f(2), f(3)}
	got := ParabolicPeak(data, 2)
	if math.Abs(got-1.7) > 1e-9 {
		t.Errorf("dip = %v, want 1.7", got)
	}
}

func TestParabolicPeakEdges(t *testing.T) {
	data := []float64{3, 2, 1}
	if got := ParabolicPeak(data, 0); got != 0 {
		t.Errorf("edge idx 0 = %v, want 0", got)
	}
	if got := ParabolicPeak(data, 2); got != 2 {
		t.Errorf("edge idx 2 = %v, want 2", got)
	}
}

func TestLinearToDBFloor(t *testing.T) {
	if got := LinearToDB(0); math.IsInf(got, -1) {
		t.Error("LinearToDB(0) must be floored, got -Inf")
	}
	if got := LinearToDB(1); got != 0 {
		t.Errorf("LinearToDB(1) = %v, want 0", got)
	}
}
