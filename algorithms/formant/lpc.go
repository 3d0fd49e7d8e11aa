package formant

import (
	"math"
)

// LPCMethod selects the coefficient estimation recursion.
type LPCMethod int

const (
	// MethodLevinson solves the autocorrelation normal equations with the
	// Levinson-Durbin recursion. Fast and well conditioned for voiced speech.
	MethodLevinson LPCMethod = iota
	// MethodBurg minimizes forward and backward prediction error jointly.
	// Sharper spectral peaks on short frames at slightly higher cost.
	MethodBurg
)

// LPCAnalyzer estimates all-pole vocal tract coefficients from a signal
// frame. LPC models the vocal tract as an all-pole filter whose resonances
// correspond to formants (Makhoul 1975).
//
// All working buffers are allocated at construction so Analyze performs no
// allocations.
type LPCAnalyzer struct {
	order     int
	frameSize int
	method    LPCMethod

	coeffs   []float64 // a[0..order], a[0] = 1
	autocorr []float64 // R[0..order]
	tmp      []float64 // recursion scratch, order+1

	// Burg forward/backward prediction error buffers.
	ef []float64
	eb []float64
}

// NewLPCAnalyzer creates an analyzer for the given model order and frame
// size. Order follows the 2 + sampleRate/1000 rule of thumb when zero.
func NewLPCAnalyzer(order, frameSize, sampleRate int, method LPCMethod) *LPCAnalyzer {
	if order <= 0 {
		order = 2 + sampleRate/1000
	}
	if order >= frameSize {
		order = frameSize - 1
	}
	return &LPCAnalyzer{
		order:     order,
		frameSize: frameSize,
		method:    method,
		coeffs:    make([]float64, order+1),
		autocorr:  make([]float64, order+1),
		tmp:       make([]float64, order+1),
		ef:        make([]float64, frameSize),
		eb:        make([]float64, frameSize),
	}
}

// Order returns the model order.
func (l *LPCAnalyzer) Order() int { return l.order }

// Analyze estimates LPC coefficients for the frame. It returns false when
// the frame is degenerate (too short, silent, or the recursion loses
// numerical stability); Coefficients is unspecified in that case.
func (l *LPCAnalyzer) Analyze(frame []float64) bool {
	if len(frame) <= l.order {
		return false
	}
	if l.method == MethodBurg {
		return l.burg(frame)
	}
	return l.levinsonDurbin(frame)
}

// Coefficients returns the current coefficient vector a[0..order] with
// a[0] = 1. The slice is reused across calls to Analyze.
func (l *LPCAnalyzer) Coefficients() []float64 { return l.coeffs }

func (l *LPCAnalyzer) levinsonDurbin(frame []float64) bool {
	n := len(frame)
	r := l.autocorr
	for lag := 0; lag <= l.order; lag++ {
		sum := 0.0
		for i := 0; i < n-lag; i++ {
			sum += frame[i] * frame[i+lag]
		}
		r[lag] = sum
	}
	if r[0] <= 0 {
		return false
	}

	a := l.coeffs
	for i := range a {
		a[i] = 0
	}
	a[0] = 1
	e := r[0]

	// Polynomial convention A(z) = 1 + sum a_k z^-k, matching the Burg
	// recursion so root finding treats both methods identically.
	for i := 1; i <= l.order; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc += a[j] * r[i-j]
		}
		if e <= 1e-12*r[0] {
			// Prediction error collapsed; the model order exceeds the
			// signal's effective rank. Keep the coefficients found so far.
			for j := i; j <= l.order; j++ {
				a[j] = 0
			}
			return true
		}
		k := -acc / e

		a[i] = k
		half := i / 2
		for j := 1; j <= half; j++ {
			aj, am := a[j], a[i-j]
			a[j] = aj + k*am
			if j != i-j {
				a[i-j] = am + k*aj
			}
		}

		e *= 1 - k*k
		if !isFinite(e) {
			return false
		}
	}
	return true
}

func (l *LPCAnalyzer) burg(frame []float64) bool {
	n := len(frame)
	ef, eb := l.ef[:n], l.eb[:n]
	copy(ef, frame)
	copy(eb, frame)

	a := l.coeffs
	for i := range a {
		a[i] = 0
	}
	a[0] = 1

	energy := 0.0
	for _, v := range frame {
		energy += v * v
	}
	if energy <= 0 {
		return false
	}

	aNew := l.tmp
	for m := 1; m <= l.order; m++ {
		num, den := 0.0, 0.0
		for i := m; i < n; i++ {
			num += ef[i] * eb[i-1]
			den += ef[i]*ef[i] + eb[i-1]*eb[i-1]
		}
		if den <= 1e-12 {
			for j := m; j <= l.order; j++ {
				a[j] = 0
			}
			return true
		}
		k := -2 * num / den

		aNew[m] = k
		for i := 1; i < m; i++ {
			aNew[i] = a[i] + k*a[m-i]
		}
		copy(a[1:m+1], aNew[1:m+1])

		for i := n - 1; i >= m; i-- {
			f, b := ef[i], eb[i-1]
			ef[i] = f + k*b
			eb[i-1] = b + k*f
		}
	}

	for _, v := range a {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
