package formant

import (
	"math"
	"math/cmplx"
)

const (
	rootSolverEpsilon  = 1e-8
	rootSolverMaxIters = 60
	rootInitRadius     = 0.9
)

// RootSolver finds the complex roots of an LPC polynomial with the
// Aberth-Ehrlich method, which updates all root approximations
// simultaneously and converges cubically for simple roots (Aberth 1973).
//
// Buffers are sized at construction; Solve performs no allocations.
type RootSolver struct {
	degree int
	poly   []complex128 // monic coefficients, poly[i] multiplies z^(degree-i)
	roots  []complex128
}

// NewRootSolver creates a solver for polynomials up to the given degree.
func NewRootSolver(degree int) *RootSolver {
	return &RootSolver{
		degree: degree,
		poly:   make([]complex128, degree+1),
		roots:  make([]complex128, degree),
	}
}

// Solve finds the roots of z^p + a[1]*z^(p-1) + ... + a[p] built from the
// LPC coefficient vector a (a[0] must be 1). It returns nil when the
// coefficients are non-finite or the iteration fails to converge. The
// returned slice is reused across calls.
func (rs *RootSolver) Solve(coeffs []float64) []complex128 {
	p := len(coeffs) - 1
	if p < 1 || p > rs.degree {
		return nil
	}
	for i := 0; i <= p; i++ {
		if !isFinite(coeffs[i]) {
			return nil
		}
		rs.poly[i] = complex(coeffs[i], 0)
	}

	// Trailing zero coefficients contribute roots at the origin, which
	// carry no resonance information. Deflate them away.
	zeros := 0
	for p-zeros > 0 && rs.poly[p-zeros] == 0 {
		zeros++
	}
	p -= zeros
	if p < 1 {
		return nil
	}

	roots := rs.roots[:p]
	// Start on a ring inside the unit circle with an irrational angular
	// offset so no starting point lies on a symmetry axis.
	for k := 0; k < p; k++ {
		theta := 2*math.Pi*float64(k)/float64(p) + 0.7
		roots[k] = cmplx.Rect(rootInitRadius, theta)
	}

	poly := rs.poly[:p+1]
	for iter := 0; iter < rootSolverMaxIters; iter++ {
		maxCorrection := 0.0
		for k := 0; k < p; k++ {
			z := roots[k]

			// Horner evaluation of the polynomial and its derivative.
			val := poly[0]
			der := complex(0, 0)
			for i := 1; i <= p; i++ {
				der = der*z + val
				val = val*z + poly[i]
			}
			if der == 0 {
				roots[k] = z + complex(1e-6, 1e-6)
				maxCorrection = math.Inf(1)
				continue
			}

			newton := val / der
			sum := complex(0, 0)
			for j := 0; j < p; j++ {
				if j == k {
					continue
				}
				diff := z - roots[j]
				if diff == 0 {
					diff = complex(1e-12, 0)
				}
				sum += 1 / diff
			}

			denom := 1 - newton*sum
			if denom == 0 {
				denom = complex(1e-12, 0)
			}
			w := newton / denom
			roots[k] = z - w
			if c := cmplx.Abs(w); c > maxCorrection {
				maxCorrection = c
			}
		}
		if maxCorrection < rootSolverEpsilon {
			return roots
		}
	}

	// Not fully converged; the approximations are still usable for
	// resonance estimation as long as they are finite.
	for _, r := range roots {
		if cmplx.IsNaN(r) || cmplx.IsInf(r) {
			return nil
		}
	}
	return roots
}
