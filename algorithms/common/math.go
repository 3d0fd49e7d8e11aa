package common

import "math"

// Mean calculates the arithmetic mean of a slice
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// RMS calculates the root mean square of a slice
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

// Clamp constrains a value to the range [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp01 constrains a value to [0, 1]
func Clamp01(value float64) float64 {
	return Clamp(value, 0.0, 1.0)
}

// Lerp performs linear interpolation between a and b
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// IsPowerOfTwo checks if n is a power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// LinearToDB converts a linear amplitude to decibels, with a floor to
// keep all-zero input finite
func LinearToDB(amplitude float64) float64 {
	return 20.0 * math.Log10(math.Max(amplitude, 1e-10))
}

// DBToLinear converts decibels to a linear amplitude
func DBToLinear(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}

// PowerToDB converts a power value to decibels
func PowerToDB(power float64) float64 {
	return 10.0 * math.Log10(math.Max(power, 1e-20))
}

// CentsBetween returns the interval between two frequencies in cents.
// Both frequencies must be positive.
func CentsBetween(f1, f2 float64) float64 {
	return 1200.0 * math.Log2(f2/f1)
}

// ParabolicPeak refines a peak (or valley) index by fitting a parabola
// through data[idx-1..idx+1]. Returns the fractional index; falls back to
// the integer index at array edges or for a degenerate fit.
func ParabolicPeak(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	s0 := data[idx-1]
	s1 := data[idx]
	s2 := data[idx+1]

	denom := 2.0 * (2.0*s1 - s2 - s0)
	if denom == 0 {
		return float64(idx)
	}

	return float64(idx) + (s2-s0)/denom
}
