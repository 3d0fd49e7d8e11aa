package windowing

// Window is the contract shared by all window functions. Coefficients are
// generated once at construction; application never allocates.
type Window interface {
	// ApplyTo writes src*window into dst. Both slices must have the
	// window's length.
	ApplyTo(dst, src []float64)

	// ApplyInPlace multiplies signal by the window coefficients
	ApplyInPlace(signal []float64) error

	// Coefficients returns the underlying coefficient slice (not a copy)
	Coefficients() []float64

	// Size returns the window length
	Size() int

	// Type returns the window type name
	Type() string
}

// New creates a window by name. Unknown names fall back to Hann.
func New(name string, size int) Window {
	switch name {
	case "hamming":
		return NewHamming(size, true)
	case "blackman_harris":
		return NewBlackmanHarris(size, true)
	default:
		return NewHann(size, true)
	}
}

// applyTo is the shared coefficient multiply used by every window type.
func applyTo(dst, src, coeffs []float64) {
	n := len(coeffs)
	if len(src) < n {
		n = len(src)
	}
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = src[i] * coeffs[i]
	}
}
