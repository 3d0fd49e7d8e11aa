package engine

import (
	"sync/atomic"

	"github.com/RyanBlaney/vocalis/algorithms/common"
)

// Ring is a lock-free single-producer single-consumer sample buffer.
// The audio callback writes, the analysis goroutine reads; neither side
// ever blocks. Capacity is rounded up to a power of two so index math is
// a mask.
type Ring struct {
	buf  []float64
	mask uint64

	head atomic.Uint64 // next write position, producer-owned
	tail atomic.Uint64 // next read position, consumer-owned
}

// NewRing creates a ring holding at least capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		capacity = 2
	}
	capacity = common.NextPowerOfTwo(capacity)
	return &Ring{
		buf:  make([]float64, capacity),
		mask: uint64(capacity - 1),
	}
}

// Cap returns the ring capacity in samples.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of samples available to read.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Write copies as many samples as fit and returns the count written.
// Samples that do not fit are dropped by the caller; Write never blocks.
// Producer side only.
func (r *Ring) Write(samples []float64) int {
	head := r.head.Load()
	tail := r.tail.Load()
	free := len(r.buf) - int(head-tail)
	n := len(samples)
	if n > free {
		n = free
	}
	for i := 0; i < n; i++ {
		r.buf[(head+uint64(i))&r.mask] = samples[i]
	}
	r.head.Store(head + uint64(n))
	return n
}

// Read copies up to len(dst) samples and returns the count read.
// Consumer side only.
func (r *Ring) Read(dst []float64) int {
	head := r.head.Load()
	tail := r.tail.Load()
	n := int(head - tail)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(tail+uint64(i))&r.mask]
	}
	r.tail.Store(tail + uint64(n))
	return n
}

// Drain discards all buffered samples. Consumer side only.
func (r *Ring) Drain() {
	r.tail.Store(r.head.Load())
}
