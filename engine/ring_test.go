package engine

import (
	"sync"
	"testing"
)

func TestRingRoundUpAndBasicIO(t *testing.T) {
	r := NewRing(1000)
	if r.Cap() != 1024 {
		t.Errorf("Cap = %d, want 1024", r.Cap())
	}

	in := []float64{1, 2, 3, 4, 5}
	if n := r.Write(in); n != 5 {
		t.Fatalf("Write = %d, want 5", n)
	}
	if r.Len() != 5 {
		t.Errorf("Len = %d, want 5", r.Len())
	}

	out := make([]float64, 5)
	if n := r.Read(out); n != 5 {
		t.Fatalf("Read = %d, want 5", n)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestRingOverflowDropsExcess(t *testing.T) {
	r := NewRing(8)
	in := make([]float64, 20)
	for i := range in {
		in[i] = float64(i)
	}
	if n := r.Write(in); n != 8 {
		t.Errorf("Write into a full ring = %d, want 8", n)
	}
	// The kept samples are the earliest ones.
	out := make([]float64, 8)
	r.Read(out)
	for i := range out {
		if out[i] != float64(i) {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], float64(i))
		}
	}
}

func TestRingWraparound(t *testing.T) {
	r := NewRing(8)
	buf := make([]float64, 6)

	// Cycle enough data through to wrap the indices several times.
	val := 0.0
	for n := 0; n < 10; n++ {
		in := []float64{val, val + 1, val + 2, val + 3, val + 4, val + 5}
		if n := r.Write(in); n != 6 {
			t.Fatalf("Write = %d, want 6", n)
		}
		if n := r.Read(buf); n != 6 {
			t.Fatalf("Read = %d, want 6", n)
		}
		for i := range buf {
			if buf[i] != val+float64(i) {
				t.Fatalf("wraparound corrupted: buf[%d] = %v, want %v", i, buf[i], val+float64(i))
			}
		}
		val += 6
	}
}

func TestRingDrain(t *testing.T) {
	r := NewRing(16)
	r.Write(make([]float64, 10))
	r.Drain()
	if r.Len() != 0 {
		t.Errorf("Len after Drain = %d, want 0", r.Len())
	}
}

func TestRingConcurrentSPSC(t *testing.T) {
	r := NewRing(256)
	const total = 100000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		block := make([]float64, 64)
		sent := 0
		for sent < total {
			n := 64
			if total-sent < n {
				n = total - sent
			}
			for i := 0; i < n; i++ {
				block[i] = float64(sent + i)
			}
			w := r.Write(block[:n])
			sent += w
		}
	}()

	var bad int
	go func() {
		defer wg.Done()
		block := make([]float64, 64)
		next := 0.0
		received := 0
		for received < total {
			n := r.Read(block)
			for i := 0; i < n; i++ {
				if block[i] != next {
					bad++
				}
				next++
			}
			received += n
		}
	}()

	wg.Wait()
	if bad != 0 {
		t.Errorf("%d out-of-order samples through the SPSC ring", bad)
	}
}

func TestRingWriteReadNoAlloc(t *testing.T) {
	r := NewRing(1024)
	in := make([]float64, 256)
	out := make([]float64, 256)
	allocs := testing.AllocsPerRun(100, func() {
		r.Write(in)
		r.Read(out)
	})
	if allocs != 0 {
		t.Errorf("Write+Read allocates %v times, want 0", allocs)
	}
}
