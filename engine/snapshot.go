package engine

import (
	"sync/atomic"

	"github.com/RyanBlaney/vocalis/algorithms/formant"
	"github.com/RyanBlaney/vocalis/algorithms/pitch"
	"github.com/RyanBlaney/vocalis/algorithms/voicing"
)

// Marker flags one aspect of the analysis whose semantics changed
// mid-stream. Consumers use them to mark a visual seam instead of
// attributing the discontinuity to the signal.
type Marker uint32

const (
	MarkerTransformChange Marker = 1 << iota
	MarkerResolutionChange
	MarkerFreqRangeChange
	MarkerWindowChange
	MarkerFilterChange
	MarkerBufferDrop
	MarkerTimeWindowChange
	MarkerOverlapChange
)

// Has reports whether all flags in m are set.
func (f Marker) Has(m Marker) bool { return f&m == m }

// Snapshot is one complete frame of published analysis output.
type Snapshot struct {
	FrameIndex uint64  `json:"frame_index"`
	TimeSec    float64 `json:"time_sec"`

	Pitch   pitch.Estimate `json:"pitch"`
	CPPdB   float64        `json:"cpp_db"`
	Voicing voicing.Result `json:"voicing"`
	Formant formant.Result `json:"formant"`
	HNRdB   float64        `json:"hnr_db"`

	// DisplayDB holds the mapped display spectrum in dB.
	DisplayDB []float64 `json:"display_db"`
	Markers   Marker    `json:"markers"`
}

// copyFrom deep-copies src, growing the display slice only when the bin
// count changed (a reconfigure, never the hot path).
func (s *Snapshot) copyFrom(src *Snapshot) {
	display := s.DisplayDB
	*s = *src
	if cap(display) < len(src.DisplayDB) {
		display = make([]float64, len(src.DisplayDB))
	}
	display = display[:len(src.DisplayDB)]
	copy(display, src.DisplayDB)
	s.DisplayDB = display
}

// snapshotStore publishes snapshots from the analysis goroutine to any
// number of readers without locks. The writer alternates between two
// buffers and flips an index atomically; a per-buffer sequence counter
// (odd while a write is in flight) lets a slow reader detect the rare
// case where the writer lapped it mid-copy and retry.
type snapshotStore struct {
	bufs [2]Snapshot
	seqs [2]atomic.Uint64
	idx  atomic.Uint32
	any  atomic.Bool
}

// publish makes src the latest snapshot. Writer side only.
func (st *snapshotStore) publish(src *Snapshot) {
	next := 1 - st.idx.Load()
	st.seqs[next].Add(1) // odd: write in flight
	st.bufs[next].copyFrom(src)
	st.seqs[next].Add(1) // even: stable
	st.idx.Store(next)
	st.any.Store(true)
}

// read copies the latest snapshot into dst, returning false when nothing
// has been published yet.
func (st *snapshotStore) read(dst *Snapshot) bool {
	if !st.any.Load() {
		return false
	}
	for {
		i := st.idx.Load()
		seq := st.seqs[i].Load()
		if seq&1 != 0 {
			continue
		}
		dst.copyFrom(&st.bufs[i])
		if st.seqs[i].Load() == seq {
			return true
		}
	}
}
