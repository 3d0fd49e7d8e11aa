package engine

import (
	"testing"

	"github.com/RyanBlaney/vocalis/algorithms/pitch"
)

func TestMarkerHas(t *testing.T) {
	m := MarkerWindowChange | MarkerBufferDrop
	if !m.Has(MarkerWindowChange) {
		t.Error("Has(MarkerWindowChange) = false")
	}
	if !m.Has(MarkerWindowChange | MarkerBufferDrop) {
		t.Error("Has(both set flags) = false")
	}
	if m.Has(MarkerTransformChange) {
		t.Error("Has(unset flag) = true")
	}
	if m.Has(MarkerWindowChange | MarkerTransformChange) {
		t.Error("Has with one flag missing = true")
	}
}

func TestSnapshotStoreReadBeforePublish(t *testing.T) {
	var st snapshotStore
	var dst Snapshot
	if st.read(&dst) {
		t.Error("read before any publish = true, want false")
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	var st snapshotStore
	src := Snapshot{
		FrameIndex: 42,
		TimeSec:    1.25,
		Pitch:      pitch.Estimate{Frequency: 220, Confidence: 0.9, Voiced: true},
		CPPdB:      14.5,
		HNRdB:      12.0,
		DisplayDB:  []float64{-60, -40, -20, 0},
		Markers:    MarkerBufferDrop,
	}
	st.publish(&src)

	var dst Snapshot
	if !st.read(&dst) {
		t.Fatal("read after publish = false")
	}
	if dst.FrameIndex != 42 || dst.TimeSec != 1.25 {
		t.Errorf("frame header = (%d, %v), want (42, 1.25)", dst.FrameIndex, dst.TimeSec)
	}
	if dst.Pitch.Frequency != 220 || !dst.Pitch.Voiced {
		t.Errorf("pitch not carried: %+v", dst.Pitch)
	}
	if !dst.Markers.Has(MarkerBufferDrop) {
		t.Error("markers not carried")
	}
	if len(dst.DisplayDB) != 4 || dst.DisplayDB[2] != -20 {
		t.Errorf("display spectrum not copied: %v", dst.DisplayDB)
	}

	// dst must be a deep copy, not an alias of the store's buffer.
	dst.DisplayDB[0] = 99
	var again Snapshot
	st.read(&again)
	if again.DisplayDB[0] != -60 {
		t.Error("reader slice aliases the store buffer")
	}
}

func TestSnapshotStoreLatestWins(t *testing.T) {
	var st snapshotStore
	src := Snapshot{DisplayDB: make([]float64, 8)}
	for i := uint64(1); i <= 5; i++ {
		src.FrameIndex = i
		st.publish(&src)
	}
	var dst Snapshot
	st.read(&dst)
	if dst.FrameIndex != 5 {
		t.Errorf("FrameIndex = %d, want 5", dst.FrameIndex)
	}
}

func TestSnapshotStoreSteadyStateNoAlloc(t *testing.T) {
	var st snapshotStore
	src := Snapshot{DisplayDB: make([]float64, 256)}
	st.publish(&src)

	dst := Snapshot{DisplayDB: make([]float64, 256)}
	st.read(&dst) // size the reader's slice once

	allocs := testing.AllocsPerRun(100, func() {
		st.publish(&src)
		st.read(&dst)
	})
	if allocs != 0 {
		t.Errorf("publish+read allocates %v times, want 0", allocs)
	}
}
