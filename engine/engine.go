package engine

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/vocalis/config"
	"github.com/RyanBlaney/vocalis/logging"
)

const (
	// Starved polls before the analysis goroutine moves from cooperative
	// yielding to a short sleep.
	starveYieldLimit = 64
	starveSleep      = 200 * time.Microsecond

	maxPushBlock = 8192
)

// CounterValues is a point-in-time copy of the diagnostic counters.
type CounterValues struct {
	FramesAnalyzed uint64 `json:"frames_analyzed"`
	DroppedSamples uint64 `json:"dropped_samples"`
	DroppedBlocks  uint64 `json:"dropped_blocks"`
	FormantMisses  uint64 `json:"formant_misses"`
	UnvoicedFrames uint64 `json:"unvoiced_frames"`
	Reconfigures   uint64 `json:"reconfigures"`
}

type counters struct {
	framesAnalyzed atomic.Uint64
	droppedSamples atomic.Uint64
	droppedBlocks  atomic.Uint64
	formantMisses  atomic.Uint64
	unvoicedFrames atomic.Uint64
	reconfigures   atomic.Uint64
}

// Engine runs the full vocal analysis chain on a dedicated goroutine,
// fed by a lock-free ring buffer. The audio callback calls Push, any
// reader calls Latest; neither touches a lock shared with the analysis
// path.
type Engine struct {
	log logging.Logger

	ring    *Ring
	store   snapshotStore
	chain   atomic.Pointer[chain]
	pending atomic.Uint32 // Marker bits awaiting the next published frame
	ctrs    counters

	mono []float64 // producer-side downmix scratch

	mu      sync.Mutex // lifecycle and Reconfigure only
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an engine for the given configuration. cfg is sanitized
// and copied; the caller may reuse it.
func New(cfg *config.Config) *Engine {
	c := *cfg
	c.Sanitize()

	capacity := 8 * c.FrameSize
	if capacity < 1<<15 {
		capacity = 1 << 15
	}

	e := &Engine{
		log:  logging.WithFields(logging.Fields{"component": "engine"}),
		ring: NewRing(capacity),
		mono: make([]float64, maxPushBlock),
	}
	e.chain.Store(newChain(&c))
	return e
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() config.Config {
	return e.chain.Load().cfg
}

// DisplayBinCenters returns the display bin center frequencies in Hz for
// the active configuration.
func (e *Engine) DisplayBinCenters() []float64 {
	return e.chain.Load().mapper.Centers()
}

// Start launches the analysis goroutine.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("engine already running")
	}
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.running = true
	go e.run(e.stopCh, e.doneCh)

	cfg := &e.chain.Load().cfg
	e.log.Info("analysis started", logging.Fields{
		"sample_rate": cfg.SampleRate,
		"frame_size":  cfg.FrameSize,
		"hop_size":    cfg.HopSize,
		"transform":   cfg.Transform.Type,
		"pitch":       cfg.Pitch.Algorithm,
	})
	return nil
}

// Stop shuts the analysis goroutine down, waiting up to timeout for it
// to drain the current hop.
func (e *Engine) Stop(timeout time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}
	close(e.stopCh)
	select {
	case <-e.doneCh:
	case <-time.After(timeout):
		return fmt.Errorf("analysis goroutine did not stop within %v", timeout)
	}
	e.running = false
	e.log.Info("analysis stopped")
	return nil
}

// Push feeds mono samples from the audio callback. It never blocks;
// samples that do not fit the ring are dropped and counted, and the next
// published frame carries a buffer-drop marker.
func (e *Engine) Push(samples []float64) {
	n := e.ring.Write(samples)
	if n < len(samples) {
		e.ctrs.droppedSamples.Add(uint64(len(samples) - n))
		e.ctrs.droppedBlocks.Add(1)
		for {
			old := e.pending.Load()
			if e.pending.CompareAndSwap(old, old|uint32(MarkerBufferDrop)) {
				break
			}
		}
	}
}

// PushInterleaved downmixes interleaved multichannel samples to mono by
// channel average and feeds them to the ring. Blocks larger than the
// internal scratch are split.
func (e *Engine) PushInterleaved(samples []float64, channels int) {
	if channels <= 1 {
		e.Push(samples)
		return
	}
	frames := len(samples) / channels
	for frames > 0 {
		n := frames
		if n > len(e.mono) {
			n = len(e.mono)
		}
		for i := 0; i < n; i++ {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				sum += samples[i*channels+ch]
			}
			e.mono[i] = sum / float64(channels)
		}
		e.Push(e.mono[:n])
		samples = samples[n*channels:]
		frames -= n
	}
}

// Latest copies the most recent published snapshot into dst. It returns
// false until the first frame has been analyzed.
func (e *Engine) Latest(dst *Snapshot) bool {
	return e.store.read(dst)
}

// Backlog returns the number of pushed samples not yet consumed by the
// analysis goroutine.
func (e *Engine) Backlog() int {
	return e.ring.Len()
}

// Counters returns a copy of the diagnostic counters.
func (e *Engine) Counters() CounterValues {
	return CounterValues{
		FramesAnalyzed: e.ctrs.framesAnalyzed.Load(),
		DroppedSamples: e.ctrs.droppedSamples.Load(),
		DroppedBlocks:  e.ctrs.droppedBlocks.Load(),
		FormantMisses:  e.ctrs.formantMisses.Load(),
		UnvoicedFrames: e.ctrs.unvoicedFrames.Load(),
		Reconfigures:   e.ctrs.reconfigures.Load(),
	}
}

// Reconfigure applies a new configuration atomically: every component is
// rebuilt, all tracker state is cleared, and the next published frame
// carries discontinuity markers for each changed aspect. Partial
// reconfiguration is not supported.
func (e *Engine) Reconfigure(cfg *config.Config) {
	c := *cfg
	c.Sanitize()

	e.mu.Lock()
	defer e.mu.Unlock()

	old := &e.chain.Load().cfg
	markers := diffMarkers(old, &c)
	e.chain.Store(newChain(&c))
	for {
		old := e.pending.Load()
		if e.pending.CompareAndSwap(old, old|uint32(markers)) {
			break
		}
	}
	e.ctrs.reconfigures.Add(1)

	e.log.Info("reconfigured", logging.Fields{
		"markers":   uint32(markers),
		"transform": c.Transform.Type,
		"pitch":     c.Pitch.Algorithm,
	})
}

func (e *Engine) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	active := e.chain.Load()
	starved := 0
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		c := e.chain.Load()
		if c != active {
			// Configuration seam: stale samples belong to the old
			// analysis semantics.
			active = c
			e.ring.Drain()
		}

		if e.ring.Len() < len(c.hopBuf) {
			starved++
			if starved > starveYieldLimit {
				time.Sleep(starveSleep)
			} else {
				runtime.Gosched()
			}
			continue
		}
		starved = 0

		e.ring.Read(c.hopBuf)
		c.consume(c.hopBuf)

		markers := Marker(e.pending.Swap(0))
		snap := c.process(markers)
		e.store.publish(snap)

		e.ctrs.framesAnalyzed.Add(1)
		if !snap.Formant.Valid {
			e.ctrs.formantMisses.Add(1)
		}
		if !snap.Pitch.Voiced {
			e.ctrs.unvoicedFrames.Add(1)
		}
	}
}

// diffMarkers flags every analysis aspect whose semantics differ between
// two configurations.
func diffMarkers(old, new *config.Config) Marker {
	var m Marker
	if old.Transform.Type != new.Transform.Type {
		m |= MarkerTransformChange
	}
	if old.Transform.FFTSize != new.Transform.FFTSize ||
		old.Transform.BinsPerOctave != new.Transform.BinsPerOctave ||
		old.Display.Bins != new.Display.Bins ||
		old.SampleRate != new.SampleRate {
		m |= MarkerResolutionChange
	}
	if old.Display.MinHz != new.Display.MinHz ||
		old.Display.MaxHz != new.Display.MaxHz ||
		old.Display.Scale != new.Display.Scale ||
		old.Transform.ZoomCenterHz != new.Transform.ZoomCenterHz ||
		old.Transform.ZoomFactor != new.Transform.ZoomFactor ||
		old.Transform.CQTMinHz != new.Transform.CQTMinHz ||
		old.Transform.CQTMaxHz != new.Transform.CQTMaxHz {
		m |= MarkerFreqRangeChange
	}
	if old.Transform.Window != new.Transform.Window {
		m |= MarkerWindowChange
	}
	if old.Enhance != new.Enhance {
		m |= MarkerFilterChange
	}
	if old.FrameSize != new.FrameSize || old.SampleRate != new.SampleRate {
		m |= MarkerTimeWindowChange
	}
	if old.HopSize != new.HopSize {
		m |= MarkerOverlapChange
	}
	return m
}
