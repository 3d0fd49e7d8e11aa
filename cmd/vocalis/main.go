package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/vocalis/config"
	"github.com/RyanBlaney/vocalis/engine"
	"github.com/RyanBlaney/vocalis/logging"
	"github.com/RyanBlaney/vocalis/transport"
)

const version = "0.3.0"

const (
	feedBlockFrames = 4096
	printInterval   = 0.25 // seconds of audio between summary lines
	stopTimeout     = 2 * time.Second
)

var (
	flagConfig    string
	flagVerbose   bool
	flagAlgorithm string
	flagTransform string
	flagAddr      string
	flagLoop      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vocalis",
		Short:         "Real-time vocal analysis: pitch, voicing, formants, display spectra",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagAlgorithm, "pitch", "", "pitch algorithm (yin, autocorrelation, cepstrum, probabilistic, harmonic_sum)")
	rootCmd.PersistentFlags().StringVar(&flagTransform, "transform", "", "spectral transform (fft, zoom, cqt)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze a WAV file and print pitch/voicing/formant summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0])
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	serveCmd := &cobra.Command{
		Use:   "serve <file.wav>",
		Short: "Analyze a WAV file in real time, broadcasting snapshots over WebSocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args[0])
		},
	}
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8765", "WebSocket listen address")
	serveCmd.Flags().BoolVar(&flagLoop, "loop", false, "loop the file indefinitely")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		logging.Error(err, "command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if flagVerbose {
		logging.SetLevel(logging.DebugLevel)
	}

	var cfg *config.Config
	if flagConfig != "" {
		loaded, err := config.LoadFile(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if flagAlgorithm != "" {
		cfg.Pitch.Algorithm = flagAlgorithm
	}
	if flagTransform != "" {
		cfg.Transform.Type = flagTransform
	}
	cfg.Sanitize()
	return cfg, nil
}

// feedFile decodes the WAV file block by block and pushes it through the
// engine. realTime paces the feed at the file's sample rate; emit is
// called with each new published snapshot.
func feedFile(path string, eng *engine.Engine, realTime bool, emit func(*engine.Snapshot)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fmt.Errorf("%s: not a valid WAV file", path)
	}
	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)

	cfg := eng.Config()
	if cfg.SampleRate != sampleRate {
		cfg.SampleRate = sampleRate
		eng.Reconfigure(&cfg)
		cfg = eng.Config()
	}

	scale := 1.0
	if dec.BitDepth > 0 {
		scale = 1.0 / float64(int(1)<<(dec.BitDepth-1))
	}

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, feedBlockFrames*channels),
	}
	samples := make([]float64, feedBlockFrames*channels)

	var snap engine.Snapshot
	var lastFrame uint64
	blockDur := time.Duration(float64(feedBlockFrames) / float64(sampleRate) * float64(time.Second))

	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			samples[i] = float64(intBuf.Data[i]) * scale
		}
		eng.PushInterleaved(samples[:n], channels)

		if realTime {
			time.Sleep(blockDur)
		} else {
			// Let the analysis goroutine drain before the next block so
			// the ring never overflows on a fast offline feed.
			for eng.Backlog() > cfg.FrameSize {
				time.Sleep(200 * time.Microsecond)
			}
		}

		if eng.Latest(&snap) && snap.FrameIndex != lastFrame {
			lastFrame = snap.FrameIndex
			emit(&snap)
		}
	}
	return nil
}

func runAnalyze(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng := engine.New(cfg)
	if err := eng.Start(); err != nil {
		return err
	}

	log := logging.WithFields(logging.Fields{"file": path})
	nextPrint := 0.0
	err = feedFile(path, eng, false, func(s *engine.Snapshot) {
		if s.TimeSec < nextPrint {
			return
		}
		nextPrint = s.TimeSec + printInterval
		log.Info("frame", logging.Fields{
			"t":       fmt.Sprintf("%.2fs", s.TimeSec),
			"pitch":   fmt.Sprintf("%.1fHz", s.Pitch.Frequency),
			"conf":    fmt.Sprintf("%.2f", s.Pitch.Confidence),
			"voicing": s.Voicing.State.String(),
			"f1":      fmt.Sprintf("%.0fHz", s.Formant.F1),
			"f2":      fmt.Sprintf("%.0fHz", s.Formant.F2),
			"cpp":     fmt.Sprintf("%.1fdB", s.CPPdB),
		})
	})
	if stopErr := eng.Stop(stopTimeout); err == nil {
		err = stopErr
	}

	ctrs := eng.Counters()
	logging.Info("analysis complete", logging.Fields{
		"frames":         ctrs.FramesAnalyzed,
		"unvoiced":       ctrs.UnvoicedFrames,
		"formant_misses": ctrs.FormantMisses,
		"dropped_blocks": ctrs.DroppedBlocks,
	})
	return err
}

func runServe(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng := engine.New(cfg)
	if err := eng.Start(); err != nil {
		return err
	}
	broadcaster := transport.NewWebSocketBroadcaster(flagAddr)
	broadcaster.Start()

	// The feed loop reuses its snapshot buffer, and the broadcaster
	// serializes on its own goroutine; send a copy.
	emit := func(s *engine.Snapshot) {
		cp := *s
		cp.DisplayDB = append([]float64(nil), s.DisplayDB...)
		broadcaster.Send(&cp)
	}
	for {
		if err = feedFile(path, eng, true, emit); err != nil || !flagLoop {
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if closeErr := broadcaster.Close(ctx); err == nil {
		err = closeErr
	}
	if stopErr := eng.Stop(stopTimeout); err == nil {
		err = stopErr
	}
	return err
}
