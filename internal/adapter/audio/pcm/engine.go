// Package pcm is the in-process audio engine: it decodes a whole track into
// memory, feeds an output sink through gain and shelving filters, and serves
// analysis windows taken from the raw signal at the current play position.
package pcm

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/analyser"
	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/turntable/internal/adapter/clock"
	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

const (
	// DefaultVolume is the gain a new engine starts with.
	DefaultVolume = 0.5

	// DefaultOutputRate is used when no sink dictates a rate.
	DefaultOutputRate = 44100

	// shelfDivisor turns a shelf corner frequency into its gain in dB.
	shelfDivisor = 40
)

// Sink is an audio output device that pulls rendered frames from a reader.
type Sink interface {
	// SampleRate is the rate the sink plays at; the engine resamples to it.
	SampleRate() int

	// Start begins pulling 16-bit little-endian stereo from r. Called once.
	Start(r io.Reader) error

	Pause()
	Resume()
	Close() error
}

// Options configure an Engine.
type Options struct {
	FFTSize int         // analysis window; defaults to domain.DefaultFFTSize
	Sink    Sink        // nil plays nothing, which is fine for analysis-only use
	Clock   ports.Clock // play position source; defaults to a wall clock
	Logger  *slog.Logger

	// Decode replaces decoder.Decode, mainly for tests.
	Decode func(path string) (*decoder.PCM, error)
}

// Engine implements ports.AudioEngine on decoded PCM.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	logger *slog.Logger

	analyser *analyser.Analyser
	sink     Sink
	clock    ports.Clock
	decode   func(string) (*decoder.PCM, error)
	stream   *stream

	initialized bool
	started     bool // sink has been handed the stream
	state       domain.AudioState
	pcm         *decoder.PCM
	position    time.Duration // frozen position while suspended

	window []float64
}

// NewEngine creates an engine. Initialize must be called before use.
func NewEngine(opts Options) (*Engine, error) {
	size := opts.FFTSize
	if size == 0 {
		size = domain.DefaultFFTSize
	}
	a, err := analyser.New(size)
	if err != nil {
		return nil, err
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.NewWallClock()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	decode := opts.Decode
	if decode == nil {
		decode = decoder.Decode
	}
	rate := DefaultOutputRate
	if opts.Sink != nil && opts.Sink.SampleRate() > 0 {
		rate = opts.Sink.SampleRate()
	}

	return &Engine{
		logger:   log.With(slog.String("engine", "pcm")),
		analyser: a,
		sink:     opts.Sink,
		clock:    clk,
		decode:   decode,
		stream:   newStream(rate),
		state:    domain.AudioSuspended,
		window:   make([]float64, size),
	}, nil
}

// Initialize readies the engine; the graph starts suspended.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if e.state == domain.AudioClosed {
		return domain.ErrEngineClosed
	}
	e.initialized = true
	e.state = domain.AudioSuspended
	e.logger.Debug("engine initialized", slog.Int("fft_size", e.analyser.FFTSize()))
	return nil
}

// Shutdown stops output and closes the graph. The engine cannot be reused.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	e.initialized = false
	e.state = domain.AudioClosed
	e.pcm = nil
	e.stream.load(nil)
	e.analyser.Reset()

	if e.sink != nil {
		if err := e.sink.Close(); err != nil {
			return domain.NewAudioEngineError("shutdown", "", "failed to close output", err)
		}
	}
	e.logger.Debug("engine shut down")
	return nil
}

// IsInitialized reports whether Initialize has succeeded and Shutdown has not run.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Load decodes a file and makes it the current track at position zero.
// Decoding happens on the caller's goroutine without holding the engine lock.
func (e *Engine) Load(filePath string) (*domain.Track, error) {
	if !e.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}
	if filePath == "" {
		return nil, domain.ErrInvalidFilePath
	}

	start := time.Now()
	pcm, err := e.decode(filePath)
	if err != nil {
		return nil, domain.NewAudioEngineError("load", filePath, "decode failed", err)
	}

	track, err := decoder.ReadMetadata(filePath)
	if err != nil {
		track = &domain.Track{FilePath: filePath, Title: filePath}
	}
	track.Duration = pcm.Duration()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, domain.ErrNotInitialized
	}

	e.pcm = pcm
	e.position = 0
	if e.state == domain.AudioRunning {
		e.clock.Set(0)
	}
	e.stream.load(pcm)
	e.analyser.Reset()

	if err := e.startSink(); err != nil {
		return nil, domain.NewAudioEngineError("load", filePath, "failed to start output", err)
	}

	e.logger.Info("track loaded",
		slog.String("path", filePath),
		slog.Duration("duration", track.Duration),
		slog.Int("sample_rate", pcm.SampleRate),
		slog.Int("channels", pcm.Channels),
		slog.Duration("decode_time", time.Since(start)))
	return track, nil
}

// startSink hands the stream to the sink the first time a track is loaded.
// Callers hold mu.
func (e *Engine) startSink() error {
	if e.sink == nil || e.started {
		return nil
	}
	if err := e.sink.Start(e.stream); err != nil {
		return err
	}
	e.started = true
	if e.state != domain.AudioRunning {
		e.sink.Pause()
	}
	return nil
}

// Unload drops the current track.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pcm = nil
	e.position = 0
	e.stream.load(nil)
	e.analyser.Reset()
}

// Resume starts the graph. Without a track it runs silently, like an empty media element.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	if e.state == domain.AudioRunning {
		return nil
	}
	e.state = domain.AudioRunning
	e.clock.Set(e.position)
	e.stream.seek(e.position)
	if e.sink != nil && e.started {
		e.sink.Resume()
	}
	e.logger.Debug("resumed", slog.Duration("position", e.position))
	return nil
}

// Suspend freezes playback and analysis at the current position.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	if e.state != domain.AudioRunning {
		return nil
	}
	e.position = e.positionLocked()
	e.state = domain.AudioSuspended
	if e.sink != nil && e.started {
		e.sink.Pause()
	}
	e.logger.Debug("suspended", slog.Duration("position", e.position))
	return nil
}

// State reports the graph state.
func (e *Engine) State() domain.AudioState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Duration returns the decoded length, or the default before any track has loaded.
func (e *Engine) Duration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pcm == nil {
		return domain.DefaultTrackDuration
	}
	return e.pcm.Duration()
}

// Position returns the current play position.
func (e *Engine) Position() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.positionLocked()
}

func (e *Engine) positionLocked() time.Duration {
	if e.state != domain.AudioRunning {
		return e.position
	}
	pos := e.clock.Elapsed()
	if e.pcm != nil {
		pos = min(pos, e.pcm.Duration())
	}
	return max(pos, 0)
}

// SetVolume sets the output gain.
func (e *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	e.stream.setGain(volume)
	return nil
}

// SetBass moves the low shelf corner; its boost is frequency/40 dB.
func (e *Engine) SetBass(frequency float64) error {
	if frequency < 0 {
		return domain.ErrInvalidFrequency
	}
	e.stream.setBass(frequency, frequency/shelfDivisor)
	return nil
}

// SetTreble moves the high shelf corner; its boost is frequency/40 dB.
func (e *Engine) SetTreble(frequency float64) error {
	if frequency < 0 {
		return domain.ErrInvalidFrequency
	}
	e.stream.setTreble(frequency, frequency/shelfDivisor)
	return nil
}

// FrequencyBinCount implements ports.Analyser.
func (e *Engine) FrequencyBinCount() int {
	return e.analyser.FrequencyBinCount()
}

// ByteFrequencyData implements ports.Analyser.
func (e *Engine) ByteFrequencyData(dst []byte) {
	e.refreshWindow()
	e.analyser.ByteFrequencyData(dst)
}

// ByteTimeDomainData implements ports.Analyser.
func (e *Engine) ByteTimeDomainData(dst []byte) {
	e.refreshWindow()
	e.analyser.ByteTimeDomainData(dst)
}

// refreshWindow moves the analysis window to the play position while running.
// A suspended graph keeps the last window.
func (e *Engine) refreshWindow() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != domain.AudioRunning {
		return
	}
	if e.pcm == nil {
		e.analyser.Silence()
		return
	}
	end := e.pcm.FrameAt(e.positionLocked())
	e.pcm.MonoWindow(e.window, end)
	e.analyser.Update(e.window)
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
