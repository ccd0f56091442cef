// Package mock provides a mock implementation of the AudioEngine interface.
// It produces deterministic analysis data without decoding or playing audio,
// for service tests and for running the visualizer without a sound device.
package mock

import (
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// DefaultMockDuration is the length reported for every loaded track unless overridden.
const DefaultMockDuration = 3 * time.Minute

// Engine is a mock implementation of the AudioEngine interface.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger
	mu     sync.RWMutex

	bins        int
	initialized bool
	closed      bool
	state       domain.AudioState
	track       *domain.Track
	duration    time.Duration
	position    time.Duration

	volume float64
	bass   float64
	treble float64

	// frozen holds the last frame served while running
	frozenFreq []byte
	frozenWave []byte

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       bool
	failResume     bool
	loadGate       <-chan struct{}
	loads          int
}

// NewEngine creates a mock engine with the given analysis window size.
func NewEngine(fftSize int) *Engine {
	if fftSize <= 0 {
		fftSize = domain.DefaultFFTSize
	}
	bins := fftSize / 2
	e := &Engine{
		logger:     slog.Default(),
		bins:       bins,
		state:      domain.AudioSuspended,
		duration:   DefaultMockDuration,
		volume:     0.5,
		frozenFreq: make([]byte, bins),
		frozenWave: make([]byte, bins*2),
	}
	for i := range e.frozenWave {
		e.frozenWave[i] = 128
	}
	return e
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger.With(slog.String("engine", "mock"))
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading tracks (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailResume configures the mock to fail resuming (for testing).
func (m *Engine) SetFailResume(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failResume = fail
}

// SetLoadGate makes Load block until gate is closed or receives (for testing slow decodes).
func (m *Engine) SetLoadGate(gate <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadGate = gate
}

// SetDuration overrides the duration reported for loaded tracks.
func (m *Engine) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
	if m.track != nil {
		m.track.Duration = d
	}
}

// SetState forces the graph state without side effects.
func (m *Engine) SetState(state domain.AudioState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// SimulateProgress moves the play position forward, which shifts the waveform.
func (m *Engine) SimulateProgress(delta time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position += delta
}

// Initialize initializes the mock audio engine. The graph starts suspended.
func (m *Engine) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", "mock initialization failed", nil)
	}
	if m.closed {
		return domain.ErrEngineClosed
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.state = domain.AudioSuspended
	return nil
}

// Shutdown shuts down the mock audio engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.closed = true
	m.state = domain.AudioClosed
	m.track = nil
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load pretends to decode a file. The track is titled after the file name.
func (m *Engine) Load(filePath string) (*domain.Track, error) {
	m.mu.RLock()
	gate := m.loadGate
	m.mu.RUnlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}
	if filePath == "" {
		return nil, domain.ErrInvalidFilePath
	}
	if m.failLoad {
		return nil, domain.NewAudioEngineError("load", filePath, "mock load failed", nil)
	}

	base := filepath.Base(filePath)
	m.track = &domain.Track{
		ID:       "mock-" + base,
		FilePath: filePath,
		Title:    strings.TrimSuffix(base, filepath.Ext(base)),
		Artist:   "Mock Artist",
		Duration: m.duration,
	}
	m.position = 0
	m.loads++

	track := *m.track
	return &track, nil
}

// Loads returns how many loads have completed (for testing).
func (m *Engine) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// Unload drops the current track.
func (m *Engine) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track = nil
	m.position = 0
}

// Resume starts the graph.
func (m *Engine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	if m.failResume {
		return domain.NewAudioEngineError("resume", "", "mock resume failed", nil)
	}
	m.state = domain.AudioRunning
	return nil
}

// Suspend pauses the graph.
func (m *Engine) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	m.state = domain.AudioSuspended
	return nil
}

// State returns the graph state.
func (m *Engine) State() domain.AudioState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Duration returns the track duration, or the default while nothing is loaded.
func (m *Engine) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.track == nil {
		return domain.DefaultTrackDuration
	}
	return m.track.Duration
}

// SetVolume sets the output gain.
func (m *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

// Volume returns the last volume set.
func (m *Engine) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// SetBass records the low shelf frequency.
func (m *Engine) SetBass(frequency float64) error {
	if frequency < 0 {
		return domain.ErrInvalidFrequency
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bass = frequency
	return nil
}

// SetTreble records the high shelf frequency.
func (m *Engine) SetTreble(frequency float64) error {
	if frequency < 0 {
		return domain.ErrInvalidFrequency
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treble = frequency
	return nil
}

// Filters returns the last bass and treble frequencies.
func (m *Engine) Filters() (bass, treble float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bass, m.treble
}

// FrequencyBinCount implements ports.Analyser.
func (m *Engine) FrequencyBinCount() int {
	return m.bins
}

// ByteFrequencyData serves a falling ramp while running: 255 at bin 0 down
// towards 0 at the last bin. While suspended the last frame is repeated.
func (m *Engine) ByteFrequencyData(dst []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == domain.AudioRunning && m.track != nil {
		for i := range m.frozenFreq {
			m.frozenFreq[i] = byte(255 * (m.bins - i) / m.bins)
		}
	}
	copy(dst, m.frozenFreq)
}

// ByteTimeDomainData serves a sine with a 32-sample period whose phase
// follows the play position. While suspended the last frame is repeated.
func (m *Engine) ByteTimeDomainData(dst []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == domain.AudioRunning && m.track != nil {
		phase := m.position.Seconds() * 2 * math.Pi
		for i := range m.frozenWave {
			m.frozenWave[i] = byte(128 + 100*math.Sin(2*math.Pi*float64(i)/32+phase))
		}
	}
	copy(dst, m.frozenWave)
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
