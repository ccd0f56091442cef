// Package speaker plays the engine's rendered stream on the default output
// device through oto.
package speaker

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// readyTimeout bounds how long Start waits for the device to come up.
const readyTimeout = 5 * time.Second

// Sink is a pcm.Sink on top of a single oto context and player.
// oto allows one context per process, so a Sink should be created once.
type Sink struct {
	mu     sync.Mutex
	logger *slog.Logger

	rate   int
	ctx    *oto.Context
	ready  chan struct{}
	player oto.Player
	closed bool
}

// New opens the output device at the given rate, 16-bit stereo.
func New(sampleRate int, logger *slog.Logger) (*Sink, error) {
	if sampleRate <= 0 {
		return nil, domain.NewValidationError("sample_rate", sampleRate, "must be positive")
	}
	ctx, ready, err := oto.NewContext(sampleRate, 2, oto.FormatSignedInt16LE)
	if err != nil {
		return nil, domain.NewAudioEngineError("open", "", "failed to open output device", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		logger: logger.With(slog.String("component", "speaker")),
		rate:   sampleRate,
		ctx:    ctx,
		ready:  ready,
	}, nil
}

// SampleRate returns the device rate.
func (s *Sink) SampleRate() int {
	return s.rate
}

// Start creates the player that pulls from r.
func (s *Sink) Start(r io.Reader) error {
	select {
	case <-s.ready:
	case <-time.After(readyTimeout):
		return domain.NewAudioEngineError("start", "", "output device not ready", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrEngineClosed
	}
	if s.player != nil {
		return domain.ErrAlreadyInitialized
	}
	s.player = s.ctx.NewPlayer(r)
	s.player.Play()
	s.logger.Debug("output started", slog.Int("sample_rate", s.rate))
	return nil
}

// Pause stops pulling samples.
func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil && !s.closed {
		s.player.Pause()
	}
}

// Resume continues pulling samples.
func (s *Sink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil && !s.closed {
		s.player.Play()
	}
}

// Close releases the player and suspends the device. It is safe to call twice.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.player != nil {
		err = s.player.Close()
		s.player = nil
	}
	if serr := s.ctx.Suspend(); serr != nil && err == nil {
		err = serr
	}
	return err
}
