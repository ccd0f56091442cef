package fyne

import (
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
)

// frameAnimationLength is the nominal period of the repeating animation.
// Fyne calls the tick once per displayed frame regardless of it.
const frameAnimationLength = time.Second

// FrameScheduler runs the render step once per display frame using a
// repeating Fyne animation. Fyne invokes animation ticks on the UI thread one
// after another, so frames never overlap.
type FrameScheduler struct {
	logger *slog.Logger
	step   func()

	mu      sync.Mutex
	anim    *fyneapp.Animation
	running bool
	frames  uint64
}

// NewFrameScheduler creates a stopped scheduler that calls step per frame.
func NewFrameScheduler(logger *slog.Logger, step func()) *FrameScheduler {
	s := &FrameScheduler{
		logger: logger.With(slog.String("component", "scheduler")),
		step:   step,
	}
	s.anim = fyneapp.NewAnimation(frameAnimationLength, func(float32) { s.tick() })
	s.anim.RepeatCount = fyneapp.AnimationRepeatForever
	s.anim.Curve = fyneapp.AnimationLinear
	return s
}

// Start begins ticking. Starting a running scheduler does nothing.
func (s *FrameScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	// the driver may tick synchronously from Start
	s.anim.Start()
	s.logger.Debug("frame loop started")
}

// Stop tears the loop down; no step runs after Stop returns.
func (s *FrameScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	frames := s.frames
	s.mu.Unlock()

	s.anim.Stop()
	s.logger.Debug("frame loop stopped", slog.Uint64("frames", frames))
}

// Running reports whether the loop is active.
func (s *FrameScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Frames returns how many steps have run.
func (s *FrameScheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// tick is the animation callback.
func (s *FrameScheduler) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.frames++
	s.mu.Unlock()

	s.step()
}
