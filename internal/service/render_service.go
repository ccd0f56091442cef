package service

import (
	"log/slog"
	"sync/atomic"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/visualizer"
)

// Renderer draws one frame from a configuration snapshot.
type Renderer interface {
	Render(cfg domain.VisualConfig) visualizer.Frame
}

// RenderService is the per-tick step of the frame loop.
type RenderService struct {
	logger   *slog.Logger
	visual   *VisualService
	renderer Renderer
	frames   atomic.Uint64
}

// NewRenderService binds the frame step to the config owner and the compositor.
func NewRenderService(logger *slog.Logger, visual *VisualService, renderer Renderer) *RenderService {
	return &RenderService{
		logger:   logger.With(slog.String("service", "render")),
		visual:   visual,
		renderer: renderer,
	}
}

// Tick advances the disc rotation and renders a frame from the new snapshot.
// Calls must not overlap; the scheduler runs them one after another.
func (s *RenderService) Tick() visualizer.Frame {
	s.visual.Advance()
	frame := s.renderer.Render(s.visual.Snapshot())
	if n := s.frames.Add(1); n == 1 {
		s.logger.Debug("first frame rendered",
			slog.Int("bars", frame.Bars),
			slog.Bool("disc", frame.DiscDrawn))
	}
	return frame
}

// Frames returns how many frames have been rendered.
func (s *RenderService) Frames() uint64 {
	return s.frames.Load()
}
