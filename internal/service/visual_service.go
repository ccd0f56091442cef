// Package service holds the turntable's application logic between the UI and the render core.
package service

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// Field names carried by VisualConfigChangedEvent.
const (
	FieldShowGradient     = "show_gradient"
	FieldShowBars         = "show_bars"
	FieldShowCircles      = "show_circles"
	FieldShowNoise        = "show_noise"
	FieldShowInvert       = "show_invert"
	FieldShowEmboss       = "show_emboss"
	FieldSampleMode       = "sample_mode"
	FieldRotationSpeed    = "rotation_speed"
	FieldBarHeightScale   = "bar_height_scale"
	FieldEarthquakeJitter = "earthquake_jitter"
	FieldAlbumCover       = "album_cover"
	FieldCurrentTime      = "current_time"
)

// Toggle names one of the on/off switches of the scene.
type Toggle int

const (
	ToggleGradient Toggle = iota
	ToggleBars
	ToggleCircles
	ToggleNoise
	ToggleInvert
	ToggleEmboss
)

// VisualService owns the master VisualConfig. UI callbacks mutate it and the
// frame loop reads value snapshots, possibly from different goroutines.
type VisualService struct {
	logger *slog.Logger
	bus    ports.EventBus

	mu  sync.RWMutex
	cfg domain.VisualConfig
}

// NewVisualService starts from cfg; use domain.DefaultVisualConfig for the stock scene.
func NewVisualService(logger *slog.Logger, bus ports.EventBus, cfg domain.VisualConfig) *VisualService {
	return &VisualService{
		logger: logger.With(slog.String("service", "visual")),
		bus:    bus,
		cfg:    cfg,
	}
}

// Snapshot returns a copy of the current configuration.
func (s *VisualService) Snapshot() domain.VisualConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Advance moves the disc by one frame's worth of rotation.
// It runs every tick and publishes nothing.
func (s *VisualService) Advance() {
	s.mu.Lock()
	s.cfg.Rotation += s.cfg.RotationSpeed
	s.mu.Unlock()
}

// SetToggle switches one layer or effect on or off.
func (s *VisualService) SetToggle(t Toggle, on bool) error {
	var field string
	s.update(func(cfg *domain.VisualConfig) {
		switch t {
		case ToggleGradient:
			cfg.ShowGradient, field = on, FieldShowGradient
		case ToggleBars:
			cfg.ShowBars, field = on, FieldShowBars
		case ToggleCircles:
			cfg.ShowCircles, field = on, FieldShowCircles
		case ToggleNoise:
			cfg.ShowNoise, field = on, FieldShowNoise
		case ToggleInvert:
			cfg.ShowInvert, field = on, FieldShowInvert
		case ToggleEmboss:
			cfg.ShowEmboss, field = on, FieldShowEmboss
		}
	})
	if field == "" {
		return domain.NewValidationError("toggle", t, "unknown toggle")
	}
	s.publish(field)
	return nil
}

// SetSampleMode picks frequency or waveform sampling for the bars.
func (s *VisualService) SetSampleMode(mode domain.SampleMode) {
	s.update(func(cfg *domain.VisualConfig) {
		cfg.ShowFrequency = mode == domain.ModeFrequency
	})
	s.publish(FieldSampleMode)
}

// SetRotationSpeed sets the disc speed in radians per frame. Negative spins backwards.
func (s *VisualService) SetRotationSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return domain.NewValidationError("rotation_speed", speed, "must be finite")
	}
	s.update(func(cfg *domain.VisualConfig) { cfg.RotationSpeed = speed })
	s.publish(FieldRotationSpeed)
	return nil
}

// SetBarHeightScale sets the bar gain. Zero flattens the bars.
func (s *VisualService) SetBarHeightScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return domain.NewValidationError("bar_height_scale", scale, "must be a finite value >= 0")
	}
	s.update(func(cfg *domain.VisualConfig) { cfg.BarHeightScale = scale })
	s.publish(FieldBarHeightScale)
	return nil
}

// SetEarthquakeJitter sets the tonearm shake amount in 0..1.
func (s *VisualService) SetEarthquakeJitter(q float64) error {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return domain.NewValidationError("earthquake_jitter", q, "must be between 0 and 1")
	}
	s.update(func(cfg *domain.VisualConfig) { cfg.EarthquakeJitter = q })
	s.publish(FieldEarthquakeJitter)
	return nil
}

// SetAlbumCover swaps the disc image. The handle may still be loading.
func (s *VisualService) SetAlbumCover(art *domain.AlbumArt) {
	s.update(func(cfg *domain.VisualConfig) { cfg.AlbumCover = art })
	s.publish(FieldAlbumCover)
}

// SetCurrentTime stores the paused playback time shown while suspended.
func (s *VisualService) SetCurrentTime(d time.Duration) {
	s.update(func(cfg *domain.VisualConfig) { cfg.CurrentTime = d })
	s.publish(FieldCurrentTime)
}

// CurrentTime returns the stored paused playback time.
func (s *VisualService) CurrentTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.CurrentTime
}

func (s *VisualService) update(fn func(cfg *domain.VisualConfig)) {
	s.mu.Lock()
	fn(&s.cfg)
	s.mu.Unlock()
}

// publish runs outside the lock so handlers may read the service.
func (s *VisualService) publish(field string) {
	if s.bus == nil || !s.bus.HasSubscribers(domain.EventVisualConfigChanged) {
		return
	}
	s.logger.Debug("visual config changed", slog.String("field", field))
	s.bus.Publish(domain.NewVisualConfigChangedEvent(field, s.Snapshot()))
}
