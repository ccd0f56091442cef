package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// PlaybackService drives the transport: play/pause against the audio graph,
// track selection and the output controls. The paused playback time lives in
// the VisualService because the tonearm reads it.
type PlaybackService struct {
	logger *slog.Logger
	engine ports.AudioEngine
	clock  ports.Clock
	visual *VisualService
	art    ports.ArtLoader
	bus    ports.EventBus

	// placeholder stands in for tracks that have no cover
	placeholder *domain.AlbumArt

	mu      sync.Mutex
	track   *domain.Track
	cancel  context.CancelFunc
	closed  bool
	volume  float64
	loading sync.Mutex // serializes engine loads so the newest selection wins
	wg      sync.WaitGroup
}

// PlaybackDeps groups the collaborators of a PlaybackService.
type PlaybackDeps struct {
	Engine      ports.AudioEngine
	Clock       ports.Clock
	Visual      *VisualService
	Art         ports.ArtLoader
	Bus         ports.EventBus
	Placeholder *domain.AlbumArt
}

// NewPlaybackService creates the service. The engine should already be initialized.
func NewPlaybackService(logger *slog.Logger, deps PlaybackDeps) *PlaybackService {
	return &PlaybackService{
		logger:      logger.With(slog.String("service", "playback")),
		engine:      deps.Engine,
		clock:       deps.Clock,
		visual:      deps.Visual,
		art:         deps.Art,
		bus:         deps.Bus,
		placeholder: deps.Placeholder,
		volume:      0.5,
	}
}

// TogglePlay resumes a suspended graph or suspends a running one.
//
// Resuming restores the clock to the stored paused time first so the tonearm
// continues where it stopped. Suspending captures the clock into the stored
// paused time.
func (s *PlaybackService) TogglePlay() (playing bool, err error) {
	switch s.engine.State() {
	case domain.AudioSuspended:
		resumeAt := s.visual.CurrentTime()
		s.clock.Set(resumeAt)
		if err := s.engine.Resume(); err != nil {
			return false, domain.NewServiceError("PlaybackService", "TogglePlay", "failed to resume", err)
		}
		s.logger.Debug("playback resumed", slog.Duration("at", resumeAt))
		s.publish(domain.NewPlaybackResumedEvent(resumeAt))
		return true, nil

	case domain.AudioRunning:
		pausedAt := s.clock.Elapsed()
		s.visual.SetCurrentTime(pausedAt)
		if err := s.engine.Suspend(); err != nil {
			return true, domain.NewServiceError("PlaybackService", "TogglePlay", "failed to suspend", err)
		}
		s.logger.Debug("playback suspended", slog.Duration("at", pausedAt))
		s.publish(domain.NewPlaybackSuspendedEvent(pausedAt))
		return false, nil

	default:
		return false, domain.ErrEngineClosed
	}
}

// IsPlaying reports whether the graph is running.
func (s *PlaybackService) IsPlaying() bool {
	return s.engine.State() == domain.AudioRunning
}

// SelectTrack switches to another track. The stored time drops to zero and
// the graph is suspended right away; decoding, the duration and the cover
// arrive later as TrackLoaded, DurationResolved and AlbumArtLoaded events
// (TrackError on failure). A newer selection cancels an older one still in flight.
func (s *PlaybackService) SelectTrack(track domain.Track) error {
	if track.FilePath == "" {
		return domain.ErrInvalidFilePath
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrEngineClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	s.visual.SetCurrentTime(0)
	s.setCover(ctx, track)

	if s.engine.State() == domain.AudioRunning {
		if err := s.engine.Suspend(); err != nil {
			s.logger.Warn("failed to suspend for track change", slog.Any("error", err))
		} else {
			s.publish(domain.NewPlaybackSuspendedEvent(0))
		}
	}

	s.logger.Info("track selected", slog.String("path", track.FilePath))
	go s.load(ctx, track)
	return nil
}

func (s *PlaybackService) load(ctx context.Context, want domain.Track) {
	defer s.wg.Done()

	s.loading.Lock()
	defer s.loading.Unlock()
	if ctx.Err() != nil {
		return
	}

	loaded, err := s.engine.Load(want.FilePath)
	if ctx.Err() != nil {
		// a newer selection is queued behind us and will load over this one
		return
	}
	if err != nil {
		s.logger.Error("track load failed", slog.String("path", want.FilePath), slog.Any("error", err))
		s.publish(domain.NewTrackErrorEvent(want, err))
		return
	}

	track := mergeTrack(want, *loaded)
	s.mu.Lock()
	s.track = &track
	s.mu.Unlock()

	s.publish(domain.NewTrackLoadedEvent(track))
	s.publish(domain.NewDurationResolvedEvent(track, s.engine.Duration()))

	// tags may carry a cover the selection did not know about
	if want.CoverSource().IsZero() && !track.CoverSource().IsZero() {
		s.setCover(ctx, track)
	}
}

// mergeTrack keeps what the caller supplied and fills the gaps from the decoder.
func mergeTrack(want, got domain.Track) domain.Track {
	out := got
	out.FilePath = want.FilePath
	if want.ID != "" {
		out.ID = want.ID
	}
	if want.Title != "" {
		out.Title = want.Title
	}
	if want.Artist != "" {
		out.Artist = want.Artist
	}
	if want.Album != "" {
		out.Album = want.Album
	}
	if want.CoverPath != "" {
		out.CoverPath = want.CoverPath
	}
	return out
}

// setCover hands the disc a cover handle right away and reports when it lands.
func (s *PlaybackService) setCover(ctx context.Context, track domain.Track) {
	src := track.CoverSource()
	if src.IsZero() || s.art == nil {
		s.visual.SetAlbumCover(s.placeholder)
		return
	}

	handle, done := s.art.Load(ctx, src)
	s.visual.SetAlbumCover(handle)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := <-done
		if ctx.Err() != nil {
			return
		}
		s.publish(domain.NewAlbumArtLoadedEvent(handle, err))
	}()
}

// CurrentTrack returns the last successfully loaded track, or nil.
func (s *PlaybackService) CurrentTrack() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}

// Duration is the length of the current track as the engine knows it.
func (s *PlaybackService) Duration() time.Duration {
	return s.engine.Duration()
}

// SetVolume sets the output gain (0..1).
func (s *PlaybackService) SetVolume(volume float64) error {
	if err := s.engine.SetVolume(volume); err != nil {
		return err
	}
	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()
	s.publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// Volume returns the last volume set.
func (s *PlaybackService) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetBass sets the low-shelf corner frequency in Hz.
func (s *PlaybackService) SetBass(hz float64) error {
	return s.engine.SetBass(hz)
}

// SetTreble sets the high-shelf corner frequency in Hz.
func (s *PlaybackService) SetTreble(hz float64) error {
	return s.engine.SetTreble(hz)
}

// Shutdown cancels any pending load and waits for background work to finish.
// It is safe to call more than once.
func (s *PlaybackService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *PlaybackService) publish(event domain.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
