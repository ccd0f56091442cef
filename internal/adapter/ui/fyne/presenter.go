// Package fyne is the Fyne front end of the turntable: the window, its
// presenter and the frame scheduler.
package fyne

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
	"github.com/tejashwikalptaru/turntable/internal/service"
)

// PresenterDeps groups the services a presenter drives.
type PresenterDeps struct {
	Playback *service.PlaybackService
	Visual   *service.VisualService
	Library  *service.LibraryService
	Bus      ports.EventBus
}

// Presenter translates control-panel input into service calls and service
// events into view updates (MVP). The view stays free of application logic.
type Presenter struct {
	logger   *slog.Logger
	playback *service.PlaybackService
	visual   *service.VisualService
	library  *service.LibraryService
	bus      ports.EventBus
	view     ports.View

	subs []domain.SubscriptionID

	scanMu     sync.Mutex
	scanCancel context.CancelFunc
	scanRun    sync.Mutex
	scans      sync.WaitGroup

	shutdownOnce sync.Once
}

// NewPresenter subscribes to the bus and pushes the current state into view.
func NewPresenter(logger *slog.Logger, deps PresenterDeps, view ports.View) *Presenter {
	p := &Presenter{
		logger:   logger.With(slog.String("component", "presenter")),
		playback: deps.Playback,
		visual:   deps.Visual,
		library:  deps.Library,
		bus:      deps.Bus,
		view:     view,
	}
	p.subscribe()
	p.syncInitialState()
	return p
}

func (p *Presenter) subscribe() {
	handlers := map[domain.EventType]domain.EventHandler{
		domain.EventPlaybackResumed:   p.onResumed,
		domain.EventPlaybackSuspended: p.onSuspended,
		domain.EventTrackLoaded:       p.onTrackLoaded,
		domain.EventTrackError:        p.onTrackError,
		domain.EventDurationResolved:  p.onDurationResolved,
		domain.EventLibraryUpdated:    p.onLibraryUpdated,
	}
	for eventType, handler := range handlers {
		p.subs = append(p.subs, p.bus.Subscribe(eventType, handler))
	}
	p.subs = append(p.subs, p.subscribeFiltered(domain.EventAlbumArtLoaded, artFailed, p.onAlbumArtFailed))
}

// subscribeFiltered falls back to filtering in the handler on buses without predicates.
func (p *Presenter) subscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if fb, ok := p.bus.(ports.FilteringEventBus); ok {
		return fb.SubscribeFiltered(eventType, filter, handler)
	}
	return p.bus.Subscribe(eventType, func(event domain.Event) {
		if filter(event) {
			handler(event)
		}
	})
}

func artFailed(event domain.Event) bool {
	e, ok := event.(domain.AlbumArtLoadedEvent)
	return ok && e.Error != nil
}

func (p *Presenter) syncInitialState() {
	p.view.SetTracks(p.library.Tracks())
	p.view.SetPlaying(p.playback.IsPlaying())
	p.view.SetDuration(p.playback.Duration())
	if track := p.playback.CurrentTrack(); track != nil {
		p.view.SetTrackTitle(track.DisplayName())
	}
}

// Event handlers

func (p *Presenter) onResumed(domain.Event) {
	p.view.SetPlaying(true)
}

func (p *Presenter) onSuspended(domain.Event) {
	p.view.SetPlaying(false)
}

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	p.view.SetTrackTitle(e.Track.DisplayName())
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}
	p.view.ShowError("Could not load "+e.Track.DisplayName(), e.Error)
}

func (p *Presenter) onDurationResolved(event domain.Event) {
	e, ok := event.(domain.DurationResolvedEvent)
	if !ok {
		return
	}
	p.view.SetDuration(e.Duration)
}

func (p *Presenter) onAlbumArtFailed(event domain.Event) {
	e := event.(domain.AlbumArtLoadedEvent)
	// the disc simply stays empty; not worth a dialog
	p.logger.Warn("album cover unavailable", slog.String("source", e.Art.Source), slog.Any("error", e.Error))
}

func (p *Presenter) onLibraryUpdated(event domain.Event) {
	e, ok := event.(domain.LibraryUpdatedEvent)
	if !ok {
		return
	}
	p.view.SetTracks(e.Tracks)
}

// UI command handlers

// OnPlayClicked toggles playback.
func (p *Presenter) OnPlayClicked() {
	if _, err := p.playback.TogglePlay(); err != nil {
		p.logger.Error("play/pause failed", slog.Any("error", err))
		p.view.ShowError("Playback Error", err)
	}
}

// OnToggleChanged flips one of the scene checkboxes.
func (p *Presenter) OnToggleChanged(t service.Toggle, on bool) {
	if err := p.visual.SetToggle(t, on); err != nil {
		p.logger.Warn("toggle rejected", slog.Any("error", err))
	}
}

// OnSampleModeChanged switches between frequency and waveform bars.
func (p *Presenter) OnSampleModeChanged(mode domain.SampleMode) {
	p.visual.SetSampleMode(mode)
}

// OnVolumeChanged handles the volume slider (0..1).
func (p *Presenter) OnVolumeChanged(v float64) {
	if err := p.playback.SetVolume(v); err != nil {
		p.logger.Warn("volume rejected", slog.Float64("value", v), slog.Any("error", err))
	}
}

// OnRotationChanged handles the rotation speed slider.
func (p *Presenter) OnRotationChanged(v float64) {
	p.warn("rotation", v, p.visual.SetRotationSpeed(service.RotationSpeedFromSlider(v)))
}

// OnEarthquakeChanged handles the earthquake slider.
func (p *Presenter) OnEarthquakeChanged(v float64) {
	p.warn("earthquake", v, p.visual.SetEarthquakeJitter(service.EarthquakeFromSlider(v)))
}

// OnBarHeightChanged handles the bar height slider.
func (p *Presenter) OnBarHeightChanged(v float64) {
	p.warn("bar height", v, p.visual.SetBarHeightScale(service.BarHeightFromSlider(v)))
}

// OnBassChanged handles the bass slider.
func (p *Presenter) OnBassChanged(v float64) {
	p.warn("bass", v, p.playback.SetBass(service.FilterFrequencyFromSlider(v)))
}

// OnTrebleChanged handles the treble slider.
func (p *Presenter) OnTrebleChanged(v float64) {
	p.warn("treble", v, p.playback.SetTreble(service.FilterFrequencyFromSlider(v)))
}

func (p *Presenter) warn(control string, v float64, err error) {
	if err != nil {
		p.logger.Warn("slider value rejected",
			slog.String("control", control),
			slog.Float64("value", v),
			slog.Any("error", err))
	}
}

// OnTrackSelected switches to a track from the selector.
func (p *Presenter) OnTrackSelected(path string) {
	track, ok := p.library.Find(path)
	if !ok {
		track = domain.Track{FilePath: path}
	}
	if err := p.playback.SelectTrack(track); err != nil {
		p.logger.Error("track selection failed", slog.String("path", path), slog.Any("error", err))
		p.view.ShowError("Track Error", err)
	}
}

// OnFileOpened adds a single file to the selector and switches to it.
func (p *Presenter) OnFileOpened(path string) {
	if !service.IsFormatSupported(path) {
		p.view.ShowError("Unsupported file", domain.ErrUnsupportedFormat)
		return
	}
	if _, ok := p.library.Find(path); !ok {
		p.library.Add(domain.Track{ID: path, FilePath: path, CoverPath: service.FindCover(path)})
	}
	p.OnTrackSelected(path)
}

// OnFolderOpened scans a folder in the background and adds what it finds.
// A new scan replaces one still running.
func (p *Presenter) OnFolderOpened(dir string) {
	p.scanMu.Lock()
	if p.scanCancel != nil {
		p.scanCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.scanCancel = cancel
	p.scans.Add(1)
	p.scanMu.Unlock()

	go func() {
		defer p.scans.Done()
		// an earlier, cancelled scan may still be unwinding
		p.scanRun.Lock()
		defer p.scanRun.Unlock()
		if ctx.Err() != nil {
			return
		}
		if _, err := p.library.ScanFolder(ctx, dir); err != nil && ctx.Err() == nil {
			p.logger.Error("folder scan failed", slog.String("dir", dir), slog.Any("error", err))
			p.view.ShowError("Could not scan "+dir, err)
		}
	}()
}

// Shutdown unsubscribes from the bus and waits for background scans.
// It is safe to call more than once.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subs {
			p.bus.Unsubscribe(id)
		}
		p.scanMu.Lock()
		if p.scanCancel != nil {
			p.scanCancel()
		}
		p.scanMu.Unlock()
		p.scans.Wait()
	})
}
