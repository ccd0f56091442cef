// Package app wires the visualizer together and manages its lifecycle.
package app

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/turntable/internal/adapter/art"
	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/pcm"
	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/speaker"
	"github.com/tejashwikalptaru/turntable/internal/adapter/canvas"
	"github.com/tejashwikalptaru/turntable/internal/adapter/clock"
	"github.com/tejashwikalptaru/turntable/internal/adapter/eventbus"
	fyneui "github.com/tejashwikalptaru/turntable/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
	"github.com/tejashwikalptaru/turntable/internal/ports"
	"github.com/tejashwikalptaru/turntable/internal/service"
	"github.com/tejashwikalptaru/turntable/internal/visualizer"
)

// placeholderSize is the edge of the generated record label image.
const placeholderSize = 512

// Application holds every component and owns their lifecycle.
type Application struct {
	config  Config
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.AudioEngine
	clock       *clock.WallClock
	surface     *canvas.Raster
	artLoader   *art.Loader

	// Services
	visualService   *service.VisualService
	playbackService *service.PlaybackService
	libraryService  *service.LibraryService
	renderService   *service.RenderService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow
	scheduler  *fyneui.FrameScheduler

	events atomic.Uint64

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication creates the application with all dependencies wired.
// The window is built but not shown; call Run.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Application{config: config}
	a.logger = config.Logger
	if a.logger == nil {
		format := "text"
		if config.JSONLogs {
			format = "json"
		}
		a.logger = logger.NewLogger(logger.Config{Level: config.LogLevel, Format: format})
	}
	a.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().Label()),
		slog.Int("width", config.Width),
		slog.Int("height", config.Height),
		slog.Int("fft_size", config.FFTSize))

	if config.TestFyneApp != nil {
		a.fyneApp = config.TestFyneApp
	} else {
		a.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	a.eventBus = eventbus.NewSyncEventBus(a.logger.With(slog.String("component", "eventbus")))
	a.eventBus.SubscribeAll(a.traceEvent)
	a.clock = clock.NewWallClock()

	engine, err := a.newAudioEngine()
	if err != nil {
		_ = a.eventBus.Close()
		return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	a.audioEngine = engine

	surface, err := canvas.NewRaster(config.Width, config.Height)
	if err != nil {
		a.closeInfrastructure()
		return nil, fmt.Errorf("failed to create drawing surface: %w", err)
	}
	a.surface = surface
	a.artLoader = art.NewLoader(a.logger.With(slog.String("component", "art")), art.DefaultMaxSize)
	placeholder := art.PlaceholderArt(placeholderSize)

	a.visualService = service.NewVisualService(a.logger, a.eventBus, domain.DefaultVisualConfig())
	a.playbackService = service.NewPlaybackService(a.logger, service.PlaybackDeps{
		Engine:      engine,
		Clock:       a.clock,
		Visual:      a.visualService,
		Art:         a.artLoader,
		Bus:         a.eventBus,
		Placeholder: placeholder,
	})
	a.libraryService = service.NewLibraryService(a.logger, a.eventBus, decoder.ReadMetadata)

	sampler := visualizer.NewSampler(engine, domain.NewSampleBuffer(config.FFTSize))
	compositor := visualizer.NewCompositor(surface, sampler, engine, a.clock, visualizer.Options{
		Placeholder: placeholder,
		Logger:      a.logger,
	})
	a.renderService = service.NewRenderService(a.logger, a.visualService, compositor)

	a.mainWindow = fyneui.NewMainWindow(a.fyneApp, fyneui.WindowOptions{
		Title:   config.AppName,
		Version: GetVersionInfo().FullString(),
		Width:   config.Width,
		Height:  config.Height,
		Frame:   func() image.Image { return a.surface.Image() },
		Initial: a.visualService.Snapshot(),
		Volume:  a.playbackService.Volume(),
	})
	a.presenter = fyneui.NewPresenter(a.logger, fyneui.PresenterDeps{
		Playback: a.playbackService,
		Visual:   a.visualService,
		Library:  a.libraryService,
		Bus:      a.eventBus,
	}, a.mainWindow)
	a.mainWindow.SetPresenter(a.presenter)
	a.scheduler = fyneui.NewFrameScheduler(a.logger, a.renderFrame)
	a.mainWindow.SetOnClosed(a.scheduler.Stop)

	a.loadInitialTracks()
	return a, nil
}

func (a *Application) newAudioEngine() (ports.AudioEngine, error) {
	if a.config.UseMockAudio {
		engine := mock.NewEngine(a.config.FFTSize)
		engine.SetLogger(a.logger)
		if err := engine.Initialize(); err != nil {
			return nil, err
		}
		return engine, nil
	}

	var sink pcm.Sink
	if !a.config.MuteOutput {
		s, err := speaker.New(a.config.SampleRate, a.logger)
		if err != nil {
			return nil, err
		}
		sink = s
	}
	engine, err := pcm.NewEngine(pcm.Options{
		FFTSize: a.config.FFTSize,
		Sink:    sink,
		Logger:  a.logger,
	})
	if err != nil {
		if sink != nil {
			_ = sink.Close()
		}
		return nil, err
	}
	if err := engine.Initialize(); err != nil {
		return nil, err
	}
	return engine, nil
}

// loadInitialTracks fills the selector from the command line and selects the first track.
func (a *Application) loadInitialTracks() {
	if a.config.TrackPath != "" {
		cover := a.config.CoverPath
		if cover == "" {
			cover = service.FindCover(a.config.TrackPath)
		}
		a.libraryService.Add(domain.Track{
			ID:        a.config.TrackPath,
			FilePath:  a.config.TrackPath,
			CoverPath: cover,
		})
		a.presenter.OnTrackSelected(a.config.TrackPath)
	}
	if a.config.MusicDir != "" {
		a.presenter.OnFolderOpened(a.config.MusicDir)
	}
}

// renderFrame is one scheduler step: advance, draw, repaint.
func (a *Application) renderFrame() {
	a.RenderFrame()
	a.mainWindow.RefreshFrame()
}

// RenderFrame draws one frame into the surface without touching the window.
func (a *Application) RenderFrame() visualizer.Frame {
	return a.renderService.Tick()
}

// Run starts the frame loop and blocks until the window is closed.
func (a *Application) Run() {
	a.logger.Info("turntable started", slog.String("version", GetVersionInfo().FullString()))
	a.scheduler.Start()
	a.mainWindow.ShowAndRun()
}

// Shutdown stops the frame loop, the services and the audio engine.
// It is safe to call more than once; later calls return the first result.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		a.scheduler.Stop()
		a.presenter.Shutdown()
		a.playbackService.Shutdown()
		if err := a.libraryService.CancelScan(); err == nil {
			a.logger.Debug("cancelled running library scan")
		}
		a.artLoader.Wait()
		a.shutdownErr = a.closeInfrastructure()

		a.logger.Info("application shutdown complete",
			slog.Uint64("frames", a.renderService.Frames()),
			slog.Uint64("events", a.events.Load()))
	})
	return a.shutdownErr
}

// traceEvent counts every published event and logs it at debug level.
func (a *Application) traceEvent(event domain.Event) {
	a.events.Add(1)
	a.logger.Debug("event", slog.String("type", string(event.Type())))
}

// EventsSeen returns how many events have been published since start-up.
func (a *Application) EventsSeen() uint64 {
	return a.events.Load()
}

func (a *Application) closeInfrastructure() error {
	var firstErr error
	if a.audioEngine != nil {
		if err := a.audioEngine.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown audio engine", slog.Any("error", err))
			firstErr = err
		}
	}
	a.logger.Debug("closing event bus", slog.Int("subscribers", a.eventBus.SubscriberCount()))
	if err := a.eventBus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Accessors used by tests and the command line.

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// EventBus returns the shared event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// AudioEngine returns the engine the transport drives.
func (a *Application) AudioEngine() ports.AudioEngine { return a.audioEngine }

// Surface returns the drawing surface frames are rendered into.
func (a *Application) Surface() *canvas.Raster { return a.surface }

// Services returns the visual, playback and library services.
func (a *Application) Services() (*service.VisualService, *service.PlaybackService, *service.LibraryService) {
	return a.visualService, a.playbackService, a.libraryService
}

// Presenter returns the UI presenter.
func (a *Application) Presenter() *fyneui.Presenter { return a.presenter }

// Scheduler returns the frame scheduler.
func (a *Application) Scheduler() *fyneui.FrameScheduler { return a.scheduler }
