package fyne

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/turntable/internal/adapter/art"
	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/turntable/internal/adapter/clock"
	"github.com/tejashwikalptaru/turntable/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
	"github.com/tejashwikalptaru/turntable/internal/ports"
	"github.com/tejashwikalptaru/turntable/internal/service"
	"github.com/tejashwikalptaru/turntable/internal/testutil"
)

// fakeView records what the presenter pushed into it.
type fakeView struct {
	mu       sync.Mutex
	playing  bool
	title    string
	duration time.Duration
	tracks   []domain.Track
	errors   []string
}

func (v *fakeView) SetPlaying(playing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = playing
}

func (v *fakeView) SetTrackTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = title
}

func (v *fakeView) SetDuration(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.duration = d
}

func (v *fakeView) SetTracks(tracks []domain.Track) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tracks = append([]domain.Track(nil), tracks...)
}

func (v *fakeView) ShowError(title string, _ error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, title)
}

func (v *fakeView) snapshot() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		playing:  v.playing,
		title:    v.title,
		duration: v.duration,
		tracks:   append([]domain.Track(nil), v.tracks...),
		errors:   append([]string(nil), v.errors...),
	}
}

type presenterFixture struct {
	presenter *Presenter
	view      *fakeView
	engine    *mock.Engine
	clock     *clock.ManualClock
	playback  *service.PlaybackService
	visual    *service.VisualService
	library   *service.LibraryService
	art       *art.Loader
	bus       *eventbus.SyncEventBus
}

func newPresenterFixture(t *testing.T) *presenterFixture {
	t.Helper()
	view := &fakeView{}
	f := newPresenterFixtureWithView(t, view)
	f.view = view
	return f
}

func newPresenterFixtureWithView(t *testing.T, view ports.View) *presenterFixture {
	t.Helper()
	log := logger.NewTestLogger()

	engine := mock.NewEngine(domain.DefaultFFTSize)
	engine.SetLogger(log)
	require.NoError(t, engine.Initialize())

	bus := eventbus.NewSyncEventBus(log)
	f := &presenterFixture{
		engine: engine,
		clock:  clock.NewManualClock(0),
		art:    art.NewLoader(log, art.DefaultMaxSize),
		bus:    bus,
	}
	f.visual = service.NewVisualService(log, bus, domain.DefaultVisualConfig())
	f.library = service.NewLibraryService(log, bus, nil)
	f.playback = service.NewPlaybackService(log, service.PlaybackDeps{
		Engine:      engine,
		Clock:       f.clock,
		Visual:      f.visual,
		Art:         f.art,
		Bus:         bus,
		Placeholder: art.PlaceholderArt(16),
	})
	f.presenter = NewPresenter(log, PresenterDeps{
		Playback: f.playback,
		Visual:   f.visual,
		Library:  f.library,
		Bus:      bus,
	}, view)
	return f
}

// close releases the fixture. Defer it after the leak check so it runs first.
func (f *presenterFixture) close() {
	f.presenter.Shutdown()
	f.playback.Shutdown()
	f.art.Wait()
	_ = f.bus.Close()
}

func TestPresenterSyncsInitialState(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	got := f.view.snapshot()
	assert.False(t, got.playing)
	assert.Equal(t, domain.DefaultTrackDuration, got.duration)
	assert.Empty(t, got.tracks)
}

func TestPresenterPlayClickedTogglesView(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.presenter.OnPlayClicked()
	assert.True(t, f.view.snapshot().playing)
	assert.Equal(t, domain.AudioRunning, f.engine.State())

	f.presenter.OnPlayClicked()
	assert.False(t, f.view.snapshot().playing)
}

func TestPresenterPlayFailureShowsError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.engine.SetFailResume(true)
	f.presenter.OnPlayClicked()

	got := f.view.snapshot()
	assert.False(t, got.playing)
	assert.Equal(t, []string{"Playback Error"}, got.errors)
}

func TestPresenterSlidersReachServices(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.presenter.OnRotationChanged(5)
	f.presenter.OnEarthquakeChanged(40)
	f.presenter.OnBarHeightChanged(2.5)
	f.presenter.OnVolumeChanged(0.8)
	f.presenter.OnBassChanged(1)
	f.presenter.OnTrebleChanged(0.5)

	cfg := f.visual.Snapshot()
	assert.InDelta(t, 0.05, cfg.RotationSpeed, 1e-9)
	assert.InDelta(t, 0.4, cfg.EarthquakeJitter, 1e-9)
	assert.InDelta(t, 2.5, cfg.BarHeightScale, 1e-9)
	assert.InDelta(t, 0.8, f.engine.Volume(), 1e-9)

	bass, treble := f.engine.Filters()
	assert.InDelta(t, 500, bass, 1e-9)
	assert.InDelta(t, 250, treble, 1e-9)
}

func TestPresenterRejectedSliderKeepsState(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	before := f.visual.Snapshot().EarthquakeJitter
	f.presenter.OnEarthquakeChanged(250)
	assert.Equal(t, before, f.visual.Snapshot().EarthquakeJitter)
	assert.Empty(t, f.view.snapshot().errors, "slider rejects are logged, not shown")
}

func TestPresenterTogglesAndSampleMode(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.presenter.OnToggleChanged(service.ToggleNoise, true)
	f.presenter.OnToggleChanged(service.ToggleBars, false)
	f.presenter.OnSampleModeChanged(domain.ModeWaveform)

	cfg := f.visual.Snapshot()
	assert.True(t, cfg.ShowNoise)
	assert.False(t, cfg.ShowBars)
	assert.Equal(t, domain.ModeWaveform, cfg.SampleMode())
}

func TestPresenterTrackSelectionUpdatesTitleAndDuration(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.engine.SetDuration(90 * time.Second)
	f.library.Add(domain.Track{ID: "a", FilePath: "/music/alpha.mp3", Title: "Alpha"})
	require.Len(t, f.view.snapshot().tracks, 1)

	f.presenter.OnTrackSelected("/music/alpha.mp3")

	assert.Eventually(t, func() bool {
		got := f.view.snapshot()
		return got.title == "Alpha" && got.duration == 90*time.Second
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, f.view.snapshot().playing)
}

func TestPresenterTrackLoadFailureShowsError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.engine.SetFailLoad(true)
	f.presenter.OnTrackSelected("/music/broken.mp3")

	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().errors) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPresenterFileOpened(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.presenter.OnFileOpened("/music/notes.txt")
	assert.Equal(t, []string{"Unsupported file"}, f.view.snapshot().errors)
	assert.Empty(t, f.library.Tracks())

	f.presenter.OnFileOpened("/music/beta.wav")
	f.presenter.OnFileOpened("/music/beta.wav")
	assert.Len(t, f.library.Tracks(), 1)
	assert.Eventually(t, func() bool {
		return f.view.snapshot().title == "beta"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPresenterFolderOpenedFillsSelector(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	dir := t.TempDir()
	for _, name := range []string{"one.mp3", "two.wav", "skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	f.presenter.OnFolderOpened(dir)
	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().tracks) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.view.snapshot().errors)
}

func TestPresenterFolderScanErrorShown(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.presenter.OnFolderOpened(filepath.Join(t.TempDir(), "missing"))
	assert.Eventually(t, func() bool {
		return len(f.view.snapshot().errors) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPresenterShutdownStopsViewUpdates(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	require.NoError(t, f.playback.SetVolume(0.3))
	_, err := f.playback.TogglePlay()
	require.NoError(t, err)
	assert.False(t, f.view.snapshot().playing)
}

// filterSpyBus remembers the predicates registered through SubscribeFiltered.
type filterSpyBus struct {
	*eventbus.SyncEventBus
	filters map[domain.EventType]ports.EventFilter
}

func (b *filterSpyBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	b.filters[eventType] = filter
	return b.SyncEventBus.SubscribeFiltered(eventType, filter, handler)
}

func TestPresenterHearsOnlyFailedCovers(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	f := newPresenterFixture(t)
	defer f.close()

	spy := &filterSpyBus{SyncEventBus: f.bus, filters: make(map[domain.EventType]ports.EventFilter)}
	p := NewPresenter(logger.NewTestLogger(), PresenterDeps{
		Playback: f.playback,
		Visual:   f.visual,
		Library:  f.library,
		Bus:      spy,
	}, &fakeView{})
	defer p.Shutdown()

	filter, ok := spy.filters[domain.EventAlbumArtLoaded]
	require.True(t, ok)

	cover := domain.NewAlbumArt("cover")
	assert.False(t, filter(domain.NewAlbumArtLoadedEvent(cover, nil)))
	assert.True(t, filter(domain.NewAlbumArtLoadedEvent(cover, errors.New("truncated PNG"))))

	// delivery through the bus must not panic on either outcome
	f.bus.Publish(domain.NewAlbumArtLoadedEvent(cover, nil))
	f.bus.Publish(domain.NewAlbumArtLoadedEvent(cover, errors.New("truncated PNG")))
}
