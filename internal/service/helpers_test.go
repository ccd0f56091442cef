package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/turntable/internal/adapter/clock"
	"github.com/tejashwikalptaru/turntable/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
)

const eventTimeout = 2 * time.Second

// recorder collects every event published on a bus.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
	signal chan domain.Event
}

func record(bus *eventbus.SyncEventBus) *recorder {
	r := &recorder{signal: make(chan domain.Event, 64)}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
		select {
		case r.signal <- e:
		default:
		}
	})
	return r
}

// waitFor blocks until an event of type want arrives that passes match.
func (r *recorder) waitFor(t *testing.T, want domain.EventType, match func(domain.Event) bool) domain.Event {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		if e := r.find(want, match); e != nil {
			return e
		}
		select {
		case <-r.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
			return nil
		}
	}
}

func (r *recorder) find(want domain.EventType, match func(domain.Event) bool) domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type() == want && (match == nil || match(e)) {
			return e
		}
	}
	return nil
}

func (r *recorder) count(want domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type() == want {
			n++
		}
	}
	return n
}

// fakeArt hands out handles whose outcome the test decides.
type fakeArt struct {
	mu      sync.Mutex
	sources []domain.ArtSource
	pending []chan error
}

func (f *fakeArt) Load(_ context.Context, src domain.ArtSource) (*domain.AlbumArt, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	done := make(chan error, 1)
	f.sources = append(f.sources, src)
	f.pending = append(f.pending, done)
	return domain.NewAlbumArt(src.Label()), done
}

// finishAll completes every outstanding load with err.
func (f *fakeArt) finishAll(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, done := range f.pending {
		done <- err
		close(done)
	}
	f.pending = nil
}

func (f *fakeArt) loaded() []domain.ArtSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ArtSource(nil), f.sources...)
}

type playbackFixture struct {
	svc         *PlaybackService
	engine      *mock.Engine
	clock       *clock.ManualClock
	visual      *VisualService
	art         *fakeArt
	bus         *eventbus.SyncEventBus
	events      *recorder
	placeholder *domain.AlbumArt
}

func newPlaybackFixture(t *testing.T) *playbackFixture {
	t.Helper()
	log := logger.NewTestLogger()

	engine := mock.NewEngine(domain.DefaultFFTSize)
	engine.SetLogger(log)
	require.NoError(t, engine.Initialize())

	bus := eventbus.NewSyncEventBus(log)
	f := &playbackFixture{
		engine:      engine,
		clock:       clock.NewManualClock(0),
		art:         &fakeArt{},
		bus:         bus,
		events:      record(bus),
		placeholder: domain.NewAlbumArt("placeholder"),
	}
	f.visual = NewVisualService(log, bus, domain.DefaultVisualConfig())
	f.svc = NewPlaybackService(log, PlaybackDeps{
		Engine:      engine,
		Clock:       f.clock,
		Visual:      f.visual,
		Art:         f.art,
		Bus:         bus,
		Placeholder: f.placeholder,
	})
	return f
}

// close releases the fixture. Defer it after the leak check so it runs first.
func (f *playbackFixture) close() {
	f.art.finishAll(nil)
	f.svc.Shutdown()
	_ = f.bus.Close()
}
