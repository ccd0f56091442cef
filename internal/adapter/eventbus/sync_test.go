package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
)

func newBus(t *testing.T) *SyncEventBus {
	t.Helper()
	bus := NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus(nil)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
	if bus.closed {
		t.Error("new bus should not be closed")
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := newBus(t)

	var received domain.Event
	calls := 0
	id := bus.Subscribe(domain.EventTrackLoaded, func(event domain.Event) {
		received = event
		calls++
	})
	if id == "" {
		t.Fatal("Subscribe returned an empty ID")
	}

	bus.Publish(domain.NewTrackLoadedEvent(domain.Track{ID: "t1", Title: "Blue in Green"}))

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	loaded, ok := received.(domain.TrackLoadedEvent)
	if !ok {
		t.Fatalf("expected TrackLoadedEvent, got %T", received)
	}
	if loaded.Track.ID != "t1" {
		t.Errorf("expected track t1, got %s", loaded.Track.ID)
	}
}

func TestDeliveryOrder(t *testing.T) {
	bus := newBus(t)

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewVolumeChangedEvent(0.5))

	want := []string{"first", "second", "all"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestUnsubscribeKeepsOrder(t *testing.T) {
	bus := newBus(t)

	var order []int
	ids := make([]domain.SubscriptionID, 4)
	for i := range ids {
		i := i
		ids[i] = bus.Subscribe(domain.EventPlaybackResumed, func(domain.Event) { order = append(order, i) })
	}
	bus.Unsubscribe(ids[1])
	bus.Publish(domain.NewPlaybackResumedEvent(0))

	want := []int{0, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected %v, got %v", want, order)
			break
		}
	}
	if bus.SubscriberCount() != 3 {
		t.Errorf("expected 3 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestUnsubscribeUnknownID(t *testing.T) {
	bus := newBus(t)
	bus.Subscribe(domain.EventTrackError, func(domain.Event) {})
	bus.Unsubscribe("sub-999")
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}
}

func TestUnsubscribeWildcard(t *testing.T) {
	bus := newBus(t)

	var calls int32
	id := bus.SubscribeAll(func(domain.Event) { atomic.AddInt32(&calls, 1) })
	bus.Publish(domain.NewVolumeChangedEvent(1))
	bus.Unsubscribe(id)
	bus.Publish(domain.NewVolumeChangedEvent(1))

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestSubscribeFiltered(t *testing.T) {
	bus := newBus(t)

	var fields []string
	bus.SubscribeFiltered(domain.EventVisualConfigChanged,
		func(e domain.Event) bool {
			return e.(domain.VisualConfigChangedEvent).Field == "rotation_speed"
		},
		func(e domain.Event) {
			fields = append(fields, e.(domain.VisualConfigChangedEvent).Field)
		})

	cfg := domain.DefaultVisualConfig()
	bus.Publish(domain.NewVisualConfigChangedEvent("show_bars", cfg))
	bus.Publish(domain.NewVisualConfigChangedEvent("rotation_speed", cfg))

	if len(fields) != 1 || fields[0] != "rotation_speed" {
		t.Errorf("expected only rotation_speed, got %v", fields)
	}
}

func TestHasSubscribers(t *testing.T) {
	bus := newBus(t)

	if bus.HasSubscribers(domain.EventAlbumArtLoaded) {
		t.Error("empty bus reports subscribers")
	}
	id := bus.Subscribe(domain.EventAlbumArtLoaded, func(domain.Event) {})
	if !bus.HasSubscribers(domain.EventAlbumArtLoaded) {
		t.Error("expected subscribers for art.loaded")
	}
	if bus.HasSubscribers(domain.EventTrackLoaded) {
		t.Error("unexpected subscribers for track.loaded")
	}
	bus.Unsubscribe(id)

	bus.SubscribeAll(func(domain.Event) {})
	if !bus.HasSubscribers(domain.EventTrackLoaded) {
		t.Error("wildcard subscriber should count for every type")
	}
}

func TestHandlerPanic(t *testing.T) {
	bus := newBus(t)

	reached := false
	bus.Subscribe(domain.EventTrackError, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventTrackError, func(domain.Event) { reached = true })

	bus.Publish(domain.NewTrackErrorEvent(domain.Track{}, errors.New("bad file")))

	if !reached {
		t.Error("handler after a panicking one was not called")
	}
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus(nil)

	calls := 0
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { calls++ })

	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err == nil {
		t.Error("second Close should fail")
	}

	bus.Publish(domain.NewVolumeChangedEvent(0.2))
	if calls != 0 {
		t.Error("closed bus delivered an event")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after Close, got %d", bus.SubscriberCount())
	}

	defer func() {
		if recover() == nil {
			t.Error("Subscribe on a closed bus should panic")
		}
	}()
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) {})
}

func TestNilEventAndHandler(t *testing.T) {
	bus := newBus(t)
	bus.Publish(nil)

	defer func() {
		if recover() == nil {
			t.Error("nil handler should panic")
		}
	}()
	bus.Subscribe(domain.EventTrackLoaded, nil)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := newBus(t)

	var calls int64
	bus.Subscribe(domain.EventPlaybackSuspended, func(domain.Event) { atomic.AddInt64(&calls, 1) })

	const publishers = 8
	const perPublisher = 200

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				bus.Publish(domain.NewPlaybackSuspendedEvent(time.Duration(j) * time.Millisecond))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			id := bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) {})
			bus.Unsubscribe(id)
		}
	}()
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != publishers*perPublisher {
		t.Errorf("expected %d calls, got %d", publishers*perPublisher, got)
	}
}
