// Package domain defines events for the event-driven architecture.
// Events replace UI callbacks and keep the render core free of control flow from the host.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Track events
	EventTrackLoaded      EventType = "track.loaded"
	EventTrackError       EventType = "track.error"
	EventDurationResolved EventType = "duration.resolved"

	// Transport events
	EventPlaybackResumed   EventType = "playback.resumed"
	EventPlaybackSuspended EventType = "playback.suspended"
	EventVolumeChanged     EventType = "volume.changed"

	// Visual events
	EventVisualConfigChanged EventType = "visual.config_changed"
	EventAlbumArtLoaded      EventType = "art.loaded"

	// Library events
	EventLibraryUpdated EventType = "library.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when a track has been decoded and is ready to play.
type TrackLoadedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackErrorEvent is published when a track cannot be loaded.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// DurationResolvedEvent is published once the real duration of a track is known.
type DurationResolvedEvent struct {
	baseEvent
	Track    Track
	Duration time.Duration
}

// Type returns the event type.
func (e DurationResolvedEvent) Type() EventType {
	return EventDurationResolved
}

// NewDurationResolvedEvent creates a new DurationResolvedEvent.
func NewDurationResolvedEvent(track Track, duration time.Duration) DurationResolvedEvent {
	return DurationResolvedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Duration:  duration,
	}
}

// PlaybackResumedEvent is published when the audio graph resumes.
type PlaybackResumedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackResumedEvent) Type() EventType {
	return EventPlaybackResumed
}

// NewPlaybackResumedEvent creates a new PlaybackResumedEvent.
func NewPlaybackResumedEvent(position time.Duration) PlaybackResumedEvent {
	return PlaybackResumedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// PlaybackSuspendedEvent is published when the audio graph is suspended.
type PlaybackSuspendedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackSuspendedEvent) Type() EventType {
	return EventPlaybackSuspended
}

// NewPlaybackSuspendedEvent creates a new PlaybackSuspendedEvent.
func NewPlaybackSuspendedEvent(position time.Duration) PlaybackSuspendedEvent {
	return PlaybackSuspendedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// VisualConfigChangedEvent is published after the host mutates the visual config.
// Field names the setting that changed.
type VisualConfigChangedEvent struct {
	baseEvent
	Field  string
	Config VisualConfig
}

// Type returns the event type.
func (e VisualConfigChangedEvent) Type() EventType {
	return EventVisualConfigChanged
}

// NewVisualConfigChangedEvent creates a new VisualConfigChangedEvent.
func NewVisualConfigChangedEvent(field string, config VisualConfig) VisualConfigChangedEvent {
	return VisualConfigChangedEvent{
		baseEvent: newBaseEvent(),
		Field:     field,
		Config:    config,
	}
}

// AlbumArtLoadedEvent is published when an album art handle becomes ready or fails.
type AlbumArtLoadedEvent struct {
	baseEvent
	Art   *AlbumArt
	Error error
}

// Type returns the event type.
func (e AlbumArtLoadedEvent) Type() EventType {
	return EventAlbumArtLoaded
}

// NewAlbumArtLoadedEvent creates a new AlbumArtLoadedEvent.
func NewAlbumArtLoadedEvent(art *AlbumArt, err error) AlbumArtLoadedEvent {
	return AlbumArtLoadedEvent{
		baseEvent: newBaseEvent(),
		Art:       art,
		Error:     err,
	}
}

// LibraryUpdatedEvent is published when the selectable track list changes.
type LibraryUpdatedEvent struct {
	baseEvent
	Tracks []Track
}

// Type returns the event type.
func (e LibraryUpdatedEvent) Type() EventType {
	return EventLibraryUpdated
}

// NewLibraryUpdatedEvent creates a new LibraryUpdatedEvent.
func NewLibraryUpdatedEvent(tracks []Track) LibraryUpdatedEvent {
	return LibraryUpdatedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
	}
}
