// Package domain contains core visualizer models and logic with no external dependencies.
// This package defines the fundamental entities of the turntable visualizer.
package domain

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultFFTSize is the analysis window size. Sample buffers hold half of it.
	DefaultFFTSize = 256

	// DefaultTrackDuration is reported until the real duration of a track is known.
	DefaultTrackDuration = 115 * time.Second
)

// SampleBuffer is one frame's worth of 8-bit analysis samples.
// Its length is fixed at setup time and equals half the analysis window.
type SampleBuffer []uint8

// NewSampleBuffer allocates a buffer for the given analysis window size.
func NewSampleBuffer(fftSize int) SampleBuffer {
	return make(SampleBuffer, fftSize/2)
}

// SampleMode selects what the sampler pulls from the analyser.
type SampleMode int

const (
	// ModeFrequency samples per-bin frequency magnitudes
	ModeFrequency SampleMode = iota

	// ModeWaveform samples raw time-domain amplitudes
	ModeWaveform
)

// String returns a human-readable representation of the sample mode.
func (m SampleMode) String() string {
	switch m {
	case ModeFrequency:
		return "frequency"
	case ModeWaveform:
		return "waveform"
	default:
		return "unknown"
	}
}

// AudioState mirrors the state of the audio processing graph.
type AudioState int

const (
	// AudioSuspended indicates the graph is paused; analysis data is frozen
	AudioSuspended AudioState = iota

	// AudioRunning indicates the graph is processing audio
	AudioRunning

	// AudioClosed indicates the engine has been shut down
	AudioClosed
)

// String returns a human-readable representation of the audio state.
func (s AudioState) String() string {
	switch s {
	case AudioSuspended:
		return "suspended"
	case AudioRunning:
		return "running"
	case AudioClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// VisualConfig holds every toggle and value the compositor reads each frame.
// The host owns the master copy; the compositor only ever sees a snapshot.
type VisualConfig struct {
	ShowGradient  bool
	ShowBars      bool
	ShowCircles   bool
	ShowNoise     bool
	ShowInvert    bool
	ShowEmboss    bool
	ShowFrequency bool // frequency sampling when true, waveform otherwise

	// Rotation is the album disc angle in radians.
	Rotation float64

	// RotationSpeed is added to Rotation once per frame (radians/frame).
	RotationSpeed float64

	// BarHeightScale multiplies the sample contribution to bar height.
	BarHeightScale float64

	// EarthquakeJitter (0..1) perturbs the tonearm progress each frame.
	EarthquakeJitter float64

	// AlbumCover is drawn on the disc when ShowCircles is set.
	AlbumCover *AlbumArt

	// CurrentTime is the elapsed playback time captured at the last pause.
	CurrentTime time.Duration
}

// DefaultVisualConfig returns the configuration the visualizer starts with.
func DefaultVisualConfig() VisualConfig {
	return VisualConfig{
		ShowGradient:   true,
		ShowBars:       true,
		ShowCircles:    true,
		ShowFrequency:  true,
		RotationSpeed:  0.01,
		BarHeightScale: 1,
	}
}

// SampleMode returns the sampling mode selected by the config.
func (c VisualConfig) SampleMode() SampleMode {
	if c.ShowFrequency {
		return ModeFrequency
	}
	return ModeWaveform
}

// Track represents an audio track together with the cover shown on the disc.
type Track struct {
	// ID is a unique identifier for the track
	ID string

	// FilePath is the path to the audio file
	FilePath string

	// Title is the song title (from metadata or filename)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Duration is the total length of the track, zero until decoded
	Duration time.Duration

	// CoverPath is an image file used as album art, if any
	CoverPath string

	// Cover is the embedded album art as raw bytes
	Cover []byte
}

// DisplayName returns the title, falling back to the file path.
func (t Track) DisplayName() string {
	if t.Title != "" {
		if t.Artist != "" {
			return t.Artist + " - " + t.Title
		}
		return t.Title
	}
	return t.FilePath
}

// ArtSource names where a cover comes from. Data wins over Path when both are set.
type ArtSource struct {
	Path string
	Data []byte
	Name string // label for Data-only sources
}

// Label identifies the source in logs and on the AlbumArt handle.
func (s ArtSource) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if len(s.Data) > 0 {
		return "embedded"
	}
	return s.Path
}

// IsZero reports whether the source names nothing.
func (s ArtSource) IsZero() bool {
	return len(s.Data) == 0 && s.Path == ""
}

// CoverSource picks the cover for a track: an explicit cover file wins over
// art embedded in the audio file's tags.
func (t Track) CoverSource() ArtSource {
	if t.CoverPath != "" {
		return ArtSource{Path: t.CoverPath}
	}
	if len(t.Cover) > 0 {
		return ArtSource{Data: t.Cover, Name: t.FilePath + "#cover"}
	}
	return ArtSource{}
}

// AlbumArt is an image handle whose pixels may arrive after the handle is created.
// Readers check Ready before using Image; no one ever blocks on it.
type AlbumArt struct {
	Source string

	ready atomic.Bool
	mu    sync.RWMutex
	img   image.Image
	err   error
}

// NewAlbumArt creates a handle that is not ready yet.
func NewAlbumArt(source string) *AlbumArt {
	return &AlbumArt{Source: source}
}

// NewReadyAlbumArt creates a handle that already holds its image.
func NewReadyAlbumArt(source string, img image.Image) *AlbumArt {
	a := NewAlbumArt(source)
	a.MarkReady(img)
	return a
}

// MarkReady stores the decoded image and flips the readiness flag.
func (a *AlbumArt) MarkReady(img image.Image) {
	a.mu.Lock()
	a.img = img
	a.err = nil
	a.mu.Unlock()
	a.ready.Store(img != nil)
}

// MarkFailed records why the image could not be loaded. The handle stays not ready.
func (a *AlbumArt) MarkFailed(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// Ready reports whether the image can be drawn. A nil handle is never ready.
func (a *AlbumArt) Ready() bool {
	return a != nil && a.ready.Load()
}

// Image returns the decoded image, or nil if the handle is not ready.
func (a *AlbumArt) Image() image.Image {
	if !a.Ready() {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.img
}

// Err returns the load failure, if any.
func (a *AlbumArt) Err() error {
	if a == nil {
		return ErrArtNotReady
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}
