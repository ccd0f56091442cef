// Package ports define interfaces for dependency inversion.
// These interfaces keep the render core independent of audio, windowing and clock implementations.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// Analyser exposes the latest analysis window of the audio graph.
// Both methods fill caller-owned buffers and never allocate. Frequency data
// covers at most FrequencyBinCount bytes, time-domain data at most twice that.
type Analyser interface {
	// FrequencyBinCount is half the analysis window size.
	FrequencyBinCount() int

	// ByteFrequencyData writes per-bin magnitudes scaled to 0-255.
	// Silence reads as zeros.
	ByteFrequencyData(dst []byte)

	// ByteTimeDomainData writes waveform samples where 128 is the zero line.
	// Silence reads as 128s.
	ByteTimeDomainData(dst []byte)
}

// TransportState is the read-only view of the transport the compositor needs.
type TransportState interface {
	// State reports whether the graph is suspended or running.
	State() domain.AudioState

	// Duration is the current track length, or domain.DefaultTrackDuration
	// until a track has been decoded.
	Duration() time.Duration
}

// AudioEngine is the audio graph the visualizer listens to.
// It abstracts decoding, output and analysis so the core can be tested with mocks.
//
// Implementations must be thread-safe: transport calls arrive from UI goroutines
// while the frame loop samples the analyser.
type AudioEngine interface {
	Analyser
	TransportState

	// Initialize prepares the engine. The graph starts suspended.
	Initialize() error

	// Shutdown releases all engine resources and closes the graph.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Load decodes an audio file and makes it the current track, replacing any previous one.
	// The graph is left in its current state; the position restarts at zero.
	//
	// Returns the decoded track (with Duration set) or an error if decoding fails.
	Load(filePath string) (*domain.Track, error)

	// Unload drops the current track. Duration falls back to the default.
	Unload()

	// Resume starts processing audio.
	Resume() error

	// Suspend pauses processing; analysis data freezes at the current position.
	Suspend() error

	// SetVolume sets the output gain (0.0 to 1.0).
	SetVolume(volume float64) error

	// SetBass sets the low-shelf corner frequency in Hz; the shelf gain follows it.
	SetBass(frequency float64) error

	// SetTreble sets the high-shelf corner frequency in Hz; the shelf gain follows it.
	SetTreble(frequency float64) error
}

// Clock is a monotonic elapsed-time accumulator.
// It keeps counting while playback is suspended; callers save and restore it around pauses.
type Clock interface {
	// Elapsed returns the accumulated time.
	Elapsed() time.Duration

	// Reset sets the accumulated time to zero.
	Reset()

	// Set sets the accumulated time to an arbitrary resume value.
	Set(elapsed time.Duration)
}
