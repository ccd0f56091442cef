package app

import (
	"log/slog"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
)

const (
	minFFTSize = 32
	maxFFTSize = 32768
)

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the window title
	AppName string

	// Width and Height are the drawing surface size in pixels
	Width  int
	Height int

	// FFTSize is the analysis window; bars per frame are half of it
	FFTSize int

	// SampleRate is the output device rate
	SampleRate int

	// TrackPath is loaded and selected on start (optional)
	TrackPath string

	// CoverPath overrides the cover found next to TrackPath
	CoverPath string

	// MusicDir is scanned into the track selector on start (optional)
	MusicDir string

	// UseMockAudio swaps the decoder and speaker for synthetic analysis data
	UseMockAudio bool

	// MuteOutput decodes and analyses but plays nothing
	MuteOutput bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// JSONLogs switches the log handler to JSON
	JSONLogs bool

	// Logger replaces the configured logger (tests)
	Logger *slog.Logger

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:      "io.github.tejashwikalptaru.turntable",
		AppName:    "Turntable",
		Width:      1280,
		Height:     720,
		FFTSize:    domain.DefaultFFTSize,
		SampleRate: 44100,
		LogLevel:   loggerCfg.Level,
	}
}

// Validate rejects configurations the visualizer cannot start with.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return domain.NewValidationError("width", c.Width, "must be positive")
	}
	if c.Height <= 0 {
		return domain.NewValidationError("height", c.Height, "must be positive")
	}
	if c.FFTSize < minFFTSize || c.FFTSize > maxFFTSize || c.FFTSize&(c.FFTSize-1) != 0 {
		return domain.NewValidationError("fft_size", c.FFTSize, "must be a power of two between 32 and 32768")
	}
	if !c.UseMockAudio && !c.MuteOutput && c.SampleRate <= 0 {
		return domain.NewValidationError("sample_rate", c.SampleRate, "must be positive")
	}
	return nil
}
