// Package analyser turns a window of PCM samples into the 8-bit frequency and
// waveform snapshots the visualizer draws from. Scaling follows the usual
// browser analyser node: Blackman window, magnitude over N, exponential
// smoothing between calls, and decibels mapped linearly onto 0-255.
package analyser

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// Defaults match a freshly created browser analyser node.
const (
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0

	minFFTSize = 32
	maxFFTSize = 32768
)

// Analyser holds the most recent analysis window.
// It is safe for concurrent use: the engine feeds it while the frame loop reads it.
type Analyser struct {
	mu sync.Mutex

	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	fft      *fourier.FFT
	samples  []float64 // latest time-domain window, oldest first
	windowed []float64
	coeffs   []complex128
	smoothed []float64 // previous magnitudes, one per bin
}

// New creates an analyser for a power-of-two window size between 32 and 32768.
func New(fftSize int) (*Analyser, error) {
	if fftSize < minFFTSize || fftSize > maxFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, domain.NewValidationError("fft_size", fftSize,
			fmt.Sprintf("must be a power of two between %d and %d", minFFTSize, maxFFTSize))
	}
	return &Analyser{
		size:      fftSize,
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDB,
		maxDB:     DefaultMaxDB,
		fft:       fourier.NewFFT(fftSize),
		samples:   make([]float64, fftSize),
		windowed:  make([]float64, fftSize),
		coeffs:    make([]complex128, fftSize/2+1),
		smoothed:  make([]float64, fftSize/2),
	}, nil
}

// FFTSize returns the analysis window length.
func (a *Analyser) FFTSize() int {
	return a.size
}

// FrequencyBinCount is half the window size.
func (a *Analyser) FrequencyBinCount() int {
	return a.size / 2
}

// SetSmoothing sets the time constant applied between frequency reads, clamped to [0, 1].
func (a *Analyser) SetSmoothing(tc float64) {
	a.mu.Lock()
	a.smoothing = math.Max(0, math.Min(1, tc))
	a.mu.Unlock()
}

// SetRange sets the decibel range mapped onto 0-255. minDB must be below maxDB.
func (a *Analyser) SetRange(minDB, maxDB float64) error {
	if minDB >= maxDB {
		return domain.NewValidationError("decibel_range", [2]float64{minDB, maxDB}, "min must be below max")
	}
	a.mu.Lock()
	a.minDB, a.maxDB = minDB, maxDB
	a.mu.Unlock()
	return nil
}

// Update replaces the analysis window. Samples are mono in [-1, 1], oldest
// first. Only the newest FFTSize samples are kept; a short frame is padded
// with silence in front.
func (a *Analyser) Update(frame []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(frame) >= a.size {
		copy(a.samples, frame[len(frame)-a.size:])
		return
	}
	pad := a.size - len(frame)
	clear(a.samples[:pad])
	copy(a.samples[pad:], frame)
}

// Silence clears the window, as if the graph had been fed zeros.
func (a *Analyser) Silence() {
	a.mu.Lock()
	clear(a.samples)
	a.mu.Unlock()
}

// Reset clears the window and the smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	clear(a.samples)
	clear(a.smoothed)
	a.mu.Unlock()
}

// ByteFrequencyData runs the transform over the current window and writes
// the smoothed, dB-scaled magnitude of each bin. Every call advances the
// smoothing, like the browser API.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	copy(a.windowed, a.samples)
	window.Blackman(a.windowed)
	a.fft.Coefficients(a.coeffs, a.windowed)

	n := float64(a.size)
	span := a.maxDB - a.minDB
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / n
		v := a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.smoothed[k] = v

		if k >= len(dst) {
			continue
		}
		dst[k] = dbToByte(20*math.Log10(v), a.minDB, span)
	}
}

// ByteTimeDomainData writes the window as bytes where 128 is the zero line.
// Up to FFTSize bytes are written.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < len(dst) && i < a.size; i++ {
		dst[i] = clampByte(128 * (1 + a.samples[i]))
	}
}

func dbToByte(db, minDB, span float64) byte {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return 0
	}
	return clampByte(255 * (db - minDB) / span)
}

func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

var _ ports.Analyser = (*Analyser)(nil)
