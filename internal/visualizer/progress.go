package visualizer

import (
	"math"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// ProgressInputs is everything the tonearm position depends on.
type ProgressInputs struct {
	Suspended        bool
	CurrentTime      time.Duration // position captured at the last pause
	Elapsed          time.Duration // clock reading while running
	Duration         time.Duration
	EarthquakeJitter float64
}

// Progress is the tonearm position for one frame.
type Progress struct {
	// Value is the playback fraction including jitter. It may leave [0, 1].
	Value float64

	// Current is the position shown on the label, zero after a rollover.
	Current time.Duration

	// Label is "M:SS/M:SS".
	Label string
}

// ComputeProgress derives the tonearm progress. rnd returns values in [0, 1).
// A position past the end of the track shows as 0 for this frame only.
func ComputeProgress(in ProgressInputs, rnd func() float64) Progress {
	current := in.Elapsed
	if in.Suspended {
		current = in.CurrentTime
	}

	var p float64
	if in.Duration > 0 {
		p = float64(current) / float64(in.Duration)
	}
	if p > 1 {
		p = 0
		current = 0
	}

	if q := in.EarthquakeJitter * 10; q != 0 && rnd != nil {
		p += rnd()*q*2 - q
	}

	return Progress{
		Value:   p,
		Current: current,
		Label:   domain.FormatTimecode(current, in.Duration),
	}
}

// TonearmAngle is the arm rotation in radians for a progress value:
// -60 degrees at the start of the track, moving clockwise as it plays.
func TonearmAngle(p float64) float64 {
	return -math.Pi/3 + 0.262*p
}
