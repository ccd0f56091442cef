package domain

import (
	"fmt"
	"math"
	"time"
)

// FormatTimecode renders "M:SS/M:SS" for the tonearm label.
// Seconds are truncated, minutes are not padded.
func FormatTimecode(current, total time.Duration) string {
	return FormatClock(current) + "/" + FormatClock(total)
}

// FormatClock renders a single "M:SS" time.
func FormatClock(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0 || math.IsNaN(secs) {
		secs = 0
	}
	whole := int(math.Floor(secs))
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}
