package service

// Slider ranges of the control panel and how each value maps onto the model.
const (
	VolumeSliderMax     = 1.0
	VolumeSliderStep    = 0.01
	RotationSliderMax   = 10.0
	EarthquakeSliderMax = 100.0
	BarSliderMax        = 5.0
	FilterSliderMax     = 2.0 // 0-1000 Hz
	FilterSliderStep    = 0.1

	// filterHzPerStep turns a bass/treble slider step into a shelf corner frequency.
	filterHzPerStep = 500.0
)

// RotationSpeedFromSlider maps the rotation slider to radians per frame.
func RotationSpeedFromSlider(v float64) float64 { return v / 100 }

// SliderFromRotationSpeed is the inverse of RotationSpeedFromSlider.
func SliderFromRotationSpeed(speed float64) float64 { return speed * 100 }

// EarthquakeFromSlider maps the earthquake slider to the 0..1 jitter amount.
func EarthquakeFromSlider(v float64) float64 { return v / 100 }

// BarHeightFromSlider maps the bar slider to the bar height scale.
func BarHeightFromSlider(v float64) float64 { return v }

// FilterFrequencyFromSlider maps the bass and treble sliders to Hz.
func FilterFrequencyFromSlider(v float64) float64 { return v * filterHzPerStep }
