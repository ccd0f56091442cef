package art

import (
	"image"
	"image/color"
	"math"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// PlaceholderSource labels the generated cover.
const PlaceholderSource = "placeholder"

var (
	vinyl      = color.RGBA{R: 18, G: 18, B: 20, A: 255}
	groove     = color.RGBA{R: 42, G: 42, B: 48, A: 255}
	labelColor = color.RGBA{R: 150, G: 111, B: 214, A: 255}
	labelRing  = color.RGBA{R: 128, B: 128, A: 255}
)

// Placeholder draws a plain record: black vinyl with faint grooves and a
// lavender center label. It is what the disc shows when covers are off.
func Placeholder(size int) *image.RGBA {
	if size <= 0 {
		size = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c) / c
			img.SetRGBA(x, y, placeholderAt(d))
		}
	}
	return img
}

// placeholderAt picks the color at normalized distance d from the center.
func placeholderAt(d float64) color.RGBA {
	switch {
	case d < 0.30:
		return labelColor
	case d < 0.34:
		return labelRing
	case d > 1:
		return vinyl
	}
	// a groove every ~4% of the radius
	if math.Mod(d*25, 1) < 0.2 {
		return groove
	}
	return vinyl
}

// PlaceholderArt wraps Placeholder in a ready handle.
func PlaceholderArt(size int) *domain.AlbumArt {
	return domain.NewReadyAlbumArt(PlaceholderSource, Placeholder(size))
}
