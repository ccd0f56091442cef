package ports

import (
	"image"
	"image/color"
)

// Paint is what shapes are filled with: a Solid or a *LinearGradient.
type Paint interface {
	paint()
}

// Solid is a single straight-alpha color.
type Solid color.RGBA

// ColorStop is one stop of a linear gradient. Offset is in [0, 1].
type ColorStop struct {
	Offset float64
	Color  color.RGBA
}

// LinearGradient interpolates between stops along the segment (X0,Y0)-(X1,Y1),
// in device coordinates. Positions outside the first/last stop take that stop's color.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []ColorStop
}

func (Solid) paint()           {}
func (*LinearGradient) paint() {}

// Surface is the 2D drawing target of the compositor.
// It follows the immediate-mode canvas model: a current transform and clip that
// Save/Restore push and pop, a current fill paint and a global alpha.
//
// Surfaces are not thread-safe; only the frame loop draws.
type Surface interface {
	Width() int
	Height() int

	// Save pushes transform, clip, fill and alpha.
	Save()

	// Restore pops the state pushed by the matching Save.
	Restore()

	// Translate and Rotate post-multiply the current transform.
	Translate(x, y float64)
	Rotate(radians float64)

	SetGlobalAlpha(alpha float64)
	SetFill(paint Paint)

	// FillRect fills an axis-aligned rectangle in user space.
	FillRect(x, y, w, h float64)

	// FillCircle fills a full circle in user space.
	FillCircle(cx, cy, r float64)

	// ClipCircle intersects the clip with a circle in user space.
	ClipCircle(cx, cy, r float64)

	// DrawImage draws img scaled into the user-space rectangle.
	DrawImage(img image.Image, x, y, w, h float64)

	// FillText draws text with its baseline starting at (x, y) in user space.
	FillText(text string, x, y float64)

	// ImageData returns the live RGBA pixel bytes, 4 per pixel, row stride 4*Width.
	// Writes go straight to the frame.
	ImageData() []byte

	// Image returns the frame as an image for presentation.
	Image() image.Image
}
