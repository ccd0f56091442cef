// Package canvas implements ports.Surface with tdewolff/canvas drawing into an
// in-memory RGBA frame. User space is y-down with the origin at the top left;
// the context view maps it onto the y-up canvas at one pixel per millimetre.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	tdcanvas "github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// DefaultFontSize is the label size in pixels.
const DefaultFontSize = 30

const (
	// resolution is one dot per millimetre, so canvas units are pixels.
	resolution = 1
	// ptPerPixel converts a pixel size into font points at that resolution.
	ptPerPixel = 72 / 25.4
)

// state is the part of Save/Restore the context does not keep itself.
type state struct {
	fill  ports.Paint
	alpha float64
	clips []circle       // canvas space; never appended in place once shared
	clip  *tdcanvas.Path // intersection of clips
}

type circle struct {
	center tdcanvas.Point
	radius float64
}

// Raster is a Surface backed by an opaque *image.RGBA.
// The frame starts opaque black and every draw composites over it, so the
// premultiplied pixels of image.RGBA equal straight RGBA bytes.
//
// Raster is not thread-safe; only the frame loop draws.
type Raster struct {
	img  *image.RGBA
	w, h int

	ctx  *tdcanvas.Context
	base tdcanvas.Matrix

	family   *tdcanvas.FontFamily
	fontSize float64

	cur   state
	stack []state

	cover  imageCache
	washes map[*ports.LinearGradient]*image.RGBA
}

// NewRaster creates a surface of the given size with the default label font.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, domain.NewValidationError("surface", image.Pt(width, height), "dimensions must be positive")
	}

	family := tdcanvas.NewFontFamily("go")
	if err := family.LoadFont(goregular.TTF, 0, tdcanvas.FontRegular); err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := tdcanvas.Identity.Translate(0, float64(height)).Scale(1, -1)
	ctx := tdcanvas.NewContext(rasterizer.New(img, resolution))
	ctx.SetStrokeColor(tdcanvas.Transparent)
	ctx.SetView(base)

	r := &Raster{
		img:      img,
		w:        width,
		h:        height,
		ctx:      ctx,
		base:     base,
		family:   family,
		fontSize: DefaultFontSize * ptPerPixel,
		cur:      state{fill: ports.Solid(color.RGBA{A: 255}), alpha: 1},
		washes:   make(map[*ports.LinearGradient]*image.RGBA),
	}
	r.Clear(color.RGBA{A: 255})
	return r, nil
}

// Clear paints every pixel with the opaque color c, ignoring transform, clip and alpha.
func (r *Raster) Clear(c color.RGBA) {
	c.A = 255
	r.ctx.Push()
	r.ctx.SetView(tdcanvas.Identity)
	r.ctx.SetFillColor(c)
	r.ctx.DrawPath(0, 0, tdcanvas.Rectangle(float64(r.w), float64(r.h)))
	r.ctx.Pop()
}

// Width returns the frame width in pixels.
func (r *Raster) Width() int { return r.w }

// Height returns the frame height in pixels.
func (r *Raster) Height() int { return r.h }

// Save pushes the drawing state.
func (r *Raster) Save() {
	r.ctx.Push()
	r.stack = append(r.stack, r.cur)
}

// Restore pops the drawing state. An unbalanced Restore is a no-op.
func (r *Raster) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.ctx.Pop()
	r.cur = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

// Depth reports how many states are saved.
func (r *Raster) Depth() int {
	return len(r.stack)
}

// Translate post-multiplies the transform by a translation.
func (r *Raster) Translate(x, y float64) {
	r.ctx.Translate(x, y)
}

// Rotate post-multiplies the transform by a clockwise (y-down) rotation.
func (r *Raster) Rotate(radians float64) {
	r.ctx.Rotate(radians * 180 / math.Pi)
}

// SetGlobalAlpha sets the opacity applied to every subsequent draw.
func (r *Raster) SetGlobalAlpha(alpha float64) {
	r.cur.alpha = math.Max(0, math.Min(1, alpha))
}

// SetFill sets the paint used by fills and text.
// A gradient is treated as immutable once it has been drawn.
func (r *Raster) SetFill(paint ports.Paint) {
	r.cur.fill = paint
}

// FillRect fills an axis-aligned rectangle in user space.
func (r *Raster) FillRect(x, y, w, h float64) {
	if w == 0 || h == 0 {
		return
	}
	if g, ok := r.cur.fill.(*ports.LinearGradient); ok && r.coversFrame(x, y, w, h) {
		r.blitWash(g)
		return
	}
	r.fill(tdcanvas.Rectangle(w, h).Translate(x, y))
}

// FillCircle fills a circle in user space.
func (r *Raster) FillCircle(cx, cy, radius float64) {
	if radius <= 0 {
		return
	}
	r.fill(tdcanvas.Circle(radius).Translate(cx, cy))
}

// ClipCircle intersects the clip region with a circle in user space.
func (r *Raster) ClipCircle(cx, cy, radius float64) {
	view := r.ctx.View()
	p := tdcanvas.Circle(radius).Translate(cx, cy).Transform(view)
	if r.cur.clip != nil {
		p = p.And(r.cur.clip)
	}
	r.cur.clip = p

	n := len(r.cur.clips)
	r.cur.clips = append(r.cur.clips[:n:n], circle{
		center: view.Dot(tdcanvas.Point{X: cx, Y: cy}),
		radius: radius,
	})
}

// DrawImage draws img scaled into the user-space rectangle, honoring transform,
// clip and global alpha. The scaled and clipped copy is kept between frames, so
// a cover spun about the clip center is resampled only once.
func (r *Raster) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || img.Bounds().Empty() || r.cur.alpha == 0 {
		return
	}
	pw, ph := int(math.Round(w)), int(math.Round(h))
	if pw <= 0 || ph <= 0 {
		return
	}

	// local maps the pixels of the scaled copy (y-down) to canvas space.
	sx, sy := w/float64(pw), h/float64(ph)
	local := r.ctx.View().Translate(x, y).Scale(sx, sy)
	inv := local.Inv()
	clips := make([]circle, len(r.cur.clips))
	for i, c := range r.cur.clips {
		clips[i] = circle{center: inv.Dot(c.center), radius: c.radius / math.Max(sx, sy)}
	}
	src := r.cover.get(img, pw, ph, clips, r.cur.alpha)

	r.ctx.Push()
	r.ctx.SetView(local.Translate(0, float64(ph)).Scale(1, -1))
	r.ctx.DrawImage(0, 0, src, tdcanvas.DPMM(resolution))
	r.ctx.Pop()
}

// FillText draws text with its baseline starting at (x, y) in user space.
// Text ignores the clip. Gradients use their first stop.
func (r *Raster) FillText(text string, x, y float64) {
	if text == "" || r.cur.alpha == 0 {
		return
	}
	face := r.family.Face(r.fontSize, premultiply(textColor(r.cur.fill), r.cur.alpha), tdcanvas.FontRegular, tdcanvas.FontNormal)

	r.ctx.Push()
	r.ctx.Translate(x, y)
	r.ctx.Scale(1, -1)
	r.ctx.DrawText(0, 0, tdcanvas.NewTextLine(face, text, tdcanvas.Left))
	r.ctx.Pop()
}

// ImageData returns the live pixel bytes of the frame.
func (r *Raster) ImageData() []byte {
	return r.img.Pix
}

// Image returns the frame.
func (r *Raster) Image() image.Image {
	return r.img
}

// fill draws p, given in user space, with the current paint, alpha and clip.
func (r *Raster) fill(p *tdcanvas.Path) {
	if r.cur.alpha == 0 || r.cur.fill == nil {
		return
	}
	p = p.Transform(r.ctx.View())
	if r.cur.clip != nil {
		p = p.And(r.cur.clip)
	}

	r.ctx.Push()
	r.ctx.SetView(tdcanvas.Identity)
	switch paint := r.cur.fill.(type) {
	case ports.Solid:
		r.ctx.SetFillColor(premultiply(color.RGBA(paint), r.cur.alpha))
	case *ports.LinearGradient:
		r.ctx.SetFillGradient(r.gradient(paint, r.cur.alpha))
	}
	r.ctx.DrawPath(0, 0, p)
	r.ctx.Pop()
}

// gradient converts g, given in device pixels, to a canvas-space gradient.
func (r *Raster) gradient(g *ports.LinearGradient, alpha float64) *tdcanvas.LinearGradient {
	start := r.base.Dot(tdcanvas.Point{X: g.X0, Y: g.Y0})
	end := r.base.Dot(tdcanvas.Point{X: g.X1, Y: g.Y1})
	out := tdcanvas.NewLinearGradient(start, end)
	for _, s := range g.Stops {
		out.Add(s.Offset, premultiply(s.Color, alpha))
	}
	return out
}

// coversFrame reports whether a rectangle drawn now fills the whole unclipped frame.
func (r *Raster) coversFrame(x, y, w, h float64) bool {
	return r.cur.clip == nil && r.ctx.View() == r.base &&
		x <= 0 && y <= 0 && x+w >= float64(r.w) && y+h >= float64(r.h)
}

// blitWash composites a full-frame gradient rendered once per gradient.
func (r *Raster) blitWash(g *ports.LinearGradient) {
	if r.cur.alpha == 0 {
		return
	}
	wash, ok := r.washes[g]
	if !ok {
		wash = image.NewRGBA(r.img.Rect)
		ctx := tdcanvas.NewContext(rasterizer.New(wash, resolution))
		ctx.SetStrokeColor(tdcanvas.Transparent)
		ctx.SetFillGradient(r.gradient(g, 1))
		ctx.DrawPath(0, 0, tdcanvas.Rectangle(float64(r.w), float64(r.h)))
		r.washes[g] = wash
	}

	var mask image.Image
	if r.cur.alpha < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(r.cur.alpha*255 + 0.5)})
	}
	draw.DrawMask(r.img, r.img.Rect, wash, image.Point{}, mask, image.Point{}, draw.Over)
}

// imageCache holds the last scaled, clipped and faded copy DrawImage produced.
type imageCache struct {
	src  image.Image
	key  string
	img  *image.RGBA
	hits int
}

func (c *imageCache) get(src image.Image, w, h int, clips []circle, alpha float64) *image.RGBA {
	key := cacheKey(w, h, clips, alpha)
	if c.img != nil && c.src == src && c.key == key {
		c.hits++
		return c.img
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Rect, src, src.Bounds(), xdraw.Src, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := alpha
			for _, cl := range clips {
				d := math.Hypot(float64(x)+0.5-cl.center.X, float64(y)+0.5-cl.center.Y)
				k *= math.Max(0, math.Min(1, cl.radius-d+0.5))
			}
			if k >= 1 {
				continue
			}
			i := out.PixOffset(x, y)
			for j := i; j < i+4; j++ {
				out.Pix[j] = uint8(float64(out.Pix[j])*k + 0.5)
			}
		}
	}

	c.src, c.key, c.img, c.hits = src, key, out, 0
	return out
}

// cacheKey quantizes clip geometry to a quarter pixel so float drift from
// rotation does not force a rebuild.
func cacheKey(w, h int, clips []circle, alpha float64) string {
	b := make([]byte, 0, 32+24*len(clips))
	b = strconv.AppendInt(b, int64(w), 10)
	b = append(b, 'x')
	b = strconv.AppendInt(b, int64(h), 10)
	b = append(b, '@')
	b = strconv.AppendInt(b, int64(math.Round(alpha*255)), 10)
	for _, c := range clips {
		b = append(b, '|')
		b = strconv.AppendInt(b, int64(math.Round(c.center.X*4)), 10)
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(math.Round(c.center.Y*4)), 10)
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(math.Round(c.radius*4)), 10)
	}
	return string(b)
}

// premultiply scales a straight color by its own alpha and the global alpha.
func premultiply(c color.RGBA, alpha float64) color.RGBA {
	k := float64(c.A) / 255 * alpha
	return color.RGBA{
		R: uint8(float64(c.R)*k + 0.5),
		G: uint8(float64(c.G)*k + 0.5),
		B: uint8(float64(c.B)*k + 0.5),
		A: uint8(255*k + 0.5),
	}
}

func textColor(p ports.Paint) color.RGBA {
	switch paint := p.(type) {
	case ports.Solid:
		return color.RGBA(paint)
	case *ports.LinearGradient:
		if len(paint.Stops) > 0 {
			return paint.Stops[0].Color
		}
	}
	return color.RGBA{A: 255}
}

// Verify that Raster implements the Surface interface
var _ ports.Surface = (*Raster)(nil)
