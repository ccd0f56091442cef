package visualizer

import (
	"image"
	"image/color"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// fixedAnalyser reports the same bytes every frame.
type fixedAnalyser struct {
	bins      int
	freq      byte
	wave      byte
	freqCalls int
	waveCalls int
}

func (a *fixedAnalyser) FrequencyBinCount() int { return a.bins }

func (a *fixedAnalyser) ByteFrequencyData(dst []byte) {
	a.freqCalls++
	for i := range dst {
		dst[i] = a.freq
	}
}

func (a *fixedAnalyser) ByteTimeDomainData(dst []byte) {
	a.waveCalls++
	for i := range dst {
		dst[i] = a.wave
	}
}

type fakeTransport struct {
	state    domain.AudioState
	duration time.Duration
}

func (f *fakeTransport) State() domain.AudioState { return f.state }
func (f *fakeTransport) Duration() time.Duration  { return f.duration }
func running(d time.Duration) *fakeTransport {
	return &fakeTransport{state: domain.AudioRunning, duration: d}
}
func suspendedTransport(d time.Duration) *fakeTransport {
	return &fakeTransport{state: domain.AudioSuspended, duration: d}
}

// op is one recorded surface call.
type op struct {
	name string
	args []float64
	fill ports.Paint
	text string
}

// recordSurface logs every call instead of drawing.
type recordSurface struct {
	w, h  int
	fill  ports.Paint
	stack []ports.Paint
	ops   []op
	pix   []byte
}

func newRecordSurface(w, h int) *recordSurface {
	return &recordSurface{w: w, h: h, pix: make([]byte, w*h*4)}
}

func (s *recordSurface) rec(name string, fill ports.Paint, args ...float64) {
	s.ops = append(s.ops, op{name: name, args: args, fill: fill})
}

func (s *recordSurface) Width() int  { return s.w }
func (s *recordSurface) Height() int { return s.h }
func (s *recordSurface) Save() {
	s.stack = append(s.stack, s.fill)
	s.rec("save", nil)
}
func (s *recordSurface) Restore() {
	if n := len(s.stack); n > 0 {
		s.fill = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
	s.rec("restore", nil)
}
func (s *recordSurface) Translate(x, y float64)      { s.rec("translate", nil, x, y) }
func (s *recordSurface) Rotate(a float64)            { s.rec("rotate", nil, a) }
func (s *recordSurface) SetGlobalAlpha(a float64)    { s.rec("alpha", nil, a) }
func (s *recordSurface) SetFill(p ports.Paint)       { s.fill = p }
func (s *recordSurface) FillRect(x, y, w, h float64) { s.rec("rect", s.fill, x, y, w, h) }
func (s *recordSurface) FillCircle(x, y, r float64)  { s.rec("circle", s.fill, x, y, r) }
func (s *recordSurface) ClipCircle(x, y, r float64)  { s.rec("clip", nil, x, y, r) }
func (s *recordSurface) DrawImage(_ image.Image, x, y, w, h float64) {
	s.rec("image", nil, x, y, w, h)
}
func (s *recordSurface) FillText(text string, x, y float64) {
	s.ops = append(s.ops, op{name: "text", args: []float64{x, y}, fill: s.fill, text: text})
}
func (s *recordSurface) ImageData() []byte { return s.pix }
func (s *recordSurface) Image() image.Image {
	return &image.RGBA{Pix: s.pix, Stride: s.w * 4, Rect: image.Rect(0, 0, s.w, s.h)}
}

func (s *recordSurface) find(name string) []op {
	var out []op
	for _, o := range s.ops {
		if o.name == name {
			out = append(out, o)
		}
	}
	return out
}

func (s *recordSurface) rectsFilled(c color.RGBA) []op {
	var out []op
	for _, o := range s.find("rect") {
		if solid, ok := o.fill.(ports.Solid); ok && color.RGBA(solid) == c {
			out = append(out, o)
		}
	}
	return out
}

var _ ports.Surface = (*recordSurface)(nil)
