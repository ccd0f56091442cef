package visualizer

import (
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// Scene geometry. The platter and tonearm were laid out for a 1280x720 stage
// and are scaled by armScale; they do not follow the surface size.
const (
	discOffset     = 100 // disc center sits this far left of the surface center
	discInset      = 75  // disc radius is half the height minus this
	firstBar       = 5
	barSpacingTrim = 40
	barBase        = 5
	barGain        = 0.6
	barGap         = 2
	barDrift       = 0.00002

	armScale      = 1.15
	labelRadius   = 50
	spindleRadius = 10

	fadeAlpha = 0.1
	washAlpha = 0.3
)

var (
	black    = color.RGBA{A: 255}
	gray     = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	purple   = color.RGBA{R: 128, B: 128, A: 255}
	lavender = color.RGBA{R: 150, G: 111, B: 214, A: 255}
	barColor = color.RGBA{R: 180, G: 185, B: 234, A: 255}
)

// Options are the optional collaborators of a Compositor.
type Options struct {
	// Placeholder is drawn on the disc when album covers are switched off.
	Placeholder *domain.AlbumArt

	// Rand drives noise and tonearm jitter. Defaults to a randomly seeded PCG.
	Rand *rand.Rand

	Logger *slog.Logger
}

// Frame summarizes what one Render call drew.
type Frame struct {
	Progress    Progress
	Bars        int
	DiscDrawn   bool
	PostProcess bool
}

// Compositor draws the record player scene, one frame per Render call.
// It is not safe for concurrent use; the frame loop owns it.
type Compositor struct {
	surface   ports.Surface
	sampler   *Sampler
	transport ports.TransportState
	clock     ports.Clock

	placeholder *domain.AlbumArt
	wash        *ports.LinearGradient
	rng         *rand.Rand
	logger      *slog.Logger

	width, height float64
	discX, discY  float64
	discRadius    float64

	discWasReady bool
}

// NewCompositor binds the compositor to its surface and inputs.
func NewCompositor(surface ports.Surface, sampler *Sampler, transport ports.TransportState, clock ports.Clock, opts Options) *Compositor {
	w, h := float64(surface.Width()), float64(surface.Height())

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Compositor{
		surface:     surface,
		sampler:     sampler,
		transport:   transport,
		clock:       clock,
		placeholder: opts.Placeholder,
		wash: &ports.LinearGradient{
			X0: 0, Y0: 0, X1: 0, Y1: h,
			Stops: []ports.ColorStop{
				{Offset: 0.3, Color: purple},
				{Offset: 0.5, Color: lavender},
				{Offset: 0.7, Color: purple},
			},
		},
		rng:          rng,
		logger:       log.With(slog.String("component", "compositor")),
		width:        w,
		height:       h,
		discX:        w/2 - discOffset,
		discY:        h / 2,
		discRadius:   h/2 - discInset,
		discWasReady: true,
	}
}

// Surface returns the surface frames are drawn into.
func (c *Compositor) Surface() ports.Surface {
	return c.surface
}

// Render draws one frame from a configuration snapshot.
func (c *Compositor) Render(cfg domain.VisualConfig) Frame {
	var frame Frame
	samples := c.sampler.Sample(cfg.SampleMode())
	suspended := c.transport.State() != domain.AudioRunning

	c.drawBackground(cfg)
	if cfg.ShowBars {
		frame.Bars = c.drawBars(samples, cfg.BarHeightScale, suspended)
	}
	frame.DiscDrawn = c.drawDisc(cfg)
	c.drawPlatter(cfg)

	frame.Progress = ComputeProgress(ProgressInputs{
		Suspended:        suspended,
		CurrentTime:      cfg.CurrentTime,
		Elapsed:          c.clock.Elapsed(),
		Duration:         c.transport.Duration(),
		EarthquakeJitter: cfg.EarthquakeJitter,
	}, c.rng.Float64)
	c.drawTonearm(frame.Progress)

	fx := Effects{Noise: cfg.ShowNoise, Invert: cfg.ShowInvert, Emboss: cfg.ShowEmboss}
	if fx.Any() {
		PostProcess(c.surface.ImageData(), c.surface.Width(), fx, c.rng.Float64)
		frame.PostProcess = true
	}
	return frame
}

func (c *Compositor) washPaint(cfg domain.VisualConfig) ports.Paint {
	if cfg.ShowGradient {
		return c.wash
	}
	return ports.Solid(black)
}

func (c *Compositor) drawBackground(cfg domain.VisualConfig) {
	s := c.surface

	s.Save()
	s.SetFill(ports.Solid(black))
	s.SetGlobalAlpha(fadeAlpha)
	s.FillRect(0, 0, c.width, c.height)
	s.Restore()

	s.Save()
	s.SetFill(c.washPaint(cfg))
	s.SetGlobalAlpha(washAlpha)
	s.FillRect(0, 0, c.width, c.height)
	s.Restore()
}

// drawBars plots one bar per sample from index firstBar, fanned around the disc.
// The angular drift restarts every frame.
func (c *Compositor) drawBars(samples domain.SampleBuffer, scale float64, suspended bool) int {
	n := len(samples)
	if n <= firstBar {
		return 0
	}
	if suspended {
		scale = 0
	}
	s := c.surface
	barWidth := c.width/float64(n) - barGap
	spread := float64(n - barSpacingTrim)

	rot := 0.0
	drawn := 0
	for i := firstBar; i < n; i++ {
		rot -= barDrift
		s.Save()
		s.SetFill(ports.Solid(barColor))
		s.Translate(c.discX, c.discY)
		s.Rotate(2*math.Pi*float64(i)/spread + rot)
		s.FillRect(0, c.discRadius, barWidth, barBase+float64(samples[i])*barGain*scale)
		s.Restore()
		drawn++
	}
	return drawn
}

// drawDisc draws the cover clipped to the disc and spun about its center.
// The clip and the cover rectangle stay fixed relative to each other, so the
// surface can reuse its scaled copy across frames. A cover that has not
// finished loading is skipped.
func (c *Compositor) drawDisc(cfg domain.VisualConfig) bool {
	art := c.placeholder
	if cfg.ShowCircles {
		art = cfg.AlbumCover
	}
	ready := art.Ready()
	if ready != c.discWasReady {
		c.logger.Debug("album disc readiness changed", slog.Bool("ready", ready), slog.Bool("cover", cfg.ShowCircles))
		c.discWasReady = ready
	}
	if !ready {
		return false
	}

	s := c.surface
	r := c.discRadius
	s.Save()
	s.ClipCircle(c.discX, c.discY, r)
	s.Translate(c.discX, c.discY)
	s.Rotate(cfg.Rotation)
	s.Translate(-c.discX, -c.discY)
	s.SetGlobalAlpha(1)
	s.DrawImage(art.Image(), c.discX-r, c.discY-r, 2*r, 2*r)
	s.Restore()
	return true
}

func (c *Compositor) drawPlatter(cfg domain.VisualConfig) {
	s := c.surface

	// pivot the tonearm sits on
	s.Save()
	s.SetFill(ports.Solid(black))
	s.SetGlobalAlpha(1)
	s.FillCircle(750*armScale, 150*armScale, 75*armScale)
	s.Restore()

	s.Save()
	s.SetFill(c.washPaint(cfg))
	s.FillCircle(c.discX, c.discY, labelRadius)
	s.SetFill(ports.Solid(black))
	s.FillCircle(c.discX, c.discY, spindleRadius)
	s.Restore()
}

// drawTonearm rotates the whole arm about the surface origin; p moves both the
// angle and the rectangles so the head tracks across the disc.
func (c *Compositor) drawTonearm(prog Progress) {
	s := c.surface
	p := prog.Value
	m := armScale

	s.Save()
	s.Rotate(TonearmAngle(p))
	s.SetFill(ports.Solid(gray))
	s.FillRect(200*p, 712*m-100*p, 350*m, 25*m)
	s.Rotate(math.Pi / 6)
	s.FillRect(220*m+120*p, 613*m-187*p, 150*m, 25*m)
	s.FillRect(120*m+120*p, 588*m-187*p, 150*m, 75*m)
	s.SetFill(ports.Solid(black))
	s.FillText(prog.Label, 160+120*p, 730-187*p)
	s.Restore()
}
