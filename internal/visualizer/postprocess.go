package visualizer

// Effects selects the per-pixel passes applied after drawing.
type Effects struct {
	Noise  bool
	Invert bool
	Emboss bool
}

// Any reports whether at least one pass is enabled.
func (e Effects) Any() bool {
	return e.Noise || e.Invert || e.Emboss
}

const (
	noiseProbability = 0.05
	noiseLevel       = 200
)

// PostProcess applies noise, invert and emboss to a tightly packed RGBA buffer
// of the given width. rnd returns values in [0, 1) and is only called when
// noise is on, once per pixel.
func PostProcess(pix []byte, width int, fx Effects, rnd func() float64) {
	if !fx.Any() || width <= 0 {
		return
	}
	if fx.Noise || fx.Invert {
		noiseInvert(pix, fx, rnd)
	}
	if fx.Emboss {
		Emboss(pix, width)
	}
}

func noiseInvert(pix []byte, fx Effects, rnd func() float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		if fx.Noise && rnd() < noiseProbability {
			pix[i] = noiseLevel
			pix[i+1] = noiseLevel
			pix[i+2] = 0
		}
		if fx.Invert {
			pix[i] = 255 - pix[i]
			pix[i+1] = 255 - pix[i+1]
			pix[i+2] = 255 - pix[i+2]
		}
	}
}

// Emboss runs the relief filter in place, left to right and top to bottom:
//
//	v = 127 + 2*v - right - below
//
// where right is the same channel 4 bytes ahead and below is the same channel
// one row down. Reads see whatever the pass has already written. Results wrap
// at 8 bits. A neighbour past the end of the buffer reads as the channel's own
// value. Alpha bytes are left alone.
func Emboss(pix []byte, width int) {
	stride := width * 4
	n := len(pix)
	for i := 0; i < n; i++ {
		if i%4 == 3 {
			continue
		}
		v := int(pix[i])
		right, below := v, v
		if i+4 < n {
			right = int(pix[i+4])
		}
		if i+stride < n {
			below = int(pix[i+stride])
		}
		pix[i] = uint8(127 + 2*v - right - below)
	}
}
