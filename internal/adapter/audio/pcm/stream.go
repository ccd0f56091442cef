package pcm

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/tejashwikalptaru/turntable/internal/adapter/audio/decoder"
)

// OutputChannels is the channel count of the rendered stream.
const OutputChannels = 2

// bytesPerFrame is 16-bit samples times two channels.
const bytesPerFrame = 2 * OutputChannels

const (
	// defaultShelfFrequency is where a fresh filter sits; with zero gain it is flat.
	defaultShelfFrequency = 350
	// shelfQ gives the cookbook shelf slope of 1.
	shelfQ = 1 / math.Sqrt2
	// minShelfFrequency and maxShelfRatio keep the corner inside (0, nyquist).
	minShelfFrequency = 10
	maxShelfRatio     = 0.49
)

// stream renders the current track for the output sink: resampled to the
// sink rate, shelved (treble then bass) and scaled by the gain, as signed
// 16-bit little-endian stereo. Past the end of the track, or with no track,
// it yields silence instead of EOF so the sink keeps its player alive.
type stream struct {
	mu sync.Mutex

	rate   int
	pcm    *decoder.PCM
	cursor float64 // position in source frames
	step   float64 // source frames per output frame

	gain           float64
	bassHz, bassDB float64
	trebHz, trebDB float64
	bass, treble   [OutputChannels]*biquad.Section
}

func newStream(rate int) *stream {
	s := &stream{
		rate:   rate,
		gain:   DefaultVolume,
		bassHz: defaultShelfFrequency,
		trebHz: defaultShelfFrequency,
	}
	s.retune()
	return s
}

// load swaps in a new track and rewinds.
func (s *stream) load(p *decoder.PCM) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pcm = p
	s.cursor = 0
	s.step = 1
	if p != nil && p.SampleRate > 0 {
		s.step = float64(p.SampleRate) / float64(s.rate)
	}
	s.retune()
}

func (s *stream) seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pcm == nil {
		return
	}
	s.cursor = float64(s.pcm.FrameAt(pos))
}

func (s *stream) setGain(g float64) {
	s.mu.Lock()
	s.gain = g
	s.mu.Unlock()
}

func (s *stream) setBass(hz, db float64) {
	s.mu.Lock()
	s.bassHz, s.bassDB = hz, db
	s.retune()
	s.mu.Unlock()
}

func (s *stream) setTreble(hz, db float64) {
	s.mu.Lock()
	s.trebHz, s.trebDB = hz, db
	s.retune()
	s.mu.Unlock()
}

// sourceRate is the rate the shelves run at: the track's, or the sink's without one.
func (s *stream) sourceRate() float64 {
	if s.pcm != nil && s.pcm.SampleRate > 0 {
		return float64(s.pcm.SampleRate)
	}
	return float64(s.rate)
}

// retune rebuilds both shelves for the current track rate. Callers hold mu.
func (s *stream) retune() {
	rate := s.sourceRate()
	lo := design.LowShelf(clampShelf(s.bassHz, rate), s.bassDB, shelfQ, rate)
	hi := design.HighShelf(clampShelf(s.trebHz, rate), s.trebDB, shelfQ, rate)
	for c := range s.bass {
		s.bass[c] = biquad.NewSection(lo)
		s.treble[c] = biquad.NewSection(hi)
	}
}

func clampShelf(hz, rate float64) float64 {
	return math.Min(math.Max(minShelfFrequency, hz), rate*maxShelfRatio)
}

// Read implements io.Reader. It never returns an error.
func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / bytesPerFrame
	for i := 0; i < frames; i++ {
		var out [OutputChannels]float64
		if s.pcm != nil && s.cursor < float64(s.pcm.Frames()) {
			for c := 0; c < OutputChannels; c++ {
				x := s.sample(c)
				x = s.treble[c].ProcessSample(x)
				x = s.bass[c].ProcessSample(x)
				out[c] = x * s.gain
			}
			s.cursor += s.step
		}
		for c, v := range out {
			binary.LittleEndian.PutUint16(p[i*bytesPerFrame+c*2:], uint16(toInt16(v)))
		}
	}
	return frames * bytesPerFrame, nil
}

// sample interpolates channel c at the cursor. Mono sources feed both channels.
func (s *stream) sample(c int) float64 {
	p := s.pcm
	ch := p.Channels
	if c >= ch {
		c = ch - 1
	}
	i := int(s.cursor)
	frac := s.cursor - float64(i)
	a := float64(p.Samples[i*ch+c])
	if frac == 0 || i+1 >= p.Frames() {
		return a
	}
	b := float64(p.Samples[(i+1)*ch+c])
	return a + (b-a)*frac
}

func toInt16(v float64) int16 {
	v = math.Round(v * 32767)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
