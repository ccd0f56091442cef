// Package visualizer is the per-frame rendering core: it samples the analyser
// and composites the record player scene onto a surface.
package visualizer

import (
	"fmt"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// Sampler copies one analysis window per frame into a buffer it owns.
// The buffer is allocated once; every Sample call overwrites it in place.
type Sampler struct {
	analyser ports.Analyser
	buf      domain.SampleBuffer
}

// NewSampler binds an analyser to a buffer. The buffer length must equal the
// analyser's bin count; a mismatch is a wiring bug and panics.
func NewSampler(analyser ports.Analyser, buf domain.SampleBuffer) *Sampler {
	if analyser == nil {
		panic("visualizer: nil analyser")
	}
	if len(buf) != analyser.FrequencyBinCount() {
		panic(fmt.Sprintf("visualizer: sample buffer length %d does not match analyser bin count %d",
			len(buf), analyser.FrequencyBinCount()))
	}
	return &Sampler{analyser: analyser, buf: buf}
}

// Sample refreshes the buffer from the analyser and returns it.
// The returned slice aliases the sampler's buffer and is only valid until the next call.
func (s *Sampler) Sample(mode domain.SampleMode) domain.SampleBuffer {
	if mode == domain.ModeWaveform {
		s.analyser.ByteTimeDomainData(s.buf)
	} else {
		s.analyser.ByteFrequencyData(s.buf)
	}
	return s.buf
}

// Len returns the number of samples per frame.
func (s *Sampler) Len() int {
	return len(s.buf)
}
