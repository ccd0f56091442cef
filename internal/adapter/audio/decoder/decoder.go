// Package decoder reads audio files into memory as float PCM.
// WAV goes through go-audio/wav and MP3 through go-mp3; tags and embedded
// cover art come from dhowden/tag.
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// Format identifies a supported container.
type Format string

// Supported formats.
const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// FormatOf returns the format implied by the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	default:
		return "", domain.ErrUnsupportedFormat
	}
}

// PCM is a fully decoded track: interleaved samples in [-1, 1].
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames (one sample per channel).
func (p *PCM) Frames() int {
	if p == nil || p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the playing time of the track.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate == 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// FrameAt converts a playback position into a frame index, clamped to the track.
func (p *PCM) FrameAt(pos time.Duration) int {
	if pos <= 0 || p.SampleRate == 0 {
		return 0
	}
	f := int(int64(pos) * int64(p.SampleRate) / int64(time.Second))
	return min(f, p.Frames())
}

// MonoWindow mixes the frames ending at frame end down to mono into dst.
// Positions before the start of the track read as silence.
func (p *PCM) MonoWindow(dst []float64, end int) {
	start := end - len(dst)
	ch := p.Channels
	for i := range dst {
		f := start + i
		if f < 0 || f >= p.Frames() {
			dst[i] = 0
			continue
		}
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(p.Samples[f*ch+c])
		}
		dst[i] = sum / float64(ch)
	}
}

// Decode reads the whole file into memory.
func Decode(path string) (*PCM, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, domain.NewDecodeError(path, strings.TrimPrefix(filepath.Ext(path), "."), err)
	}

	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pcm *PCM
	switch format {
	case FormatWAV:
		pcm, err = decodeWAV(f)
	case FormatMP3:
		pcm, err = decodeMP3(f)
	}
	if err != nil {
		return nil, domain.NewDecodeError(path, string(format), err)
	}
	return pcm, nil
}

func open(path string) (*os.File, error) {
	if path == "" {
		return nil, domain.ErrInvalidFilePath
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	return f, nil
}

func decodeWAV(r io.ReadSeeker) (*PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 || buf.Format.SampleRate == 0 {
		return nil, errors.New("missing WAV format chunk")
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		return nil, errors.New("unknown WAV bit depth")
	}
	scale := float32(audio.IntMaxSignedValue(bitDepth))

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / scale
	}
	return &PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    samples,
	}, nil
}

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

func decodeMP3(r io.Reader) (*PCM, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 stream: %w", err)
	}

	var raw []byte
	if n := d.Length(); n > 0 {
		raw = make([]byte, 0, n)
	}
	chunk := make([]byte, 64*1024)
	for {
		k, err := d.Read(chunk)
		raw = append(raw, chunk[:k]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode MP3 frame: %w", err)
		}
	}

	frames := len(raw) / mp3BytesPerFrame
	samples := make([]float32, frames*mp3Channels)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768
	}
	return &PCM{
		SampleRate: d.SampleRate(),
		Channels:   mp3Channels,
		Samples:    samples,
	}, nil
}

// ProbeDuration reads only as much of the file as needed to know its length.
func ProbeDuration(path string) (time.Duration, error) {
	format, err := FormatOf(path)
	if err != nil {
		return 0, domain.NewDecodeError(path, strings.TrimPrefix(filepath.Ext(path), "."), err)
	}

	f, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var d time.Duration
	switch format {
	case FormatWAV:
		d, err = probeWAV(f)
	case FormatMP3:
		d, err = probeMP3(f)
	}
	if err != nil {
		return 0, domain.NewDecodeError(path, string(format), err)
	}
	return d, nil
}

func probeWAV(r io.ReadSeeker) (time.Duration, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return 0, errors.New("invalid WAV file")
	}
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to locate PCM chunk: %w", err)
	}
	format := d.Format()
	bytesPerSample := (int(d.SampleBitDepth())-1)/8 + 1
	if format == nil || format.SampleRate == 0 || format.NumChannels == 0 || bytesPerSample <= 0 {
		return 0, errors.New("missing WAV format chunk")
	}
	frames := d.PCMLen() / int64(bytesPerSample*format.NumChannels)
	return time.Duration(frames) * time.Second / time.Duration(format.SampleRate), nil
}

func probeMP3(r io.Reader) (time.Duration, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("failed to open MP3 stream: %w", err)
	}
	n := d.Length()
	if n <= 0 || d.SampleRate() == 0 {
		return 0, errors.New("cannot determine MP3 length")
	}
	frames := n / mp3BytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(d.SampleRate()), nil
}
