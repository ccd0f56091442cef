package decoder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// writeWAV writes a 16-bit file whose left channel holds left and right channel holds right.
func writeWAV(t *testing.T, dir string, rate int, left, right []int) string {
	t.Helper()
	path := filepath.Join(dir, "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	data := make([]int, 0, len(left)*2)
	for i := range left {
		data = append(data, left[i], right[i])
	}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func constant(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("/music/a.WAV")
	require.NoError(t, err)
	assert.Equal(t, FormatWAV, f)

	f, err = FormatOf("b.mp3")
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, f)

	_, err = FormatOf("c.flac")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestDecodeWAV(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 8000, constant(4000, 16384), constant(4000, -16384))

	pcm, err := Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, pcm.SampleRate)
	assert.Equal(t, 2, pcm.Channels)
	assert.Equal(t, 4000, pcm.Frames())
	assert.Equal(t, 500*time.Millisecond, pcm.Duration())
	assert.InDelta(t, 0.5, pcm.Samples[0], 1e-3)
	assert.InDelta(t, -0.5, pcm.Samples[1], 1e-3)
}

func TestProbeDurationWAV(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 8000, constant(12000, 0), constant(12000, 0))

	d, err := ProbeDuration(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.wav")
	_, err := Decode(missing)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.EqualError(t, err, "file not found: "+missing)

	_, err = Decode("")
	assert.Error(t, err)

	_, err = Decode(filepath.Join(dir, "track.ogg"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not RIFF data"), 0o600))
	_, err = Decode(junk)
	var derr *domain.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "wav", derr.Format)

	_, err = ProbeDuration(junk)
	assert.ErrorAs(t, err, &derr)

	badMP3 := filepath.Join(dir, "junk.mp3")
	require.NoError(t, os.WriteFile(badMP3, []byte{0, 1, 2, 3}, 0o600))
	_, err = Decode(badMP3)
	assert.ErrorAs(t, err, &derr)
}

func TestFrameAtAndMonoWindow(t *testing.T) {
	pcm := &PCM{
		SampleRate: 10,
		Channels:   2,
		Samples:    []float32{1, 0, 0.5, 0.5, -1, 1, 0.2, 0.4},
	}
	assert.Equal(t, 4, pcm.Frames())
	assert.Equal(t, 0, pcm.FrameAt(-time.Second))
	assert.Equal(t, 2, pcm.FrameAt(200*time.Millisecond))
	assert.Equal(t, 4, pcm.FrameAt(time.Hour))

	dst := make([]float64, 4)
	pcm.MonoWindow(dst, 2)
	assert.InDeltaSlice(t, []float64{0, 0, 0.5, 0.5}, dst, 1e-6)

	pcm.MonoWindow(dst, 5)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.3, 0}, dst, 1e-6)
}

func TestReadMetadataFallsBackToFileName(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 8000, constant(10, 0), constant(10, 0))

	track, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "tone", track.Title)
	assert.Equal(t, path, track.FilePath)
	assert.NotEmpty(t, track.ID)
	assert.Empty(t, track.Cover)

	_, err = ReadMetadata(filepath.Join(t.TempDir(), "nope.mp3"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	_, err = ReadMetadata("")
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)
}
