package art

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
	"github.com/tejashwikalptaru/turntable/internal/testutil"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: 80, B: uint8(y * 255 / h), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadFormats(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	src := testImage(32, 24)
	var jpg, gf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))
	require.NoError(t, gif.Encode(&gf, src, nil))

	tests := []struct {
		name string
		data []byte
	}{
		{"png", encodePNG(t, src)},
		{"jpeg", jpg.Bytes()},
		{"gif", gf.Bytes()},
	}

	l := NewLoader(logger.NewTestLogger(), 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, done := l.Load(context.Background(), domain.ArtSource{Data: tt.data, Name: tt.name})
			require.NoError(t, <-done)
			assert.True(t, art.Ready())
			assert.Equal(t, tt.name, art.Source)
			assert.Equal(t, image.Rect(0, 0, 32, 24), art.Image().Bounds())
		})
	}
	l.Wait()
}

func TestLoadFromPath(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, testImage(8, 8)), 0o600))

	l := NewLoader(logger.NewTestLogger(), 0)
	art, done := l.Load(context.Background(), domain.ArtSource{Path: path})
	assert.Equal(t, path, art.Source)
	require.NoError(t, <-done)
	assert.True(t, art.Ready())

	// the channel is closed after the single result
	_, open := <-done
	assert.False(t, open)
}

func TestLoadReturnsBeforeDecoding(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLoader(logger.NewTestLogger(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	art, done := l.Load(ctx, domain.ArtSource{Data: encodePNG(t, testImage(4, 4))})
	require.NotNil(t, art)
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, art.Ready())
	assert.Nil(t, art.Image())
	assert.ErrorIs(t, art.Err(), context.Canceled)
}

func TestLoadFailures(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	l := NewLoader(logger.NewTestLogger(), 0)

	missing := filepath.Join(t.TempDir(), "missing.png")
	art, done := l.Load(context.Background(), domain.ArtSource{Path: missing})
	err := <-done
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.EqualError(t, err, "file not found: "+missing)
	assert.False(t, art.Ready())

	art, done = l.Load(context.Background(), domain.ArtSource{Data: []byte("definitely not an image")})
	err = <-done
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	var derr *domain.DecodeError
	assert.ErrorAs(t, err, &derr)
	assert.False(t, art.Ready())

	_, done = l.Load(context.Background(), domain.ArtSource{})
	assert.ErrorIs(t, <-done, domain.ErrInvalidFilePath)

	l.Wait()
}

func TestLoadDownscalesLargeCovers(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLoader(logger.NewTestLogger(), 16)
	art, done := l.Load(context.Background(), domain.ArtSource{Data: encodePNG(t, testImage(64, 32))})
	require.NoError(t, <-done)
	assert.Equal(t, image.Rect(0, 0, 16, 8), art.Image().Bounds())
}

func TestFit(t *testing.T) {
	small := testImage(10, 10)
	assert.Same(t, small, Fit(small, 10))

	tall := Fit(testImage(20, 100), 50)
	assert.Equal(t, image.Rect(0, 0, 10, 50), tall.Bounds())

	sliver := Fit(testImage(1000, 1), 10)
	assert.Equal(t, image.Rect(0, 0, 10, 1), sliver.Bounds())
}
