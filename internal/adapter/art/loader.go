// Package art loads album covers off the frame loop. A load hands back an
// AlbumArt handle at once; the pixels arrive later and flip its ready flag.
package art

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF covers
	_ "image/jpeg" // register JPEG covers
	_ "image/png"  // register PNG covers
	"io"
	"log/slog"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP covers

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// DefaultMaxSize caps the longer side of a decoded cover. The disc is never
// drawn larger than the surface height, so bigger covers only cost time.
const DefaultMaxSize = 1024

// Loader decodes covers on background goroutines.
type Loader struct {
	logger  *slog.Logger
	maxSize int
	wg      sync.WaitGroup
}

// NewLoader creates a loader. maxSize <= 0 uses DefaultMaxSize.
func NewLoader(logger *slog.Logger, maxSize int) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Loader{
		logger:  logger.With(slog.String("component", "art")),
		maxSize: maxSize,
	}
}

// Load starts decoding src and returns its handle immediately. The channel
// receives the outcome once (nil on success) and is then closed. A cancelled
// context leaves the handle not ready.
func (l *Loader) Load(ctx context.Context, src domain.ArtSource) (*domain.AlbumArt, <-chan error) {
	art := domain.NewAlbumArt(src.Label())
	done := make(chan error, 1)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer close(done)

		img, err := l.decode(ctx, src)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			art.MarkFailed(err)
			l.logger.Warn("album art failed", slog.String("source", src.Label()), slog.Any("error", err))
			done <- err
			return
		}
		art.MarkReady(img)
		l.logger.Debug("album art ready",
			slog.String("source", src.Label()),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()))
		done <- nil
	}()
	return art, done
}

// Wait blocks until every load started so far has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func (l *Loader) decode(ctx context.Context, src domain.ArtSource) (image.Image, error) {
	var r io.Reader
	switch {
	case len(src.Data) > 0:
		r = bytes.NewReader(src.Data)
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, src.Path)
			}
			return nil, fmt.Errorf("failed to open cover: %w", err)
		}
		defer f.Close()
		r = f
	default:
		return nil, domain.ErrInvalidFilePath
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			err = domain.ErrUnsupportedFormat
		}
		return nil, domain.NewDecodeError(src.Label(), format, err)
	}
	return Fit(img, l.maxSize), nil
}

// Fit scales img down so its longer side is at most maxSize. Smaller images
// are returned as they are.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
