package ports

import (
	"context"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// ArtLoader decodes album covers in the background.
type ArtLoader interface {
	// Load returns a handle at once. The channel receives the single outcome
	// (nil on success) and is then closed.
	Load(ctx context.Context, src domain.ArtSource) (*domain.AlbumArt, <-chan error)
}
