package decoder

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// ReadMetadata builds a track from the file's tags. Files without tags, or
// with tags the library cannot parse, still produce a track titled after the
// file name. Duration is left for the caller.
func ReadMetadata(path string) (*domain.Track, error) {
	if path == "" {
		return nil, domain.ErrInvalidFilePath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, domain.ErrFileNotFound
	}

	base := filepath.Base(path)
	track := &domain.Track{
		ID:       generateTrackID(),
		FilePath: path,
		Title:    strings.TrimSuffix(base, filepath.Ext(base)),
	}

	file, err := os.Open(path)
	if err != nil {
		return track, nil
	}
	defer file.Close()

	md, err := tag.ReadFrom(file)
	if err != nil || md == nil {
		return track, nil
	}

	if title := strings.TrimSpace(md.Title()); title != "" {
		track.Title = title
	}
	if artist := strings.TrimSpace(md.Artist()); artist != "" {
		track.Artist = artist
	}
	if album := strings.TrimSpace(md.Album()); album != "" {
		track.Album = album
	}
	if pic := md.Picture(); pic != nil && len(pic.Data) > 0 {
		track.Cover = pic.Data
	}
	return track, nil
}

func generateTrackID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("track-%d", time.Now().UnixNano())
	}
	return "track-" + hex.EncodeToString(b)
}
