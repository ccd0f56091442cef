package service

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// MetadataFunc reads tags from an audio file.
type MetadataFunc func(path string) (*domain.Track, error)

var (
	audioExts = []string{".mp3", ".wav"}
	coverExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

	// folderCovers are tried when a track has no cover of its own name.
	folderCovers = []string{"cover", "folder", "front"}
)

// LibraryService keeps the list of tracks the track selector offers and can
// fill it from a music folder.
type LibraryService struct {
	logger       *slog.Logger
	bus          ports.EventBus
	readMetadata MetadataFunc

	mu         sync.RWMutex
	tracks     []domain.Track
	scanning   bool
	cancelScan context.CancelFunc
}

// NewLibraryService creates an empty library. readMetadata may be nil, in
// which case tracks are named after their files.
func NewLibraryService(logger *slog.Logger, bus ports.EventBus, readMetadata MetadataFunc) *LibraryService {
	return &LibraryService{
		logger:       logger.With(slog.String("service", "library")),
		bus:          bus,
		readMetadata: readMetadata,
	}
}

// Add appends tracks, skipping paths already present, and returns how many were new.
func (s *LibraryService) Add(tracks ...domain.Track) int {
	s.mu.Lock()
	added := 0
	for _, t := range tracks {
		if t.FilePath == "" || s.indexLocked(t.FilePath) >= 0 {
			continue
		}
		s.tracks = append(s.tracks, t)
		added++
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if added > 0 && s.bus != nil {
		s.bus.Publish(domain.NewLibraryUpdatedEvent(snapshot))
	}
	return added
}

// Tracks returns a copy of the track list in insertion order.
func (s *LibraryService) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Find looks a track up by file path.
func (s *LibraryService) Find(path string) (domain.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(path); i >= 0 {
		return s.tracks[i], true
	}
	return domain.Track{}, false
}

func (s *LibraryService) indexLocked(path string) int {
	for i, t := range s.tracks {
		if t.FilePath == path {
			return i
		}
	}
	return -1
}

func (s *LibraryService) snapshotLocked() []domain.Track {
	out := make([]domain.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// ScanFolder walks dir for playable files, reads their tags, pairs each with a
// cover image found next to it, and adds them to the library. Unreadable
// entries are skipped. Only one scan runs at a time.
func (s *LibraryService) ScanFolder(ctx context.Context, dir string) ([]domain.Track, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "scan already in progress", nil)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.scanning = true
	s.cancelScan = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	files, err := collectAudioFiles(ctx, dir)
	if err != nil {
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "failed to walk "+dir, err)
	}

	tracks := make([]domain.Track, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return tracks, domain.NewServiceError("LibraryService", "ScanFolder", "scan cancelled", err)
		}
		track, err := s.describe(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", slog.String("path", path), slog.Any("error", err))
			continue
		}
		tracks = append(tracks, track)
	}

	s.Add(tracks...)
	s.logger.Info("library scan finished", slog.String("dir", dir), slog.Int("tracks", len(tracks)))
	return tracks, nil
}

// CancelScan stops a running scan. It returns an error when none is running.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	s.cancelScan()
	return nil
}

// IsScanning reports whether a scan is running.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// describe builds a library entry for one file.
func (s *LibraryService) describe(path string) (domain.Track, error) {
	var track domain.Track
	if s.readMetadata != nil {
		t, err := s.readMetadata(path)
		if err != nil {
			return domain.Track{}, err
		}
		track = *t
	}
	track.FilePath = path
	if track.Title == "" {
		base := filepath.Base(path)
		track.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if track.ID == "" {
		track.ID = path
	}
	if track.CoverPath == "" {
		track.CoverPath = FindCover(path)
	}
	return track, nil
}

// IsFormatSupported reports whether path has a playable extension.
func IsFormatSupported(path string) bool {
	return hasExt(path, audioExts)
}

// FindCover returns an image next to audioPath to use as its cover: one with
// the same base name first, then a conventional folder image. It returns ""
// when there is none.
func FindCover(audioPath string) string {
	dir := filepath.Dir(audioPath)
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	for _, name := range append([]string{stem}, folderCovers...) {
		for _, ext := range coverExts {
			candidate := filepath.Join(dir, name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func collectAudioFiles(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == dir {
				return err
			}
			// unreadable subtrees are skipped
			return nil
		}
		if !d.IsDir() && IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
