package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/turntable/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/logger"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func fakeMetadata(path string) (*domain.Track, error) {
	if strings.Contains(path, "corrupt") {
		return nil, errors.New("bad tags")
	}
	return &domain.Track{Artist: "Tagged", Title: strings.ToUpper(filepath.Base(path))}, nil
}

func newTestLibrary(read MetadataFunc) (*LibraryService, *eventbus.SyncEventBus) {
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	return NewLibraryService(logger.NewTestLogger(), bus, read), bus
}

func TestLibraryService_ScanFolder(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "b.WAV"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "corrupt.mp3"))
	touch(t, filepath.Join(dir, "sub", "c.mp3"))
	touch(t, filepath.Join(dir, "sub", "cover.jpg"))

	lib, bus := newTestLibrary(fakeMetadata)
	var updated []domain.Track
	bus.Subscribe(domain.EventLibraryUpdated, func(e domain.Event) {
		updated = e.(domain.LibraryUpdatedEvent).Tracks
	})

	tracks, err := lib.ScanFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, filepath.Join(dir, "a.mp3"), tracks[0].FilePath)
	assert.Equal(t, "A.MP3", tracks[0].Title)
	assert.Equal(t, filepath.Join(dir, "a.png"), tracks[0].CoverPath)

	assert.Equal(t, filepath.Join(dir, "b.WAV"), tracks[1].FilePath)
	assert.Empty(t, tracks[1].CoverPath)

	assert.Equal(t, filepath.Join(dir, "sub", "c.mp3"), tracks[2].FilePath)
	assert.Equal(t, filepath.Join(dir, "sub", "cover.jpg"), tracks[2].CoverPath)

	assert.Len(t, updated, 3)
	assert.Equal(t, tracks, lib.Tracks())
	assert.False(t, lib.IsScanning())
}

func TestLibraryService_ScanWithoutMetadataReader(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "song.wav"))

	lib, _ := newTestLibrary(nil)
	tracks, err := lib.ScanFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "song", tracks[0].Title)
	assert.Equal(t, tracks[0].FilePath, tracks[0].ID)
}

func TestLibraryService_ScanErrors(t *testing.T) {
	lib, _ := newTestLibrary(fakeMetadata)

	_, err := lib.ScanFolder(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var serr *domain.ServiceError
	assert.ErrorAs(t, err, &serr)

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lib.ScanFolder(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, lib.Tracks())

	assert.Error(t, lib.CancelScan(), "nothing to cancel")
}

func TestLibraryService_AddDeduplicates(t *testing.T) {
	lib, bus := newTestLibrary(nil)
	published := 0
	bus.Subscribe(domain.EventLibraryUpdated, func(domain.Event) { published++ })

	assert.Equal(t, 2, lib.Add(domain.Track{FilePath: "a.mp3"}, domain.Track{FilePath: "b.mp3"}))
	assert.Equal(t, 0, lib.Add(domain.Track{FilePath: "a.mp3"}, domain.Track{}))
	assert.Equal(t, 1, published)

	got, ok := lib.Find("b.mp3")
	assert.True(t, ok)
	assert.Equal(t, "b.mp3", got.FilePath)
	_, ok = lib.Find("c.mp3")
	assert.False(t, ok)

	// callers get copies
	tracks := lib.Tracks()
	tracks[0].Title = "changed"
	assert.Empty(t, lib.Tracks()[0].Title)
}

func TestIsFormatSupportedAndFindCover(t *testing.T) {
	assert.True(t, IsFormatSupported("x.MP3"))
	assert.True(t, IsFormatSupported("x.wav"))
	assert.False(t, IsFormatSupported("x.flac"))

	dir := t.TempDir()
	audio := filepath.Join(dir, "track.mp3")
	assert.Empty(t, FindCover(audio))

	touch(t, filepath.Join(dir, "folder.webp"))
	assert.Equal(t, filepath.Join(dir, "folder.webp"), FindCover(audio))

	touch(t, filepath.Join(dir, "track.jpg"))
	assert.Equal(t, filepath.Join(dir, "track.jpg"), FindCover(audio))
}
