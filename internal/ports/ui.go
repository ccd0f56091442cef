package ports

import (
	"time"

	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// View is what the presenter drives. Implementations marshal every call onto
// the UI thread themselves, so the presenter may call from any goroutine.
type View interface {
	// SetPlaying switches the play button between its play and pause icons.
	SetPlaying(playing bool)

	// SetTrackTitle shows the selected track.
	SetTrackTitle(title string)

	// SetDuration shows the resolved length of the current track.
	SetDuration(d time.Duration)

	// SetTracks replaces the entries of the track selector.
	SetTracks(tracks []domain.Track)

	// ShowError reports a failure that the user should see.
	ShowError(title string, err error)
}
