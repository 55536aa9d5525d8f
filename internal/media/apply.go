package media

import (
	"errors"
	"fmt"

	"github.com/mediaviewer/server/internal/domain"
)

var ErrUnsupported = errors.New("target does not support intent")

// Capabilities a target may have. Video sources have all of them; image sources only
// fullscreen.
type (
	StateReader interface {
		State() domain.MediaState
	}
	PlayToggler interface {
		TogglePlay()
	}
	Seeker interface {
		Seek(t float64)
	}
	RelativeSeeker interface {
		SeekRelative(delta float64)
	}
	VolumeSetter interface {
		SetVolume(v float64)
	}
	MuteToggler interface {
		ToggleMute()
	}
	RateSetter interface {
		SetPlaybackRate(r float64)
	}
	Fullscreener interface {
		RequestFullscreen()
	}
)

var (
	_ StateReader  = (*Source)(nil)
	_ Fullscreener = (*ImageSource)(nil)
)

// Supports reports whether target can carry out intents of kind k. ToggleDarkMode is never
// supported by a media target.
func Supports(target any, k domain.IntentKind) bool {
	var ok bool
	switch k {
	case domain.IntentPlayPause:
		_, ok = target.(PlayToggler)
	case domain.IntentSeekAbsolute:
		_, ok = target.(Seeker)
	case domain.IntentSeekRelative:
		_, ok = target.(RelativeSeeker)
	case domain.IntentSetVolume:
		_, ok = target.(VolumeSetter)
	case domain.IntentToggleMute:
		_, ok = target.(MuteToggler)
	case domain.IntentSetPlaybackRate:
		_, ok = target.(RateSetter)
	case domain.IntentRequestFullscreen:
		_, ok = target.(Fullscreener)
	}
	return ok
}

// Apply makes exactly one call on target for i.
func Apply(target any, i domain.Intent) error {
	if !Supports(target, i.Kind) {
		return fmt.Errorf("%w: %s", ErrUnsupported, i)
	}

	switch i.Kind {
	case domain.IntentPlayPause:
		target.(PlayToggler).TogglePlay()
	case domain.IntentSeekAbsolute:
		target.(Seeker).Seek(i.Value)
	case domain.IntentSeekRelative:
		target.(RelativeSeeker).SeekRelative(i.Value)
	case domain.IntentSetVolume:
		target.(VolumeSetter).SetVolume(i.Value)
	case domain.IntentToggleMute:
		target.(MuteToggler).ToggleMute()
	case domain.IntentSetPlaybackRate:
		target.(RateSetter).SetPlaybackRate(i.Value)
	case domain.IntentRequestFullscreen:
		target.(Fullscreener).RequestFullscreen()
	}
	return nil
}
