// Package media holds the Media Source: the single owner of playback state for the content
// currently on screen, and the Medium abstraction it drives.
package media

import "errors"

var (
	ErrNotSeekable           = errors.New("medium not seekable")
	ErrPlaybackRejected      = errors.New("playback rejected")
	ErrFullscreenUnsupported = errors.New("fullscreen unsupported")
	ErrNotLoaded             = errors.New("medium not loaded")
	ErrLoadFailed            = errors.New("medium failed to load")
	ErrEmptyLocator          = errors.New("empty locator")
)

type EventType string

const (
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventTimeUpdate     EventType = "timeupdate"
	EventVolumeChange   EventType = "volumechange"
	EventRateChange     EventType = "ratechange"
	EventLoadedMetadata EventType = "loadedmetadata"
	EventCanPlay        EventType = "canplay"
	EventEnded          EventType = "ended"
	EventSeeking        EventType = "seeking"
	EventSeeked         EventType = "seeked"
	EventError          EventType = "error"
)

var eventTypes = map[EventType]struct{}{
	EventPlay: {}, EventPause: {}, EventTimeUpdate: {}, EventVolumeChange: {},
	EventRateChange: {}, EventLoadedMetadata: {}, EventCanPlay: {}, EventEnded: {},
	EventSeeking: {}, EventSeeked: {}, EventError: {},
}

func IsEventType(s string) bool {
	_, ok := eventTypes[EventType(s)]
	return ok
}

type Event struct {
	Type EventType
	// Err is set for EventError. ErrPlaybackRejected marks a refused play request; anything
	// else is a load failure.
	Err error
}

// Medium is the playable element a Source drives. Implementations emit events on the
// goroutine that owns the Source.
type Medium interface {
	Load(url string)
	Play() error
	Pause()
	Paused() bool
	CurrentTime() float64
	SetCurrentTime(t float64) error
	// Duration is NaN until metadata is available.
	Duration() float64
	Seekable() bool
	Buffered() float64
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(m bool)
	PlaybackRate() float64
	SetPlaybackRate(r float64)
	RequestFullscreen() error
	// Events registers fn for every event and returns a func that removes it.
	Events(fn func(Event)) (unsubscribe func())
}
