package domain

import "fmt"

type IntentKind int

const (
	IntentPlayPause IntentKind = iota + 1
	IntentSeekAbsolute
	IntentSeekRelative
	IntentSetVolume
	IntentToggleMute
	IntentSetPlaybackRate
	IntentRequestFullscreen
	IntentToggleDarkMode
)

var intentNames = map[IntentKind]string{
	IntentPlayPause:         "PLAY_PAUSE",
	IntentSeekAbsolute:      "SEEK_ABSOLUTE",
	IntentSeekRelative:      "SEEK_RELATIVE",
	IntentSetVolume:         "SET_VOLUME",
	IntentToggleMute:        "TOGGLE_MUTE",
	IntentSetPlaybackRate:   "SET_PLAYBACK_RATE",
	IntentRequestFullscreen: "REQUEST_FULLSCREEN",
	IntentToggleDarkMode:    "TOGGLE_DARK_MODE",
}

func (k IntentKind) String() string {
	if name, ok := intentNames[k]; ok {
		return name
	}
	return fmt.Sprintf("IntentKind(%d)", int(k))
}

// Intent is a single user request to change media state. Value carries the parameter of
// SeekAbsolute (seconds), SeekRelative (delta seconds), SetVolume and SetPlaybackRate.
type Intent struct {
	Kind  IntentKind `json:"kind"`
	Value float64    `json:"value,omitempty"`
}

func (i Intent) String() string {
	switch i.Kind {
	case IntentSeekAbsolute, IntentSeekRelative, IntentSetVolume, IntentSetPlaybackRate:
		return fmt.Sprintf("%s(%g)", i.Kind, i.Value)
	default:
		return i.Kind.String()
	}
}

func PlayPause() Intent                 { return Intent{Kind: IntentPlayPause} }
func SeekAbsolute(t float64) Intent     { return Intent{Kind: IntentSeekAbsolute, Value: t} }
func SeekRelative(delta float64) Intent { return Intent{Kind: IntentSeekRelative, Value: delta} }
func SetVolume(v float64) Intent        { return Intent{Kind: IntentSetVolume, Value: v} }
func ToggleMute() Intent                { return Intent{Kind: IntentToggleMute} }
func SetPlaybackRate(r float64) Intent  { return Intent{Kind: IntentSetPlaybackRate, Value: r} }
func RequestFullscreen() Intent         { return Intent{Kind: IntentRequestFullscreen} }
func ToggleDarkMode() Intent            { return Intent{Kind: IntentToggleDarkMode} }
