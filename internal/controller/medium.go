package controller

import (
	"log/slog"
	"math"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/media"
	"github.com/mediaviewer/server/internal/repository/connection"
)

const (
	commandLoad       = "load"
	commandPlay       = "play"
	commandPause      = "pause"
	commandSeek       = "seek"
	commandVolume     = "set_volume"
	commandMuted      = "set_muted"
	commandRate       = "set_playback_rate"
	commandFullscreen = "fullscreen"
)

type MediumCommand struct {
	Command string   `json:"command"`
	URL     string   `json:"url,omitempty"`
	Value   *float64 `json:"value,omitempty"`
	Muted   *bool    `json:"muted,omitempty"`
}

// playerMedium is the Medium of a connected player tab. Setters update the mirrored element
// properties at once, the way a media element does, and send the command to the player; the
// player reports the outcome through MEDIUM_EVENT. It is confined to the loop goroutine.
type playerMedium struct {
	logger *slog.Logger
	conn   connection.Conn
	events *broadcast.Set[media.Event]

	url         string
	paused      bool
	currentTime float64
	duration    float64
	seekable    bool
	buffered    float64
	volume      float64
	muted       bool
	rate        float64
}

func newPlayerMedium(logger *slog.Logger, conn connection.Conn) *playerMedium {
	logger = logger.With("conn_id", conn.ID())
	return &playerMedium{
		logger:   logger,
		conn:     conn,
		events:   broadcast.New[media.Event](logger, "player_medium"),
		paused:   true,
		duration: math.NaN(),
		volume:   1,
		rate:     1,
	}
}

func (m *playerMedium) send(cmd MediumCommand) {
	if !m.conn.Send(&Output{Type: TypeMediumCommand, Payload: cmd}) {
		m.logger.Warn("failed to send medium command", "command", cmd.Command)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func (m *playerMedium) Load(url string) {
	m.url = url
	m.paused = true
	m.currentTime = 0
	m.duration = math.NaN()
	m.seekable = false
	m.buffered = 0
	m.send(MediumCommand{Command: commandLoad, URL: url})
}

func (m *playerMedium) Play() error {
	m.paused = false
	m.send(MediumCommand{Command: commandPlay})
	return nil
}

func (m *playerMedium) Pause() {
	m.paused = true
	m.send(MediumCommand{Command: commandPause})
}

func (m *playerMedium) Paused() bool {
	return m.paused
}

func (m *playerMedium) CurrentTime() float64 {
	return m.currentTime
}

func (m *playerMedium) SetCurrentTime(t float64) error {
	if m.url == "" {
		return media.ErrNotLoaded
	}
	if !m.seekable {
		return media.ErrNotSeekable
	}
	m.currentTime = t
	m.send(MediumCommand{Command: commandSeek, Value: ptr(t)})
	return nil
}

func (m *playerMedium) Duration() float64 {
	return m.duration
}

func (m *playerMedium) Seekable() bool {
	return m.seekable
}

func (m *playerMedium) Buffered() float64 {
	return m.buffered
}

func (m *playerMedium) Volume() float64 {
	return m.volume
}

func (m *playerMedium) SetVolume(v float64) {
	m.volume = v
	m.send(MediumCommand{Command: commandVolume, Value: ptr(v)})
}

func (m *playerMedium) Muted() bool {
	return m.muted
}

func (m *playerMedium) SetMuted(muted bool) {
	m.muted = muted
	m.send(MediumCommand{Command: commandMuted, Muted: ptr(muted)})
}

func (m *playerMedium) PlaybackRate() float64 {
	return m.rate
}

func (m *playerMedium) SetPlaybackRate(r float64) {
	m.rate = r
	m.send(MediumCommand{Command: commandRate, Value: ptr(r)})
}

func (m *playerMedium) RequestFullscreen() error {
	m.send(MediumCommand{Command: commandFullscreen})
	return nil
}

func (m *playerMedium) Events(fn func(media.Event)) (unsubscribe func()) {
	return m.events.Add(fn)
}

// report applies the element properties the player sent and then emits the event.
func (m *playerMedium) report(in MediumEventInput) {
	if in.Paused != nil {
		m.paused = *in.Paused
	}
	if in.CurrentTime != nil {
		m.currentTime = *in.CurrentTime
	}
	if in.Duration != nil {
		m.duration = *in.Duration
	} else if in.Event == string(media.EventLoadedMetadata) {
		m.duration = math.NaN()
	}
	if in.Seekable != nil {
		m.seekable = *in.Seekable
	}
	if in.Buffered != nil {
		m.buffered = *in.Buffered
	}
	if in.Volume != nil {
		m.volume = *in.Volume
	}
	if in.Muted != nil {
		m.muted = *in.Muted
	}
	if in.PlaybackRate != nil {
		m.rate = *in.PlaybackRate
	}

	ev := media.Event{Type: media.EventType(in.Event)}
	if ev.Type == media.EventError {
		ev.Err = media.ErrLoadFailed
		if in.Rejected {
			ev.Err = media.ErrPlaybackRejected
		}
		m.logger.Warn("player reported error", "error", in.Error, "rejected", in.Rejected)
	}
	m.events.Emit(ev)
}
