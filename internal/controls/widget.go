// Package controls holds the control widgets and the Aggregator that relays state to them
// and their intents back to the media source.
//
// A widget only ever talks to its Emitter. Reflect updates what the widget shows and never
// emits; intents come only from user input.
package controls

import (
	"errors"
	"fmt"
	"math"

	"github.com/mediaviewer/server/internal/domain"
)

var (
	ErrUnknownWidget = errors.New("unknown widget")
	ErrUnknownAction = errors.New("unknown widget action")
	ErrInvalidValue  = errors.New("invalid widget value")
)

// Input actions accepted by Widget.Input.
const (
	ActionClick        = "click"
	ActionClickMute    = "click_mute"
	ActionClickOutside = "click_outside"
	ActionDrag         = "drag"
	ActionDragStart    = "drag_start"
	ActionDragMove     = "drag_move"
	ActionDragEnd      = "drag_end"
	ActionHover        = "hover"
	ActionHoverEnd     = "hover_end"
	ActionToggle       = "toggle"
	ActionChoose       = "choose"
)

type Emitter func(domain.Intent)

// View is what a widget currently shows.
type View struct {
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Dark     bool           `json:"dark"`
	Disabled bool           `json:"disabled"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

type Widget interface {
	Name() string
	Reflect(st domain.MediaState)
	View() View
	// Input applies one user action and emits at most one intent.
	Input(action string, value float64) error
	SetEmitter(e Emitter)
	SetDark(dark bool)
}

// DarkModeSource is the part of the dark-mode service a widget watches.
type DarkModeSource interface {
	IsDark() bool
	Subscribe(fn func(dark bool)) (unsubscribe func())
}

// WatchDarkMode keeps w's dark attribute in step with src.
func WatchDarkMode(w Widget, src DarkModeSource) (unsubscribe func()) {
	w.SetDark(src.IsDark())
	return src.Subscribe(w.SetDark)
}

type base struct {
	name string
	kind string
	dark bool
	emit Emitter
}

func (b *base) Name() string {
	return b.name
}

func (b *base) SetEmitter(e Emitter) {
	b.emit = e
}

func (b *base) SetDark(dark bool) {
	b.dark = dark
}

func (b *base) emitIntent(i domain.Intent) {
	if b.emit != nil {
		b.emit(i)
	}
}

func (b *base) view(disabled bool, attrs map[string]any) View {
	return View{
		Name:     b.name,
		Kind:     b.kind,
		Dark:     b.dark,
		Disabled: disabled,
		Attrs:    attrs,
	}
}

func (b *base) unknownAction(action string) error {
	return fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, b.name)
}

// maxFormattedSeconds keeps the int conversion in FormatTime in range.
const maxFormattedSeconds = math.MaxInt32

// FormatTime renders seconds as m:ss, or h:mm:ss past an hour. Unknown values render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	seconds = math.Min(seconds, maxFormattedSeconds)

	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// optionalSeconds is nil for an unknown duration so views encode it as null.
func optionalSeconds(d float64) *float64 {
	if !domain.IsKnownDuration(d) {
		return nil
	}
	return &d
}
