package controls

import (
	"math"

	"github.com/mediaviewer/server/internal/domain"
)

// Volume keeps volume and muted as separate values. It shows muted, and an empty slider,
// when either muted is set or the volume is zero.
type Volume struct {
	base
	volume float64
	muted  bool
}

func NewVolume() *Volume {
	return &Volume{
		base:   base{name: "volume", kind: "volume"},
		volume: 1,
	}
}

// Drag sets the slider to v. Dragging to zero asks for volume 0, never for mute.
func (w *Volume) Drag(v float64) {
	if math.IsNaN(v) {
		return
	}
	w.volume = math.Max(0, math.Min(1, v))
	w.emitIntent(domain.SetVolume(w.volume))
}

func (w *Volume) ClickMute() {
	w.muted = !w.muted
	w.emitIntent(domain.ToggleMute())
}

func (w *Volume) ShowsMuted() bool {
	return w.muted || w.volume == 0
}

func (w *Volume) Reflect(st domain.MediaState) {
	w.volume = st.Volume
	w.muted = st.Muted
}

func (w *Volume) Input(action string, value float64) error {
	switch action {
	case ActionDrag, ActionDragMove:
		w.Drag(value)
	case ActionClickMute:
		w.ClickMute()
	default:
		return w.unknownAction(action)
	}
	return nil
}

func (w *Volume) View() View {
	level := w.volume
	if w.ShowsMuted() {
		level = 0
	}
	icon := "volume-high"
	switch {
	case w.ShowsMuted():
		icon = "volume-muted"
	case w.volume < 0.5:
		icon = "volume-low"
	}
	return w.view(false, map[string]any{
		"volume": w.volume,
		"muted":  w.muted,
		"level":  level,
		"icon":   icon,
	})
}
