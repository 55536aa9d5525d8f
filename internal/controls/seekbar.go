package controls

import (
	"math"

	"github.com/mediaviewer/server/internal/domain"
)

// SeekBar shows progress and buffering and seeks on click or drag. While dragging, the thumb
// follows the pointer and reflected times are ignored.
type SeekBar struct {
	base
	currentTime float64
	duration    float64
	buffered    float64

	dragging bool
	dragTime float64
	hover    *float64
}

func NewSeekBar() *SeekBar {
	return &SeekBar{
		base:     base{name: "seek-bar", kind: "seek-bar"},
		duration: math.NaN(),
	}
}

func (w *SeekBar) disabled() bool {
	return !domain.IsKnownDuration(w.duration)
}

func (w *SeekBar) pointerTime(t float64) float64 {
	return math.Max(0, math.Min(w.duration, t))
}

func (w *SeekBar) Dragging() bool {
	return w.dragging
}

// Position is the time the thumb is drawn at.
func (w *SeekBar) Position() float64 {
	if w.dragging {
		return w.dragTime
	}
	return w.currentTime
}

func (w *SeekBar) DragStart(t float64) {
	if w.disabled() || math.IsNaN(t) {
		return
	}
	w.dragging = true
	w.dragTime = w.pointerTime(t)
}

func (w *SeekBar) DragMove(t float64) {
	if !w.dragging || math.IsNaN(t) {
		return
	}
	w.dragTime = w.pointerTime(t)
}

// DragEnd emits exactly one seek to the last dragged time.
func (w *SeekBar) DragEnd() {
	if !w.dragging {
		return
	}
	w.dragging = false
	w.currentTime = w.dragTime
	w.emitIntent(domain.SeekAbsolute(w.dragTime))
}

func (w *SeekBar) Click(t float64) {
	if w.disabled() || w.dragging || math.IsNaN(t) {
		return
	}
	w.currentTime = w.pointerTime(t)
	w.emitIntent(domain.SeekAbsolute(w.currentTime))
}

func (w *SeekBar) Hover(t float64) {
	if w.disabled() || math.IsNaN(t) {
		w.hover = nil
		return
	}
	h := w.pointerTime(t)
	w.hover = &h
}

func (w *SeekBar) Reflect(st domain.MediaState) {
	w.duration = st.Duration
	w.buffered = st.Buffered
	if w.disabled() {
		w.dragging = false
		w.hover = nil
	}
	if !w.dragging {
		w.currentTime = st.CurrentTime
	}
}

func (w *SeekBar) Input(action string, value float64) error {
	switch action {
	case ActionClick:
		w.Click(value)
	case ActionDragStart:
		w.DragStart(value)
	case ActionDragMove:
		w.DragMove(value)
	case ActionDragEnd:
		w.DragEnd()
	case ActionHover:
		w.Hover(value)
	case ActionHoverEnd:
		w.hover = nil
	default:
		return w.unknownAction(action)
	}
	return nil
}

func (w *SeekBar) View() View {
	attrs := map[string]any{
		"current_time": w.Position(),
		"duration":     optionalSeconds(w.duration),
		"buffered":     w.buffered,
		"progress":     0.0,
		"dragging":     w.dragging,
	}
	if !w.disabled() {
		attrs["progress"] = w.Position() / w.duration
	}
	if w.hover != nil {
		attrs["hover_time"] = *w.hover
		attrs["hover_text"] = FormatTime(*w.hover)
	}
	return w.view(w.disabled(), attrs)
}
