package controls

import "github.com/mediaviewer/server/internal/domain"

type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

type SeekButton struct {
	base
	direction Direction
	seconds   float64
}

func NewSeekButton(direction Direction, seconds float64) *SeekButton {
	return &SeekButton{
		base:      base{name: "seek-" + direction.String(), kind: "seek-button"},
		direction: direction,
		seconds:   seconds,
	}
}

func (w *SeekButton) Click() {
	w.emitIntent(domain.SeekRelative(float64(w.direction) * w.seconds))
}

func (w *SeekButton) Reflect(domain.MediaState) {}

func (w *SeekButton) Input(action string, _ float64) error {
	if action != ActionClick {
		return w.unknownAction(action)
	}
	w.Click()
	return nil
}

func (w *SeekButton) View() View {
	return w.view(false, map[string]any{
		"direction": w.direction.String(),
		"seconds":   w.seconds,
	})
}
