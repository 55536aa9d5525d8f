package controls

import "github.com/mediaviewer/server/internal/domain"

type Fullscreen struct {
	base
}

func NewFullscreen() *Fullscreen {
	return &Fullscreen{base: base{name: "fullscreen", kind: "fullscreen"}}
}

func (w *Fullscreen) Click() {
	w.emitIntent(domain.RequestFullscreen())
}

func (w *Fullscreen) Reflect(domain.MediaState) {}

func (w *Fullscreen) Input(action string, _ float64) error {
	if action != ActionClick {
		return w.unknownAction(action)
	}
	w.Click()
	return nil
}

func (w *Fullscreen) View() View {
	return w.view(false, nil)
}

// DarkModeToggle shows the dark-mode flag, which it gets from the dark-mode service rather
// than from media state.
type DarkModeToggle struct {
	base
}

func NewDarkModeToggle() *DarkModeToggle {
	return &DarkModeToggle{base: base{name: "dark-mode", kind: "dark-mode-toggle"}}
}

func (w *DarkModeToggle) Click() {
	w.emitIntent(domain.ToggleDarkMode())
}

func (w *DarkModeToggle) Reflect(domain.MediaState) {}

func (w *DarkModeToggle) Input(action string, _ float64) error {
	if action != ActionClick {
		return w.unknownAction(action)
	}
	w.Click()
	return nil
}

func (w *DarkModeToggle) View() View {
	return w.view(false, map[string]any{"active": w.dark})
}

// TimeDisplay is read-only.
type TimeDisplay struct {
	base
	currentTime float64
	duration    float64
}

func NewTimeDisplay() *TimeDisplay {
	return &TimeDisplay{base: base{name: "time", kind: "time-display"}}
}

func (w *TimeDisplay) Text() string {
	return FormatTime(w.currentTime) + " / " + FormatTime(w.duration)
}

func (w *TimeDisplay) Reflect(st domain.MediaState) {
	w.currentTime = st.CurrentTime
	w.duration = st.Duration
}

func (w *TimeDisplay) Input(action string, _ float64) error {
	return w.unknownAction(action)
}

func (w *TimeDisplay) View() View {
	return w.view(false, map[string]any{"text": w.Text()})
}
