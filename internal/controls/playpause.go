package controls

import "github.com/mediaviewer/server/internal/domain"

type PlayPause struct {
	base
	playing bool
}

func NewPlayPause() *PlayPause {
	return &PlayPause{base: base{name: "play-pause", kind: "play-pause"}}
}

// Click flips the shown state at once and asks for the opposite. The next Reflect
// overwrites the optimistic flag whatever the outcome.
func (w *PlayPause) Click() {
	w.playing = !w.playing
	w.emitIntent(domain.PlayPause())
}

func (w *PlayPause) Playing() bool {
	return w.playing
}

func (w *PlayPause) Reflect(st domain.MediaState) {
	w.playing = st.IsPlaying
}

func (w *PlayPause) Input(action string, _ float64) error {
	if action != ActionClick {
		return w.unknownAction(action)
	}
	w.Click()
	return nil
}

func (w *PlayPause) View() View {
	icon := "play"
	if w.playing {
		icon = "pause"
	}
	return w.view(false, map[string]any{
		"playing": w.playing,
		"icon":    icon,
	})
}
