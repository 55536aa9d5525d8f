package controls

import (
	"fmt"

	"github.com/mediaviewer/server/internal/domain"
)

type Speed struct {
	base
	rate float64
	open bool
}

func NewSpeed() *Speed {
	return &Speed{
		base: base{name: "speed", kind: "speed"},
		rate: domain.DefaultPlaybackRate,
	}
}

func (w *Speed) Toggle() {
	w.open = !w.open
}

func (w *Speed) Open() bool {
	return w.open
}

// Choose asks for rate and closes the popover. Rates outside the option set are refused.
func (w *Speed) Choose(rate float64) error {
	if !domain.IsPlaybackRateOption(rate) {
		return fmt.Errorf("%w: rate %v", ErrInvalidValue, rate)
	}
	w.open = false
	w.rate = rate
	w.emitIntent(domain.SetPlaybackRate(rate))
	return nil
}

// ClickOutside closes the popover without asking for anything.
func (w *Speed) ClickOutside() {
	w.open = false
}

func (w *Speed) Reflect(st domain.MediaState) {
	w.rate = st.PlaybackRate
}

func (w *Speed) Input(action string, value float64) error {
	switch action {
	case ActionToggle, ActionClick:
		w.Toggle()
	case ActionChoose:
		return w.Choose(value)
	case ActionClickOutside:
		w.ClickOutside()
	default:
		return w.unknownAction(action)
	}
	return nil
}

func (w *Speed) View() View {
	options := make([]map[string]any, 0, len(domain.PlaybackRates))
	for _, r := range domain.PlaybackRates {
		options = append(options, map[string]any{
			"rate":   r,
			"label":  fmt.Sprintf("%gx", r),
			"active": r == w.rate,
		})
	}
	return w.view(false, map[string]any{
		"rate":    w.rate,
		"label":   fmt.Sprintf("%gx", w.rate),
		"open":    w.open,
		"options": options,
	})
}
