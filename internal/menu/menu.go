// Package menu is the context menu. It reads the target's state once when opened and turns
// each activation into a single intent.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mediaviewer/server/internal/discovery"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/media"
)

var (
	ErrNotOpen       = errors.New("context menu not open")
	ErrUnknownAction = errors.New("unknown menu action")
	ErrNoTarget      = errors.New("context menu has no target")
)

type Action string

const (
	ActionTogglePlay       Action = "toggle-play"
	ActionToggleMute       Action = "toggle-mute"
	ActionSetRate          Action = "set-rate"
	ActionToggleFullscreen Action = "toggle-fullscreen"
	ActionToggleDarkMode   Action = "toggle-dark-mode"
)

type DarkMode interface {
	IsDark() bool
	Toggle(ctx context.Context) (bool, error)
}

type Item struct {
	Action  Action  `json:"action,omitempty"`
	Label   string  `json:"label"`
	Icon    string  `json:"icon,omitempty"`
	Rate    float64 `json:"rate,omitempty"`
	Active  bool    `json:"active,omitempty"`
	Submenu []Item  `json:"submenu,omitempty"`
}

type Model struct {
	Open  bool    `json:"open"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Dark  bool    `json:"dark"`
	Items []Item  `json:"items"`
}

type ContextMenu struct {
	logger *slog.Logger
	dark   DarkMode
	target *discovery.Follower[any]
	model  Model
}

// New returns a menu that follows the on-screen media. dark may be nil.
func New(logger *slog.Logger, registry *discovery.Registry, dark DarkMode, opts discovery.FindOptions[any]) *ContextMenu {
	m := &ContextMenu{
		logger: logger.With("component", "context_menu"),
		dark:   dark,
	}
	m.target = discovery.Follow(registry, media.ActiveKey, opts, func(_ any, ok bool) {
		// A swapped target invalidates whatever the open menu showed.
		m.Close()
	})
	return m
}

func RateLabel(rate float64) string {
	if rate == 1 {
		return "Normal"
	}
	return fmt.Sprintf("%gx", rate)
}

// Open pulls the target's state once and builds the menu at (x, y). Entries the target
// cannot carry out are left out.
func (m *ContextMenu) Open(x, y float64) (Model, error) {
	target, ok := m.target.Current()
	if !ok && m.dark == nil {
		m.logger.Warn("cannot open context menu, no target")
		return m.model, ErrNoTarget
	}

	var st domain.MediaState
	reader, hasState := target.(media.StateReader)
	if hasState {
		st = reader.State()
	}

	var items []Item
	if media.Supports(target, domain.IntentPlayPause) {
		icon, label := "play", "Play"
		if hasState && st.IsPlaying {
			icon, label = "pause", "Pause"
		}
		items = append(items, Item{Action: ActionTogglePlay, Label: label, Icon: icon})
	}
	if media.Supports(target, domain.IntentToggleMute) {
		label := "Mute"
		if hasState && st.Muted {
			label = "Unmute"
		}
		items = append(items, Item{Action: ActionToggleMute, Label: label, Icon: "volume"})
	}
	if media.Supports(target, domain.IntentSetPlaybackRate) {
		sub := make([]Item, 0, len(domain.PlaybackRates))
		for _, r := range domain.PlaybackRates {
			sub = append(sub, Item{
				Action: ActionSetRate,
				Label:  RateLabel(r),
				Rate:   r,
				Active: hasState && st.PlaybackRate == r,
			})
		}
		items = append(items, Item{Label: "Playback Speed", Submenu: sub})
	}
	if media.Supports(target, domain.IntentRequestFullscreen) {
		items = append(items, Item{Action: ActionToggleFullscreen, Label: "Fullscreen", Icon: "fullscreen"})
	}
	if m.dark != nil {
		icon := "light"
		if m.dark.IsDark() {
			icon = "dark"
		}
		items = append(items, Item{Action: ActionToggleDarkMode, Label: "Toggle Dark Mode", Icon: icon})
	}

	m.model = Model{Open: true, X: x, Y: y, Items: items}
	if m.dark != nil {
		m.model.Dark = m.dark.IsDark()
	}
	return m.model, nil
}

func (m *ContextMenu) Model() Model {
	return m.model
}

// Close hides the menu. Clicking outside it does the same.
func (m *ContextMenu) Close() {
	m.model = Model{}
}

func (m *ContextMenu) intentFor(action Action, rate float64) (domain.Intent, error) {
	switch action {
	case ActionTogglePlay:
		return domain.PlayPause(), nil
	case ActionToggleMute:
		return domain.ToggleMute(), nil
	case ActionSetRate:
		if !domain.IsPlaybackRateOption(rate) {
			return domain.Intent{}, fmt.Errorf("%w: rate %v", ErrUnknownAction, rate)
		}
		return domain.SetPlaybackRate(rate), nil
	case ActionToggleFullscreen:
		return domain.RequestFullscreen(), nil
	case ActionToggleDarkMode:
		return domain.ToggleDarkMode(), nil
	default:
		return domain.Intent{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// Activate carries out one entry of the open menu and closes it. rate is only read for
// ActionSetRate.
func (m *ContextMenu) Activate(ctx context.Context, action Action, rate float64) error {
	if !m.model.Open {
		return ErrNotOpen
	}

	i, err := m.intentFor(action, rate)
	if err != nil {
		return err
	}
	defer m.Close()

	m.logger.DebugContext(ctx, "menu activated", "intent", i.String())
	if i.Kind == domain.IntentToggleDarkMode {
		if m.dark == nil {
			return media.ErrUnsupported
		}
		_, err := m.dark.Toggle(ctx)
		return err
	}

	target, ok := m.target.Current()
	if !ok {
		m.logger.WarnContext(ctx, "dropping menu intent, no target", "intent", i.String())
		return ErrNoTarget
	}
	return media.Apply(target, i)
}

// Retarget looks the target up again after the on-screen media changed.
func (m *ContextMenu) Retarget() {
	m.target.Refresh()
}

func (m *ContextMenu) Teardown() {
	m.target.Close()
	m.Close()
}
