// Package shortcut maps key presses to intents on the on-screen media.
package shortcut

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/discovery"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/media"
)

const DefaultSeekStep = 10.0

type DarkMode interface {
	Toggle(ctx context.Context) (bool, error)
}

type command int

const (
	cmdPlayPause command = iota
	cmdFullscreen
	cmdMute
	cmdSeekBackward
	cmdSeekForward
	cmdSpeedDown
	cmdSpeedUp
	cmdDarkMode
)

var keyTable = map[string]command{
	" ":          cmdPlayPause,
	"space":      cmdPlayPause,
	"k":          cmdPlayPause,
	"f":          cmdFullscreen,
	"m":          cmdMute,
	"j":          cmdSeekBackward,
	"arrowleft":  cmdSeekBackward,
	"l":          cmdSeekForward,
	"arrowright": cmdSeekForward,
	",":          cmdSpeedDown,
	"<":          cmdSpeedDown,
	".":          cmdSpeedUp,
	">":          cmdSpeedUp,
	"d":          cmdDarkMode,
}

var feedbackText = map[command]string{
	cmdPlayPause:    "Play/Pause",
	cmdFullscreen:   "Fullscreen",
	cmdMute:         "Mute Toggle",
	cmdSeekBackward: "Backward 10s",
	cmdSeekForward:  "Forward 10s",
	cmdSpeedDown:    "Speed Down",
	cmdSpeedUp:      "Speed Up",
	cmdDarkMode:     "Dark Mode Toggle",
}

type Handler struct {
	logger   *slog.Logger
	dark     DarkMode
	target   *discovery.Follower[any]
	active   bool
	seekStep float64
	feedback *broadcast.Set[string]
}

// New returns an active handler following the on-screen media. dark may be nil.
func New(logger *slog.Logger, registry *discovery.Registry, dark DarkMode, opts discovery.FindOptions[any]) *Handler {
	logger = logger.With("component", "shortcut_handler")
	return &Handler{
		logger:   logger,
		dark:     dark,
		target:   discovery.Follow(registry, media.ActiveKey, opts, nil),
		active:   true,
		seekStep: DefaultSeekStep,
		feedback: broadcast.New[string](logger, "shortcut_feedback"),
	}
}

func (h *Handler) SetActive(active bool) {
	h.active = active
	h.logger.Debug("shortcuts toggled", "active", active)
}

// SetSeekStep changes the jump used by the seek keys, in seconds.
func (h *Handler) SetSeekStep(step float64) {
	if step > 0 {
		h.seekStep = step
	}
}

func (h *Handler) Active() bool {
	return h.active
}

// OnFeedback registers fn for the short text shown after each handled key.
func (h *Handler) OnFeedback(fn func(text string)) (unsubscribe func()) {
	return h.feedback.Add(fn)
}

// HandleKey handles one key press, matched case-insensitively. It reports whether the key
// was consumed, in which case the caller suppresses the key's default action.
func (h *Handler) HandleKey(ctx context.Context, key string) bool {
	if !h.active {
		return false
	}
	cmd, ok := keyTable[strings.ToLower(key)]
	if !ok {
		return false
	}

	if cmd == cmdDarkMode {
		if h.dark == nil {
			return false
		}
		if _, err := h.dark.Toggle(ctx); err != nil {
			h.logger.WarnContext(ctx, "failed to toggle dark mode", "error", err)
		}
		h.feedback.Emit(feedbackText[cmd])
		return true
	}

	target, ok := h.target.Current()
	if !ok {
		h.logger.WarnContext(ctx, "no target for shortcut", "key", key)
		return false
	}

	i, ok := h.intentFor(target, cmd)
	if !ok || !media.Supports(target, i.Kind) {
		return false
	}
	if err := media.Apply(target, i); err != nil {
		h.logger.WarnContext(ctx, "failed to apply shortcut", "intent", i.String(), "error", err)
		return false
	}

	h.logger.DebugContext(ctx, "shortcut handled", "key", key, "intent", i.String())
	h.feedback.Emit(feedbackText[cmd])
	return true
}

// intentFor builds the intent for cmd. Rate steps read the target's current rate at the
// moment of the key press.
func (h *Handler) intentFor(target any, cmd command) (domain.Intent, bool) {
	switch cmd {
	case cmdPlayPause:
		return domain.PlayPause(), true
	case cmdFullscreen:
		return domain.RequestFullscreen(), true
	case cmdMute:
		return domain.ToggleMute(), true
	case cmdSeekBackward:
		return domain.SeekRelative(-h.seekStep), true
	case cmdSeekForward:
		return domain.SeekRelative(h.seekStep), true
	case cmdSpeedDown, cmdSpeedUp:
		reader, ok := target.(media.StateReader)
		if !ok {
			return domain.Intent{}, false
		}
		rate := reader.State().PlaybackRate
		if cmd == cmdSpeedUp {
			return domain.SetPlaybackRate(domain.NextRate(rate)), true
		}
		return domain.SetPlaybackRate(domain.PrevRate(rate)), true
	}
	return domain.Intent{}, false
}

// Retarget looks the target up again after the on-screen media changed.
func (h *Handler) Retarget() {
	h.target.Refresh()
}

func (h *Handler) Close() {
	h.target.Close()
	h.feedback.Clear()
}
