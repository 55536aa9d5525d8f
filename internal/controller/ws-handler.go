package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/mediaviewer/server/internal/catalog"
	"github.com/mediaviewer/server/internal/menu"
	"github.com/mediaviewer/server/internal/viewer"
)

var errNoMedium = errors.New("connection has no medium")

const (
	// inbound
	TypeAlive               = "ALIVE"
	TypeMediumEvent         = "MEDIUM_EVENT"
	TypeWidgetInput         = "WIDGET_INPUT"
	TypeKeyDown             = "KEY_DOWN"
	TypeSetShortcutsActive  = "SET_SHORTCUTS_ACTIVE"
	TypeContextMenuOpen     = "CONTEXT_MENU_OPEN"
	TypeContextMenuActivate = "CONTEXT_MENU_ACTIVATE"
	TypeContextMenuClose    = "CONTEXT_MENU_CLOSE"
	TypeSelectMedia         = "SELECT_MEDIA"
	TypeSetFilter           = "SET_FILTER"
	TypeSetTab              = "SET_TAB"
	TypeImageInput          = "IMAGE_INPUT"

	// outbound
	TypeMediumCommand    = "MEDIUM_COMMAND"
	TypeSnapshot         = "SNAPSHOT"
	TypeState            = "STATE"
	TypeControlsRendered = "CONTROLS_RENDERED"
	TypeDarkModeChanged  = "DARK_MODE_CHANGED"
	TypeCatalog          = "CATALOG"
	TypeMediaChanged     = "MEDIA_CHANGED"
	TypeContextMenu      = "CONTEXT_MENU"
	TypeShortcutFeedback = "SHORTCUT_FEEDBACK"
	TypeKeyHandled       = "KEY_HANDLED"
	TypeImageState       = "IMAGE_STATE"
	TypeError            = "ERROR"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

func (c *controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return nil
}

// do runs f on the loop and returns the error f produced.
func (c *controller) do(ctx context.Context, f func() error) error {
	var err error
	if loopErr := c.loop.Do(ctx, func() {
		err = f()
	}); loopErr != nil {
		return fmt.Errorf("failed to reach viewer: %w", loopErr)
	}
	return err
}

// MediumEventInput is an element event with the element properties at the time it fired.
// A null duration means the duration is unknown.
type MediumEventInput struct {
	Event        string   `json:"event" validate:"required,oneof=play pause timeupdate volumechange ratechange loadedmetadata canplay ended seeking seeked error"`
	Paused       *bool    `json:"paused"`
	CurrentTime  *float64 `json:"current_time" validate:"omitempty,gte=0"`
	Duration     *float64 `json:"duration" validate:"omitempty,gte=0"`
	Seekable     *bool    `json:"seekable"`
	Buffered     *float64 `json:"buffered" validate:"omitempty,gte=0"`
	Volume       *float64 `json:"volume" validate:"omitempty,gte=0,lte=1"`
	Muted        *bool    `json:"muted"`
	PlaybackRate *float64 `json:"playback_rate" validate:"omitempty,gt=0"`
	Rejected     bool     `json:"rejected"`
	Error        string   `json:"error" validate:"max=512"`
}

func (c *controller) handleMediumEvent(ctx context.Context, _ *websocket.Conn, input MediumEventInput) error {
	cl := c.getClientFromCtx(ctx)
	if cl == nil || cl.medium == nil {
		return errNoMedium
	}

	return c.do(ctx, func() error {
		cl.medium.report(input)
		return nil
	})
}

type WidgetInputInput struct {
	Widget string  `json:"widget" validate:"required,max=64"`
	Action string  `json:"action" validate:"required,max=64"`
	Value  float64 `json:"value"`
}

func (c *controller) handleWidgetInput(ctx context.Context, _ *websocket.Conn, input WidgetInputInput) error {
	return c.do(ctx, func() error {
		if err := c.viewer.WidgetInput(input.Widget, input.Action, input.Value); err != nil {
			return fmt.Errorf("failed to handle widget input: %w", err)
		}
		return nil
	})
}

type KeyDownInput struct {
	Key string `json:"key" validate:"required,max=32"`
}

type KeyHandledOutput struct {
	Key      string `json:"key"`
	Consumed bool   `json:"consumed"`
}

func (c *controller) handleKeyDown(ctx context.Context, _ *websocket.Conn, input KeyDownInput) error {
	var consumed bool
	if err := c.do(ctx, func() error {
		consumed = c.viewer.HandleKey(ctx, input.Key)
		return nil
	}); err != nil {
		return err
	}

	c.reply(ctx, &Output{Type: TypeKeyHandled, Payload: KeyHandledOutput{Key: input.Key, Consumed: consumed}})
	return nil
}

type SetShortcutsActiveInput struct {
	Active bool `json:"active"`
}

func (c *controller) handleSetShortcutsActive(ctx context.Context, _ *websocket.Conn, input SetShortcutsActiveInput) error {
	return c.do(ctx, func() error {
		c.viewer.Shortcuts().SetActive(input.Active)
		return nil
	})
}

type ContextMenuOpenInput struct {
	X float64 `json:"x" validate:"gte=0"`
	Y float64 `json:"y" validate:"gte=0"`
}

func (c *controller) handleContextMenuOpen(ctx context.Context, _ *websocket.Conn, input ContextMenuOpenInput) error {
	var model menu.Model
	if err := c.do(ctx, func() error {
		var err error
		model, err = c.viewer.OpenMenu(input.X, input.Y)
		return err
	}); err != nil {
		return fmt.Errorf("failed to open context menu: %w", err)
	}

	c.reply(ctx, &Output{Type: TypeContextMenu, Payload: model})
	return nil
}

type ContextMenuActivateInput struct {
	Action string  `json:"action" validate:"required,oneof=toggle-play toggle-mute set-rate toggle-fullscreen toggle-dark-mode"`
	Rate   float64 `json:"rate" validate:"required_if=Action set-rate"`
}

func (c *controller) handleContextMenuActivate(ctx context.Context, _ *websocket.Conn, input ContextMenuActivateInput) error {
	var (
		model menu.Model
		err   error
	)
	// model is only safe to read once the task has run.
	if loopErr := c.loop.Do(ctx, func() {
		err = c.viewer.ActivateMenu(ctx, menu.Action(input.Action), input.Rate)
		model = c.viewer.Menu().Model()
	}); loopErr != nil {
		return fmt.Errorf("failed to reach viewer: %w", loopErr)
	}
	if errors.Is(err, menu.ErrNotOpen) || errors.Is(err, menu.ErrUnknownAction) {
		return fmt.Errorf("failed to activate context menu: %w", err)
	}

	c.reply(ctx, &Output{Type: TypeContextMenu, Payload: model})
	if err != nil {
		return fmt.Errorf("failed to activate context menu: %w", err)
	}
	return nil
}

func (c *controller) handleContextMenuClose(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	var model menu.Model
	if err := c.do(ctx, func() error {
		c.viewer.CloseMenu()
		model = c.viewer.Menu().Model()
		return nil
	}); err != nil {
		return err
	}

	c.reply(ctx, &Output{Type: TypeContextMenu, Payload: model})
	return nil
}

type SelectMediaInput struct {
	ID string `json:"id" validate:"required,max=128"`
}

func (c *controller) handleSelectMedia(ctx context.Context, _ *websocket.Conn, input SelectMediaInput) error {
	return c.do(ctx, func() error {
		if err := c.viewer.Select(input.ID); err != nil {
			return fmt.Errorf("failed to select media: %w", err)
		}
		return nil
	})
}

type SetFilterInput struct {
	Filter string `json:"filter" validate:"max=256"`
}

func (c *controller) handleSetFilter(ctx context.Context, _ *websocket.Conn, input SetFilterInput) error {
	return c.do(ctx, func() error {
		c.viewer.Sidebar().SetFilter(input.Filter)
		c.broadcastCatalog()
		return nil
	})
}

type SetTabInput struct {
	Tab string `json:"tab" validate:"required,oneof=all videos images"`
}

func (c *controller) handleSetTab(ctx context.Context, _ *websocket.Conn, input SetTabInput) error {
	return c.do(ctx, func() error {
		if err := c.viewer.Sidebar().SetActiveTab(catalog.Tab(input.Tab)); err != nil {
			return err
		}
		c.broadcastCatalog()
		return nil
	})
}

type ImageInputInput struct {
	Action string  `json:"action" validate:"required,oneof=zoom-in zoom-out zoom rotate-left rotate-right pan reset fullscreen"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (c *controller) handleImageInput(ctx context.Context, _ *websocket.Conn, input ImageInputInput) error {
	return c.do(ctx, func() error {
		if err := c.viewer.ImageInput(viewer.ImageAction(input.Action), input.X, input.Y); err != nil {
			return fmt.Errorf("failed to handle image input: %w", err)
		}
		return nil
	})
}

func (c *controller) reply(ctx context.Context, out *Output) {
	if cl := c.getClientFromCtx(ctx); cl != nil {
		cl.Send(out)
	}
}
