package controller

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/mediaviewer/server/pkg/wsrouter"
)

func (c *controller) newWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw(), c.validateWSMw())
	mux.OnError(c.handleWSError)
	return mux
}

func (c *controller) getPlayerWSRouter() *wsrouter.WSRouter {
	mux := c.newWSRouter()

	wsrouter.Handle(mux, TypeAlive, c.handleAlive)
	wsrouter.Handle(mux, TypeMediumEvent, c.handleMediumEvent)

	return mux
}

func (c *controller) getRemoteWSRouter() *wsrouter.WSRouter {
	mux := c.newWSRouter()

	wsrouter.Handle(mux, TypeAlive, c.handleAlive)

	// controls
	wsrouter.Handle(mux, TypeWidgetInput, c.handleWidgetInput)
	wsrouter.Handle(mux, TypeKeyDown, c.handleKeyDown)
	wsrouter.Handle(mux, TypeSetShortcutsActive, c.handleSetShortcutsActive)

	// context menu
	wsrouter.Handle(mux, TypeContextMenuOpen, c.handleContextMenuOpen)
	wsrouter.Handle(mux, TypeContextMenuActivate, c.handleContextMenuActivate)
	wsrouter.Handle(mux, TypeContextMenuClose, c.handleContextMenuClose)

	// catalog
	wsrouter.Handle(mux, TypeSelectMedia, c.handleSelectMedia)
	wsrouter.Handle(mux, TypeSetFilter, c.handleSetFilter)
	wsrouter.Handle(mux, TypeSetTab, c.handleSetTab)

	// image
	wsrouter.Handle(mux, TypeImageInput, c.handleImageInput)

	return mux
}

type ErrorOutput struct {
	Message string `json:"message"`
}

func (c *controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)
	cl := c.getClientFromCtx(ctx)
	if cl == nil {
		return
	}
	cl.Send(&Output{Type: TypeError, Payload: ErrorOutput{Message: err.Error()}})
}
