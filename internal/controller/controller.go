package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mediaviewer/server/internal/repository/connection"
	"github.com/mediaviewer/server/internal/viewer"
	"github.com/mediaviewer/server/pkg/validator"
	"github.com/mediaviewer/server/pkg/wsrouter"
)

// executor runs f on the viewer's loop goroutine and waits for it.
type executor interface {
	Do(ctx context.Context, f func()) error
}

type iConnRepo interface {
	Add(conn connection.Conn) error
	Remove(id string) error
	ListByRole(role connection.Role) []connection.Conn
}

type controller struct {
	loop      executor
	viewer    *viewer.Viewer
	conns     iConnRepo
	assets    http.Handler
	upgrader  websocket.Upgrader
	validate  *validator.Validator
	logger    *slog.Logger
	playerMux *wsrouter.WSRouter
	remoteMux *wsrouter.WSRouter
	cleanup   []func()
}

// NewController must be called on the loop goroutine or before the loop runs: it subscribes
// to the viewer's signals. assets may be nil.
func NewController(loop executor, v *viewer.Viewer, conns iConnRepo, assets http.Handler, logger *slog.Logger) *controller {
	c := &controller{
		loop:   loop,
		viewer: v,
		conns:  conns,
		assets: assets,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.playerMux = c.getPlayerWSRouter()
	c.remoteMux = c.getRemoteWSRouter()
	c.subscribe()

	return c
}

// Close drops the viewer subscriptions. It must run on the loop goroutine.
func (c *controller) Close() {
	for _, fn := range c.cleanup {
		fn()
	}
	c.cleanup = nil
}
