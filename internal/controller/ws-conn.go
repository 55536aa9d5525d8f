package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mediaviewer/server/internal/controls"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/media"
	"github.com/mediaviewer/server/internal/repository/connection"
	"github.com/mediaviewer/server/internal/viewer"
	"github.com/mediaviewer/server/pkg/ctxlogger"
	"github.com/mediaviewer/server/pkg/wsrouter"
)

// connectPlayer attaches the connecting tab's media element as the viewer's medium. A newer
// player replaces an older one.
func (c *controller) connectPlayer(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	cl := newClient(conn, connection.RolePlayer, c.logger)
	cl.medium = newPlayerMedium(c.logger, cl)
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", cl.id))

	var src *media.Source
	if err := c.do(ctx, func() error {
		if err := c.conns.Add(cl); err != nil {
			return err
		}
		var attachErr error
		src, attachErr = c.viewer.AttachSource(cl.medium)
		if attachErr != nil {
			_ = c.conns.Remove(cl.id)
		}
		return attachErr
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to attach player", "error", err)
		conn.Close()
		return
	}
	c.logger.InfoContext(ctx, "player connected", "source_id", src.ID())

	defer c.disconnect(ctx, cl, func() {
		c.viewer.DetachSource(src)
	})
	c.serve(ctx, cl, c.playerMux)
}

// connectRemote registers a control surface and sends it the whole view.
func (c *controller) connectRemote(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	cl := newClient(conn, connection.RoleRemote, c.logger)
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", cl.id))

	if err := c.do(ctx, func() error {
		if err := c.conns.Add(cl); err != nil {
			return err
		}
		// Registered and snapshotted in one loop task, so no signal falls in between.
		cl.Send(&Output{Type: TypeSnapshot, Payload: c.viewer.Snapshot()})
		return nil
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to register remote", "error", err)
		conn.Close()
		return
	}
	c.logger.InfoContext(ctx, "remote connected")

	defer c.disconnect(ctx, cl, nil)
	c.serve(ctx, cl, c.remoteMux)
}

func (c *controller) serve(ctx context.Context, cl *client, mux *wsrouter.WSRouter) {
	go cl.writePump()

	cl.prepareRead()
	if err := mux.ServeConn(withClient(ctx, cl), cl.conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

// disconnect unregisters cl and runs onLoop on the loop goroutine. The request context may
// already be cancelled, so the loop is reached with a fresh one.
func (c *controller) disconnect(ctx context.Context, cl *client, onLoop func()) {
	cl.close()
	if err := c.loop.Do(context.Background(), func() {
		if err := c.conns.Remove(cl.id); err != nil {
			c.logger.WarnContext(ctx, "failed to remove connection", "error", err)
		}
		if onLoop != nil {
			onLoop()
		}
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
	}
	c.logger.InfoContext(ctx, "disconnected")
}

func (c *controller) broadcast(out *Output) {
	for _, cl := range c.conns.ListByRole(connection.RoleRemote) {
		cl.Send(out)
	}
}

func (c *controller) broadcastCatalog() {
	c.broadcast(&Output{Type: TypeCatalog, Payload: c.viewer.Sidebar().View()})
}

// subscribe forwards the viewer's signals to every remote.
func (c *controller) subscribe() {
	c.cleanup = append(c.cleanup,
		c.viewer.OnState(func(st domain.MediaState) {
			c.broadcast(&Output{Type: TypeState, Payload: st})
		}),
		c.viewer.OnRender(func(views []controls.View) {
			c.broadcast(&Output{Type: TypeControlsRendered, Payload: views})
		}),
		c.viewer.OnDarkMode(func(dark bool) {
			c.broadcast(&Output{Type: TypeDarkModeChanged, Payload: map[string]bool{"dark_mode": dark}})
		}),
		c.viewer.OnMediaChanged(func(change viewer.MediaChange) {
			c.broadcast(&Output{Type: TypeMediaChanged, Payload: change})
			c.broadcastCatalog()
		}),
		c.viewer.OnFeedback(func(text string) {
			c.broadcast(&Output{Type: TypeShortcutFeedback, Payload: map[string]string{"text": text}})
		}),
		c.viewer.OnImageState(func(st domain.ImageState) {
			c.broadcast(&Output{Type: TypeImageState, Payload: st})
		}),
	)
}
