package controller

import (
	"net/http"

	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/viewer"
	"github.com/mediaviewer/server/pkg/rest"
)

func (c *controller) getCatalog(w http.ResponseWriter, r *http.Request) {
	var items []domain.CatalogItem
	if err := c.loop.Do(r.Context(), func() {
		items = c.viewer.Sidebar().Items()
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to read catalog", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, rest.Envelope{"error": err.Error()})
		return
	}

	if items == nil {
		items = []domain.CatalogItem{}
	}
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": items})
}

func (c *controller) getSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap viewer.Snapshot
	if err := c.loop.Do(r.Context(), func() {
		snap = c.viewer.Snapshot()
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to read snapshot", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": snap})
}
