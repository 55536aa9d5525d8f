package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.AllowAll().Handler)
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/catalog", c.getCatalog)
		r.Get("/snapshot", c.getSnapshot)
		r.Route("/ws", func(r chi.Router) {
			r.Get("/player", c.connectPlayer)
			r.Get("/remote", c.connectRemote)
		})
	})

	if c.assets != nil {
		r.Mount("/", c.assets)
	}

	return r
}
