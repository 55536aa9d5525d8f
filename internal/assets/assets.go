// Package assets serves the static files the viewer and the player page load, and lists
// the media files available under the assets root.
package assets

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/pkg/rest"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrOutsideRoot = errors.New("path outside assets root")

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "text/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
}

var mediaExtensions = map[domain.MediaType]map[string]struct{}{
	domain.MediaTypeVideos: {".mp4": {}, ".webm": {}, ".ogg": {}, ".mov": {}},
	domain.MediaTypeImages: {".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}},
}

func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}

// Extensions returns the sorted file extensions listed for mediaType.
func Extensions(mediaType domain.MediaType) []string {
	exts := maps.Keys(mediaExtensions[mediaType])
	slices.Sort(exts)
	return exts
}

// MediaDir is where files of mediaType live under root.
func MediaDir(root string, mediaType domain.MediaType) string {
	return filepath.Join(root, "assets", string(mediaType))
}

// List returns the sorted names of the visible media files of mediaType under root.
func List(root string, mediaType domain.MediaType) ([]string, error) {
	allowed, ok := mediaExtensions[mediaType]
	if !ok {
		return nil, fmt.Errorf("unknown media type %q", mediaType)
	}

	entries, err := os.ReadDir(MediaDir(root, mediaType))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", mediaType, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

type Server struct {
	root   string
	logger *slog.Logger
}

func NewServer(root string, logger *slog.Logger) *Server {
	return &Server{
		root:   root,
		logger: logger.With("component", "assets"),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Options("/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/assets/videos/list", s.list(domain.MediaTypeVideos))
	r.Get("/assets/images/list", s.list(domain.MediaTypeImages))
	r.Get("/*", s.serveFile)

	return r
}

func (s *Server) list(mediaType domain.MediaType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := List(s.root, mediaType)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "failed to list media", "media_type", mediaType, "error", err)
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{
				"error": fmt.Sprintf("Failed to read %s directory", mediaType),
			})
			return
		}

		if err := rest.WriteJSON(w, http.StatusOK, names); err != nil {
			s.logger.WarnContext(r.Context(), "failed to write listing", "error", err)
		}
	}
}

// resolve maps a request path to a file under the root. "/" maps to index.html.
func (s *Server) resolve(urlPath string) (string, error) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		clean = "/index.html"
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	full, err := s.resolve(r.URL.Path)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected asset path", "path", r.URL.Path, "error", err)
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.DebugContext(ctx, "asset not found", "path", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		s.logger.ErrorContext(ctx, "failed to open asset", "path", r.URL.Path, "error", err)
		http.Error(w, "Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", ContentType(full))
	// ServeContent stops writing on a stream error; the client sees a truncated body.
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
