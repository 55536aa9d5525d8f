package media

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/domain"
)

const (
	MinZoom  = 0.5
	MaxZoom  = 5.0
	ZoomStep = 0.25
)

// ImageSource owns the view transform of the image on screen. It has no playback state.
type ImageSource struct {
	id         string
	logger     *slog.Logger
	resolver   *Resolver
	fullscreen func() error

	locator string
	url     string
	state   domain.ImageState
	states  *broadcast.Set[domain.ImageState]
}

// NewImageSource returns an image source. fullscreen may be nil when the host has no
// fullscreen support.
func NewImageSource(logger *slog.Logger, resolver *Resolver, fullscreen func() error) *ImageSource {
	id := uuid.NewString()
	logger = logger.With("source_id", id)

	return &ImageSource{
		id:         id,
		logger:     logger,
		resolver:   resolver,
		fullscreen: fullscreen,
		state:      domain.NewImageState(),
		states:     broadcast.New[domain.ImageState](logger, "image_state"),
	}
}

func (s *ImageSource) ID() string {
	return s.id
}

func (s *ImageSource) URL() string {
	return s.url
}

func (s *ImageSource) Locator() string {
	return s.locator
}

func (s *ImageSource) State() domain.ImageState {
	return s.state
}

func (s *ImageSource) Subscribe(fn func(domain.ImageState)) (unsubscribe func()) {
	return s.states.Add(fn)
}

// SetContent swaps the image and resets the transform.
func (s *ImageSource) SetContent(locator, format string) error {
	url, err := s.resolver.Resolve(locator, domain.MediaTypeImages, format)
	if err != nil {
		s.logger.Warn("failed to resolve locator", "locator", locator, "error", err)
		return err
	}

	s.locator = locator
	s.url = url
	s.logger.Info("loading image", "locator", locator, "url", url)
	s.Reset()
	return nil
}

func (s *ImageSource) ZoomIn() {
	s.SetZoom(s.state.ZoomLevel + ZoomStep)
}

func (s *ImageSource) ZoomOut() {
	s.SetZoom(s.state.ZoomLevel - ZoomStep)
}

// SetZoom clamps z to [MinZoom, MaxZoom]. Dropping back to 1x or below recenters the image.
func (s *ImageSource) SetZoom(z float64) {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		s.logger.Warn("ignoring invalid zoom", "zoom", z)
		return
	}

	s.state.ZoomLevel = math.Max(MinZoom, math.Min(MaxZoom, z))
	if s.state.ZoomLevel <= 1 {
		s.state.OffsetX, s.state.OffsetY = 0, 0
	}
	s.emit()
}

func (s *ImageSource) RotateLeft() {
	s.rotate(-90)
}

func (s *ImageSource) RotateRight() {
	s.rotate(90)
}

func (s *ImageSource) rotate(deg int) {
	s.state.Rotation = ((s.state.Rotation+deg)%360 + 360) % 360
	s.emit()
}

// Pan moves the image by (dx, dy). Panning only applies while zoomed in.
func (s *ImageSource) Pan(dx, dy float64) {
	if s.state.ZoomLevel <= 1 {
		return
	}
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return
	}
	s.state.OffsetX += dx
	s.state.OffsetY += dy
	s.emit()
}

func (s *ImageSource) Reset() {
	s.state = domain.NewImageState()
	s.emit()
}

func (s *ImageSource) RequestFullscreen() {
	if s.fullscreen == nil {
		s.logger.Debug("fullscreen unsupported")
		return
	}
	if err := s.fullscreen(); err != nil {
		s.logger.Debug("fullscreen request failed", "error", err)
	}
}

func (s *ImageSource) emit() {
	s.states.Emit(s.state)
}
