package media

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/mediaviewer/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageZoomBounds(t *testing.T) {
	s := NewImageSource(slog.Default(), NewResolver("", "mp4"), nil)
	for range 30 {
		s.ZoomIn()
	}
	assert.Equal(t, MaxZoom, s.State().ZoomLevel)

	for range 30 {
		s.ZoomOut()
	}
	assert.Equal(t, MinZoom, s.State().ZoomLevel)
}

func TestImageRotateWraps(t *testing.T) {
	s := NewImageSource(slog.Default(), NewResolver("", "mp4"), nil)
	s.RotateLeft()
	assert.Equal(t, 270, s.State().Rotation)
	for range 5 {
		s.RotateRight()
	}
	assert.Equal(t, 0, s.State().Rotation)
	s.RotateRight()
	assert.Equal(t, 90, s.State().Rotation)
}

func TestImagePanOnlyWhenZoomed(t *testing.T) {
	s := NewImageSource(slog.Default(), NewResolver("", "mp4"), nil)
	s.Pan(10, 10)
	assert.Equal(t, 0.0, s.State().OffsetX)

	s.ZoomIn()
	s.Pan(10, -5)
	assert.Equal(t, 10.0, s.State().OffsetX)
	assert.Equal(t, -5.0, s.State().OffsetY)

	s.SetZoom(1)
	assert.Equal(t, 0.0, s.State().OffsetX)
}

func TestImageSetContentResets(t *testing.T) {
	s := NewImageSource(slog.Default(), NewResolver("http://localhost:1122", "mp4"), nil)
	var got []domain.ImageState
	s.Subscribe(func(st domain.ImageState) { got = append(got, st) })

	s.ZoomIn()
	s.RotateRight()
	require.NoError(t, s.SetContent("sunset", "jpg"))

	assert.Equal(t, domain.NewImageState(), s.State())
	assert.Equal(t, "http://localhost:1122/assets/images/sunset.jpg", s.URL())
	assert.Len(t, got, 3)
}

func TestImageFullscreen(t *testing.T) {
	calls := 0
	s := NewImageSource(slog.Default(), NewResolver("", "mp4"), func() error {
		calls++
		return errors.New("denied")
	})
	assert.NotPanics(t, s.RequestFullscreen)
	assert.Equal(t, 1, calls)

	s = NewImageSource(slog.Default(), NewResolver("", "mp4"), nil)
	assert.NotPanics(t, s.RequestFullscreen)
}
