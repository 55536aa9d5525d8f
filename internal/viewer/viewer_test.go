package viewer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mediaviewer/server/internal/darkmode"
	"github.com/mediaviewer/server/internal/discovery"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/loop"
	"github.com/mediaviewer/server/internal/media"
	"github.com/mediaviewer/server/internal/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeDelay = 500 * time.Millisecond

type fixture struct {
	viewer  *Viewer
	clock   *loop.Manual
	dark    *darkmode.Service
	changes []MediaChange
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := loop.NewManual()
	dark := darkmode.NewService(nil, false, slog.Default())
	require.NoError(t, dark.Init(context.Background()))

	v, err := New(slog.Default(), clock, dark, media.NewResolver("http://localhost:1122", "mp4"), Config{})
	require.NoError(t, err)
	v.SetCatalog([]domain.CatalogItem{
		{ID: "v1", Name: "Bunny", Src: "bunny", Type: domain.MediaTypeVideos, Category: "online-videos", Duration: 120},
		{ID: "v2", Name: "Sintel", Src: "https://cdn.example.com/sintel.webm", Type: domain.MediaTypeVideos},
		{ID: "i1", Name: "Lake", Src: "lake", Format: "jpg", Type: domain.MediaTypeImages},
	})

	f := &fixture{viewer: v, clock: clock, dark: dark}
	v.OnMediaChanged(func(c MediaChange) {
		f.changes = append(f.changes, c)
	})
	t.Cleanup(v.Close)
	return f
}

func (f *fixture) attach(t *testing.T) *media.Virtual {
	t.Helper()
	m := media.NewVirtual(slog.Default(), f.clock, f.viewer.Probe, media.VirtualConfig{
		ProbeDelay: probeDelay,
		Fullscreen: true,
	})
	_, err := f.viewer.AttachSource(m)
	require.NoError(t, err)
	return m
}

func (f *fixture) selectItem(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.viewer.Select(id))
	f.clock.Advance(probeDelay)
}

func TestSelectVideoLoadsAndBinds(t *testing.T) {
	f := newFixture(t)
	m := f.attach(t)

	f.selectItem(t, "v1")

	assert.Equal(t, "http://localhost:1122/assets/videos/bunny.mp4", m.URL())
	assert.True(t, f.viewer.Aggregator().Bound())
	assert.Same(t, f.viewer.Source(), f.viewer.Aggregator().Source())
	assert.Equal(t, 120.0, f.viewer.Source().State().Duration)
	assert.Equal(t, domain.MediaTypeVideos, f.viewer.Showing())

	require.Len(t, f.changes, 1)
	assert.Equal(t, domain.MediaTypeVideos, f.changes[0].Type)
	assert.Equal(t, "v1", f.changes[0].Item.ID)

	active, ok := discovery.Lookup(f.viewer.Registry(), media.ActiveKey)
	require.True(t, ok)
	assert.Same(t, f.viewer.Source(), active)
}

func TestSeekRelativeEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.selectItem(t, "v1")

	for range 3 {
		require.NoError(t, f.viewer.WidgetInput("seek-forward", "click", 0))
	}
	assert.Equal(t, 30.0, f.viewer.Source().State().CurrentTime)

	require.NoError(t, media.Apply(f.viewer.Source(), domain.SeekRelative(-50)))
	f.clock.Advance(time.Second)
	assert.Equal(t, 0.0, f.viewer.Source().State().CurrentTime)
	assert.False(t, f.viewer.Source().State().IsSeeking)
}

func TestTogglePlayShowsPauseIcon(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.selectItem(t, "v1")

	var last domain.MediaState
	f.viewer.OnState(func(st domain.MediaState) {
		last = st
	})

	require.NoError(t, f.viewer.WidgetInput("play-pause", "click", 0))
	assert.True(t, last.IsPlaying)

	w, ok := f.viewer.Aggregator().Widget("play-pause")
	require.True(t, ok)
	assert.Equal(t, "pause", w.View().Attrs["icon"])
}

func TestVideoSelectedBeforeAttachIsDeferred(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.viewer.Select("v2"))
	assert.Nil(t, f.viewer.Source())
	assert.False(t, f.viewer.Aggregator().Bound())

	m := f.attach(t)
	assert.Equal(t, "https://cdn.example.com/sintel.webm", m.URL())
	assert.True(t, f.viewer.Aggregator().Bound())
}

func TestIntentsFollowNewSource(t *testing.T) {
	f := newFixture(t)
	first := f.attach(t)
	f.selectItem(t, "v1")
	oldSource := f.viewer.Source()

	second := f.attach(t)
	f.clock.Advance(probeDelay)
	require.NotSame(t, oldSource, f.viewer.Source())
	assert.Same(t, f.viewer.Source(), f.viewer.Aggregator().Source())
	assert.False(t, oldSource.Attached())
	assert.Equal(t, first.URL(), second.URL())

	require.NoError(t, f.viewer.WidgetInput("volume", "click_mute", 0))
	assert.True(t, second.Muted())
	assert.False(t, first.Muted())
}

func TestDetachSourceLeavesAggregatorUnbound(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.selectItem(t, "v1")

	f.viewer.DetachSource(f.viewer.Source())
	assert.Nil(t, f.viewer.Source())
	assert.False(t, f.viewer.Aggregator().Bound())
	_, ok := discovery.Lookup(f.viewer.Registry(), media.ActiveKey)
	assert.False(t, ok)

	// Dark mode still works without a source.
	require.NoError(t, f.viewer.WidgetInput("dark-mode", "click", 0))
	assert.True(t, f.dark.IsDark())

	m := f.attach(t)
	assert.Equal(t, "http://localhost:1122/assets/videos/bunny.mp4", m.URL())
}

func TestSelectImageRetargets(t *testing.T) {
	f := newFixture(t)
	m := f.attach(t)
	f.selectItem(t, "v1")
	require.NoError(t, f.viewer.WidgetInput("play-pause", "click", 0))
	require.False(t, m.Paused())

	var images []domain.ImageState
	f.viewer.OnImageState(func(st domain.ImageState) {
		images = append(images, st)
	})

	require.NoError(t, f.viewer.Select("i1"))
	assert.True(t, m.Paused())
	assert.Equal(t, domain.MediaTypeImages, f.viewer.Showing())
	require.NotNil(t, f.viewer.Image())
	assert.Equal(t, "http://localhost:1122/assets/images/lake.jpg", f.viewer.Image().URL())
	require.Len(t, f.changes, 2)
	assert.Equal(t, domain.MediaTypeImages, f.changes[1].Type)

	active, ok := discovery.Lookup(f.viewer.Registry(), media.ActiveKey)
	require.True(t, ok)
	assert.Same(t, f.viewer.Image(), active)

	ctx := context.Background()
	assert.False(t, f.viewer.HandleKey(ctx, "m"))
	assert.False(t, f.viewer.HandleKey(ctx, "k"))
	assert.True(t, f.viewer.HandleKey(ctx, "f"))
	assert.True(t, m.Fullscreen())

	model, err := f.viewer.OpenMenu(10, 20)
	require.NoError(t, err)
	require.Len(t, model.Items, 2)
	assert.Equal(t, menu.ActionToggleFullscreen, model.Items[0].Action)
	assert.Equal(t, menu.ActionToggleDarkMode, model.Items[1].Action)

	require.NoError(t, f.viewer.ImageInput(ImageZoomIn, 0, 0))
	require.NoError(t, f.viewer.ImageInput(ImagePan, 10, -5))
	st := f.viewer.Image().State()
	assert.Equal(t, 1.25, st.ZoomLevel)
	assert.Equal(t, 10.0, st.OffsetX)
	require.NotEmpty(t, images)
	assert.Equal(t, st, images[len(images)-1])

	assert.ErrorIs(t, f.viewer.ImageInput("spin", 0, 0), ErrUnknownImageAction)

	f.selectItem(t, "v1")
	assert.ErrorIs(t, f.viewer.ImageInput(ImageZoomIn, 0, 0), ErrNoImage)
	_, ok = discovery.Lookup(f.viewer.Registry(), media.ImageSourceKey)
	assert.False(t, ok)
	assert.True(t, f.viewer.HandleKey(ctx, "m"))
	assert.True(t, m.Muted())
}

func TestControlStripIdleWhileImageShown(t *testing.T) {
	f := newFixture(t)
	m := f.attach(t)
	f.selectItem(t, "v1")
	require.True(t, f.viewer.Aggregator().Bound())

	f.selectItem(t, "i1")
	f.clock.Advance(time.Second)
	require.True(t, m.Paused())
	assert.False(t, f.viewer.Aggregator().Bound())
	_, ok := discovery.Lookup(f.viewer.Registry(), media.SourceKey)
	assert.False(t, ok)

	// Strip input is dropped instead of reaching the hidden video.
	require.NoError(t, f.viewer.WidgetInput("play-pause", "click", 0))
	require.NoError(t, f.viewer.WidgetInput("volume", "drag", 0.2))
	assert.True(t, m.Paused())
	assert.Equal(t, 1.0, m.Volume())

	// A player attached while the image is up stays hidden from the strip too.
	m2 := f.attach(t)
	assert.False(t, f.viewer.Aggregator().Bound())

	f.selectItem(t, "v1")
	assert.True(t, f.viewer.Aggregator().Bound())
	assert.Same(t, f.viewer.Source(), f.viewer.Aggregator().Source())
	require.NoError(t, f.viewer.WidgetInput("play-pause", "click", 0))
	assert.False(t, m2.Paused())
}

func TestMenuActivateOnVideo(t *testing.T) {
	f := newFixture(t)
	m := f.attach(t)
	f.selectItem(t, "v1")

	model, err := f.viewer.OpenMenu(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "Play", model.Items[0].Label)

	require.NoError(t, f.viewer.ActivateMenu(context.Background(), menu.ActionSetRate, 1.5))
	assert.Equal(t, 1.5, m.PlaybackRate())
	assert.False(t, f.viewer.Menu().Model().Open)
}

func TestShortcutFeedback(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.selectItem(t, "v1")

	var feedback []string
	f.viewer.OnFeedback(func(s string) {
		feedback = append(feedback, s)
	})

	assert.True(t, f.viewer.HandleKey(context.Background(), "L"))
	assert.True(t, f.viewer.HandleKey(context.Background(), ">"))
	assert.Equal(t, []string{"Forward 10s", "Speed Up"}, feedback)
	assert.Equal(t, 10.0, f.viewer.Source().State().CurrentTime)
	assert.Equal(t, 1.25, f.viewer.Source().State().PlaybackRate)
}

func TestDarkModeReachesWidgets(t *testing.T) {
	f := newFixture(t)

	var got []bool
	f.viewer.OnDarkMode(func(dark bool) {
		got = append(got, dark)
	})

	require.NoError(t, f.viewer.WidgetInput("dark-mode", "click", 0))
	assert.Equal(t, []bool{true}, got)

	for _, w := range f.viewer.Aggregator().Widgets() {
		assert.True(t, w.View().Dark, w.Name())
	}
	w, _ := f.viewer.Aggregator().Widget("dark-mode")
	assert.Equal(t, true, w.View().Attrs["active"])
	assert.True(t, f.viewer.Snapshot().DarkMode)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)

	snap := f.viewer.Snapshot()
	assert.Nil(t, snap.State)
	assert.Nil(t, snap.ActiveItem)
	assert.Len(t, snap.Controls, 9)
	assert.Len(t, snap.Catalog.Groups, 2)
	assert.True(t, snap.ShortcutsActive)

	f.attach(t)
	f.selectItem(t, "v1")

	snap = f.viewer.Snapshot()
	require.NotNil(t, snap.State)
	assert.Equal(t, 120.0, snap.State.Duration)
	require.NotNil(t, snap.ActiveItem)
	assert.Equal(t, "v1", snap.ActiveItem.ID)
	assert.Equal(t, "v1", snap.Catalog.ActiveID)
	assert.Nil(t, snap.Image)
}

func TestProbe(t *testing.T) {
	f := newFixture(t)

	d, err := f.viewer.Probe("http://localhost:1122/assets/videos/bunny.mp4")
	require.NoError(t, err)
	assert.Equal(t, 120.0, d)

	d, err = f.viewer.Probe("https://cdn.example.com/sintel.webm")
	require.NoError(t, err)
	assert.Equal(t, defaultProbeDuration, d)

	_, err = f.viewer.Probe("")
	assert.ErrorIs(t, err, media.ErrEmptyLocator)
}

func TestClosedViewerRejectsWork(t *testing.T) {
	f := newFixture(t)
	f.viewer.Close()

	assert.ErrorIs(t, f.viewer.Select("v1"), ErrClosed)
	_, err := f.viewer.AttachSource(media.NewVirtual(slog.Default(), f.clock, nil, media.VirtualConfig{}))
	assert.ErrorIs(t, err, ErrClosed)
}
