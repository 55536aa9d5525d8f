package controls

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mediaviewer/server/internal/discovery"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/loop"
	"github.com/mediaviewer/server/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock    *loop.Manual
	registry *discovery.Registry
	agg      *Aggregator
	dark     *countingDark
}

type countingDark struct {
	toggles int
}

func (d *countingDark) Toggle(context.Context) (bool, error) {
	d.toggles++
	return d.toggles%2 == 1, nil
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := loop.NewManual()
	registry := discovery.NewRegistry(slog.Default(), clock)
	dark := &countingDark{}
	agg := NewAggregator(slog.Default(), registry, dark, discovery.FindOptions[*media.Source]{})
	require.NoError(t, agg.Add(DefaultWidgets(10)...))
	t.Cleanup(agg.Close)
	return &harness{clock: clock, registry: registry, agg: agg, dark: dark}
}

// newLoadedSource returns an attached source with 120s of loaded content.
func (h *harness) newLoadedSource(t *testing.T) (*media.Source, *media.Virtual) {
	t.Helper()
	probe := func(string) (float64, error) { return 120, nil }
	medium := media.NewVirtual(slog.Default(), h.clock, probe, media.VirtualConfig{})
	src := media.NewSource(slog.Default(), h.clock, media.NewResolver("", "mp4"), medium, media.Config{})
	src.Attach()
	require.NoError(t, src.SetContent("clip", ""))
	h.clock.Flush()
	return src, medium
}

func TestUnboundDropsIntents(t *testing.T) {
	h := newHarness(t)
	h.agg.Start()
	assert.False(t, h.agg.Bound())

	assert.NoError(t, h.agg.Input("play-pause", ActionClick, 0))
	assert.NoError(t, h.agg.Input("seek-forward", ActionClick, 0))

	// Dark mode is not media state and still goes through.
	assert.NoError(t, h.agg.Input("dark-mode", ActionClick, 0))
	assert.Equal(t, 1, h.dark.toggles)
}

func TestBindsToLateSourceAndRelays(t *testing.T) {
	h := newHarness(t)
	h.agg.Start()

	src, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, src)
	require.True(t, h.agg.Bound())
	assert.Same(t, src, h.agg.Source())

	w, _ := h.agg.Widget("time")
	assert.Equal(t, "0:00 / 2:00", w.(*TimeDisplay).Text(), "binding pulls an initial snapshot")

	for range 3 {
		require.NoError(t, h.agg.Input("seek-forward", ActionClick, 0))
	}
	assert.Equal(t, 30.0, src.State().CurrentTime)
	require.NoError(t, h.agg.Input("seek-backward", ActionClick, 0))
	require.NoError(t, h.agg.Input("seek-backward", ActionClick, 0))
	require.NoError(t, h.agg.Input("seek-backward", ActionClick, 0))
	require.NoError(t, h.agg.Input("seek-backward", ActionClick, 0))
	require.NoError(t, h.agg.Input("seek-backward", ActionClick, 0))
	assert.Equal(t, 0.0, src.State().CurrentTime)
}

func TestTogglePlayEndToEnd(t *testing.T) {
	h := newHarness(t)
	src, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, src)
	h.agg.Start()

	require.NoError(t, h.agg.Input("play-pause", ActionClick, 0))
	assert.True(t, src.State().IsPlaying)

	w, _ := h.agg.Widget("play-pause")
	assert.Equal(t, "pause", w.View().Attrs["icon"])
}

func TestIntentTranslationDoesNotClamp(t *testing.T) {
	h := newHarness(t)
	src, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, src)
	h.agg.Start()

	// The aggregator forwards as-is; the source is the one that validates.
	h.agg.handleIntent(domain.SetVolume(5))
	assert.Equal(t, 1.0, src.State().Volume)
	h.agg.handleIntent(domain.SetPlaybackRate(-1))
	assert.Equal(t, 1.0, src.State().PlaybackRate)
	h.agg.handleIntent(domain.SetPlaybackRate(1.75))
	assert.Equal(t, 1.75, src.State().PlaybackRate)
}

func TestRebindOnMediaChange(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, a)
	h.agg.Start()
	require.Same(t, a, h.agg.Source())

	b, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, b)
	h.agg.Rebind()
	require.Same(t, b, h.agg.Source())

	require.NoError(t, h.agg.Input("volume", ActionDrag, 0.2))
	assert.Equal(t, 0.2, b.State().Volume)
	assert.Equal(t, 1.0, a.State().Volume)

	// A's broadcasts no longer reach the widgets.
	a.SetVolume(0.9)
	w, _ := h.agg.Widget("volume")
	assert.Equal(t, 0.2, w.View().Attrs["volume"])
}

func TestUnregistrationUnbinds(t *testing.T) {
	h := newHarness(t)
	src, _ := h.newLoadedSource(t)
	reg := discovery.Register(h.registry, media.SourceKey, src)
	h.agg.Start()
	require.True(t, h.agg.Bound())

	reg.Unregister()
	assert.False(t, h.agg.Bound())

	require.NoError(t, h.agg.Input("play-pause", ActionClick, 0))
	assert.False(t, src.State().IsPlaying)

	discovery.Register(h.registry, media.SourceKey, src)
	assert.True(t, h.agg.Bound())
}

type panickyWidget struct {
	base
}

func (w *panickyWidget) Reflect(domain.MediaState) {
	panic("reflect failed")
}

func (w *panickyWidget) Input(action string, _ float64) error {
	return w.unknownAction(action)
}

func (w *panickyWidget) View() View {
	return w.view(false, nil)
}

func TestReflectPanicDoesNotBlockOthers(t *testing.T) {
	clock := loop.NewManual()
	registry := discovery.NewRegistry(slog.Default(), clock)
	agg := NewAggregator(slog.Default(), registry, nil, discovery.FindOptions[*media.Source]{})
	defer agg.Close()

	play := NewPlayPause()
	require.NoError(t, agg.Add(&panickyWidget{base{name: "broken"}}, play))
	require.Error(t, agg.Add(NewPlayPause()), "duplicate names are rejected")

	h := &harness{clock: clock}
	src, _ := h.newLoadedSource(t)
	discovery.Register(registry, media.SourceKey, src)
	agg.Start()

	src.Play()
	assert.True(t, play.Playing())
}

func TestRenderObservers(t *testing.T) {
	h := newHarness(t)
	src, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, src)

	var renders [][]View
	h.agg.OnRender(func(v []View) { renders = append(renders, v) })
	h.agg.Start()
	require.NotEmpty(t, renders)
	assert.Len(t, renders[len(renders)-1], len(h.agg.Widgets()))

	_, ok := h.agg.Widget("missing")
	assert.False(t, ok)
	assert.ErrorIs(t, h.agg.Input("missing", ActionClick, 0), ErrUnknownWidget)
	assert.ErrorIs(t, h.agg.Input("time", ActionClick, 0), ErrUnknownAction)
}

func TestCloseCancelsDiscovery(t *testing.T) {
	h := newHarness(t)
	h.agg.Start()
	require.NotZero(t, h.clock.Pending())

	h.agg.Close()
	assert.Zero(t, h.clock.Pending())

	src, _ := h.newLoadedSource(t)
	discovery.Register(h.registry, media.SourceKey, src)
	h.clock.Advance(time.Second)
	assert.False(t, h.agg.Bound())
}
