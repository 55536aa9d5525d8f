package controls

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/discovery"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/media"
)

// DarkModeToggler receives ToggleDarkMode intents.
type DarkModeToggler interface {
	Toggle(ctx context.Context) (bool, error)
}

// Aggregator relays one media source's snapshots to its widgets, in registration order,
// and each widget intent to exactly one call on the source. It is Unbound until it finds a
// source; intents that arrive while Unbound are dropped.
type Aggregator struct {
	logger   *slog.Logger
	registry *discovery.Registry
	findOpts discovery.FindOptions[*media.Source]
	dark     DarkModeToggler

	widgets []Widget
	byName  map[string]Widget

	source           *media.Source
	unsubscribeState func()
	unsubscribeReady func()
	unwatch          func()
	finder           *discovery.Finder
	renders          *broadcast.Set[[]View]
	started          bool
	closed           bool
}

// NewAggregator returns an unbound aggregator. dark may be nil.
func NewAggregator(
	logger *slog.Logger,
	registry *discovery.Registry,
	dark DarkModeToggler,
	findOpts discovery.FindOptions[*media.Source],
) *Aggregator {
	logger = logger.With("component", "aggregator")
	return &Aggregator{
		logger:   logger,
		registry: registry,
		findOpts: findOpts,
		dark:     dark,
		byName:   make(map[string]Widget),
		renders:  broadcast.New[[]View](logger, "controls_rendered"),
	}
}

// DefaultWidgets returns the standard control strip in display order.
func DefaultWidgets(seekStep float64) []Widget {
	return []Widget{
		NewSeekBar(),
		NewSeekButton(Backward, seekStep),
		NewPlayPause(),
		NewSeekButton(Forward, seekStep),
		NewVolume(),
		NewTimeDisplay(),
		NewSpeed(),
		NewDarkModeToggle(),
		NewFullscreen(),
	}
}

// Add takes ownership of widgets. Names must be unique.
func (a *Aggregator) Add(widgets ...Widget) error {
	for _, w := range widgets {
		if _, ok := a.byName[w.Name()]; ok {
			return fmt.Errorf("failed to add widget: duplicate name %q", w.Name())
		}
		a.byName[w.Name()] = w
		a.widgets = append(a.widgets, w)
		w.SetEmitter(a.handleIntent)
		if a.source != nil {
			a.reflectOne(w, a.source.State())
		}
	}
	return nil
}

func (a *Aggregator) Widgets() []Widget {
	return a.widgets
}

func (a *Aggregator) Widget(name string) (Widget, bool) {
	w, ok := a.byName[name]
	return w, ok
}

// Start looks for the source and keeps following registrations.
func (a *Aggregator) Start() {
	if a.started || a.closed {
		return
	}
	a.started = true

	a.unwatch = discovery.Watch(a.registry, media.SourceKey, func(src *media.Source, ok bool) {
		if ok {
			a.bind(src)
			return
		}
		a.unbind()
		a.locate()
	})
	if a.source == nil {
		a.locate()
	}
}

// Rebind drops the current binding and locates the source again. Called when the active
// content changes.
func (a *Aggregator) Rebind() {
	if a.closed {
		return
	}
	a.logger.Debug("rebinding")
	a.unbind()
	a.locate()
}

func (a *Aggregator) locate() {
	if a.finder != nil {
		a.finder.Cancel()
	}
	a.finder = discovery.Find(a.registry, media.SourceKey, a.findOpts, a.bind)
}

func (a *Aggregator) Bound() bool {
	return a.source != nil
}

func (a *Aggregator) Source() *media.Source {
	return a.source
}

func (a *Aggregator) bind(src *media.Source) {
	if a.closed || src == a.source {
		return
	}
	a.unbind()

	a.source = src
	a.unsubscribeState = src.Subscribe(a.fanOut)
	a.logger.Info("bound to media source", "source_id", src.ID())
	// Late binders get a snapshot now instead of waiting for the next change.
	a.unsubscribeReady = src.OnReady(func() {
		if a.source == src {
			a.fanOut(src.State())
		}
	})
}

func (a *Aggregator) unbind() {
	if a.source == nil {
		return
	}
	if a.unsubscribeState != nil {
		a.unsubscribeState()
	}
	if a.unsubscribeReady != nil {
		a.unsubscribeReady()
	}
	a.logger.Info("unbound from media source", "source_id", a.source.ID())
	a.source = nil
	a.unsubscribeState = nil
	a.unsubscribeReady = nil
}

func (a *Aggregator) fanOut(st domain.MediaState) {
	for _, w := range a.widgets {
		a.reflectOne(w, st)
	}
	a.renders.Emit(a.Views())
}

func (a *Aggregator) reflectOne(w Widget, st domain.MediaState) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("widget reflect panicked", "widget", w.Name(), "panic", r)
		}
	}()

	w.Reflect(st)
}

// Input routes one user action to the named widget.
func (a *Aggregator) Input(widget, action string, value float64) error {
	w, ok := a.byName[widget]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, widget)
	}
	if err := w.Input(action, value); err != nil {
		return err
	}
	a.renders.Emit(a.Views())
	return nil
}

func (a *Aggregator) handleIntent(i domain.Intent) {
	if a.closed {
		return
	}

	if i.Kind == domain.IntentToggleDarkMode {
		if a.dark == nil {
			a.logger.Warn("dropping intent, no dark mode service", "intent", i.String())
			return
		}
		if _, err := a.dark.Toggle(context.Background()); err != nil {
			a.logger.Warn("failed to toggle dark mode", "error", err)
		}
		return
	}

	src := a.source
	if src == nil {
		a.logger.Warn("dropping intent, no media source", "intent", i.String())
		return
	}

	a.logger.Debug("applying intent", "intent", i.String(), "source_id", src.ID())
	if err := media.Apply(src, i); err != nil {
		a.logger.Warn("dropping intent", "intent", i.String(), "error", err)
	}
}

func (a *Aggregator) Views() []View {
	views := make([]View, 0, len(a.widgets))
	for _, w := range a.widgets {
		views = append(views, w.View())
	}
	return views
}

// OnRender registers fn for the widget views after every fan-out and every input.
func (a *Aggregator) OnRender(fn func([]View)) (unsubscribe func()) {
	return a.renders.Add(fn)
}

// Close releases the binding and cancels pending discovery.
func (a *Aggregator) Close() {
	if a.closed {
		return
	}
	if a.finder != nil {
		a.finder.Cancel()
		a.finder = nil
	}
	if a.unwatch != nil {
		a.unwatch()
		a.unwatch = nil
	}
	a.unbind()
	a.renders.Clear()
	a.closed = true
}
