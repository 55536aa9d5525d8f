// Package viewer is the media viewer document: the one place that owns the registry, the
// media sources, the controls, the context menu, the shortcut handler, the sidebar and the
// dark-mode service, and wires selection to content changes.
//
// A Viewer is confined to the loop goroutine. Callers on other goroutines go through
// loop.Loop.Do.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/catalog"
	"github.com/mediaviewer/server/internal/controls"
	"github.com/mediaviewer/server/internal/darkmode"
	"github.com/mediaviewer/server/internal/discovery"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/loop"
	"github.com/mediaviewer/server/internal/media"
	"github.com/mediaviewer/server/internal/menu"
	"github.com/mediaviewer/server/internal/shortcut"
)

var (
	ErrNoImage            = errors.New("no image on screen")
	ErrUnknownImageAction = errors.New("unknown image action")
	ErrClosed             = errors.New("viewer closed")
)

const defaultProbeDuration = 60.0

type Config struct {
	Source        media.Config
	RetryInterval time.Duration
	RetryAttempts int
	// ProbeDuration is reported for headless content whose catalog entry has no duration.
	ProbeDuration float64
}

// MediaChange is published after the on-screen content switched.
type MediaChange struct {
	Type domain.MediaType   `json:"media_type"`
	Item domain.CatalogItem `json:"media_item"`
}

// Snapshot is the whole view, sent to a newly connected control surface.
type Snapshot struct {
	State           *domain.MediaState  `json:"state"`
	Controls        []controls.View     `json:"controls"`
	Catalog         catalog.View        `json:"catalog"`
	DarkMode        bool                `json:"dark_mode"`
	ActiveItem      *domain.CatalogItem `json:"active_item"`
	Image           *domain.ImageState  `json:"image"`
	ShortcutsActive bool                `json:"shortcuts_active"`
	Menu            menu.Model          `json:"context_menu"`
}

type Viewer struct {
	logger   *slog.Logger
	sched    loop.Scheduler
	cfg      Config
	registry *discovery.Registry
	resolver *media.Resolver

	dark       *darkmode.Service
	aggregator *controls.Aggregator
	menu       *menu.ContextMenu
	shortcuts  *shortcut.Handler
	sidebar    *catalog.Sidebar

	medium       media.Medium
	source       *media.Source
	sourceReg    *discovery.Registration
	unsubscribe  func()
	image        *media.ImageSource
	imageReg     *discovery.Registration
	activeReg    *discovery.Registration
	showing      domain.MediaType
	pendingVideo *domain.CatalogItem

	states  *broadcast.Set[domain.MediaState]
	images  *broadcast.Set[domain.ImageState]
	changes *broadcast.Set[MediaChange]
	cleanup []func()
	closed  bool
}

func New(logger *slog.Logger, sched loop.Scheduler, dark *darkmode.Service, resolver *media.Resolver, cfg Config) (*Viewer, error) {
	if cfg.ProbeDuration <= 0 {
		cfg.ProbeDuration = defaultProbeDuration
	}
	logger = logger.With("component", "viewer")

	v := &Viewer{
		logger:   logger,
		sched:    sched,
		cfg:      cfg,
		registry: discovery.NewRegistry(logger, sched),
		resolver: resolver,
		dark:     dark,
		sidebar:  catalog.NewSidebar(logger),
		states:   broadcast.New[domain.MediaState](logger, "viewer_state"),
		images:   broadcast.New[domain.ImageState](logger, "viewer_image"),
		changes:  broadcast.New[MediaChange](logger, "media_changed"),
	}

	v.aggregator = controls.NewAggregator(logger, v.registry, dark, discovery.FindOptions[*media.Source]{
		Parent:        v.ownSource,
		RetryInterval: cfg.RetryInterval,
		RetryAttempts: cfg.RetryAttempts,
	})
	if err := v.aggregator.Add(controls.DefaultWidgets(v.seekStep())...); err != nil {
		return nil, fmt.Errorf("failed to add widgets: %w", err)
	}
	for _, w := range v.aggregator.Widgets() {
		v.cleanup = append(v.cleanup, controls.WatchDarkMode(w, dark))
	}

	activeOpts := discovery.FindOptions[any]{
		RetryInterval: cfg.RetryInterval,
		RetryAttempts: cfg.RetryAttempts,
	}
	v.menu = menu.New(logger, v.registry, dark, activeOpts)
	v.shortcuts = shortcut.New(logger, v.registry, dark, activeOpts)
	v.shortcuts.SetSeekStep(v.seekStep())

	v.cleanup = append(v.cleanup, v.sidebar.OnSelect(v.show))
	v.aggregator.Start()

	return v, nil
}

func (v *Viewer) seekStep() float64 {
	if v.cfg.Source.SeekStep > 0 {
		return v.cfg.Source.SeekStep
	}
	return shortcut.DefaultSeekStep
}

// ownSource is the control strip's source. While an image is on screen the strip has none.
func (v *Viewer) ownSource() (*media.Source, bool) {
	if v.showing == domain.MediaTypeImages {
		return nil, false
	}
	return v.source, v.source != nil
}

// publishSource makes the source discoverable by the control strip.
func (v *Viewer) publishSource() {
	if v.source != nil && v.sourceReg == nil {
		v.sourceReg = discovery.Register(v.registry, media.SourceKey, v.source)
	}
}

func (v *Viewer) withdrawSource() {
	if v.sourceReg != nil {
		v.sourceReg.Unregister()
		v.sourceReg = nil
	}
}

func (v *Viewer) Registry() *discovery.Registry {
	return v.registry
}

func (v *Viewer) Aggregator() *controls.Aggregator {
	return v.aggregator
}

func (v *Viewer) Menu() *menu.ContextMenu {
	return v.menu
}

func (v *Viewer) Shortcuts() *shortcut.Handler {
	return v.shortcuts
}

func (v *Viewer) Sidebar() *catalog.Sidebar {
	return v.sidebar
}

func (v *Viewer) Source() *media.Source {
	return v.source
}

func (v *Viewer) Image() *media.ImageSource {
	return v.image
}

// Showing is the type of the content on screen, empty before the first selection.
func (v *Viewer) Showing() domain.MediaType {
	return v.showing
}

func (v *Viewer) SetCatalog(items []domain.CatalogItem) {
	v.sidebar.SetMediaItems(items)
}

// AttachSource wraps m in a new Source and makes it the document's media source. A source
// attached earlier is detached first. Video content selected while no medium was attached is
// loaded now.
func (v *Viewer) AttachSource(m media.Medium) (*media.Source, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if v.source != nil {
		v.DetachSource(v.source)
	}

	src := media.NewSource(v.logger, v.sched, v.resolver, m, v.cfg.Source)
	v.medium = m
	v.source = src
	v.unsubscribe = src.Subscribe(v.states.Emit)
	src.Attach()
	v.logger.Info("media source attached", "source_id", src.ID())

	if v.showing != domain.MediaTypeImages {
		v.publishSource()
		v.setActive(src)
	}
	if item := v.pendingVideo; item != nil {
		v.pendingVideo = nil
		v.loadVideo(*item)
	}

	return src, nil
}

// DetachSource removes src if it is still the document's source.
func (v *Viewer) DetachSource(src *media.Source) {
	if src == nil || src != v.source {
		return
	}

	if v.showing == domain.MediaTypeVideos {
		if item, ok := v.sidebar.ActiveItem(); ok && item.IsVideo() {
			v.pendingVideo = &item
		}
	}

	v.source = nil
	v.medium = nil
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	src.Detach()
	v.withdrawSource()
	if v.showing != domain.MediaTypeImages {
		v.clearActive()
	}
	v.logger.Info("media source detached", "source_id", src.ID())
}

// Select picks a catalog item. The sidebar emits the selection, which switches the content.
func (v *Viewer) Select(id string) error {
	if v.closed {
		return ErrClosed
	}
	return v.sidebar.Select(id)
}

func (v *Viewer) show(item domain.CatalogItem) {
	if item.IsVideo() {
		v.showVideo(item)
	} else {
		v.showImage(item)
	}

	v.aggregator.Rebind()
	v.menu.Retarget()
	v.shortcuts.Retarget()
	v.changes.Emit(MediaChange{Type: item.Type, Item: item})
}

func (v *Viewer) showVideo(item domain.CatalogItem) {
	v.showing = domain.MediaTypeVideos
	if v.imageReg != nil {
		v.imageReg.Unregister()
		v.imageReg = nil
	}

	if v.source == nil {
		v.logger.Info("no media source yet, deferring video", "id", item.ID)
		v.pendingVideo = &item
		v.clearActive()
		return
	}
	v.publishSource()
	v.setActive(v.source)
	v.loadVideo(item)
}

func (v *Viewer) loadVideo(item domain.CatalogItem) {
	if err := v.source.SetContent(item.Src, item.Format); err != nil {
		v.logger.Warn("failed to load video", "id", item.ID, "error", err)
	}
}

func (v *Viewer) showImage(item domain.CatalogItem) {
	v.showing = domain.MediaTypeImages
	v.pendingVideo = nil
	if v.source != nil {
		v.source.Pause()
	}
	v.withdrawSource()

	if v.image == nil {
		v.image = media.NewImageSource(v.logger, v.resolver, v.requestFullscreen)
		v.cleanup = append(v.cleanup, v.image.Subscribe(v.images.Emit))
	}
	if err := v.image.SetContent(item.Src, item.Format); err != nil {
		v.logger.Warn("failed to load image", "id", item.ID, "error", err)
	}
	if v.imageReg == nil {
		v.imageReg = discovery.Register(v.registry, media.ImageSourceKey, v.image)
	}
	v.setActive(v.image)
}

func (v *Viewer) requestFullscreen() error {
	if v.medium == nil {
		return media.ErrFullscreenUnsupported
	}
	return v.medium.RequestFullscreen()
}

func (v *Viewer) setActive(target any) {
	if cur, ok := discovery.Lookup(v.registry, media.ActiveKey); ok && cur == target {
		return
	}
	v.activeReg = discovery.Register(v.registry, media.ActiveKey, target)
}

func (v *Viewer) clearActive() {
	if v.activeReg != nil {
		v.activeReg.Unregister()
		v.activeReg = nil
	}
}

// WidgetInput routes a control-strip action.
func (v *Viewer) WidgetInput(widget, action string, value float64) error {
	return v.aggregator.Input(widget, action, value)
}

func (v *Viewer) HandleKey(ctx context.Context, key string) bool {
	return v.shortcuts.HandleKey(ctx, key)
}

func (v *Viewer) OpenMenu(x, y float64) (menu.Model, error) {
	return v.menu.Open(x, y)
}

func (v *Viewer) ActivateMenu(ctx context.Context, action menu.Action, rate float64) error {
	return v.menu.Activate(ctx, action, rate)
}

func (v *Viewer) CloseMenu() {
	v.menu.Close()
}

type ImageAction string

const (
	ImageZoomIn      ImageAction = "zoom-in"
	ImageZoomOut     ImageAction = "zoom-out"
	ImageZoom        ImageAction = "zoom"
	ImageRotateLeft  ImageAction = "rotate-left"
	ImageRotateRight ImageAction = "rotate-right"
	ImagePan         ImageAction = "pan"
	ImageReset       ImageAction = "reset"
	ImageFullscreen  ImageAction = "fullscreen"
)

// ImageInput applies an image-viewer action. x is the zoom level for ImageZoom; x and y are
// the offsets for ImagePan.
func (v *Viewer) ImageInput(action ImageAction, x, y float64) error {
	if v.image == nil || v.showing != domain.MediaTypeImages {
		return ErrNoImage
	}

	switch action {
	case ImageZoomIn:
		v.image.ZoomIn()
	case ImageZoomOut:
		v.image.ZoomOut()
	case ImageZoom:
		v.image.SetZoom(x)
	case ImageRotateLeft:
		v.image.RotateLeft()
	case ImageRotateRight:
		v.image.RotateRight()
	case ImagePan:
		v.image.Pan(x, y)
	case ImageReset:
		v.image.Reset()
	case ImageFullscreen:
		v.image.RequestFullscreen()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownImageAction, action)
	}
	return nil
}

// Probe reports the duration of the catalog video that resolves to url. It backs the headless
// medium.
func (v *Viewer) Probe(url string) (float64, error) {
	if url == "" {
		return 0, media.ErrEmptyLocator
	}

	for _, item := range v.sidebar.Items() {
		if !item.IsVideo() {
			continue
		}
		resolved, err := v.resolver.Resolve(item.Src, domain.MediaTypeVideos, item.Format)
		if err != nil || resolved != url {
			continue
		}
		if item.Duration > 0 {
			return item.Duration, nil
		}
		break
	}
	return v.cfg.ProbeDuration, nil
}

func (v *Viewer) OnState(fn func(domain.MediaState)) (unsubscribe func()) {
	return v.states.Add(fn)
}

func (v *Viewer) OnImageState(fn func(domain.ImageState)) (unsubscribe func()) {
	return v.images.Add(fn)
}

func (v *Viewer) OnMediaChanged(fn func(MediaChange)) (unsubscribe func()) {
	return v.changes.Add(fn)
}

func (v *Viewer) OnRender(fn func([]controls.View)) (unsubscribe func()) {
	return v.aggregator.OnRender(fn)
}

func (v *Viewer) OnDarkMode(fn func(bool)) (unsubscribe func()) {
	return v.dark.Subscribe(fn)
}

func (v *Viewer) OnFeedback(fn func(string)) (unsubscribe func()) {
	return v.shortcuts.OnFeedback(fn)
}

func (v *Viewer) Snapshot() Snapshot {
	snap := Snapshot{
		Controls:        v.aggregator.Views(),
		Catalog:         v.sidebar.View(),
		DarkMode:        v.dark.IsDark(),
		ShortcutsActive: v.shortcuts.Active(),
		Menu:            v.menu.Model(),
	}
	if v.source != nil {
		st := v.source.State()
		snap.State = &st
	}
	if item, ok := v.sidebar.ActiveItem(); ok {
		snap.ActiveItem = &item
	}
	if v.image != nil && v.showing == domain.MediaTypeImages {
		st := v.image.State()
		snap.Image = &st
	}
	return snap
}

// Close tears the document down. The dark-mode service is owned by the caller.
func (v *Viewer) Close() {
	if v.closed {
		return
	}
	if v.source != nil {
		v.DetachSource(v.source)
	}
	for _, fn := range v.cleanup {
		fn()
	}
	v.cleanup = nil
	v.aggregator.Close()
	v.menu.Teardown()
	v.shortcuts.Close()
	v.states.Clear()
	v.images.Clear()
	v.changes.Clear()
	v.closed = true
	v.logger.Info("viewer closed")
}
