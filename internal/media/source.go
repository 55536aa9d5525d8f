package media

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/loop"
)

const (
	defaultSeekTimeout = 3 * time.Second
	defaultSeekPoll    = 100 * time.Millisecond
	defaultSeekStep    = 10.0
)

type Config struct {
	// SeekTimeout bounds how long a seek waits for the medium to become seekable.
	SeekTimeout time.Duration
	SeekPoll    time.Duration
	// SeekStep is the jump used by SeekForward and SeekBackward, in seconds.
	SeekStep float64
}

func (c Config) withDefaults() Config {
	if c.SeekTimeout <= 0 {
		c.SeekTimeout = defaultSeekTimeout
	}
	if c.SeekPoll <= 0 {
		c.SeekPoll = defaultSeekPoll
	}
	if c.SeekStep <= 0 {
		c.SeekStep = defaultSeekStep
	}
	return c
}

type restorePoint struct {
	time    float64
	playing bool
}

type seekRetry struct {
	target   float64
	poll     loop.Timer
	deadline loop.Timer
}

// Source is the authoritative owner of one medium's playback state. Every observable change
// is published to subscribers as a full MediaState snapshot. Source is confined to the loop
// goroutine; none of its methods panic or return medium failures to the caller.
type Source struct {
	id       string
	logger   *slog.Logger
	sched    loop.Scheduler
	resolver *Resolver
	medium   Medium
	cfg      Config

	locator    string
	format     string
	url        string
	loadFailed bool
	seeking    bool
	attached   bool
	ready      bool

	restore *restorePoint
	retry   *seekRetry

	detachMedium func()
	states       *broadcast.Set[domain.MediaState]
	readies      *broadcast.Set[struct{}]
}

func NewSource(logger *slog.Logger, sched loop.Scheduler, resolver *Resolver, medium Medium, cfg Config) *Source {
	id := uuid.NewString()
	logger = logger.With("source_id", id)

	return &Source{
		id:       id,
		logger:   logger,
		sched:    sched,
		resolver: resolver,
		medium:   medium,
		cfg:      cfg.withDefaults(),
		states:   broadcast.New[domain.MediaState](logger, "media_state"),
		readies:  broadcast.New[struct{}](logger, "source_ready"),
	}
}

func (s *Source) ID() string {
	return s.id
}

func (s *Source) Locator() string {
	return s.locator
}

func (s *Source) URL() string {
	return s.url
}

// Attach starts listening to the medium and emits the ready signal followed by an initial
// snapshot.
func (s *Source) Attach() {
	if s.attached {
		return
	}

	s.detachMedium = s.medium.Events(s.handleEvent)
	s.attached = true
	s.ready = true
	s.logger.Debug("source attached")

	s.readies.Emit(struct{}{})
	s.broadcast()
}

// Detach stops listening to the medium and cancels any pending seek retry. No further
// snapshots are published until the next Attach.
func (s *Source) Detach() {
	if !s.attached {
		return
	}

	s.cancelSeekRetry()
	if s.detachMedium != nil {
		s.detachMedium()
		s.detachMedium = nil
	}
	s.restore = nil
	s.seeking = false
	s.attached = false
	s.ready = false
	s.logger.Debug("source detached")
}

func (s *Source) Attached() bool {
	return s.attached
}

// Subscribe registers fn for every snapshot and returns a func that removes it.
func (s *Source) Subscribe(fn func(domain.MediaState)) (unsubscribe func()) {
	return s.states.Add(fn)
}

// OnReady registers fn for the ready signal. If the source is already ready fn runs at once.
func (s *Source) OnReady(fn func()) (unsubscribe func()) {
	unsubscribe = s.readies.Add(func(struct{}) { fn() })
	if s.ready {
		fn()
	}
	return unsubscribe
}

// State derives a fresh snapshot from the medium.
func (s *Source) State() domain.MediaState {
	st := domain.MediaState{
		IsPlaying:    !s.medium.Paused(),
		CurrentTime:  s.medium.CurrentTime(),
		Duration:     s.medium.Duration(),
		Volume:       s.medium.Volume(),
		Muted:        s.medium.Muted(),
		PlaybackRate: s.medium.PlaybackRate(),
		IsSeeking:    s.seeking,
		Buffered:     s.medium.Buffered(),
	}
	if s.loadFailed {
		st.IsPlaying = false
		st.CurrentTime = 0
		st.Duration = math.NaN()
		st.Buffered = 0
	}

	return sanitize(st)
}

// sanitize holds a snapshot to the state invariants whatever the medium reported: volume in
// [0, 1], a positive rate, and a non-negative time within a known duration.
func sanitize(st domain.MediaState) domain.MediaState {
	if math.IsNaN(st.Duration) || math.IsInf(st.Duration, 0) || st.Duration < 0 {
		st.Duration = math.NaN()
	}
	if math.IsNaN(st.CurrentTime) || math.IsInf(st.CurrentTime, -1) || st.CurrentTime < 0 {
		st.CurrentTime = 0
	}
	if domain.IsKnownDuration(st.Duration) {
		st.CurrentTime = math.Min(st.CurrentTime, st.Duration)
		st.Buffered = math.Min(st.Buffered, st.Duration)
	} else if math.IsInf(st.CurrentTime, 1) {
		st.CurrentTime = 0
	}
	if math.IsNaN(st.Buffered) || math.IsInf(st.Buffered, 0) || st.Buffered < 0 {
		st.Buffered = 0
	}
	if math.IsNaN(st.Volume) {
		st.Volume = 1
	}
	st.Volume = math.Max(0, math.Min(1, st.Volume))
	if math.IsNaN(st.PlaybackRate) || math.IsInf(st.PlaybackRate, 0) || st.PlaybackRate <= 0 {
		st.PlaybackRate = domain.DefaultPlaybackRate
	}
	return st
}

// SetContent loads locator into the medium. If content was already loaded, its position and
// play state are restored once the new metadata is known.
func (s *Source) SetContent(locator, format string) error {
	url, err := s.resolver.Resolve(locator, domain.MediaTypeVideos, format)
	if err != nil {
		s.logger.Warn("failed to resolve locator", "locator", locator, "error", err)
		return err
	}

	s.restore = nil
	if s.url != "" && !s.loadFailed {
		s.restore = &restorePoint{
			time:    s.medium.CurrentTime(),
			playing: !s.medium.Paused(),
		}
	}

	s.cancelSeekRetry()
	s.seeking = false
	s.loadFailed = false
	s.locator = locator
	s.format = format
	s.url = url

	s.logger.Info("loading content", "locator", locator, "url", url)
	s.medium.Load(url)
	s.broadcast()

	return nil
}

func (s *Source) Play() {
	if err := s.medium.Play(); err != nil {
		s.logger.Warn("play rejected", "error", err)
		s.broadcast()
	}
}

func (s *Source) Pause() {
	s.medium.Pause()
}

func (s *Source) TogglePlay() {
	if s.medium.Paused() {
		s.Play()
		return
	}
	s.Pause()
}

// Seek moves to t clamped to [0, duration]. With an unknown duration only the lower bound
// applies. If the medium cannot seek yet the request is retried until it can, a newer seek
// replaces it, or the timeout elapses.
func (s *Source) Seek(t float64) {
	if math.IsNaN(t) {
		s.logger.Warn("ignoring seek to NaN")
		return
	}

	target := s.clampTime(t)
	s.cancelSeekRetry()
	s.seeking = true

	if err := s.medium.SetCurrentTime(target); err != nil {
		if !errors.Is(err, ErrNotSeekable) && !errors.Is(err, ErrNotLoaded) {
			s.logger.Error("failed to seek", "target", target, "error", err)
			s.seeking = false
			s.broadcast()
			return
		}
		s.logger.Debug("medium not seekable, retrying", "target", target)
		s.armSeekRetry(target)
	}

	s.broadcast()
}

func (s *Source) SeekRelative(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		s.logger.Warn("ignoring relative seek", "delta", delta)
		return
	}
	s.Seek(s.seekBase() + delta)
}

func (s *Source) SeekForward() {
	s.SeekRelative(s.cfg.SeekStep)
}

func (s *Source) SeekBackward() {
	s.SeekRelative(-s.cfg.SeekStep)
}

// seekBase is the position a relative seek starts from: a pending seek target if there is
// one, else the medium's current time.
func (s *Source) seekBase() float64 {
	if s.retry != nil {
		return s.retry.target
	}
	t := s.medium.CurrentTime()
	if math.IsNaN(t) {
		return 0
	}
	return t
}

func (s *Source) clampTime(t float64) float64 {
	t = math.Max(0, t)
	if d := s.medium.Duration(); domain.IsKnownDuration(d) {
		t = math.Min(t, d)
	}
	return t
}

// SetVolume clamps v to [0, 1]. Muted is left untouched. NaN is ignored.
func (s *Source) SetVolume(v float64) {
	if math.IsNaN(v) {
		s.logger.Warn("ignoring NaN volume")
		return
	}
	s.medium.SetVolume(math.Max(0, math.Min(1, v)))
}

func (s *Source) Mute() {
	s.medium.SetMuted(true)
}

func (s *Source) Unmute() {
	s.medium.SetMuted(false)
}

func (s *Source) ToggleMute() {
	s.medium.SetMuted(!s.medium.Muted())
}

// SetPlaybackRate applies r. Non-finite and non-positive rates are replaced by 1.
func (s *Source) SetPlaybackRate(r float64) {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		s.logger.Warn("invalid playback rate, using default", "rate", r, "default", domain.DefaultPlaybackRate)
		r = domain.DefaultPlaybackRate
	}
	s.medium.SetPlaybackRate(r)
}

func (s *Source) IncreasePlaybackRate() {
	s.SetPlaybackRate(domain.NextRate(s.medium.PlaybackRate()))
}

func (s *Source) DecreasePlaybackRate() {
	s.SetPlaybackRate(domain.PrevRate(s.medium.PlaybackRate()))
}

func (s *Source) RequestFullscreen() {
	if err := s.medium.RequestFullscreen(); err != nil {
		if errors.Is(err, ErrFullscreenUnsupported) {
			s.logger.Debug("fullscreen unsupported")
			return
		}
		s.logger.Warn("failed to request fullscreen", "error", err)
	}
}

func (s *Source) handleEvent(ev Event) {
	switch ev.Type {
	case EventSeeking:
		s.seeking = true
	case EventSeeked:
		s.seeking = false
	case EventLoadedMetadata:
		s.loadFailed = false
		s.tryPendingSeek()
		s.applyRestore()
	case EventCanPlay:
		s.tryPendingSeek()
	case EventError:
		if errors.Is(ev.Err, ErrPlaybackRejected) {
			s.logger.Warn("play rejected", "error", ev.Err)
			break
		}
		s.logger.Error("failed to load content", "url", s.url, "error", ev.Err)
		s.loadFailed = true
		s.restore = nil
		s.seeking = false
		s.cancelSeekRetry()
	}

	s.broadcast()
}

func (s *Source) applyRestore() {
	r := s.restore
	s.restore = nil
	if r == nil {
		return
	}

	d := s.medium.Duration()
	if r.time > 0 && domain.IsKnownDuration(d) && r.time < d {
		s.logger.Debug("restoring position", "time", r.time)
		s.Seek(r.time)
	}
	if r.playing {
		s.Play()
	}
}

func (s *Source) armSeekRetry(target float64) {
	r := &seekRetry{target: target}
	s.retry = r

	r.deadline = s.sched.AfterFunc(s.cfg.SeekTimeout, func() {
		if s.retry != r {
			return
		}
		s.cancelSeekRetry()
		s.seeking = false
		s.logger.Warn("seek timed out waiting for medium", "target", target, "timeout", s.cfg.SeekTimeout)
		s.broadcast()
	})
	s.schedulePoll(r)
}

func (s *Source) schedulePoll(r *seekRetry) {
	r.poll = s.sched.AfterFunc(s.cfg.SeekPoll, func() {
		if s.retry != r {
			return
		}
		if !s.tryPendingSeek() {
			s.schedulePoll(r)
		}
	})
}

// tryPendingSeek applies a pending seek if the medium now accepts it. It reports whether
// nothing is left pending.
func (s *Source) tryPendingSeek() bool {
	r := s.retry
	if r == nil {
		return true
	}
	if !s.medium.Seekable() {
		return false
	}

	target := s.clampTime(r.target)
	err := s.medium.SetCurrentTime(target)
	if errors.Is(err, ErrNotSeekable) || errors.Is(err, ErrNotLoaded) {
		return false
	}

	s.cancelSeekRetry()
	if err != nil {
		s.logger.Error("failed to seek", "target", target, "error", err)
		s.seeking = false
		s.broadcast()
	}
	return true
}

func (s *Source) cancelSeekRetry() {
	r := s.retry
	if r == nil {
		return
	}
	s.retry = nil
	if r.poll != nil {
		r.poll.Stop()
	}
	if r.deadline != nil {
		r.deadline.Stop()
	}
}

// SeekPending reports whether a seek is waiting for the medium.
func (s *Source) SeekPending() bool {
	return s.retry != nil
}

func (s *Source) broadcast() {
	if !s.attached {
		return
	}
	s.states.Emit(s.State())
}
