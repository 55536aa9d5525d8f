package media

import (
	"log/slog"
	"math"
	"time"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/loop"
)

// DurationProbe reports the duration of the content at url.
type DurationProbe func(url string) (float64, error)

type VirtualConfig struct {
	Tick       time.Duration
	ProbeDelay time.Duration
	SeekDelay  time.Duration
	// Fullscreen marks the simulated host as supporting fullscreen.
	Fullscreen bool
}

func (c VirtualConfig) withDefaults() VirtualConfig {
	if c.Tick <= 0 {
		c.Tick = 250 * time.Millisecond
	}
	if c.ProbeDelay < 0 {
		c.ProbeDelay = 0
	}
	if c.SeekDelay <= 0 {
		c.SeekDelay = 20 * time.Millisecond
	}
	return c
}

// Virtual is a clock-driven Medium used when no player is connected. It advances the
// playhead by rate times the tick while playing and reports the same events a media
// element would.
type Virtual struct {
	sched  loop.Scheduler
	probe  DurationProbe
	cfg    VirtualConfig
	events *broadcast.Set[Event]

	url         string
	loaded      bool
	paused      bool
	currentTime float64
	duration    float64
	volume      float64
	muted       bool
	rate        float64
	fullscreen  bool

	rejectPlay bool
	failLoad   bool

	tickTimer loop.Timer
	loadTimer loop.Timer
	seekTimer loop.Timer
}

func NewVirtual(logger *slog.Logger, sched loop.Scheduler, probe DurationProbe, cfg VirtualConfig) *Virtual {
	return &Virtual{
		sched:    sched,
		probe:    probe,
		cfg:      cfg.withDefaults(),
		events:   broadcast.New[Event](logger, "virtual_medium"),
		paused:   true,
		duration: math.NaN(),
		volume:   1,
		rate:     1,
	}
}

// SetRejectPlay makes Play fail the way a blocked autoplay does.
func (v *Virtual) SetRejectPlay(reject bool) {
	v.rejectPlay = reject
}

// SetFailLoad makes the next Load report an error instead of metadata.
func (v *Virtual) SetFailLoad(fail bool) {
	v.failLoad = fail
}

func (v *Virtual) Events(fn func(Event)) func() {
	return v.events.Add(fn)
}

func (v *Virtual) emit(t EventType) {
	v.events.Emit(Event{Type: t})
}

func (v *Virtual) Load(url string) {
	stopTimer(&v.tickTimer)
	stopTimer(&v.loadTimer)
	stopTimer(&v.seekTimer)

	wasPlaying := !v.paused
	v.url = url
	v.loaded = false
	v.paused = true
	v.currentTime = 0
	v.duration = math.NaN()
	if wasPlaying {
		v.emit(EventPause)
	}

	v.loadTimer = v.sched.AfterFunc(v.cfg.ProbeDelay, func() {
		v.loadTimer = nil
		v.finishLoad()
	})
}

func (v *Virtual) finishLoad() {
	if v.failLoad {
		v.events.Emit(Event{Type: EventError, Err: ErrLoadFailed})
		return
	}

	d := math.NaN()
	if v.probe != nil {
		probed, err := v.probe(v.url)
		if err != nil {
			v.events.Emit(Event{Type: EventError, Err: err})
			return
		}
		d = probed
	}

	v.duration = d
	v.loaded = true
	v.emit(EventLoadedMetadata)
	v.emit(EventCanPlay)
	if !v.paused {
		v.scheduleTick()
	}
}

func (v *Virtual) Play() error {
	if v.rejectPlay {
		return ErrPlaybackRejected
	}
	if !v.paused {
		return nil
	}

	if v.loaded && domain.IsKnownDuration(v.duration) && v.currentTime >= v.duration {
		v.currentTime = 0
	}
	v.paused = false
	v.emit(EventPlay)
	if v.loaded {
		v.scheduleTick()
	}
	return nil
}

func (v *Virtual) Pause() {
	if v.paused {
		return
	}
	v.paused = true
	stopTimer(&v.tickTimer)
	v.emit(EventPause)
}

func (v *Virtual) scheduleTick() {
	stopTimer(&v.tickTimer)
	v.tickTimer = v.sched.AfterFunc(v.cfg.Tick, v.tick)
}

func (v *Virtual) tick() {
	v.tickTimer = nil
	if v.paused || !v.loaded {
		return
	}

	v.currentTime += v.rate * v.cfg.Tick.Seconds()
	if domain.IsKnownDuration(v.duration) && v.currentTime >= v.duration {
		v.currentTime = v.duration
		v.paused = true
		v.emit(EventTimeUpdate)
		v.emit(EventPause)
		v.emit(EventEnded)
		return
	}

	v.emit(EventTimeUpdate)
	v.scheduleTick()
}

func (v *Virtual) Paused() bool {
	return v.paused
}

func (v *Virtual) CurrentTime() float64 {
	return v.currentTime
}

// SetCurrentTime moves the playhead at once; seeked follows after the seek delay.
func (v *Virtual) SetCurrentTime(t float64) error {
	if !v.loaded {
		return ErrNotSeekable
	}

	t = math.Max(0, t)
	if domain.IsKnownDuration(v.duration) {
		t = math.Min(t, v.duration)
	}
	v.currentTime = t

	stopTimer(&v.seekTimer)
	v.emit(EventSeeking)
	v.seekTimer = v.sched.AfterFunc(v.cfg.SeekDelay, func() {
		v.seekTimer = nil
		v.emit(EventSeeked)
		v.emit(EventTimeUpdate)
	})
	return nil
}

func (v *Virtual) Duration() float64 {
	return v.duration
}

func (v *Virtual) Seekable() bool {
	return v.loaded
}

// Buffered treats loaded content as fully buffered.
func (v *Virtual) Buffered() float64 {
	if !v.loaded || !domain.IsKnownDuration(v.duration) {
		return 0
	}
	return v.duration
}

func (v *Virtual) Volume() float64 {
	return v.volume
}

func (v *Virtual) SetVolume(vol float64) {
	v.volume = vol
	v.emit(EventVolumeChange)
}

func (v *Virtual) Muted() bool {
	return v.muted
}

func (v *Virtual) SetMuted(m bool) {
	v.muted = m
	v.emit(EventVolumeChange)
}

func (v *Virtual) PlaybackRate() float64 {
	return v.rate
}

func (v *Virtual) SetPlaybackRate(r float64) {
	v.rate = r
	v.emit(EventRateChange)
}

func (v *Virtual) RequestFullscreen() error {
	if !v.cfg.Fullscreen {
		return ErrFullscreenUnsupported
	}
	v.fullscreen = !v.fullscreen
	return nil
}

func (v *Virtual) Fullscreen() bool {
	return v.fullscreen
}

func (v *Virtual) URL() string {
	return v.url
}

func stopTimer(t *loop.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
