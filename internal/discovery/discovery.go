// Package discovery lets components find singleton collaborators that may register after
// them. A collaborator registers under a typed key; consumers look it up, watch it, or run a
// Find that falls back to a bounded retry.
package discovery

import (
	"log/slog"
	"time"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/loop"
)

const (
	DefaultRetryInterval = 300 * time.Millisecond
	DefaultRetryAttempts = 3
)

// Key names a role and the type registered under it.
type Key[T any] struct {
	name string
}

func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) String() string {
	return k.name
}

type entry struct {
	value any
	seq   int
}

// Registry is confined to the loop goroutine.
type Registry struct {
	logger   *slog.Logger
	sched    loop.Scheduler
	seq      int
	entries  map[string]entry
	watchers map[string]*broadcast.Set[any]
}

func NewRegistry(logger *slog.Logger, sched loop.Scheduler) *Registry {
	return &Registry{
		logger:   logger,
		sched:    sched,
		entries:  make(map[string]entry),
		watchers: make(map[string]*broadcast.Set[any]),
	}
}

type Registration struct {
	r    *Registry
	name string
	seq  int
}

// Unregister removes the value if it is still the one registered under the key.
func (reg *Registration) Unregister() {
	e, ok := reg.r.entries[reg.name]
	if !ok || e.seq != reg.seq {
		return
	}

	delete(reg.r.entries, reg.name)
	reg.r.logger.Debug("unregistered", "role", reg.name)
	reg.r.notify(reg.name, nil)
}

// Register makes v the value for key, replacing any previous one, and notifies watchers.
func Register[T any](r *Registry, key Key[T], v T) *Registration {
	r.seq++
	r.entries[key.name] = entry{value: v, seq: r.seq}
	r.logger.Debug("registered", "role", key.name)
	r.notify(key.name, v)

	return &Registration{r: r, name: key.name, seq: r.seq}
}

func Lookup[T any](r *Registry, key Key[T]) (T, bool) {
	e, ok := r.entries[key.name]
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

// Watch calls fn with the current value if there is one, then on every registration with
// (v, true) and on unregistration with (zero, false).
func Watch[T any](r *Registry, key Key[T], fn func(v T, ok bool)) (unwatch func()) {
	set, ok := r.watchers[key.name]
	if !ok {
		set = broadcast.New[any](r.logger, "discovery."+key.name)
		r.watchers[key.name] = set
	}

	unwatch = set.Add(func(raw any) {
		v, ok := raw.(T)
		fn(v, ok)
	})
	if v, ok := Lookup(r, key); ok {
		fn(v, true)
	}
	return unwatch
}

func (r *Registry) notify(name string, v any) {
	if set, ok := r.watchers[name]; ok {
		set.Emit(v)
	}
}

type FindOptions[T any] struct {
	// Parent is the explicitly supplied owner, tried first.
	Parent func() (T, bool)
	// Ancestor resolves the nearest enclosing instance, tried second.
	Ancestor      func() (T, bool)
	RetryInterval time.Duration
	RetryAttempts int
}

// Finder is a running Find. It stops on success, on exhaustion and on Cancel.
type Finder struct {
	timer   loop.Timer
	unwatch func()
	done    bool
}

func (f *Finder) Cancel() {
	f.stop()
}

func (f *Finder) Done() bool {
	return f.done
}

func (f *Finder) stop() {
	if f.done {
		return
	}
	f.done = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.unwatch != nil {
		f.unwatch()
		f.unwatch = nil
	}
}

// Find resolves key through the parent, the ancestor resolver and the registry, in that order.
// If nothing is found it waits for a registration and polls at RetryInterval up to
// RetryAttempts times. found is called at most once.
func Find[T any](r *Registry, key Key[T], opts FindOptions[T], found func(T)) *Finder {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}

	f := &Finder{}
	resolve := func() bool {
		v, ok := locate(r, key, opts)
		if !ok {
			return false
		}
		f.stop()
		found(v)
		return true
	}

	if resolve() {
		return f
	}

	r.logger.Debug("not found, waiting", "role", key.name)
	f.unwatch = Watch(r, key, func(_ T, ok bool) {
		if ok && !f.done {
			resolve()
		}
	})
	if f.done {
		return f
	}

	attempt := 0
	var poll func()
	poll = func() {
		f.timer = nil
		if f.done {
			return
		}
		attempt++
		if resolve() {
			return
		}
		if attempt >= opts.RetryAttempts {
			r.logger.Warn("gave up finding collaborator", "role", key.name, "attempts", attempt)
			f.stop()
			return
		}
		f.timer = r.sched.AfterFunc(opts.RetryInterval, poll)
	}
	f.timer = r.sched.AfterFunc(opts.RetryInterval, poll)

	return f
}

func locate[T any](r *Registry, key Key[T], opts FindOptions[T]) (T, bool) {
	if opts.Parent != nil {
		if v, ok := opts.Parent(); ok {
			return v, true
		}
	}
	if opts.Ancestor != nil {
		if v, ok := opts.Ancestor(); ok {
			return v, true
		}
	}
	return Lookup(r, key)
}
