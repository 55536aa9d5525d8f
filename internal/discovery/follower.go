package discovery

// Follower tracks the value registered under a key: it finds it once, then follows every
// registration and unregistration. Refresh looks it up again from scratch.
type Follower[T any] struct {
	r        *Registry
	key      Key[T]
	opts     FindOptions[T]
	onChange func(v T, ok bool)

	current T
	ok      bool
	finder  *Finder
	unwatch func()
	closed  bool
}

// Follow starts following key. onChange may be nil.
func Follow[T any](r *Registry, key Key[T], opts FindOptions[T], onChange func(v T, ok bool)) *Follower[T] {
	f := &Follower[T]{r: r, key: key, opts: opts, onChange: onChange}
	f.unwatch = Watch(r, key, func(v T, ok bool) {
		if ok {
			f.set(v)
			return
		}
		f.clear()
		f.find()
	})
	if !f.ok {
		f.find()
	}
	return f
}

func (f *Follower[T]) Current() (T, bool) {
	return f.current, f.ok
}

func (f *Follower[T]) Refresh() {
	if f.closed {
		return
	}
	f.clear()
	f.find()
}

func (f *Follower[T]) Close() {
	if f.closed {
		return
	}
	f.closed = true
	if f.finder != nil {
		f.finder.Cancel()
	}
	if f.unwatch != nil {
		f.unwatch()
	}
	f.clear()
}

func (f *Follower[T]) find() {
	if f.finder != nil {
		f.finder.Cancel()
	}
	f.finder = Find(f.r, f.key, f.opts, f.set)
}

func (f *Follower[T]) set(v T) {
	if f.closed {
		return
	}
	if f.finder != nil {
		f.finder.Cancel()
	}
	f.current, f.ok = v, true
	if f.onChange != nil {
		f.onChange(v, true)
	}
}

func (f *Follower[T]) clear() {
	if !f.ok {
		return
	}
	var zero T
	f.current, f.ok = zero, false
	if f.onChange != nil {
		f.onChange(zero, false)
	}
}
