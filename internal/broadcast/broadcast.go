// Package broadcast is a typed listener set. Each listener call is isolated: a panicking
// listener is logged and the remaining listeners still receive the value.
package broadcast

import (
	"log/slog"
	"slices"
)

type listener[T any] struct {
	id int
	fn func(T)
}

// Set is not safe for concurrent use; it lives on the owner's goroutine.
type Set[T any] struct {
	name      string
	logger    *slog.Logger
	seq       int
	listeners []listener[T]
}

func New[T any](logger *slog.Logger, name string) *Set[T] {
	return &Set[T]{name: name, logger: logger}
}

// Add registers fn and returns a func that removes it. Calling the returned func more than
// once is a no-op.
func (s *Set[T]) Add(fn func(T)) (remove func()) {
	s.seq++
	id := s.seq
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})

	return func() {
		s.listeners = slices.DeleteFunc(s.listeners, func(l listener[T]) bool {
			return l.id == id
		})
	}
}

// Emit calls every listener in registration order. Listeners added or removed during Emit
// take effect from the next call.
func (s *Set[T]) Emit(v T) {
	for _, l := range slices.Clone(s.listeners) {
		s.call(l, v)
	}
}

func (s *Set[T]) call(l listener[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panicked", "set", s.name, "listener_id", l.id, "panic", r)
		}
	}()

	l.fn(v)
}

func (s *Set[T]) Len() int {
	return len(s.listeners)
}

func (s *Set[T]) Clear() {
	s.listeners = nil
}
