package broadcast

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSet() *Set[int] {
	return New[int](slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
}

func TestEmitOrderAndRemove(t *testing.T) {
	s := newTestSet()
	var got []string
	s.Add(func(v int) { got = append(got, "a") })
	removeB := s.Add(func(v int) { got = append(got, "b") })
	s.Add(func(v int) { got = append(got, "c") })

	s.Emit(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	removeB()
	removeB()
	got = nil
	s.Emit(2)
	assert.Equal(t, []string{"a", "c"}, got)
	assert.Equal(t, 2, s.Len())
}

func TestEmitIsolatesPanics(t *testing.T) {
	s := newTestSet()
	var got []int
	s.Add(func(v int) { panic("boom") })
	s.Add(func(v int) { got = append(got, v) })

	assert.NotPanics(t, func() { s.Emit(7) })
	assert.Equal(t, []int{7}, got)
}

func TestRemoveDuringEmit(t *testing.T) {
	s := newTestSet()
	calls := 0
	var remove func()
	remove = s.Add(func(int) {
		calls++
		remove()
	})

	s.Emit(1)
	s.Emit(2)
	assert.Equal(t, 1, calls)
}
