// Package loop provides the single goroutine every viewer component is confined to.
// Work from other goroutines (websocket readers, timers) is posted onto the loop and runs
// to completion before the next task starts.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrClosed = errors.New("loop closed")

type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped it.
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Loop struct {
	inputCh   chan func()
	closeCh   chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func New(logger *slog.Logger, buffer int) *Loop {
	return &Loop{
		inputCh: make(chan func(), buffer),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

func (l *Loop) Run(ctx context.Context) error {
	l.logger.DebugContext(ctx, "loop started")
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.closeCh:
			l.logger.DebugContext(ctx, "loop stopped")
			return nil
		case f := <-l.inputCh:
			l.exec(f)
		}
	}
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()

	f()
}

// Post enqueues f. It returns false once the loop is closed. Post must not be called from a
// loop task; use AfterFunc with a zero delay instead.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.closeCh:
		return false
	default:
	}

	select {
	case <-l.closeCh:
		return false
	case l.inputCh <- f:
		return true
	}
}

// Do runs f on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, f func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		f()
	}) {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-l.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.Load() {
				return
			}
			lt.fired.Store(true)
			f()
		})
	})

	return lt
}

func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closeCh)
	})
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

func (lt *loopTimer) Stop() bool {
	lt.t.Stop()
	if lt.stopped.Swap(true) {
		return false
	}

	return !lt.fired.Load()
}
