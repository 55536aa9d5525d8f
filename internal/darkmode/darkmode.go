// Package darkmode holds the process-wide dark-mode flag. It is independent of playback
// state: widgets subscribe to it directly.
package darkmode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/repository/preference"
)

// Key is the preference key the flag is stored under.
const Key = "dark-mode"

var ErrClosed = errors.New("dark mode service closed")

type PreferenceStore interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// Service is confined to the loop goroutine.
type Service struct {
	logger       *slog.Logger
	store        PreferenceStore
	systemPrefer bool

	dark   bool
	closed bool
	subs   *broadcast.Set[bool]
}

// NewService returns a service that falls back to systemPrefersDark when nothing is stored.
// store may be nil, in which case changes are not persisted.
func NewService(store PreferenceStore, systemPrefersDark bool, logger *slog.Logger) *Service {
	return &Service{
		logger:       logger,
		store:        store,
		systemPrefer: systemPrefersDark,
		dark:         systemPrefersDark,
		subs:         broadcast.New[bool](logger, "dark_mode"),
	}
}

// Init restores the stored preference. A missing or unreadable preference falls back to the
// system preference.
func (s *Service) Init(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}

	s.dark = s.systemPrefer
	if s.store == nil {
		return nil
	}

	stored, err := s.store.GetBool(ctx, Key)
	switch {
	case err == nil:
		s.dark = stored
	case errors.Is(err, preference.ErrPreferenceNotFound):
		s.logger.DebugContext(ctx, "no stored dark mode preference", "system_prefers_dark", s.systemPrefer)
	default:
		s.logger.WarnContext(ctx, "failed to read dark mode preference", "error", err)
	}

	s.logger.InfoContext(ctx, "dark mode initialized", "dark", s.dark)
	return nil
}

func (s *Service) IsDark() bool {
	return s.dark
}

// Set changes the flag, notifies subscribers when it changed, and persists it. A persistence
// failure is returned but does not revert the change.
func (s *Service) Set(ctx context.Context, dark bool) error {
	if s.closed {
		return ErrClosed
	}

	changed := s.dark != dark
	s.dark = dark
	if changed {
		s.subs.Emit(dark)
	}

	if s.store == nil {
		return nil
	}
	if err := s.store.SetBool(ctx, Key, dark); err != nil {
		s.logger.WarnContext(ctx, "failed to persist dark mode", "error", err)
		return fmt.Errorf("failed to persist dark mode: %w", err)
	}

	return nil
}

func (s *Service) Toggle(ctx context.Context) (bool, error) {
	err := s.Set(ctx, !s.dark)
	return s.dark, err
}

// Subscribe registers fn for every change and returns a func that removes it.
func (s *Service) Subscribe(fn func(dark bool)) (unsubscribe func()) {
	return s.subs.Add(fn)
}

func (s *Service) Close() {
	s.closed = true
	s.subs.Clear()
}
