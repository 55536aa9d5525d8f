package redis

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mediaviewer/server/internal/repository/preference"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	repo := NewRepo(rc, slog.Default())
	ctx := context.Background()

	_, err := repo.GetBool(ctx, "dark-mode")
	assert.ErrorIs(t, err, preference.ErrPreferenceNotFound)

	require.NoError(t, repo.SetBool(ctx, "dark-mode", true))
	v, err := repo.GetBool(ctx, "dark-mode")
	require.NoError(t, err)
	assert.True(t, v)

	stored, err := s.Get("preference:dark-mode")
	require.NoError(t, err)
	assert.Equal(t, "true", stored)

	require.NoError(t, repo.SetBool(ctx, "dark-mode", false))
	v, err = repo.GetBool(ctx, "dark-mode")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestPreferenceGarbageValue(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	repo := NewRepo(rc, slog.Default())

	require.NoError(t, s.Set("preference:dark-mode", "maybe"))
	_, err := repo.GetBool(context.Background(), "dark-mode")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, preference.ErrPreferenceNotFound)
}
