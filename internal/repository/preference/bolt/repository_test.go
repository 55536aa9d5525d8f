package bolt

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mediaviewer/server/internal/repository/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	repo, err := NewRepo(dbPath, slog.Default())
	require.NoError(t, err)

	_, err = repo.GetBool(ctx, "dark-mode")
	assert.ErrorIs(t, err, preference.ErrPreferenceNotFound)

	require.NoError(t, repo.SetBool(ctx, "dark-mode", true))
	require.NoError(t, repo.Close())

	repo, err = NewRepo(dbPath, slog.Default())
	require.NoError(t, err)
	defer repo.Close()

	v, err := repo.GetBool(ctx, "dark-mode")
	require.NoError(t, err)
	assert.True(t, v)
}
