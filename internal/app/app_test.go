package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mediaviewer/server/internal/darkmode"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/internal/loop"
	"github.com/mediaviewer/server/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *AppConfig {
	return &AppConfig{
		Host:            "127.0.0.1",
		Port:            1122,
		LogLevel:        "info",
		AssetsRoot:      t.TempDir(),
		VideoFormat:     "mp4",
		PreferenceStore: StoreBolt,
		BoltPath:        filepath.Join(t.TempDir(), "prefs.db"),
		RedisPort:       6379,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *AppConfig)
		ok     bool
	}{
		{"valid", func(cfg *AppConfig) {}, true},
		{"zero port", func(cfg *AppConfig) { cfg.Port = 0 }, false},
		{"bad log level", func(cfg *AppConfig) { cfg.LogLevel = "loud" }, false},
		{"unknown store", func(cfg *AppConfig) { cfg.PreferenceStore = "sqlite" }, false},
		{"bolt without path", func(cfg *AppConfig) { cfg.BoltPath = "" }, false},
		{"redis without host", func(cfg *AppConfig) {
			cfg.PreferenceStore = StoreRedis
		}, false},
		{"redis", func(cfg *AppConfig) {
			cfg.PreferenceStore = StoreRedis
			cfg.RedisHost = "localhost"
		}, true},
		{"video format with dot", func(cfg *AppConfig) { cfg.VideoFormat = ".mp4" }, false},
		{"bad origin", func(cfg *AppConfig) { cfg.AssetOrigin = "not a url" }, false},
		{"origin", func(cfg *AppConfig) { cfg.AssetOrigin = "http://localhost:1122" }, true},
		{"negative seek timeout", func(cfg *AppConfig) { cfg.SeekTimeout = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateReportsFields(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = 0
	assert.ErrorIs(t, cfg.Validate(), validator.ErrInvalid)
}

func TestOpenPreferenceStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("bolt", func(t *testing.T) {
		cfg := validConfig(t)
		store, closeStore, err := openPreferenceStore(ctx, cfg, logger)
		require.NoError(t, err)
		defer closeStore()

		require.NoError(t, store.SetBool(ctx, darkmode.Key, true))
		dark, err := store.GetBool(ctx, darkmode.Key)
		require.NoError(t, err)
		assert.True(t, dark)
	})

	t.Run("redis", func(t *testing.T) {
		s := miniredis.RunT(t)
		cfg := validConfig(t)
		cfg.PreferenceStore = StoreRedis
		cfg.RedisHost = s.Host()
		port, err := strconv.Atoi(s.Port())
		require.NoError(t, err)
		cfg.RedisPort = port

		store, closeStore, err := openPreferenceStore(ctx, cfg, logger)
		require.NoError(t, err)
		defer closeStore()

		require.NoError(t, store.SetBool(ctx, darkmode.Key, true))
		dark, err := store.GetBool(ctx, darkmode.Key)
		require.NoError(t, err)
		assert.True(t, dark)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.PreferenceStore = StoreRedis
		cfg.RedisHost = "127.0.0.1"
		cfg.RedisPort = 1

		_, _, err := openPreferenceStore(ctx, cfg, logger)
		assert.Error(t, err)
	})
}

func writeAsset(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func TestSetupServesGeneratedCatalog(t *testing.T) {
	cfg := validConfig(t)
	cfg.Headless = true
	cfg.PrefersDark = true
	writeAsset(t, cfg.AssetsRoot, "assets/videos/big_buck.mp4")
	writeAsset(t, cfg.AssetsRoot, "assets/images/lake.png")

	logger := slog.Default()
	lp := loop.New(logger, 64)
	handler, teardown, err := setup(context.Background(), cfg, lp, nil, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go lp.Run(ctx)
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		_ = lp.Do(context.Background(), teardown)
		cancel()
	})

	resp, err := http.Get(srv.URL + "/api/v1/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []domain.CatalogItem `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "image-1", body.Data[0].ID)
	assert.Equal(t, "video-1", body.Data[1].ID)
	assert.Equal(t, "big buck", body.Data[1].Name)

	resp2, err := http.Get(srv.URL + "/api/v1/snapshot")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var snap struct {
		Data struct {
			DarkMode bool `json:"dark_mode"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&snap))
	assert.True(t, snap.Data.DarkMode)

	resp3, err := http.Get(srv.URL + "/assets/videos/list")
	require.NoError(t, err)
	defer resp3.Body.Close()
	var names []string
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&names))
	assert.Equal(t, []string{"big_buck.mp4"}, names)
}

func TestSetupRejectsBadCatalog(t *testing.T) {
	cfg := validConfig(t)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.json")

	_, _, err := setup(context.Background(), cfg, loop.New(slog.Default(), 1), nil, slog.Default())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
