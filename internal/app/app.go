package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mediaviewer/server/internal/assets"
	"github.com/mediaviewer/server/internal/catalog"
	"github.com/mediaviewer/server/internal/controller"
	"github.com/mediaviewer/server/internal/darkmode"
	"github.com/mediaviewer/server/internal/loop"
	"github.com/mediaviewer/server/internal/media"
	"github.com/mediaviewer/server/internal/repository/connection/inmemory"
	"github.com/mediaviewer/server/internal/repository/preference/bolt"
	"github.com/mediaviewer/server/internal/repository/preference/redis"
	"github.com/mediaviewer/server/internal/viewer"
	"github.com/mediaviewer/server/pkg/ctxlogger"
	"github.com/mediaviewer/server/pkg/redisclient"
	"github.com/mediaviewer/server/pkg/validator"
)

const (
	StoreRedis = "redis"
	StoreBolt  = "bolt"
)

type AppConfig struct {
	Host            string        `json:"host" validate:"required"`
	Port            int           `json:"port" validate:"gte=1,lte=65535"`
	LogLevel        string        `json:"log_level" validate:"required"`
	AssetsRoot      string        `json:"assets_root" validate:"required"`
	AssetOrigin     string        `json:"asset_origin" validate:"omitempty,url"`
	VideoFormat     string        `json:"video_format" validate:"required,alphanum,max=8"`
	CatalogPath     string        `json:"catalog_path"`
	PreferenceStore string        `json:"preference_store" validate:"oneof=redis bolt"`
	BoltPath        string        `json:"bolt_path" validate:"required_if=PreferenceStore bolt"`
	RedisHost       string        `json:"redis_host" validate:"required_if=PreferenceStore redis"`
	RedisPort       int           `json:"redis_port" validate:"gte=0,lte=65535"`
	RedisPassword   string        `json:"-"`
	PrefersDark     bool          `json:"prefers_dark"`
	Headless        bool          `json:"headless"`
	SeekTimeout     time.Duration `json:"seek_timeout" validate:"gte=0"`
	DiscoveryRetry  time.Duration `json:"discovery_retry" validate:"gte=0"`
}

func (cfg *AppConfig) Validate() error {
	if err := validator.NewValidator().Err(cfg); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

// openPreferenceStore returns the configured store and a func that releases it.
func openPreferenceStore(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (darkmode.PreferenceStore, func(), error) {
	switch cfg.PreferenceStore {
	case StoreBolt:
		repo, err := bolt.NewRepo(cfg.BoltPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Warn("failed to close bolt store", "error", err)
			}
		}, nil
	case StoreRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		return redis.NewRepo(rc, logger), func() {
			rc.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown preference store %q", cfg.PreferenceStore)
	}
}

// setup builds the viewer and its HTTP surface. It runs before lp starts, so nothing else
// touches the viewer yet. The returned func releases everything setup created.
func setup(ctx context.Context, cfg *AppConfig, lp *loop.Loop, store darkmode.PreferenceStore, logger *slog.Logger) (http.Handler, func(), error) {
	dark := darkmode.NewService(store, cfg.PrefersDark, logger)
	if err := dark.Init(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to init dark mode: %w", err)
	}

	v, err := viewer.New(logger, lp, dark, media.NewResolver(cfg.AssetOrigin, cfg.VideoFormat), viewer.Config{
		Source:        media.Config{SeekTimeout: cfg.SeekTimeout},
		RetryInterval: cfg.DiscoveryRetry,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create viewer: %w", err)
	}

	items, err := catalog.NewLoader(logger).Load(cfg.CatalogPath, cfg.AssetsRoot)
	if err != nil {
		v.Close()
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	v.SetCatalog(items)
	logger.InfoContext(ctx, "catalog loaded", "items", len(items))

	if cfg.Headless {
		if _, err := v.AttachSource(media.NewVirtual(logger, lp, v.Probe, media.VirtualConfig{})); err != nil {
			v.Close()
			return nil, nil, fmt.Errorf("failed to attach headless medium: %w", err)
		}
	}

	c := controller.NewController(lp, v, inmemory.NewRepo(logger), assets.NewServer(cfg.AssetsRoot, logger).Routes(), logger)

	return c.GetMux(), func() {
		c.Close()
		v.Close()
		dark.Close()
	}, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	store, closeStore, err := openPreferenceStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	lp := loop.New(logger, 256)
	handler, teardown, err := setup(ctx, cfg, lp, store, logger)
	if err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := lp.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("loop stopped", "error", err)
		}
	}()
	defer func() {
		// Teardown touches the viewer, so it runs on the loop before it stops.
		if err := lp.Do(context.Background(), teardown); err != nil {
			logger.Warn("failed to tear down viewer", "error", err)
		}
		stopLoop()
		<-loopDone
	}()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "headless", cfg.Headless)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
