package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mediaviewer/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 1122,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	assetsRoot = configVar[string]{
		envKey:       "SERVER_ASSETS_ROOT",
		flagKey:      "assets-root",
		defaultValue: "./public",
	}
	assetOrigin = configVar[string]{
		envKey:       "SERVER_ASSET_ORIGIN",
		flagKey:      "asset-origin",
		defaultValue: "",
	}
	videoFormat = configVar[string]{
		envKey:       "SERVER_VIDEO_FORMAT",
		flagKey:      "video-format",
		defaultValue: "mp4",
	}
	catalogPath = configVar[string]{
		envKey:       "SERVER_CATALOG_PATH",
		flagKey:      "catalog-path",
		defaultValue: "",
	}
	preferenceStore = configVar[string]{
		envKey:       "SERVER_PREFERENCE_STORE",
		flagKey:      "preference-store",
		defaultValue: app.StoreBolt,
	}
	boltPath = configVar[string]{
		envKey:       "SERVER_BOLT_PATH",
		flagKey:      "bolt-path",
		defaultValue: "./preferences.db",
	}
	prefersDark = configVar[bool]{
		envKey:       "SERVER_PREFERS_DARK",
		flagKey:      "prefers-dark",
		defaultValue: false,
	}
	headless = configVar[bool]{
		envKey:       "SERVER_HEADLESS",
		flagKey:      "headless",
		defaultValue: false,
	}
	seekTimeout = configVar[time.Duration]{
		envKey:       "SERVER_SEEK_TIMEOUT",
		flagKey:      "seek-timeout",
		defaultValue: 3 * time.Second,
	}
	discoveryRetry = configVar[time.Duration]{
		envKey:       "SERVER_DISCOVERY_RETRY",
		flagKey:      "discovery-retry",
		defaultValue: 300 * time.Millisecond,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(assetsRoot.flagKey, assetsRoot.defaultValue, "Directory served as static assets")
	pflag.String(assetOrigin.flagKey, assetOrigin.defaultValue, "Origin prefixed to local media urls, empty for origin-relative")
	pflag.String(videoFormat.flagKey, videoFormat.defaultValue, "Extension appended to local video sources")
	pflag.String(catalogPath.flagKey, catalogPath.defaultValue, "JSON catalog file, empty to list the assets directory")
	pflag.String(preferenceStore.flagKey, preferenceStore.defaultValue, "Preference store (redis or bolt)")
	pflag.String(boltPath.flagKey, boltPath.defaultValue, "Bolt database file")
	pflag.Bool(prefersDark.flagKey, prefersDark.defaultValue, "Dark mode when no preference is stored")
	pflag.Bool(headless.flagKey, headless.defaultValue, "Attach a clock-driven medium at start")
	pflag.Duration(seekTimeout.flagKey, seekTimeout.defaultValue, "How long a seek waits for the medium to become seekable")
	pflag.Duration(discoveryRetry.flagKey, discoveryRetry.defaultValue, "Delay between lookups for a missing media source")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(assetsRoot.flagKey, assetsRoot.envKey)
	viper.BindEnv(assetOrigin.flagKey, assetOrigin.envKey)
	viper.BindEnv(videoFormat.flagKey, videoFormat.envKey)
	viper.BindEnv(catalogPath.flagKey, catalogPath.envKey)
	viper.BindEnv(preferenceStore.flagKey, preferenceStore.envKey)
	viper.BindEnv(boltPath.flagKey, boltPath.envKey)
	viper.BindEnv(prefersDark.flagKey, prefersDark.envKey)
	viper.BindEnv(headless.flagKey, headless.envKey)
	viper.BindEnv(seekTimeout.flagKey, seekTimeout.envKey)
	viper.BindEnv(discoveryRetry.flagKey, discoveryRetry.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(assetsRoot.flagKey, assetsRoot.defaultValue)
	viper.SetDefault(assetOrigin.flagKey, assetOrigin.defaultValue)
	viper.SetDefault(videoFormat.flagKey, videoFormat.defaultValue)
	viper.SetDefault(catalogPath.flagKey, catalogPath.defaultValue)
	viper.SetDefault(preferenceStore.flagKey, preferenceStore.defaultValue)
	viper.SetDefault(boltPath.flagKey, boltPath.defaultValue)
	viper.SetDefault(prefersDark.flagKey, prefersDark.defaultValue)
	viper.SetDefault(headless.flagKey, headless.defaultValue)
	viper.SetDefault(seekTimeout.flagKey, seekTimeout.defaultValue)
	viper.SetDefault(discoveryRetry.flagKey, discoveryRetry.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Host:            viper.GetString(host.flagKey),
		Port:            viper.GetInt(port.flagKey),
		LogLevel:        viper.GetString(logLevel.flagKey),
		AssetsRoot:      viper.GetString(assetsRoot.flagKey),
		AssetOrigin:     viper.GetString(assetOrigin.flagKey),
		VideoFormat:     viper.GetString(videoFormat.flagKey),
		CatalogPath:     viper.GetString(catalogPath.flagKey),
		PreferenceStore: viper.GetString(preferenceStore.flagKey),
		BoltPath:        viper.GetString(boltPath.flagKey),
		PrefersDark:     viper.GetBool(prefersDark.flagKey),
		Headless:        viper.GetBool(headless.flagKey),
		SeekTimeout:     viper.GetDuration(seekTimeout.flagKey),
		DiscoveryRetry:  viper.GetDuration(discoveryRetry.flagKey),
		RedisPort:       viper.GetInt(redisPort.flagKey),
		RedisHost:       viper.GetString(redisHost.flagKey),
		RedisPassword:   viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
