package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mediaviewer/server/internal/repository/preference"
	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc     *redis.Client
	logger *slog.Logger
}

func NewRepo(rc *redis.Client, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		logger: logger,
	}
}

func (r repo) getPreferenceKey(key string) string {
	return "preference:" + key
}

func (r repo) GetBool(ctx context.Context, key string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "key", key)
	res, err := r.rc.Get(ctx, r.getPreferenceKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, preference.ErrPreferenceNotFound
		}
		return false, fmt.Errorf("failed to get preference: %w", err)
	}

	v, err := strconv.ParseBool(res)
	if err != nil {
		return false, fmt.Errorf("failed to parse preference: %w", err)
	}

	return v, nil
}

func (r repo) SetBool(ctx context.Context, key string, value bool) error {
	r.logger.DebugContext(ctx, "called", "key", key, "value", value)
	if err := r.rc.Set(ctx, r.getPreferenceKey(key), strconv.FormatBool(value), 0).Err(); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	return nil
}
