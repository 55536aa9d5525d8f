package bolt

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mediaviewer/server/internal/repository/preference"
	"go.etcd.io/bbolt"
)

var preferencesBucket = []byte("preferences")

type repo struct {
	db     *bbolt.DB
	logger *slog.Logger
}

func NewRepo(dbPath string, logger *slog.Logger) (*repo, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(preferencesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences bucket: %w", err)
	}

	return &repo{
		db:     db,
		logger: logger,
	}, nil
}

func (r *repo) GetBool(ctx context.Context, key string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "key", key)
	var raw []byte
	if err := r.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(preferencesBucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return false, fmt.Errorf("failed to get preference: %w", err)
	}
	if raw == nil {
		return false, preference.ErrPreferenceNotFound
	}

	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, fmt.Errorf("failed to parse preference: %w", err)
	}

	return v, nil
}

func (r *repo) SetBool(ctx context.Context, key string, value bool) error {
	r.logger.DebugContext(ctx, "called", "key", key, "value", value)
	if err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(preferencesBucket).Put([]byte(key), []byte(strconv.FormatBool(value)))
	}); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	return nil
}

func (r *repo) Close() error {
	return r.db.Close()
}
