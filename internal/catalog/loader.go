package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mediaviewer/server/internal/assets"
	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/pkg/validator"
)

var ErrDuplicateID = errors.New("duplicate catalog item id")

type Loader struct {
	logger   *slog.Logger
	validate *validator.Validator
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		logger:   logger.With("component", "catalog_loader"),
		validate: validator.NewValidator(),
	}
}

// LoadFile reads a JSON array of catalog items. Every item is validated and ids must be
// unique.
func (l *Loader) LoadFile(path string) ([]domain.CatalogItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	if err := l.check(items); err != nil {
		return nil, err
	}

	l.logger.Info("catalog loaded", "path", path, "count", len(items))
	return items, nil
}

func (l *Loader) check(items []domain.CatalogItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if err := l.validate.Err(it); err != nil {
			return fmt.Errorf("catalog item %d: %w", i, err)
		}
		if _, ok := seen[it.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// FromAssets builds a catalog from the media files under root. A missing media directory
// contributes no items.
func (l *Loader) FromAssets(root string) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	for _, mt := range []domain.MediaType{domain.MediaTypeImages, domain.MediaTypeVideos} {
		names, err := assets.List(root, mt)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				l.logger.Debug("no media directory", "media_type", mt)
				continue
			}
			return nil, err
		}
		for i, name := range names {
			items = append(items, generatedItem(mt, i+1, name))
		}
	}

	if err := l.check(items); err != nil {
		return nil, err
	}

	l.logger.Info("catalog generated from assets", "root", root, "count", len(items))
	return items, nil
}

// Load reads path when set and falls back to the asset listing otherwise.
func (l *Loader) Load(path, assetsRoot string) ([]domain.CatalogItem, error) {
	if path != "" {
		return l.LoadFile(path)
	}
	return l.FromAssets(assetsRoot)
}

func generatedItem(mt domain.MediaType, n int, file string) domain.CatalogItem {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	name := strings.ReplaceAll(base, "_", " ")
	src := "/assets/" + string(mt) + "/" + url.PathEscape(file)

	it := domain.CatalogItem{
		Name: name,
		Src:  src,
		Type: mt,
	}
	if mt == domain.MediaTypeImages {
		it.ID = fmt.Sprintf("image-%d", n)
		it.Category = "local-images"
		it.Thumbnail = src
		it.Description = name + " image"
	} else {
		it.ID = fmt.Sprintf("video-%d", n)
		it.Category = "local-videos"
		it.Description = name + " video"
	}
	return it
}
