// Package catalog holds the media catalog and the sidebar that picks the active item.
// Selecting an item is the only way the on-screen content changes.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mediaviewer/server/internal/broadcast"
	"github.com/mediaviewer/server/internal/domain"
)

var (
	ErrItemNotFound = errors.New("catalog item not found")
	ErrUnknownTab   = errors.New("unknown sidebar tab")
)

type Tab string

const (
	TabAll    Tab = "all"
	TabVideos Tab = "videos"
	TabImages Tab = "images"
)

const uncategorized = "uncategorized"

type Group struct {
	Category string               `json:"category"`
	Title    string               `json:"title"`
	Items    []domain.CatalogItem `json:"items"`
}

// View is what the sidebar shows.
type View struct {
	Filter   string  `json:"filter"`
	Tab      Tab     `json:"tab"`
	ActiveID string  `json:"active_id"`
	Groups   []Group `json:"groups"`
}

type Sidebar struct {
	logger   *slog.Logger
	items    []domain.CatalogItem
	byID     map[string]int
	activeID string
	filter   string
	tab      Tab
	selected *broadcast.Set[domain.CatalogItem]
}

func NewSidebar(logger *slog.Logger) *Sidebar {
	logger = logger.With("component", "sidebar")
	return &Sidebar{
		logger:   logger,
		byID:     make(map[string]int),
		tab:      TabAll,
		selected: broadcast.New[domain.CatalogItem](logger, "media_selected"),
	}
}

// SetMediaItems replaces the catalog. The active item is kept if it is still present.
func (s *Sidebar) SetMediaItems(items []domain.CatalogItem) {
	s.items = append([]domain.CatalogItem(nil), items...)
	s.byID = make(map[string]int, len(items))
	for i, it := range s.items {
		s.byID[it.ID] = i
	}
	if _, ok := s.byID[s.activeID]; !ok {
		s.activeID = ""
	}
	s.logger.Debug("media items set", "count", len(items))
}

func (s *Sidebar) Items() []domain.CatalogItem {
	return s.items
}

func (s *Sidebar) Item(id string) (domain.CatalogItem, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.CatalogItem{}, false
	}
	return s.items[i], true
}

// SetActiveItem marks id as active without emitting a selection.
func (s *Sidebar) SetActiveItem(id string) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	s.activeID = id
	return nil
}

func (s *Sidebar) ActiveItem() (domain.CatalogItem, bool) {
	return s.Item(s.activeID)
}

func (s *Sidebar) SetFilter(filter string) {
	s.filter = strings.TrimSpace(filter)
}

func (s *Sidebar) SetActiveTab(tab Tab) error {
	switch tab {
	case TabAll, TabVideos, TabImages:
		s.tab = tab
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTab, tab)
	}
}

func (s *Sidebar) matches(it domain.CatalogItem) bool {
	if s.tab != TabAll && string(it.Type) != string(s.tab) {
		return false
	}
	if s.filter != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(s.filter)) {
		return false
	}
	return true
}

// Visible returns the items passing the tab and name filter, grouped by category in order
// of first appearance.
func (s *Sidebar) Visible() []Group {
	var groups []Group
	index := make(map[string]int)
	for _, it := range s.items {
		if !s.matches(it) {
			continue
		}
		category := it.Category
		if category == "" {
			category = uncategorized
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, Group{Category: category, Title: CategoryTitle(category)})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

func (s *Sidebar) View() View {
	return View{
		Filter:   s.filter,
		Tab:      s.tab,
		ActiveID: s.activeID,
		Groups:   s.Visible(),
	}
}

// Select makes id active and emits one selection carrying the full item.
func (s *Sidebar) Select(id string) error {
	it, ok := s.Item(id)
	if !ok {
		s.logger.Warn("selected unknown item", "id", id)
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	s.activeID = id
	s.logger.Info("media selected", "id", id, "type", it.Type)
	s.selected.Emit(it)
	return nil
}

func (s *Sidebar) OnSelect(fn func(domain.CatalogItem)) (unsubscribe func()) {
	return s.selected.Add(fn)
}

// CategoryTitle turns "online-videos" into "Online Videos".
func CategoryTitle(category string) string {
	if category == "" {
		category = uncategorized
	}
	words := strings.Split(category, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
