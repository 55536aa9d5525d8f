package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mediaviewer/server/internal/domain"
	"github.com/mediaviewer/server/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "v1", Name: "Big Buck Bunny", Src: "bunny", Type: domain.MediaTypeVideos, Category: "online-videos"},
		{ID: "i1", Name: "Mountain Lake", Src: "lake", Type: domain.MediaTypeImages, Category: "nature"},
		{ID: "v2", Name: "Sintel", Src: "sintel", Type: domain.MediaTypeVideos, Category: "online-videos"},
		{ID: "i2", Name: "Bunny Portrait", Src: "portrait", Type: domain.MediaTypeImages},
	}
}

func TestSidebarVisibleGroups(t *testing.T) {
	s := NewSidebar(slog.Default())
	s.SetMediaItems(testItems())

	groups := s.Visible()
	require.Len(t, groups, 3)
	assert.Equal(t, "online-videos", groups[0].Category)
	assert.Equal(t, "Online Videos", groups[0].Title)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "nature", groups[1].Category)
	assert.Equal(t, "uncategorized", groups[2].Category)
	assert.Equal(t, "Uncategorized", groups[2].Title)
}

func TestSidebarFilterAndTab(t *testing.T) {
	s := NewSidebar(slog.Default())
	s.SetMediaItems(testItems())

	s.SetFilter("BUNNY")
	groups := s.Visible()
	require.Len(t, groups, 2)
	assert.Equal(t, "v1", groups[0].Items[0].ID)
	assert.Equal(t, "i2", groups[1].Items[0].ID)

	require.NoError(t, s.SetActiveTab(TabImages))
	groups = s.Visible()
	require.Len(t, groups, 1)
	assert.Equal(t, "i2", groups[0].Items[0].ID)

	s.SetFilter("")
	require.NoError(t, s.SetActiveTab(TabVideos))
	groups = s.Visible()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Items, 2)

	assert.ErrorIs(t, s.SetActiveTab("music"), ErrUnknownTab)
	assert.Equal(t, TabVideos, s.View().Tab)
}

func TestSidebarSelect(t *testing.T) {
	s := NewSidebar(slog.Default())
	s.SetMediaItems(testItems())

	var got []domain.CatalogItem
	s.OnSelect(func(it domain.CatalogItem) {
		got = append(got, it)
	})

	require.NoError(t, s.Select("i1"))
	require.Len(t, got, 1)
	assert.Equal(t, "Mountain Lake", got[0].Name)
	active, ok := s.ActiveItem()
	require.True(t, ok)
	assert.Equal(t, "i1", active.ID)

	assert.ErrorIs(t, s.Select("nope"), ErrItemNotFound)
	assert.Len(t, got, 1)

	// SetActiveItem only marks the item.
	require.NoError(t, s.SetActiveItem("v2"))
	assert.Len(t, got, 1)
	assert.Equal(t, "v2", s.View().ActiveID)

	s.SetMediaItems(testItems()[:2])
	_, ok = s.ActiveItem()
	assert.False(t, ok)
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Local Images", CategoryTitle("local-images"))
	assert.Equal(t, "Nature", CategoryTitle("nature"))
	assert.Equal(t, "Uncategorized", CategoryTitle(""))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(slog.Default())

	path := filepath.Join(dir, "catalog.json")
	writeFile(t, path, `[
		{"id":"v1","name":"Bunny","src":"bunny","type":"videos","category":"online-videos","duration":596},
		{"id":"i1","name":"Lake","src":"https://example.com/lake.jpg","type":"images"}
	]`)

	items, err := l.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 596.0, items[0].Duration)
	assert.True(t, items[0].IsVideo())

	writeFile(t, path, `[{"id":"v1","name":"A","src":"a","type":"videos"},{"id":"v1","name":"B","src":"b","type":"videos"}]`)
	_, err = l.LoadFile(path)
	assert.ErrorIs(t, err, ErrDuplicateID)

	writeFile(t, path, `[{"id":"v1","name":"A","src":"a","type":"audio"}]`)
	_, err = l.LoadFile(path)
	assert.ErrorIs(t, err, validator.ErrInvalid)

	writeFile(t, path, `{not json`)
	_, err = l.LoadFile(path)
	assert.Error(t, err)

	_, err = l.LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "assets", "videos", "my_clip.mp4"), "v")
	writeFile(t, filepath.Join(root, "assets", "videos", "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "assets", "images", "sun set.jpg"), "i")
	writeFile(t, filepath.Join(root, "assets", "images", "b.png"), "i")

	l := NewLoader(slog.Default())
	items, err := l.FromAssets(root)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "image-1", items[0].ID)
	assert.Equal(t, "b", items[0].Name)
	assert.Equal(t, "/assets/images/b.png", items[0].Thumbnail)

	assert.Equal(t, "image-2", items[1].ID)
	assert.Equal(t, "/assets/images/sun%20set.jpg", items[1].Src)
	assert.Equal(t, "local-images", items[1].Category)

	assert.Equal(t, "video-1", items[2].ID)
	assert.Equal(t, "my clip", items[2].Name)
	assert.Equal(t, "my clip video", items[2].Description)
	assert.Equal(t, "/assets/videos/my_clip.mp4", items[2].Src)
	assert.Empty(t, items[2].Thumbnail)
}

func TestLoadFallsBackToAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "assets", "videos", "a.webm"), "v")

	items, err := NewLoader(slog.Default()).Load("", root)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.MediaTypeVideos, items[0].Type)
}
