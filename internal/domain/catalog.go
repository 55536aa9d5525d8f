package domain

type MediaType string

const (
	MediaTypeVideos MediaType = "videos"
	MediaTypeImages MediaType = "images"
)

// CatalogItem is one selectable media entry. Items are immutable once loaded.
type CatalogItem struct {
	ID          string    `json:"id" validate:"required,max=128"`
	Name        string    `json:"name" validate:"required,max=256"`
	Src         string    `json:"src" validate:"required"`
	Format      string    `json:"format,omitempty" validate:"omitempty,alphanum,max=8"`
	Type        MediaType `json:"type" validate:"required,oneof=videos images"`
	Category    string    `json:"category"`
	Thumbnail   string    `json:"thumbnail"`
	Description string    `json:"description"`
	// Duration in seconds, when known ahead of loading.
	Duration float64 `json:"duration,omitempty" validate:"gte=0"`
}

func (i CatalogItem) IsVideo() bool {
	return i.Type == MediaTypeVideos
}
