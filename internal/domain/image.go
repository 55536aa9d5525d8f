package domain

// ImageState is the snapshot an image source broadcasts after every transform change.
type ImageState struct {
	ZoomLevel float64 `json:"zoom_level"`
	Rotation  int     `json:"rotation"`
	OffsetX   float64 `json:"offset_x"`
	OffsetY   float64 `json:"offset_y"`
}

func NewImageState() ImageState {
	return ImageState{ZoomLevel: 1}
}
