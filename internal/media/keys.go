package media

import "github.com/mediaviewer/server/internal/discovery"

var (
	SourceKey      = discovery.NewKey[*Source]("media-source")
	ImageSourceKey = discovery.NewKey[*ImageSource]("image-source")
)

// ActiveKey holds whichever source is on screen, video or image. Menus and shortcuts find
// their target through it and check what it can do.
var ActiveKey = discovery.NewKey[any]("active-media")
