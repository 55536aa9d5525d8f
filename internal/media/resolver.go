package media

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mediaviewer/server/internal/domain"
)

var absolutePrefixes = []string{"https:", "http:", "//", "blob:"}

type Resolver struct {
	origin      string
	videoFormat string
}

func NewResolver(origin, videoFormat string) *Resolver {
	return &Resolver{
		origin:      strings.TrimRight(origin, "/"),
		videoFormat: videoFormat,
	}
}

func IsAbsolute(locator string) bool {
	for _, p := range absolutePrefixes {
		if strings.HasPrefix(locator, p) {
			return true
		}
	}
	return false
}

// Resolve turns a locator into a URL the medium can load. Absolute locators pass through,
// origin-relative paths are joined to the asset server origin, and bare names are served
// from the asset server's media directories.
func (r *Resolver) Resolve(locator string, mediaType domain.MediaType, format string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", ErrEmptyLocator
	}
	if IsAbsolute(locator) {
		return locator, nil
	}
	if strings.HasPrefix(locator, "/") {
		return r.origin + locator, nil
	}

	name := escapeComponent(locator)
	switch mediaType {
	case domain.MediaTypeImages:
		if format == "" {
			return fmt.Sprintf("%s/assets/images/%s", r.origin, name), nil
		}
		return fmt.Sprintf("%s/assets/images/%s.%s", r.origin, name, format), nil
	default:
		if format == "" {
			format = r.videoFormat
		}
		return fmt.Sprintf("%s/assets/videos/%s.%s", r.origin, name, format), nil
	}
}

// escapeComponent escapes s the way a URL path component is escaped by browsers, with
// spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
