// Package catalog enumerates video categories from the content source.
//
// A catalog is consulted fresh on every call; nothing is cached, so new
// folders or files are visible on the next request. Enumeration failures are
// logged and degrade to an empty catalog rather than propagating.
package catalog

import (
	"context"
	"path"
	"strings"

	"github.com/hyperengineering/reel/internal/types"
)

// Resolver lists the current categories and their videos.
type Resolver interface {
	List(ctx context.Context) []types.Category
}

// Names returns the category names in catalog order.
func Names(categories []types.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// Find returns the category with exactly the given name.
func Find(categories []types.Category, name string) (types.Category, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	return types.Category{}, false
}

// extensionSet normalizes extensions to lower case with a leading dot.
func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

func hasVideoExtension(name string, exts map[string]struct{}) bool {
	_, ok := exts[strings.ToLower(path.Ext(name))]
	return ok
}

// videoPath builds the stable identifier for a video: /<prefix>/<category>/<file>.
func videoPath(urlPrefix, category, filename string) string {
	return "/" + path.Join(strings.Trim(urlPrefix, "/"), category, filename)
}

func countVideos(categories []types.Category) int {
	n := 0
	for _, c := range categories {
		n += len(c.Videos)
	}
	return n
}
