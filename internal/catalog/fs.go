package catalog

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hyperengineering/reel/internal/metrics"
	"github.com/hyperengineering/reel/internal/types"
)

// Compile-time interface check
var _ Resolver = (*FS)(nil)

// FS enumerates <root>/<category>/<file> on the local filesystem.
type FS struct {
	root      string
	urlPrefix string
	exts      map[string]struct{}
}

// NewFS creates a filesystem catalog rooted at root. Video identifiers are
// built under urlPrefix; only files with one of extensions are listed.
func NewFS(root, urlPrefix string, extensions []string) *FS {
	return &FS{
		root:      root,
		urlPrefix: urlPrefix,
		exts:      extensionSet(extensions),
	}
}

// Root returns the directory the catalog scans.
func (c *FS) Root() string {
	return c.root
}

// List scans the root directory. Category folders without any video are
// omitted. Any I/O error yields an empty catalog.
func (c *FS) List(ctx context.Context) []types.Category {
	categories, err := c.scan()
	if err != nil {
		slog.Error("catalog scan failed",
			"component", "catalog",
			"source", "fs",
			"root", c.root,
			"error", err,
		)
		metrics.CatalogScanErrors.WithLabelValues("fs").Inc()
		return []types.Category{}
	}

	metrics.CatalogVideos.WithLabelValues("fs").Set(float64(countVideos(categories)))
	return categories
}

func (c *FS) scan() ([]types.Category, error) {
	folders, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []types.Category{}, nil
		}
		return nil, err
	}

	categories := []types.Category{}
	// os.ReadDir returns entries sorted by name.
	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}

		files, err := os.ReadDir(filepath.Join(c.root, folder.Name()))
		if err != nil {
			return nil, err
		}

		var videos []types.VideoRef
		for _, f := range files {
			if f.IsDir() || !hasVideoExtension(f.Name(), c.exts) {
				continue
			}
			videos = append(videos, types.VideoRef{
				Filename: f.Name(),
				Path:     videoPath(c.urlPrefix, folder.Name(), f.Name()),
				Category: folder.Name(),
			})
		}

		if len(videos) > 0 {
			categories = append(categories, types.Category{Name: folder.Name(), Videos: videos})
		}
	}

	return categories, nil
}
