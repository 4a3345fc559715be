package selection

import "errors"

var (
	// ErrNoVideosAvailable means the catalog resolved to nothing at all.
	ErrNoVideosAvailable = errors.New("no videos available")

	// ErrCategoryNotFound means the requested category is not in the catalog.
	ErrCategoryNotFound = errors.New("category not found")
)
