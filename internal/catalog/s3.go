package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/reel/internal/config"
	"github.com/hyperengineering/reel/internal/metrics"
	"github.com/hyperengineering/reel/internal/types"
)

// Compile-time interface check
var _ Resolver = (*S3)(nil)

// objectLister is the subset of *minio.Client used by S3.
type objectLister interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// S3 enumerates <prefix><category>/<file> objects in an S3-compatible bucket.
type S3 struct {
	client    objectLister
	bucket    string
	prefix    string
	urlPrefix string
	exts      map[string]struct{}
}

// NewS3 creates an object-storage catalog from configuration.
func NewS3(cfg config.S3CatalogConfig, urlPrefix string, extensions []string) (*S3, error) {
	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return newS3(client, cfg.Bucket, cfg.Prefix, urlPrefix, extensions), nil
}

func newS3(client objectLister, bucket, prefix, urlPrefix string, extensions []string) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		urlPrefix: urlPrefix,
		exts:      extensionSet(extensions),
	}
}

// List walks the bucket under the configured prefix. Only objects exactly one
// level below a category "folder" are considered. Any listing error yields an
// empty catalog.
func (c *S3) List(ctx context.Context) []types.Category {
	// Cancelling stops minio's producer goroutine if we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	byCategory := map[string][]types.VideoRef{}

	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    c.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			slog.Error("catalog scan failed",
				"component", "catalog",
				"source", "s3",
				"bucket", c.bucket,
				"prefix", c.prefix,
				"error", obj.Err,
			)
			metrics.CatalogScanErrors.WithLabelValues("s3").Inc()
			return []types.Category{}
		}

		rel := strings.TrimPrefix(obj.Key, c.prefix)
		category, filename, ok := strings.Cut(rel, "/")
		if !ok || category == "" || filename == "" || strings.Contains(filename, "/") {
			continue
		}
		if !hasVideoExtension(filename, c.exts) {
			continue
		}

		byCategory[category] = append(byCategory[category], types.VideoRef{
			Filename: filename,
			Path:     videoPath(c.urlPrefix, category, filename),
			Category: category,
		})
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	categories := make([]types.Category, 0, len(names))
	for _, name := range names {
		videos := byCategory[name]
		sort.Slice(videos, func(i, j int) bool { return videos[i].Filename < videos[j].Filename })
		categories = append(categories, types.Category{Name: name, Videos: videos})
	}

	metrics.CatalogVideos.WithLabelValues("s3").Set(float64(countVideos(categories)))
	return categories
}
