// Package export writes report artifacts (filtered dataset dumps and
// derived tables) to a storage backend and records them in the report
// catalog.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver

	"github.com/shanusaras/trendtracker-analytics/internal/config"
)

// ReportStore abstracts writing report payloads to storage.
type ReportStore interface {
	// Write stores data under key.
	Write(ctx context.Context, key string, data []byte, contentType string) error

	// URI returns the canonical URI for the given key.
	// For local: file:///path, GCS: gs://bucket/path, S3: s3://bucket/path
	URI(key string) string

	// Close releases any resources.
	Close() error
}

// NewReportStore creates a storage backend based on configuration.
func NewReportStore(cfg config.ExportConfig) (ReportStore, error) {
	switch cfg.Backend {
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("local_dir required for local backend")
		}
		abs, err := filepath.Abs(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("resolve local dir: %w", err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create local dir: %w", err)
		}
		return openBlobStore(fmt.Sprintf("file://%s", filepath.ToSlash(abs)), cfg.Prefix, "file://"+abs)
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket required for gcs backend")
		}
		return openBlobStore("gs://"+cfg.Bucket, cfg.Prefix, "gs://"+cfg.Bucket)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket required for s3 backend")
		}
		return openBlobStore("s3://"+cfg.Bucket, cfg.Prefix, "s3://"+cfg.Bucket)
	default:
		return nil, fmt.Errorf("unknown export backend: %s", cfg.Backend)
	}
}

// blobStore implements ReportStore over a gocloud bucket.
type blobStore struct {
	bucket  *blob.Bucket
	prefix  string
	baseURI string
}

func openBlobStore(bucketURL, prefix, baseURI string) (*blobStore, error) {
	bucket, err := blob.OpenBucket(context.Background(), bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return &blobStore{bucket: bucket, prefix: prefix, baseURI: baseURI}, nil
}

func (s *blobStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, s.prefix+key, data, opts); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *blobStore) URI(key string) string {
	return fmt.Sprintf("%s/%s%s", strings.TrimSuffix(s.baseURI, "/"), s.prefix, key)
}

func (s *blobStore) Close() error {
	return s.bucket.Close()
}
