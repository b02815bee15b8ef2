// Package dataset loads the order-line table from its remote origin and
// caches it under a time-to-live so a filter change never re-fetches.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver

	"github.com/shanusaras/trendtracker-analytics/internal/config"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// Source loads the full order-line record set from its origin.
type Source interface {
	Load(ctx context.Context) ([]model.OrderLine, error)
	// Location describes the origin for logging and catalog records.
	Location() string
	Close() error
}

var ErrInvalidSourceMode = errors.New("invalid dataset source mode")

// NewSource constructs a dataset source based on the configured mode.
func NewSource(cfg config.DatasetConfig) (Source, error) {
	switch cfg.Mode {
	case "local":
		return &localSource{path: cfg.Path}, nil
	case "http":
		return &httpSource{url: cfg.URL, client: &http.Client{Timeout: 60 * time.Second}}, nil
	case "bucket":
		return newBucketSource(cfg.Bucket, cfg.Key)
	default:
		return nil, ErrInvalidSourceMode
	}
}

// decode reads CSV (optionally zstd-compressed, by file extension) into
// order lines.
func decode(r io.Reader, name string) ([]model.OrderLine, error) {
	if strings.HasSuffix(name, ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open zstd reader: %w", err)
		}
		defer zr.Close()
		return model.DecodeCSV(zr)
	}
	return model.DecodeCSV(r)
}

// localSource reads the CSV from the local filesystem.
type localSource struct {
	path string
}

func (s *localSource) Load(ctx context.Context) ([]model.OrderLine, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", s.path, err)
	}
	defer f.Close()

	lines, err := decode(f, s.path)
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", s.path, err)
	}
	return lines, nil
}

func (s *localSource) Location() string { return s.path }
func (s *localSource) Close() error     { return nil }

// httpSource fetches the CSV over HTTP(S).
type httpSource struct {
	url    string
	client *http.Client
}

func (s *httpSource) Load(ctx context.Context) ([]model.OrderLine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset %s: unexpected status %s", s.url, resp.Status)
	}

	lines, err := decode(resp.Body, s.url)
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", s.url, err)
	}
	return lines, nil
}

func (s *httpSource) Location() string { return s.url }
func (s *httpSource) Close() error     { return nil }

// bucketSource reads the CSV from a blob bucket (GCS, S3 or file://).
type bucketSource struct {
	bucket *blob.Bucket
	url    string
	key    string
}

func newBucketSource(bucketURL, key string) (*bucketSource, error) {
	bucket, err := blob.OpenBucket(context.Background(), bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return &bucketSource{bucket: bucket, url: bucketURL, key: key}, nil
}

func (s *bucketSource) Load(ctx context.Context) ([]model.OrderLine, error) {
	reader, err := s.bucket.NewReader(ctx, s.key, nil)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", s.key, err)
	}
	defer reader.Close()

	lines, err := decode(reader, s.key)
	if err != nil {
		return nil, fmt.Errorf("decode object %s: %w", s.key, err)
	}
	return lines, nil
}

func (s *bucketSource) Location() string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.url, "/"), s.key)
}

func (s *bucketSource) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}
