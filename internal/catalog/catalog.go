// Package catalog records exported report artifacts in a Postgres
// catalog so downstream consumers can discover them. The catalog is
// optional: without a DSN every record is a no-op.
package catalog

import (
	"context"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/config"
	"github.com/shanusaras/trendtracker-analytics/internal/logging"
)

// Recorder persists report records.
type Recorder interface {
	RecordReport(ctx context.Context, rec ReportRecord) error
	Close() error
}

// ReportRecord describes one exported report artifact.
type ReportRecord struct {
	ReportID        string
	Namespace       string
	ReportType      string // "dataset" | "rfm" | "cohort" | "segments" | ...
	Format          string // "csv" | "parquet" | "xlsx" | "json"
	RowCount        int64
	ByteSize        int64
	Checksum        string
	StorageURI      string
	SourceLocation  string
	ProducerVersion string
	CreatedAt       time.Time
}

// NewRecorder returns a Postgres recorder when a DSN is configured and
// a no-op recorder otherwise. A missing catalog is never an error.
func NewRecorder(cfg config.CatalogConfig) Recorder {
	if cfg.PostgresDSN == "" {
		return noopRecorder{}
	}
	rec, err := NewPostgresRecorder(cfg)
	if err != nil {
		logging.Component("catalog").Warn("catalog unavailable, continuing without it", "error", err)
		return noopRecorder{}
	}
	return rec
}

type noopRecorder struct{}

func (noopRecorder) RecordReport(_ context.Context, _ ReportRecord) error { return nil }
func (noopRecorder) Close() error                                         { return nil }
