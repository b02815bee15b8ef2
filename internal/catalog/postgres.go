package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanusaras/trendtracker-analytics/internal/config"
	"github.com/shanusaras/trendtracker-analytics/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// PostgresRecorder implements Recorder using PostgreSQL.
type PostgresRecorder struct {
	pool *pgxpool.Pool
	cfg  config.CatalogConfig
}

// NewPostgresRecorder creates a new PostgreSQL report recorder.
func NewPostgresRecorder(cfg config.CatalogConfig) (*PostgresRecorder, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	// Report recording is low-volume; keep the pool small.
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRecorder{pool: pool, cfg: cfg}

	if err := r.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logging.Component("catalog").Info("connected to PostgreSQL report catalog")
	return r, nil
}

// initSchema creates the _meta_reports table if it doesn't exist.
func (r *PostgresRecorder) initSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// RecordReport inserts one report record. Re-recording the same report
// ID updates the row instead of failing.
func (r *PostgresRecorder) RecordReport(ctx context.Context, rec ReportRecord) error {
	query := `
		INSERT INTO _meta_reports
			(report_id, namespace, report_type, format, row_count, byte_size,
			 checksum, storage_uri, source_location, producer_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (report_id)
		DO UPDATE SET
			row_count = EXCLUDED.row_count,
			byte_size = EXCLUDED.byte_size,
			checksum = EXCLUDED.checksum,
			storage_uri = EXCLUDED.storage_uri
	`

	namespace := rec.Namespace
	if namespace == "" {
		namespace = r.cfg.Namespace
	}

	_, err := r.pool.Exec(ctx, query,
		rec.ReportID,
		namespace,
		rec.ReportType,
		rec.Format,
		rec.RowCount,
		rec.ByteSize,
		rec.Checksum,
		rec.StorageURI,
		rec.SourceLocation,
		rec.ProducerVersion,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
