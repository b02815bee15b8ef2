package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shanusaras/trendtracker-analytics/internal/catalog"
	"github.com/shanusaras/trendtracker-analytics/internal/logging"
	"github.com/shanusaras/trendtracker-analytics/internal/metrics"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

// Dataset dump formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatExcel   = "xlsx"
	FormatJSON    = "json"
)

// Result describes one exported report artifact.
type Result struct {
	ReportID  string    `json:"report_id"`
	Key       string    `json:"key"`
	URI       string    `json:"uri"`
	Checksum  string    `json:"checksum"`
	Rows      int64     `json:"rows"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Exporter writes report files through the store and records them in
// the catalog.
type Exporter struct {
	store  ReportStore
	cat    catalog.Recorder
	source string // dataset origin, for catalog lineage
	m      *metrics.Metrics
	log    *slog.Logger
	now    func() time.Time
}

// New creates an Exporter. source names the dataset origin the report
// was derived from.
func New(store ReportStore, cat catalog.Recorder, source string) *Exporter {
	return &Exporter{
		store:  store,
		cat:    cat,
		source: source,
		m:      metrics.Default(),
		log:    logging.Component("export"),
		now:    time.Now,
	}
}

// ExportDataset writes the filtered order lines in the given format.
func (e *Exporter) ExportDataset(ctx context.Context, lines []model.OrderLine, format string) (*Result, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		data, err = EncodeCSV(lines)
		contentType = "text/csv"
	case FormatParquet:
		data, err = EncodeParquet(lines)
		contentType = "application/octet-stream"
	case FormatExcel:
		data, err = EncodeExcel(lines)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, fmt.Errorf("unknown dataset format: %s", format)
	}
	if err != nil {
		e.m.ExportErrors.WithLabelValues("dataset", format).Inc()
		return nil, fmt.Errorf("encode dataset: %w", err)
	}

	return e.publish(ctx, "dataset", format, data, contentType, int64(len(lines)))
}

// ExportTable writes a derived table (RFM, cohort matrix, segment
// rollups, daily series, ...) as indented JSON. rows is the row count
// recorded in the catalog.
func (e *Exporter) ExportTable(ctx context.Context, report string, table interface{}, rows int64) (*Result, error) {
	data, err := EncodeJSON(table)
	if err != nil {
		e.m.ExportErrors.WithLabelValues(report, FormatJSON).Inc()
		return nil, fmt.Errorf("encode %s report: %w", report, err)
	}
	return e.publish(ctx, report, FormatJSON, data, "application/json", rows)
}

func (e *Exporter) publish(ctx context.Context, report, format string, data []byte, contentType string, rows int64) (*Result, error) {
	createdAt := e.now().UTC()
	key := timestampedKey(report, format, createdAt)

	if err := e.store.Write(ctx, key, data, contentType); err != nil {
		e.m.ExportErrors.WithLabelValues(report, format).Inc()
		return nil, fmt.Errorf("store report: %w", err)
	}

	res := &Result{
		ReportID:  uuid.NewString(),
		Key:       key,
		URI:       e.store.URI(key),
		Checksum:  Checksum(data),
		Rows:      rows,
		Bytes:     int64(len(data)),
		CreatedAt: createdAt,
	}

	e.m.ReportsExported.WithLabelValues(report, format).Inc()
	e.m.ReportBytes.WithLabelValues(report, format).Observe(float64(len(data)))

	if err := e.cat.RecordReport(ctx, catalog.ReportRecord{
		ReportID:        res.ReportID,
		ReportType:      report,
		Format:          format,
		RowCount:        rows,
		ByteSize:        res.Bytes,
		Checksum:        res.Checksum,
		StorageURI:      res.URI,
		SourceLocation:  e.source,
		ProducerVersion: fmt.Sprintf("trendtracker@%s", Version),
		CreatedAt:       createdAt,
	}); err != nil {
		// A catalog failure never fails the export.
		e.m.CatalogErrors.Inc()
		logging.ReportLogger(res.ReportID, report).Warn("failed to record report in catalog", "error", err)
	}

	logging.ReportLogger(res.ReportID, report).Info("report exported",
		"format", format,
		"rows", rows,
		"bytes", res.Bytes,
		"uri", res.URI,
	)
	return res, nil
}

// timestampedKey builds the object key for a report file, e.g.
// "rfm_20240131_154500.json".
func timestampedKey(report, format string, t time.Time) string {
	ext := format
	if format == FormatParquet {
		ext = "parquet"
	}
	return fmt.Sprintf("%s_%s.%s", report, t.Format("20060102_150405"), ext)
}
