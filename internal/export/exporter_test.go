package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/catalog"
	"github.com/shanusaras/trendtracker-analytics/internal/config"
)

type memStore struct {
	writes map[string][]byte
	types  map[string]string
	fail   error
}

func newMemStore() *memStore {
	return &memStore{writes: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) Write(_ context.Context, key string, data []byte, contentType string) error {
	if s.fail != nil {
		return s.fail
	}
	s.writes[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memStore) URI(key string) string { return "mem://reports/" + key }
func (s *memStore) Close() error          { return nil }

type memRecorder struct {
	records []catalog.ReportRecord
	fail    error
}

func (r *memRecorder) RecordReport(_ context.Context, rec catalog.ReportRecord) error {
	if r.fail != nil {
		return r.fail
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) Close() error { return nil }

func newTestExporter(store ReportStore, rec catalog.Recorder) *Exporter {
	e := New(store, rec, "mem://dataset.csv")
	e.now = func() time.Time { return time.Date(2024, 1, 31, 15, 45, 0, 0, time.UTC) }
	return e
}

func TestExportDataset_CSV(t *testing.T) {
	store := newMemStore()
	rec := &memRecorder{}
	e := newTestExporter(store, rec)

	res, err := e.ExportDataset(context.Background(), sampleLines(), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}

	if res.Key != "dataset_20240131_154500.csv" {
		t.Errorf("key = %q", res.Key)
	}
	if res.URI != "mem://reports/dataset_20240131_154500.csv" {
		t.Errorf("uri = %q", res.URI)
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d, want 2", res.Rows)
	}

	data, ok := store.writes[res.Key]
	if !ok {
		t.Fatal("nothing written to the store")
	}
	if int64(len(data)) != res.Bytes {
		t.Errorf("bytes = %d, stored %d", res.Bytes, len(data))
	}
	if res.Checksum != Checksum(data) {
		t.Error("result checksum does not match stored payload")
	}
	if store.types[res.Key] != "text/csv" {
		t.Errorf("content type = %q", store.types[res.Key])
	}

	if len(rec.records) != 1 {
		t.Fatalf("expected 1 catalog record, got %d", len(rec.records))
	}
	cr := rec.records[0]
	if cr.ReportID != res.ReportID || cr.ReportType != "dataset" || cr.Format != FormatCSV {
		t.Errorf("unexpected catalog record: %+v", cr)
	}
	if cr.SourceLocation != "mem://dataset.csv" {
		t.Errorf("source location = %q", cr.SourceLocation)
	}
}

func TestExportDataset_UnknownFormat(t *testing.T) {
	e := newTestExporter(newMemStore(), &memRecorder{})
	if _, err := e.ExportDataset(context.Background(), nil, "pdf"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestExportTable_JSON(t *testing.T) {
	store := newMemStore()
	e := newTestExporter(store, &memRecorder{})

	res, err := e.ExportTable(context.Background(), "rfm", map[string]int{"customers": 7}, 7)
	if err != nil {
		t.Fatal(err)
	}
	if res.Key != "rfm_20240131_154500.json" {
		t.Errorf("key = %q", res.Key)
	}
	if store.types[res.Key] != "application/json" {
		t.Errorf("content type = %q", store.types[res.Key])
	}
	if res.Rows != 7 {
		t.Errorf("rows = %d, want 7", res.Rows)
	}
}

func TestPublish_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("bucket offline")
	e := newTestExporter(store, &memRecorder{})

	if _, err := e.ExportDataset(context.Background(), sampleLines(), FormatCSV); err == nil {
		t.Fatal("expected store failure to fail the export")
	}
}

func TestPublish_CatalogFailureDoesNotFailExport(t *testing.T) {
	store := newMemStore()
	rec := &memRecorder{fail: errors.New("postgres down")}
	e := newTestExporter(store, rec)

	res, err := e.ExportDataset(context.Background(), sampleLines(), FormatCSV)
	if err != nil {
		t.Fatalf("catalog failure must not fail the export: %v", err)
	}
	if _, ok := store.writes[res.Key]; !ok {
		t.Error("report was not stored")
	}
}

func TestLocalReportStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReportStore(config.ExportConfig{Backend: "local", LocalDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Write(context.Background(), "probe.json", []byte(`{}`), "application/json"); err != nil {
		t.Fatal(err)
	}
	uri := store.URI("probe.json")
	if uri == "" {
		t.Fatal("empty URI")
	}
}
