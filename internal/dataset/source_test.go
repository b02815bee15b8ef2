package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/shanusaras/trendtracker-analytics/internal/config"
)

const sampleCSV = "order_id,customer_id,total_price,order_date\n" +
	"1001,C01,59.98,2024-03-01\n" +
	"1002,C02,24.50,2024-03-02\n"

func TestLocalSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewSource(config.DatasetConfig{Mode: "local", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	lines, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].OrderID != "1001" {
		t.Errorf("first order = %q", lines[0].OrderID)
	}
}

func TestLocalSource_Zstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write([]byte(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := NewSource(config.DatasetConfig{Mode: "local", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	lines, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines from compressed source, got %d", len(lines))
	}
}

func TestHTTPSource(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer ts.Close()

	src, err := NewSource(config.DatasetConfig{Mode: "http", URL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	lines, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestHTTPSource_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	src, err := NewSource(config.DatasetConfig{Mode: "http", URL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected an error on non-200 response")
	}
}

func TestNewSource_InvalidMode(t *testing.T) {
	if _, err := NewSource(config.DatasetConfig{Mode: "ftp"}); !errors.Is(err, ErrInvalidSourceMode) {
		t.Fatalf("expected ErrInvalidSourceMode, got %v", err)
	}
}
