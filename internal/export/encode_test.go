package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

func sampleLines() []model.OrderLine {
	ordered := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	delivered := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return []model.OrderLine{
		{
			OrderID: "1001", CustomerID: "C01", ProductName: "Leather Wallet",
			Quantity: 2, TotalPrice: 59.98,
			OrderDate: &ordered, DeliveryDate: &delivered,
			Gender: "Female", AgeGroup: "25-34", State: "NSW",
		},
		{OrderID: "1002", CustomerID: "C02", ProductName: "Wool Scarf", Quantity: 1, TotalPrice: 24.5},
	}
}

func TestEncodeCSV(t *testing.T) {
	data, err := EncodeCSV(sampleLines())
	if err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(datasetHeader, ",") {
		t.Errorf("header = %v, want %v", rows[0], datasetHeader)
	}
	if rows[1][5] != "2024-03-01 10:30:00" {
		t.Errorf("order date cell = %q", rows[1][5])
	}
	// Null dates render as empty cells.
	if rows[2][5] != "" || rows[2][6] != "" {
		t.Errorf("null dates should be empty, got %q and %q", rows[2][5], rows[2][6])
	}
}

func TestEncodeParquet(t *testing.T) {
	data, err := EncodeParquet(sampleLines())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty parquet output")
	}
	// "PAR1" magic at both ends.
	if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Error("output does not look like a parquet file")
	}
}

func TestEncodeExcel(t *testing.T) {
	data, err := EncodeExcel(sampleLines())
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("filtered")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "order_id" {
		t.Errorf("first header cell = %q, want order_id", rows[0][0])
	}
	if rows[1][0] != "1001" {
		t.Errorf("first data cell = %q, want 1001", rows[1][0])
	}
}

func TestEncodeJSON(t *testing.T) {
	data, err := EncodeJSON(map[string]int{"rows": 4})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"rows": 4`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestChecksum(t *testing.T) {
	sum := Checksum([]byte("hello"))
	if !strings.HasPrefix(sum, "sha256:") {
		t.Errorf("checksum %q lacks algorithm prefix", sum)
	}
	if sum != Checksum([]byte("hello")) {
		t.Error("checksum is not deterministic")
	}
	if sum == Checksum([]byte("world")) {
		t.Error("different payloads collide")
	}
}

func TestTimestampedKey(t *testing.T) {
	ts := time.Date(2024, 1, 31, 15, 45, 0, 0, time.UTC)
	if got := timestampedKey("rfm", FormatJSON, ts); got != "rfm_20240131_154500.json" {
		t.Errorf("key = %q", got)
	}
	if got := timestampedKey("dataset", FormatParquet, ts); got != "dataset_20240131_154500.parquet" {
		t.Errorf("key = %q", got)
	}
}
