package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// datasetHeader is the column order used for CSV and Excel dumps.
var datasetHeader = []string{
	"order_id", "customer_id", "product_name", "quantity_x", "total_price",
	"order_date", "delivery_date", "gender", "age_group", "state",
}

const dateLayout = "2006-01-02 15:04:05"

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func lineFields(l model.OrderLine) []string {
	return []string{
		l.OrderID,
		l.CustomerID,
		l.ProductName,
		strconv.Itoa(l.Quantity),
		strconv.FormatFloat(l.TotalPrice, 'f', -1, 64),
		formatDate(l.OrderDate),
		formatDate(l.DeliveryDate),
		l.Gender,
		l.AgeGroup,
		l.State,
	}
}

// EncodeCSV renders order lines as CSV with the canonical header.
func EncodeCSV(lines []model.OrderLine) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(datasetHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, l := range lines {
		if err := w.Write(lineFields(l)); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// orderLineRow is the parquet schema for dataset dumps. Null dates are
// carried as optional timestamps.
type orderLineRow struct {
	OrderID      string     `parquet:"order_id"`
	CustomerID   string     `parquet:"customer_id"`
	ProductName  string     `parquet:"product_name"`
	Quantity     int32      `parquet:"quantity"`
	TotalPrice   float64    `parquet:"total_price"`
	OrderDate    *time.Time `parquet:"order_date,optional,timestamp(millisecond)"`
	DeliveryDate *time.Time `parquet:"delivery_date,optional,timestamp(millisecond)"`
	Gender       string     `parquet:"gender"`
	AgeGroup     string     `parquet:"age_group"`
	State        string     `parquet:"state"`
}

// EncodeParquet renders order lines as a parquet file.
func EncodeParquet(lines []model.OrderLine) ([]byte, error) {
	rows := make([]orderLineRow, len(lines))
	for i, l := range lines {
		rows[i] = orderLineRow{
			OrderID:      l.OrderID,
			CustomerID:   l.CustomerID,
			ProductName:  l.ProductName,
			Quantity:     int32(l.Quantity),
			TotalPrice:   l.TotalPrice,
			OrderDate:    l.OrderDate,
			DeliveryDate: l.DeliveryDate,
			Gender:       l.Gender,
			AgeGroup:     l.AgeGroup,
			State:        l.State,
		}
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[orderLineRow](&buf, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeExcel renders order lines as an xlsx workbook with a single
// "filtered" sheet.
func EncodeExcel(lines []model.OrderLine) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "filtered"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(datasetHeader))
	for i, h := range datasetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		fields := lineFields(l)
		row := make([]interface{}, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJSON renders any derived table as indented JSON, the format the
// report CLI ships to downstream consumers.
func EncodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// Checksum computes a sha256 checksum over report bytes, prefixed with
// the algorithm for self-describing catalog records.
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}
