package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Column names recognized in the source CSV. The loader maps columns by
// header, so extra columns are ignored and missing ones yield nulls.
const (
	colOrderID      = "order_id"
	colCustomerID   = "customer_id"
	colProductName  = "product_name"
	colQuantity     = "quantity_x"
	colTotalPrice   = "total_price"
	colOrderDate    = "order_date"
	colDeliveryDate = "delivery_date"
	colGender       = "gender"
	colAgeGroup     = "age_group"
	colState        = "state"
)

// dateLayouts are tried in order when parsing timestamps. Anything that
// fails all of them is coerced to null rather than rejected.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"01/02/2006",
}

// DecodeCSV reads order lines from r. Malformed cells degrade to nulls
// or zero values; only an unreadable stream is an error.
func DecodeCSV(r io.Reader) ([]OrderLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	// Some exports use plain "quantity".
	if _, ok := idx[colQuantity]; !ok {
		if i, ok := idx["quantity"]; ok {
			idx[colQuantity] = i
		}
	}

	var (
		lines   []OrderLine
		badRows int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			badRows++
			continue
		}

		field := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		lines = append(lines, OrderLine{
			OrderID:      field(colOrderID),
			CustomerID:   field(colCustomerID),
			ProductName:  field(colProductName),
			Quantity:     parseInt(field(colQuantity)),
			TotalPrice:   parseFloat(field(colTotalPrice)),
			OrderDate:    ParseDate(field(colOrderDate)),
			DeliveryDate: ParseDate(field(colDeliveryDate)),
			Gender:       field(colGender),
			AgeGroup:     field(colAgeGroup),
			State:        field(colState),
		})
	}

	if badRows > 0 {
		slog.Warn("skipped malformed CSV rows", "count", badRows)
	}
	return lines, nil
}

// ParseDate parses a timestamp using the accepted layouts, returning nil
// when the value is empty or unparsable.
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// Quantity columns sometimes arrive as "3.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
