package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/dataset"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

type stubSource struct {
	rows []model.OrderLine
	fail error
}

func (s *stubSource) Load(ctx context.Context) ([]model.OrderLine, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	return s.rows, nil
}

func (s *stubSource) Location() string { return "stub" }
func (s *stubSource) Close() error     { return nil }

func testRows() []model.OrderLine {
	d := func(day int) *time.Time {
		t := time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []model.OrderLine{
		{OrderID: "o1", CustomerID: "A", ProductName: "Wallet", Quantity: 2, TotalPrice: 100, OrderDate: d(1), Gender: "Female", AgeGroup: "25-34", State: "NSW"},
		{OrderID: "o2", CustomerID: "A", ProductName: "Scarf", Quantity: 1, TotalPrice: 50, OrderDate: d(10), Gender: "Female", AgeGroup: "25-34", State: "NSW"},
		{OrderID: "o3", CustomerID: "B", ProductName: "Wallet", Quantity: 3, TotalPrice: 200, OrderDate: d(5), Gender: "Male", AgeGroup: "35-44", State: "VIC"},
	}
}

func newTestServer(src dataset.Source) *Server {
	return New(dataset.NewCache(src, time.Hour))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v\n%s", err, w.Body.String())
	}
	return body
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/api/v1/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["total_orders"] != float64(3) {
		t.Errorf("total_orders = %v, want 3", body["total_orders"])
	}
	if body["total_revenue"] != float64(350) {
		t.Errorf("total_revenue = %v, want 350", body["total_revenue"])
	}
}

func TestSummary_Filtered(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/api/v1/summary?states=NSW")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total_orders"] != float64(2) {
		t.Errorf("total_orders = %v, want 2 after state filter", body["total_orders"])
	}
}

func TestSummary_DateRange(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	// End day is inclusive, so o3 on March 5 survives.
	w := get(t, s, "/api/v1/summary?start=2024-03-02&end=2024-03-05")
	body := decodeBody(t, w)
	if body["total_orders"] != float64(1) {
		t.Errorf("total_orders = %v, want 1", body["total_orders"])
	}
}

func TestBadFilterParams(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	for _, path := range []string{
		"/api/v1/summary?start=03-2024-01",
		"/api/v1/summary?end=yesterday",
		"/api/v1/summary?min_order_total=-5",
		"/api/v1/summary?min_order_total=lots",
	} {
		if w := get(t, s, path); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestDatasetUnavailable(t *testing.T) {
	s := newTestServer(&stubSource{fail: errors.New("origin down")})
	w := get(t, s, "/api/v1/summary")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestTopProducts_Limit(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/api/v1/products/top?limit=1")
	body := decodeBody(t, w)
	products := body["products"].([]interface{})
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	top := products[0].(map[string]interface{})
	if top["product_name"] != "Wallet" {
		t.Errorf("top product = %v, want Wallet", top["product_name"])
	}
}

func TestRFMEndpoint(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/api/v1/rfm")
	body := decodeBody(t, w)
	customers := body["customers"].([]interface{})
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
}

func TestSegmentsEndpoint(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/api/v1/rfm/segments")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if _, ok := body["by_count"]; !ok {
		t.Error("missing by_count rollup")
	}
	if _, ok := body["by_revenue"]; !ok {
		t.Error("missing by_revenue rollup")
	}
}

func TestCohortRetention_InsufficientData(t *testing.T) {
	// All orders in one month collapse to a single cohort cell.
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/api/v1/cohorts/retention")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["insufficient_data"] != true {
		t.Errorf("expected insufficient_data flag, got %v", body)
	}
}

func TestCohortRetention(t *testing.T) {
	rows := testRows()
	april := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	rows = append(rows, model.OrderLine{OrderID: "o4", CustomerID: "A", TotalPrice: 10, OrderDate: &april})

	s := newTestServer(&stubSource{rows: rows})
	w := get(t, s, "/api/v1/cohorts/retention")
	body := decodeBody(t, w)
	if body["periods"] != float64(2) {
		t.Errorf("periods = %v, want 2", body["periods"])
	}
	cohorts := body["cohorts"].([]interface{})
	if len(cohorts) != 1 {
		t.Fatalf("expected 1 cohort, got %d", len(cohorts))
	}
}

func TestDeliveryTimesEndpoint(t *testing.T) {
	ordered := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	delivered := ordered.AddDate(0, 0, 4)
	rows := []model.OrderLine{
		{OrderID: "o1", CustomerID: "A", TotalPrice: 10, OrderDate: &ordered, DeliveryDate: &delivered},
	}
	s := newTestServer(&stubSource{rows: rows})
	w := get(t, s, "/api/v1/delivery-times")
	body := decodeBody(t, w)
	if body["median_days"] != float64(4) {
		t.Errorf("median_days = %v, want 4", body["median_days"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&stubSource{rows: testRows()})
	w := get(t, s, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
