package analytics

import (
	"sort"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// RFMRecord is the recency/frequency/monetary base row for one customer.
// Recency is measured against the newest order date present in the
// filtered set, not against the wall clock, so it is stable for a given
// filter configuration.
type RFMRecord struct {
	CustomerID string  `json:"customer_id"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
	Recency    int     `json:"recency"`
}

// RFMTable builds one RFMRecord per distinct customer, ordered by
// customer ID. Lines without an order date contribute to frequency and
// monetary but not to recency.
func RFMTable(lines []model.OrderLine) []RFMRecord {
	type acc struct {
		orders  map[string]struct{}
		total   float64
		lastDay time.Time
	}
	byCustomer := make(map[string]*acc)
	var datasetMax time.Time

	for _, l := range lines {
		a := byCustomer[l.CustomerID]
		if a == nil {
			a = &acc{orders: make(map[string]struct{})}
			byCustomer[l.CustomerID] = a
		}
		a.orders[l.OrderID] = struct{}{}
		a.total += l.TotalPrice
		if l.OrderDate != nil {
			day := model.Day(*l.OrderDate)
			if day.After(a.lastDay) {
				a.lastDay = day
			}
			if day.After(datasetMax) {
				datasetMax = day
			}
		}
	}

	out := make([]RFMRecord, 0, len(byCustomer))
	for id, a := range byCustomer {
		rec := RFMRecord{
			CustomerID: id,
			Frequency:  len(a.orders),
			Monetary:   a.total,
		}
		if !a.lastDay.IsZero() && !datasetMax.IsZero() {
			rec.Recency = int(datasetMax.Sub(a.lastDay).Hours() / 24)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// TopCustomersByValue returns up to n customers by monetary value
// descending, ties broken by customer ID. Monetary doubles as the CLTV
// proxy the dashboard reports.
func TopCustomersByValue(table []RFMRecord, n int) []RFMRecord {
	out := make([]RFMRecord, len(table))
	copy(out, table)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Monetary != out[j].Monetary {
			return out[i].Monetary > out[j].Monetary
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// StateRevenue is summed revenue for one state.
type StateRevenue struct {
	State   string  `json:"state"`
	Revenue float64 `json:"revenue"`
}

// TopStatesByRevenue sums total_price per state, drops the null state,
// and returns up to n states by revenue descending, ties by name.
func TopStatesByRevenue(lines []model.OrderLine, n int) []StateRevenue {
	totals := make(map[string]float64)
	for _, l := range lines {
		if l.State == "" {
			continue
		}
		totals[l.State] += l.TotalPrice
	}

	out := make([]StateRevenue, 0, len(totals))
	for state, revenue := range totals {
		out = append(out, StateRevenue{State: state, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].State < out[j].State
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary is the KPI band shown at the top of the dashboard.
type Summary struct {
	TotalOrders       int     `json:"total_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	RepeatRate        float64 `json:"repeat_purchase_rate"`
	FilteredRows      int     `json:"filtered_rows"`
	UniqueCustomers   int     `json:"unique_customers"`
	UniqueProducts    int     `json:"unique_products"`
}

// Summarize computes the KPI bundle over a filtered set.
func Summarize(lines []model.OrderLine) Summary {
	daily := DailyOrders(lines)
	s := Summary{
		AverageOrderValue: AverageOrderValue(lines),
		RepeatRate:        RepeatPurchaseRate(lines),
		FilteredRows:      len(lines),
	}
	for _, d := range daily {
		s.TotalOrders += d.OrderCount
		s.TotalRevenue += d.Revenue
	}

	customers := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, l := range lines {
		customers[l.CustomerID] = struct{}{}
		if l.ProductName != "" {
			products[l.ProductName] = struct{}{}
		}
	}
	s.UniqueCustomers = len(customers)
	s.UniqueProducts = len(products)
	return s
}
