// Package analytics holds the stateless aggregations behind the
// dashboard: daily series, product rankings, demographic breakdowns,
// KPIs, the monthly AOV trend, delivery-time samples and the RFM base
// table. Every function is a pure transform over a filtered record set
// and returns a well-formed empty result for empty input.
package analytics

import (
	"sort"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// DailyBucket is one calendar day of the orders time series.
type DailyBucket struct {
	Date       time.Time `json:"date"`
	OrderCount int       `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

// DailyOrders buckets lines by calendar day of order_date and reports
// the distinct order count and summed revenue per day. Days inside the
// observed range with no orders are included as zero rows, matching the
// dashboard's resample-by-day series. Lines without an order date are
// skipped.
func DailyOrders(lines []model.OrderLine) []DailyBucket {
	type bucket struct {
		orders  map[string]struct{}
		revenue float64
	}
	buckets := make(map[time.Time]*bucket)
	var minDay, maxDay time.Time

	for _, l := range lines {
		if l.OrderDate == nil {
			continue
		}
		day := model.Day(*l.OrderDate)
		b := buckets[day]
		if b == nil {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[day] = b
		}
		b.orders[l.OrderID] = struct{}{}
		b.revenue += l.TotalPrice
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
	}

	if len(buckets) == 0 {
		return []DailyBucket{}
	}

	out := make([]DailyBucket, 0, len(buckets))
	for day := minDay; !day.After(maxDay); day = day.Add(24 * time.Hour) {
		row := DailyBucket{Date: day}
		if b, ok := buckets[day]; ok {
			row.OrderCount = len(b.orders)
			row.Revenue = b.revenue
		}
		out = append(out, row)
	}
	return out
}

// ProductSales is one row of the product ranking.
type ProductSales struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// ProductRanking sums quantity per product and orders the result by
// quantity descending, ties broken by product name ascending.
func ProductRanking(lines []model.OrderLine) []ProductSales {
	totals := make(map[string]int)
	for _, l := range lines {
		totals[l.ProductName] += l.Quantity
	}

	out := make([]ProductSales, 0, len(totals))
	for name, qty := range totals {
		out = append(out, ProductSales{ProductName: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

// CategoryCount is a distinct-customer count for one categorical value.
type CategoryCount struct {
	Value         string `json:"value"`
	CustomerCount int    `json:"customer_count"`
}

// CustomersByGender counts distinct customers per gender.
func CustomersByGender(lines []model.OrderLine) []CategoryCount {
	return distinctCustomersBy(lines, func(l model.OrderLine) string { return l.Gender })
}

// CustomersByAgeGroup counts distinct customers per age group.
func CustomersByAgeGroup(lines []model.OrderLine) []CategoryCount {
	return distinctCustomersBy(lines, func(l model.OrderLine) string { return l.AgeGroup })
}

// CustomersByState counts distinct customers per state.
func CustomersByState(lines []model.OrderLine) []CategoryCount {
	return distinctCustomersBy(lines, func(l model.OrderLine) string { return l.State })
}

// distinctCustomersBy groups by a categorical field and counts distinct
// customer IDs per value. Null (empty) category values are dropped.
func distinctCustomersBy(lines []model.OrderLine, key func(model.OrderLine) string) []CategoryCount {
	groups := make(map[string]map[string]struct{})
	for _, l := range lines {
		k := key(l)
		if k == "" {
			continue
		}
		set := groups[k]
		if set == nil {
			set = make(map[string]struct{})
			groups[k] = set
		}
		set[l.CustomerID] = struct{}{}
	}

	out := make([]CategoryCount, 0, len(groups))
	for value, customers := range groups {
		out = append(out, CategoryCount{Value: value, CustomerCount: len(customers)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// orderTotals sums total_price per order_id.
func orderTotals(lines []model.OrderLine) map[string]float64 {
	totals := make(map[string]float64)
	for _, l := range lines {
		totals[l.OrderID] += l.TotalPrice
	}
	return totals
}

// AverageOrderValue is the mean of per-order totals, 0 for an empty set.
func AverageOrderValue(lines []model.OrderLine) float64 {
	totals := orderTotals(lines)
	if len(totals) == 0 {
		return 0
	}
	var sum float64
	for _, t := range totals {
		sum += t
	}
	return sum / float64(len(totals))
}

// RepeatPurchaseRate is the fraction of distinct customers with at
// least two distinct orders. Always within [0,1]; 0 for an empty set.
func RepeatPurchaseRate(lines []model.OrderLine) float64 {
	orders := make(map[string]map[string]struct{})
	for _, l := range lines {
		set := orders[l.CustomerID]
		if set == nil {
			set = make(map[string]struct{})
			orders[l.CustomerID] = set
		}
		set[l.OrderID] = struct{}{}
	}
	if len(orders) == 0 {
		return 0
	}
	repeat := 0
	for _, set := range orders {
		if len(set) > 1 {
			repeat++
		}
	}
	return float64(repeat) / float64(len(orders))
}

// MonthlyAOVPoint is the average order value for one calendar month.
type MonthlyAOVPoint struct {
	Month time.Time `json:"month"`
	AOV   float64   `json:"aov"`
}

// MonthlyAOV computes per-order totals bucketed by the calendar month of
// the order's lines, then averages those totals within each month. The
// double aggregation (sum within order, then mean across orders) is the
// metric's definition; averaging raw line amounts would understate it.
func MonthlyAOV(lines []model.OrderLine) []MonthlyAOVPoint {
	type orderMonth struct {
		orderID string
		month   time.Time
	}
	totals := make(map[orderMonth]float64)
	for _, l := range lines {
		if l.OrderDate == nil {
			continue
		}
		key := orderMonth{orderID: l.OrderID, month: model.Month(*l.OrderDate)}
		totals[key] += l.TotalPrice
	}

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for key, total := range totals {
		sums[key.month] += total
		counts[key.month]++
	}

	out := make([]MonthlyAOVPoint, 0, len(sums))
	for month, sum := range sums {
		out = append(out, MonthlyAOVPoint{Month: month, AOV: sum / float64(counts[month])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// DeliveryTimes returns the whole-day delivery spans for lines carrying
// both dates. Null dates and negative spans are dropped from the sample
// without being treated as errors.
func DeliveryTimes(lines []model.OrderLine) []int {
	out := []int{}
	for _, l := range lines {
		if l.OrderDate == nil || l.DeliveryDate == nil {
			continue
		}
		days := int(l.DeliveryDate.Sub(*l.OrderDate).Hours() / 24)
		if days < 0 {
			continue
		}
		out = append(out, days)
	}
	return out
}

// MedianDays returns the median of a delivery-time sample, 0 when empty.
func MedianDays(sample []int) float64 {
	if len(sample) == 0 {
		return 0
	}
	sorted := make([]int, len(sample))
	copy(sorted, sample)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
