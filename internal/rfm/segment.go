// Package rfm quintile-scores the RFM base table and derives the
// three-digit segment code per customer plus the per-segment rollups.
package rfm

import (
	"fmt"
	"sort"

	"github.com/shanusaras/trendtracker-analytics/internal/analytics"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// fallbackScore is assigned to every customer on an axis whose value
// distribution cannot be split into 5 buckets.
const fallbackScore = 3

// ScoredCustomer is an RFM base row with its quintile scores and
// composite segment code. The code is a label ("111".."555"), never a
// number to be summed or averaged.
type ScoredCustomer struct {
	analytics.RFMRecord
	RecencyScore   int    `json:"recency_score"`
	FrequencyScore int    `json:"frequency_score"`
	MonetaryScore  int    `json:"monetary_score"`
	Segment        string `json:"segment"`
}

// Score assigns quintile scores along the three axes.
//
// Recency and monetary are bucketed by value, so equal values always
// land in the same bucket (the bucket of the value's first occupied
// rank). Frequency is bucketed purely by rank with first-seen
// tie-breaking, mirroring the rank-then-cut the dashboard uses to keep
// heavily tied counts spreadable across quintiles. Recency buckets are
// inverted so the most recent customers score 5.
func Score(table []analytics.RFMRecord) []ScoredCustomer {
	n := len(table)
	out := make([]ScoredCustomer, n)

	recency := make([]float64, n)
	frequency := make([]float64, n)
	monetary := make([]float64, n)
	for i, rec := range table {
		out[i].RFMRecord = rec
		recency[i] = float64(rec.Recency)
		frequency[i] = float64(rec.Frequency)
		monetary[i] = float64(rec.Monetary)
	}

	rBuckets, rOK := valueQuintiles(recency)
	fBuckets, fOK := rankQuintiles(frequency)
	mBuckets, mOK := valueQuintiles(monetary)

	for i := range out {
		out[i].RecencyScore = fallbackScore
		out[i].FrequencyScore = fallbackScore
		out[i].MonetaryScore = fallbackScore
		if rOK {
			out[i].RecencyScore = 5 - rBuckets[i]
		}
		if fOK {
			out[i].FrequencyScore = fBuckets[i] + 1
		}
		if mOK {
			out[i].MonetaryScore = mBuckets[i] + 1
		}
		out[i].Segment = fmt.Sprintf("%d%d%d",
			out[i].RecencyScore, out[i].FrequencyScore, out[i].MonetaryScore)
	}
	return out
}

// valueQuintiles buckets values ascending into 5 equal-population
// buckets (0..4). Equal values share the bucket of their first occupied
// rank. Returns ok=false when fewer than 5 distinct values exist.
func valueQuintiles(values []float64) ([]int, bool) {
	n := len(values)
	if distinctCount(values) < 5 {
		return nil, false
	}

	order := sortedIndices(values)
	buckets := make([]int, n)
	firstBucket := make(map[float64]int)
	for pos, idx := range order {
		b := pos * 5 / n
		v := values[idx]
		if fb, ok := firstBucket[v]; ok {
			b = fb
		} else {
			firstBucket[v] = b
		}
		buckets[idx] = b
	}
	return buckets, true
}

// rankQuintiles buckets values by rank with first-seen tie-breaking:
// equal values get strictly increasing ranks in input order, so ties
// may split across adjacent buckets. Returns ok=false when there are
// fewer than 5 customers to spread over the buckets.
func rankQuintiles(values []float64) ([]int, bool) {
	n := len(values)
	if n < 5 {
		return nil, false
	}

	order := sortedIndices(values)
	buckets := make([]int, n)
	for pos, idx := range order {
		buckets[idx] = pos * 5 / n
	}
	return buckets, true
}

// sortedIndices returns the input indices sorted ascending by value,
// stable so ties keep their original encounter order.
func sortedIndices(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	return order
}

func distinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// SegmentCount is the customer count for one segment code.
type SegmentCount struct {
	Segment   string `json:"segment"`
	Customers int    `json:"customers"`
}

// CountRollup counts customers per segment code, descending by count
// with ties broken by code. The counts sum to the number of scored
// customers.
func CountRollup(scored []ScoredCustomer) []SegmentCount {
	counts := make(map[string]int)
	for _, c := range scored {
		counts[c.Segment]++
	}

	out := make([]SegmentCount, 0, len(counts))
	for segment, n := range counts {
		out = append(out, SegmentCount{Segment: segment, Customers: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// SegmentRevenue is the summed customer revenue for one segment code.
type SegmentRevenue struct {
	Segment string  `json:"segment"`
	Revenue float64 `json:"revenue"`
}

// RevenueRollup joins each customer's total revenue over the filtered
// lines onto their segment code and sums per segment, descending by
// revenue with ties broken by code. The rollup sums to the total
// revenue of the filtered set.
func RevenueRollup(scored []ScoredCustomer, lines []model.OrderLine) []SegmentRevenue {
	customerRevenue := make(map[string]float64)
	for _, l := range lines {
		customerRevenue[l.CustomerID] += l.TotalPrice
	}

	revenues := make(map[string]float64)
	for _, c := range scored {
		revenues[c.Segment] += customerRevenue[c.CustomerID]
	}

	out := make([]SegmentRevenue, 0, len(revenues))
	for segment, revenue := range revenues {
		out = append(out, SegmentRevenue{Segment: segment, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}
