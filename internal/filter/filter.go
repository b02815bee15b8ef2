// Package filter narrows the full order-line table down to the rows a
// request asked for. Every predicate is optional and they combine with
// logical AND. Apply never mutates its input.
package filter

import (
	"strings"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// Config holds the recognized filter options. Zero values disable the
// corresponding predicate.
type Config struct {
	// Start and End bound order_date. End is inclusive of the entire
	// end day. A zero time disables the bound.
	Start time.Time
	End   time.Time

	// Empty slices place no restriction.
	States    []string
	Genders   []string
	AgeGroups []string

	// Case-insensitive substring match on product_name.
	ProductContains string

	// Orders whose summed total_price falls below this are dropped,
	// lines and all. Zero disables the predicate.
	MinOrderTotal float64
}

// HasDateRange reports whether either date bound is set.
func (c Config) HasDateRange() bool {
	return !c.Start.IsZero() || !c.End.IsZero()
}

// Apply returns the subset of lines satisfying every active predicate.
// The result is always a freshly allocated slice.
func Apply(lines []model.OrderLine, cfg Config) []model.OrderLine {
	out := make([]model.OrderLine, 0, len(lines))

	var endTS time.Time
	if !cfg.End.IsZero() {
		// Include the whole end day regardless of the time component
		// the caller passed.
		endTS = model.Day(cfg.End).Add(24*time.Hour - time.Second)
	}

	states := toSet(cfg.States)
	genders := toSet(cfg.Genders)
	ageGroups := toSet(cfg.AgeGroups)
	search := strings.ToLower(cfg.ProductContains)

	for _, l := range lines {
		if cfg.HasDateRange() {
			if l.OrderDate == nil {
				continue
			}
			if !cfg.Start.IsZero() && l.OrderDate.Before(cfg.Start) {
				continue
			}
			if !endTS.IsZero() && l.OrderDate.After(endTS) {
				continue
			}
		}
		if len(states) > 0 && !states[l.State] {
			continue
		}
		if len(genders) > 0 && !genders[l.Gender] {
			continue
		}
		if len(ageGroups) > 0 && !ageGroups[l.AgeGroup] {
			continue
		}
		if search != "" {
			if l.ProductName == "" || !strings.Contains(strings.ToLower(l.ProductName), search) {
				continue
			}
		}
		out = append(out, l)
	}

	if cfg.MinOrderTotal > 0 {
		out = applyMinOrderTotal(out, cfg.MinOrderTotal)
	}
	return out
}

// applyMinOrderTotal keeps only lines belonging to orders whose total,
// computed over the already-filtered rows, reaches the threshold.
func applyMinOrderTotal(lines []model.OrderLine, threshold float64) []model.OrderLine {
	totals := make(map[string]float64, len(lines))
	for _, l := range lines {
		totals[l.OrderID] += l.TotalPrice
	}

	out := lines[:0]
	for _, l := range lines {
		if totals[l.OrderID] >= threshold {
			out = append(out, l)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
