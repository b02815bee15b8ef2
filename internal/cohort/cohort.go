// Package cohort computes monthly acquisition cohorts and the
// period-indexed retention matrix behind the dashboard heatmap.
package cohort

import (
	"errors"
	"sort"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// ErrInsufficientData is returned when the filtered set is empty or
// collapses to a single cohort/period cell, where a retention matrix
// would be meaningless.
var ErrInsufficientData = errors.New("not enough data for cohort analysis")

// RetentionMatrix is the cohort retention result. Rows are cohort
// months in ascending order; each row carries one ratio per period,
// starting at period 0. Cells no customer ever reached are 0.
type RetentionMatrix struct {
	Cohorts []CohortRow `json:"cohorts"`
	Periods int         `json:"periods"`
}

// CohortRow is one acquisition cohort: the calendar month of first
// purchase, the cohort's initial size, and its retention ratios by
// period number.
type CohortRow struct {
	Month     time.Time `json:"cohort_month"`
	Size      int       `json:"size"`
	Retention []float64 `json:"retention"`
}

// Retention builds the retention matrix.
//
// Each line maps to its order month; each customer's cohort month is
// the month of their earliest order in the filtered set, so period
// numbers (order month index minus cohort month index) are never
// negative. Distinct customers are counted per (cohort, period) cell
// and each row is divided by its period-0 count.
func Retention(lines []model.OrderLine) (*RetentionMatrix, error) {
	firstOrder := make(map[string]time.Time)
	for _, l := range lines {
		if l.OrderDate == nil {
			continue
		}
		if prev, ok := firstOrder[l.CustomerID]; !ok || l.OrderDate.Before(prev) {
			firstOrder[l.CustomerID] = *l.OrderDate
		}
	}
	if len(firstOrder) == 0 {
		return nil, ErrInsufficientData
	}

	type cell struct {
		cohort time.Time
		period int
	}
	counts := make(map[cell]map[string]struct{})
	maxPeriod := 0
	for _, l := range lines {
		if l.OrderDate == nil {
			continue
		}
		cohortMonth := model.Month(firstOrder[l.CustomerID])
		period := model.MonthIndex(model.Month(*l.OrderDate)) - model.MonthIndex(cohortMonth)
		key := cell{cohort: cohortMonth, period: period}
		set := counts[key]
		if set == nil {
			set = make(map[string]struct{})
			counts[key] = set
		}
		set[l.CustomerID] = struct{}{}
		if period > maxPeriod {
			maxPeriod = period
		}
	}
	if len(counts) <= 1 {
		return nil, ErrInsufficientData
	}

	months := make([]time.Time, 0)
	seen := make(map[time.Time]bool)
	for key := range counts {
		if !seen[key.cohort] {
			seen[key.cohort] = true
			months = append(months, key.cohort)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	matrix := &RetentionMatrix{Periods: maxPeriod + 1}
	for _, month := range months {
		size := len(counts[cell{cohort: month, period: 0}])
		row := CohortRow{
			Month:     month,
			Size:      size,
			Retention: make([]float64, maxPeriod+1),
		}
		for period := 0; period <= maxPeriod; period++ {
			if size == 0 {
				break
			}
			row.Retention[period] = float64(len(counts[cell{cohort: month, period: period}])) / float64(size)
		}
		matrix.Cohorts = append(matrix.Cohorts, row)
	}
	return matrix, nil
}
