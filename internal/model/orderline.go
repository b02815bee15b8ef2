// Package model defines the canonical order-line record that every
// downstream transform operates on.
package model

import (
	"time"
)

// OrderLine is one row of the source table. Several lines share an
// order_id; one order belongs to one customer. String fields use "" and
// date fields use nil to represent a missing value.
type OrderLine struct {
	OrderID      string     `json:"order_id"`
	CustomerID   string     `json:"customer_id"`
	ProductName  string     `json:"product_name"`
	Quantity     int        `json:"quantity"`
	TotalPrice   float64    `json:"total_price"`
	OrderDate    *time.Time `json:"order_date"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Gender       string     `json:"gender"`
	AgeGroup     string     `json:"age_group"`
	State        string     `json:"state"`
}

// HasOrderDate reports whether the line carries a parseable order date.
// Lines without one are excluded from every date-bucketed aggregation.
func (l OrderLine) HasOrderDate() bool {
	return l.OrderDate != nil
}

// Day returns the order date truncated to its calendar day (UTC).
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Month returns the order date truncated to the first day of its
// calendar month (UTC).
func Month(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthIndex maps a timestamp to a monotonically increasing month number
// so that period arithmetic is a plain subtraction.
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
