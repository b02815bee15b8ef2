package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shanusaras/trendtracker-analytics/internal/filter"
)

const dateParamLayout = "2006-01-02"

// parseFilter builds a filter.Config from query parameters:
//
//	start, end          — YYYY-MM-DD, end inclusive of the whole day
//	states, genders,
//	age_groups          — comma-separated or repeated
//	product             — case-insensitive substring
//	min_order_total     — numeric threshold at order granularity
func parseFilter(c *gin.Context) (filter.Config, error) {
	var cfg filter.Config

	if v := c.Query("start"); v != "" {
		t, err := time.Parse(dateParamLayout, v)
		if err != nil {
			return cfg, fmt.Errorf("invalid start date %q", v)
		}
		cfg.Start = t.UTC()
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(dateParamLayout, v)
		if err != nil {
			return cfg, fmt.Errorf("invalid end date %q", v)
		}
		cfg.End = t.UTC()
	}

	cfg.States = multiValue(c, "states")
	cfg.Genders = multiValue(c, "genders")
	cfg.AgeGroups = multiValue(c, "age_groups")
	cfg.ProductContains = c.Query("product")

	if v := c.Query("min_order_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return cfg, fmt.Errorf("invalid min_order_total %q", v)
		}
		cfg.MinOrderTotal = f
	}

	return cfg, nil
}

// multiValue reads a repeated query parameter, also splitting each
// occurrence on commas.
func multiValue(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// limitParam reads a positive integer limit, falling back to def.
func limitParam(c *gin.Context, def int) int {
	v := c.Query("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
