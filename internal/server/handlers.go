package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shanusaras/trendtracker-analytics/internal/analytics"
	"github.com/shanusaras/trendtracker-analytics/internal/cohort"
	"github.com/shanusaras/trendtracker-analytics/internal/filter"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
	"github.com/shanusaras/trendtracker-analytics/internal/rfm"
)

// filtered resolves the current snapshot and applies the request's
// filter configuration. A nil slice return means the response has
// already been written.
func (s *Server) filtered(c *gin.Context) ([]model.OrderLine, bool) {
	cfg, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	snap, err := s.cache.Snapshot(c.Request.Context())
	if err != nil {
		s.log.Error("snapshot unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset unavailable"})
		return nil, false
	}

	return filter.Apply(snap.Records, cfg), true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSummary(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.Summarize(lines))
}

func (s *Server) handleDailyOrders(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": analytics.DailyOrders(lines)})
}

func (s *Server) handleTopProducts(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	ranking := analytics.ProductRanking(lines)
	if limit := limitParam(c, 5); len(ranking) > limit {
		ranking = ranking[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"products": ranking})
}

func (s *Server) handleByGender(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": analytics.CustomersByGender(lines)})
}

func (s *Server) handleByAge(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": analytics.CustomersByAgeGroup(lines)})
}

func (s *Server) handleByState(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": analytics.CustomersByState(lines)})
}

func (s *Server) handleTopCustomers(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	table := analytics.RFMTable(lines)
	c.JSON(http.StatusOK, gin.H{
		"customers": analytics.TopCustomersByValue(table, limitParam(c, 10)),
	})
}

func (s *Server) handleRFM(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": analytics.RFMTable(lines)})
}

func (s *Server) handleSegments(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	scored := rfm.Score(analytics.RFMTable(lines))
	c.JSON(http.StatusOK, gin.H{
		"by_count":   rfm.CountRollup(scored),
		"by_revenue": rfm.RevenueRollup(scored, lines),
	})
}

func (s *Server) handleCohortRetention(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	matrix, err := cohort.Retention(lines)
	if err != nil {
		if errors.Is(err, cohort.ErrInsufficientData) {
			// The frontend decides how to present "not enough data";
			// the API just reports it.
			c.JSON(http.StatusOK, gin.H{"cohorts": []cohort.CohortRow{}, "periods": 0, "insufficient_data": true})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, matrix)
}

func (s *Server) handleMonthlyAOV(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": analytics.MonthlyAOV(lines)})
}

func (s *Server) handleDeliveryTimes(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	sample := analytics.DeliveryTimes(lines)
	c.JSON(http.StatusOK, gin.H{
		"days":        sample,
		"median_days": analytics.MedianDays(sample),
	})
}

func (s *Server) handleStateRevenue(c *gin.Context) {
	lines, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"states": analytics.TopStatesByRevenue(lines, limitParam(c, 3)),
	})
}
