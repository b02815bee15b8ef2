// Package server exposes the derived analytics tables over a read-only
// JSON API. Chart rendering, currency formatting and file downloads
// stay with the dashboard frontend; the API only ships tables.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shanusaras/trendtracker-analytics/internal/dataset"
	"github.com/shanusaras/trendtracker-analytics/internal/logging"
	"github.com/shanusaras/trendtracker-analytics/internal/metrics"
)

// Server wires the dataset cache into the HTTP API.
type Server struct {
	engine *gin.Engine
	cache  *dataset.Cache
	m      *metrics.Metrics
	log    *slog.Logger
}

// New creates the API server around a dataset cache.
func New(cache *dataset.Cache) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		cache:  cache,
		m:      metrics.Default(),
		log:    logging.Component("server"),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/v1")
	api.GET("/summary", s.instrument("summary", s.handleSummary))
	api.GET("/orders/daily", s.instrument("daily_orders", s.handleDailyOrders))
	api.GET("/products/top", s.instrument("product_ranking", s.handleTopProducts))
	api.GET("/customers/by-gender", s.instrument("by_gender", s.handleByGender))
	api.GET("/customers/by-age", s.instrument("by_age", s.handleByAge))
	api.GET("/customers/by-state", s.instrument("by_state", s.handleByState))
	api.GET("/customers/top", s.instrument("top_customers", s.handleTopCustomers))
	api.GET("/rfm", s.instrument("rfm", s.handleRFM))
	api.GET("/rfm/segments", s.instrument("segments", s.handleSegments))
	api.GET("/cohorts/retention", s.instrument("cohort_retention", s.handleCohortRetention))
	api.GET("/aov/monthly", s.instrument("monthly_aov", s.handleMonthlyAOV))
	api.GET("/delivery-times", s.instrument("delivery_times", s.handleDeliveryTimes))
	api.GET("/insights/states", s.instrument("state_revenue", s.handleStateRevenue))
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("serving analytics API", "addr", addr)
	return s.engine.Run(addr)
}

// instrument records the query duration per derived table.
func (s *Server) instrument(table string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		h(c)
		s.m.QueryDuration.WithLabelValues(table).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
