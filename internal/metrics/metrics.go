// Package metrics provides Prometheus metrics for the analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	// Dataset metrics
	DatasetRefreshes      prometheus.Counter
	DatasetRefreshErrors  prometheus.Counter
	DatasetRows           prometheus.Gauge
	DatasetRefreshSeconds prometheus.Histogram
	DatasetAgeSeconds     prometheus.Gauge

	// Query metrics
	QueryDuration *prometheus.HistogramVec
	QueryRows     *prometheus.HistogramVec

	// Export metrics
	ReportsExported *prometheus.CounterVec
	ExportErrors    *prometheus.CounterVec
	ReportBytes     *prometheus.HistogramVec

	// Catalog metrics
	CatalogErrors prometheus.Counter
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trendtracker"
	}

	m := &Metrics{
		DatasetRefreshes: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_refreshes_total",
				Help:      "Total number of dataset refreshes from the source",
			},
		),
		DatasetRefreshErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_refresh_errors_total",
				Help:      "Total number of failed dataset refreshes",
			},
		),
		DatasetRows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Number of order lines in the current snapshot",
			},
		),
		DatasetRefreshSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_refresh_duration_seconds",
				Help:      "Time to load and decode the source dataset",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
		),
		DatasetAgeSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_age_seconds",
				Help:      "Age of the current snapshot at last access",
			},
		),
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Time to compute a derived table",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
			},
			[]string{"table"},
		),
		QueryRows: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_rows",
				Help:      "Filtered row count per query",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 10),
			},
			[]string{"table"},
		),
		ReportsExported: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_exported_total",
				Help:      "Total number of reports exported",
			},
			[]string{"report", "format"},
		),
		ExportErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "export_errors_total",
				Help:      "Total number of report export failures",
			},
			[]string{"report", "format"},
		),
		ReportBytes: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_bytes",
				Help:      "Size of exported report files in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 15), // 1KB to ~32MB
			},
			[]string{"report", "format"},
		),
		CatalogErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_errors_total",
				Help:      "Total number of report catalog errors",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Default returns the global metrics instance, initializing it with the
// default namespace on first use.
func Default() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}
