package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shanusaras/trendtracker-analytics/internal/analytics"
	"github.com/shanusaras/trendtracker-analytics/internal/catalog"
	"github.com/shanusaras/trendtracker-analytics/internal/cohort"
	"github.com/shanusaras/trendtracker-analytics/internal/dataset"
	"github.com/shanusaras/trendtracker-analytics/internal/export"
	"github.com/shanusaras/trendtracker-analytics/internal/filter"
	"github.com/shanusaras/trendtracker-analytics/internal/metrics"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
	"github.com/shanusaras/trendtracker-analytics/internal/rfm"
)

var (
	reportType    string
	reportFormat  string
	reportStart   string
	reportEnd     string
	reportStates  []string
	reportGenders []string
	reportAges    []string
	reportProduct string
	reportMinTot  float64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a report file (dataset, rfm, cohort, segments, daily, summary)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metrics.Init("trendtracker")

		fcfg, err := reportFilter()
		if err != nil {
			return err
		}

		src, err := dataset.NewSource(cfg.Dataset)
		if err != nil {
			return fmt.Errorf("create dataset source: %w", err)
		}
		cache := dataset.NewCache(src, cfg.Dataset.TTL)
		defer cache.Close()

		snap, err := cache.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		lines := filter.Apply(snap.Records, fcfg)

		store, err := export.NewReportStore(cfg.Export)
		if err != nil {
			return fmt.Errorf("create report store: %w", err)
		}
		defer store.Close()

		rec := catalog.NewRecorder(cfg.Catalog)
		defer rec.Close()

		exp := export.New(store, rec, src.Location())

		start := time.Now()
		res, err := runReport(cmd.Context(), exp, lines)
		if err != nil {
			color.Red("report failed: %v", err)
			return err
		}

		color.Green("exported %s report: %s", reportType, res.URI)
		fmt.Printf("  rows: %d  bytes: %d  checksum: %s  took: %s\n",
			res.Rows, res.Bytes, res.Checksum, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportType, "report", "dataset", "report type: dataset | rfm | cohort | segments | daily | summary")
	reportCmd.Flags().StringVar(&reportFormat, "format", "csv", "dataset format: csv | parquet | xlsx")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "end date (YYYY-MM-DD), inclusive")
	reportCmd.Flags().StringSliceVar(&reportStates, "states", nil, "restrict to these states")
	reportCmd.Flags().StringSliceVar(&reportGenders, "genders", nil, "restrict to these genders")
	reportCmd.Flags().StringSliceVar(&reportAges, "age-groups", nil, "restrict to these age groups")
	reportCmd.Flags().StringVar(&reportProduct, "product", "", "product name contains (case-insensitive)")
	reportCmd.Flags().Float64Var(&reportMinTot, "min-order-total", 0, "minimum order total")
}

func reportFilter() (filter.Config, error) {
	cfg := filter.Config{
		States:          reportStates,
		Genders:         reportGenders,
		AgeGroups:       reportAges,
		ProductContains: reportProduct,
		MinOrderTotal:   reportMinTot,
	}
	if reportStart != "" {
		t, err := time.Parse("2006-01-02", reportStart)
		if err != nil {
			return cfg, fmt.Errorf("invalid --start: %w", err)
		}
		cfg.Start = t.UTC()
	}
	if reportEnd != "" {
		t, err := time.Parse("2006-01-02", reportEnd)
		if err != nil {
			return cfg, fmt.Errorf("invalid --end: %w", err)
		}
		cfg.End = t.UTC()
	}
	return cfg, nil
}

func runReport(ctx context.Context, exp *export.Exporter, lines []model.OrderLine) (*export.Result, error) {
	switch reportType {
	case "dataset":
		return exp.ExportDataset(ctx, lines, reportFormat)
	case "rfm":
		table := analytics.RFMTable(lines)
		return exp.ExportTable(ctx, "rfm", table, int64(len(table)))
	case "segments":
		scored := rfm.Score(analytics.RFMTable(lines))
		payload := map[string]interface{}{
			"by_count":   rfm.CountRollup(scored),
			"by_revenue": rfm.RevenueRollup(scored, lines),
		}
		return exp.ExportTable(ctx, "segments", payload, int64(len(scored)))
	case "cohort":
		matrix, err := cohort.Retention(lines)
		if err != nil {
			return nil, err
		}
		return exp.ExportTable(ctx, "cohort", matrix, int64(len(matrix.Cohorts)))
	case "daily":
		days := analytics.DailyOrders(lines)
		return exp.ExportTable(ctx, "daily", map[string]interface{}{"days": days}, int64(len(days)))
	case "summary":
		return exp.ExportTable(ctx, "summary", analytics.Summarize(lines), 1)
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}
