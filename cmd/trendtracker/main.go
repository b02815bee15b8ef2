package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shanusaras/trendtracker-analytics/internal/config"
	"github.com/shanusaras/trendtracker-analytics/internal/export"
	"github.com/shanusaras/trendtracker-analytics/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "trendtracker",
	Short: "Analytics service for the TrendTracker retail dataset",
	Long: `trendtracker serves KPI, cohort and RFM analytics over the
TrendTracker order-line dataset and exports report files.

Examples:

  trendtracker serve
  trendtracker report --report rfm
  trendtracker report --report dataset --format parquet
`,
	SilenceUsage: true,
	Version:      fmt.Sprintf("%s (%s)", export.Version, export.GitSHA),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
}

// loadConfig reads .env, the YAML file and environment overrides, then
// initializes logging.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is the normal case.
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	logging.Setup(cfg.Logging)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
