// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shanusaras/trendtracker-analytics/internal/logging"
)

// Config is the root service configuration.
type Config struct {
	Dataset DatasetConfig  `yaml:"dataset"`
	Server  ServerConfig   `yaml:"server"`
	Export  ExportConfig   `yaml:"export"`
	Catalog CatalogConfig  `yaml:"catalog"`
	Logging logging.Config `yaml:"logging"`
}

// DatasetConfig describes where the order-line CSV lives and how long a
// loaded snapshot stays fresh.
type DatasetConfig struct {
	Mode   string        `yaml:"mode"`   // "local" | "http" | "bucket"
	Path   string        `yaml:"path"`   // local CSV path
	URL    string        `yaml:"url"`    // http(s) CSV URL
	Bucket string        `yaml:"bucket"` // gs://name | s3://name | file:///dir
	Key    string        `yaml:"key"`    // object key within the bucket
	TTL    time.Duration `yaml:"ttl"`    // snapshot time-to-live
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ExportConfig configures where exported reports are written.
type ExportConfig struct {
	Backend  string `yaml:"backend"` // "local" | "gcs" | "s3"
	LocalDir string `yaml:"local_dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
}

// CatalogConfig configures the optional Postgres report catalog.
// An empty DSN disables the catalog.
type CatalogConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	Namespace   string `yaml:"namespace"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			Mode: "http",
			URL:  "https://raw.githubusercontent.com/shanusaras/TrendTracker-Fashion_Sales_and_Customers/main/dashboard/all_data.csv",
			TTL:  time.Hour,
		},
		Server: ServerConfig{Addr: ":8080"},
		Export: ExportConfig{
			Backend:  "local",
			LocalDir: "./reports",
			Prefix:   "reports/",
		},
		Catalog: CatalogConfig{Namespace: "trendtracker"},
		Logging: logging.Config{Format: "text", Level: "info"},
	}
}

// Load reads the YAML file at path (if non-empty), then applies
// environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Dataset.Mode = getenvDefault("DATASET_MODE", cfg.Dataset.Mode)
	cfg.Dataset.Path = getenvDefault("DATASET_PATH", cfg.Dataset.Path)
	cfg.Dataset.URL = getenvDefault("DATASET_URL", cfg.Dataset.URL)
	cfg.Dataset.Bucket = getenvDefault("DATASET_BUCKET", cfg.Dataset.Bucket)
	cfg.Dataset.Key = getenvDefault("DATASET_KEY", cfg.Dataset.Key)
	if v := os.Getenv("DATASET_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dataset.TTL = d
		}
	}

	cfg.Server.Addr = getenvDefault("SERVER_ADDR", cfg.Server.Addr)

	cfg.Export.Backend = getenvDefault("EXPORT_BACKEND", cfg.Export.Backend)
	cfg.Export.LocalDir = getenvDefault("EXPORT_LOCAL_DIR", cfg.Export.LocalDir)
	cfg.Export.Bucket = getenvDefault("EXPORT_BUCKET", cfg.Export.Bucket)
	cfg.Export.Prefix = getenvDefault("EXPORT_PREFIX", cfg.Export.Prefix)

	cfg.Catalog.PostgresDSN = getenvDefault("CATALOG_DSN", cfg.Catalog.PostgresDSN)
	cfg.Catalog.Namespace = getenvDefault("CATALOG_NAMESPACE", cfg.Catalog.Namespace)

	cfg.Logging.Format = getenvDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getenvDefault("LOG_LEVEL", cfg.Logging.Level)
}

func (c Config) validate() error {
	switch c.Dataset.Mode {
	case "local":
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path required for local mode")
		}
	case "http":
		if c.Dataset.URL == "" {
			return fmt.Errorf("dataset.url required for http mode")
		}
	case "bucket":
		if c.Dataset.Bucket == "" || c.Dataset.Key == "" {
			return fmt.Errorf("dataset.bucket and dataset.key required for bucket mode")
		}
	default:
		return fmt.Errorf("unknown dataset mode: %s", c.Dataset.Mode)
	}
	if c.Dataset.TTL <= 0 {
		return fmt.Errorf("dataset.ttl must be positive")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
