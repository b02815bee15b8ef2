package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shanusaras/trendtracker-analytics/internal/dataset"
	"github.com/shanusaras/trendtracker-analytics/internal/logging"
	"github.com/shanusaras/trendtracker-analytics/internal/metrics"
	"github.com/shanusaras/trendtracker-analytics/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := logging.Component("main")
		metrics.Init("trendtracker")

		src, err := dataset.NewSource(cfg.Dataset)
		if err != nil {
			return fmt.Errorf("create dataset source: %w", err)
		}
		cache := dataset.NewCache(src, cfg.Dataset.TTL)
		defer cache.Close()

		// Warm the cache so the first request doesn't pay for the load.
		if _, err := cache.Snapshot(cmd.Context()); err != nil {
			log.Warn("initial dataset load failed, will retry on demand", "error", err)
		}

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: server.New(cache).Engine(),
		}

		// Graceful shutdown handler
		errCh := make(chan error, 1)
		go func() {
			log.Info("serving analytics API", "addr", cfg.Server.Addr)
			errCh <- srv.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("received signal, shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info("server stopped cleanly")
			return nil
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		}
	},
}
