package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shanusaras/trendtracker-analytics/internal/logging"
	"github.com/shanusaras/trendtracker-analytics/internal/metrics"
	"github.com/shanusaras/trendtracker-analytics/internal/model"
)

// Snapshot is an immutable view of the loaded dataset. Callers must not
// modify Records; transforms copy instead of mutating, so two requests
// may safely hold snapshots from before and after a refresh.
type Snapshot struct {
	Records  []model.OrderLine
	LoadedAt time.Time
}

// Cache is the expiring memo over the dataset source: it reloads at
// most once per TTL and otherwise hands out the current snapshot.
type Cache struct {
	src Source
	ttl time.Duration
	m   *metrics.Metrics
	log *slog.Logger
	now func() time.Time

	mu   sync.Mutex
	snap *Snapshot
}

// NewCache creates a snapshot cache over src.
func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{
		src: src,
		ttl: ttl,
		m:   metrics.Default(),
		log: logging.Component("dataset"),
		now: time.Now,
	}
}

// Snapshot returns the current snapshot, refreshing from the source
// when the cached one has expired. If a refresh fails and an earlier
// snapshot exists, the stale snapshot is served and the error is only
// logged; with no snapshot at all the error is returned.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil {
		age := c.now().Sub(c.snap.LoadedAt)
		c.m.DatasetAgeSeconds.Set(age.Seconds())
		if age < c.ttl {
			return c.snap, nil
		}
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		c.m.DatasetRefreshErrors.Inc()
		if c.snap != nil {
			c.log.Warn("refresh failed, serving stale snapshot",
				"error", err,
				"age", c.now().Sub(c.snap.LoadedAt).String(),
			)
			return c.snap, nil
		}
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	c.snap = snap
	return snap, nil
}

func (c *Cache) refresh(ctx context.Context) (*Snapshot, error) {
	start := c.now()
	records, err := c.src.Load(ctx)
	if err != nil {
		return nil, err
	}

	elapsed := c.now().Sub(start)
	c.m.DatasetRefreshes.Inc()
	c.m.DatasetRefreshSeconds.Observe(elapsed.Seconds())
	c.m.DatasetRows.Set(float64(len(records)))
	c.log.Info("dataset refreshed",
		"source", c.src.Location(),
		"rows", len(records),
		"duration", elapsed.String(),
	)

	return &Snapshot{Records: records, LoadedAt: c.now()}, nil
}

// Invalidate drops the cached snapshot so the next access reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Close releases the underlying source.
func (c *Cache) Close() error {
	return c.src.Close()
}
