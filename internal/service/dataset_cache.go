package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/harshini-mantri/accident-prediction/internal/dataset"
	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
)

const featureTableKey = "feature-table"

// DatasetCache keeps the preprocessed feature table in memory for a TTL.
// Concurrent misses share a single reload and no lock is held while loading.
type DatasetCache struct {
	source  domain.DatasetSource
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics

	group singleflight.Group

	mu         sync.RWMutex
	table      *domain.FeatureTable
	loadedAt   time.Time
	generation uint64
}

// NewDatasetCache creates a cache in front of source
func NewDatasetCache(source domain.DatasetSource, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *DatasetCache {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &DatasetCache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		metrics: m,
	}
}

// FeatureTable returns the cached table, reloading it when missing or expired
func (c *DatasetCache) FeatureTable(ctx context.Context) (*domain.FeatureTable, error) {
	c.mu.RLock()
	table, loadedAt, gen := c.table, c.loadedAt, c.generation
	c.mu.RUnlock()

	if table != nil && (c.ttl <= 0 || c.now().Sub(loadedAt) < c.ttl) {
		return table, nil
	}

	// one caller cancelling must not fail the others sharing this load
	loadCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(featureTableKey, func() (any, error) {
		return c.reload(loadCtx, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.FeatureTable), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *DatasetCache) reload(ctx context.Context, gen uint64) (*domain.FeatureTable, error) {
	raw, err := c.source.Load(ctx)
	if err != nil {
		c.metrics.DatasetReloads.WithLabelValues(metrics.Result(err)).Inc()
		return nil, err
	}

	table, err := dataset.ToFeatureTable(raw)
	c.metrics.DatasetReloads.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	if !table.HasSeverity {
		c.log.Warn("dataset has no severity column, every incident is labelled positive",
			zap.String("source", c.source.Describe()))
	}
	c.log.Info("feature table loaded",
		zap.String("source", c.source.Describe()),
		zap.Int("rows", table.Len()))

	c.mu.Lock()
	if c.generation == gen {
		c.table = table
		c.loadedAt = c.now()
	}
	c.mu.Unlock()

	return table, nil
}

// Invalidate drops the cached table so the next read reloads it
func (c *DatasetCache) Invalidate() {
	c.mu.Lock()
	c.table = nil
	c.generation++
	c.mu.Unlock()

	c.group.Forget(featureTableKey)
}
