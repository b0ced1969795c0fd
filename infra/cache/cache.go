// Package cache provides a TTL read cache in front of a roster repository.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/kilianp07/skyops/core/logger"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

// DefaultTTL matches the refresh interval of the sheet-backed roster.
const DefaultTTL = 60 * time.Second

const (
	keyPilots   = "pilots"
	keyDrones   = "drones"
	keyMissions = "missions"
)

// Repository caches list reads of the wrapped repository for a fixed TTL.
// Writes go straight through and drop the cache once they succeed.
// Concurrent misses for the same list share one backend read.
type Repository struct {
	inner roster.Repository
	lru   *expirable.LRU[string, any]
	group singleflight.Group
	gen   atomic.Uint64
	log   logger.Logger
}

var _ roster.Repository = (*Repository)(nil)

// New wraps inner. A non-positive ttl uses DefaultTTL.
func New(inner roster.Repository, ttl time.Duration, log logger.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{
		inner: inner,
		lru:   expirable.NewLRU[string, any](8, nil, ttl),
		log:   logger.OrNop(log),
	}
}

func (r *Repository) ListPilots(ctx context.Context) ([]model.Pilot, error) {
	v, err := r.load(ctx, keyPilots, func(ctx context.Context) (any, error) { return r.inner.ListPilots(ctx) })
	if err != nil {
		return nil, err
	}
	return append([]model.Pilot(nil), v.([]model.Pilot)...), nil
}

func (r *Repository) ListDrones(ctx context.Context) ([]model.Drone, error) {
	v, err := r.load(ctx, keyDrones, func(ctx context.Context) (any, error) { return r.inner.ListDrones(ctx) })
	if err != nil {
		return nil, err
	}
	return append([]model.Drone(nil), v.([]model.Drone)...), nil
}

func (r *Repository) ListMissions(ctx context.Context) ([]model.Mission, error) {
	v, err := r.load(ctx, keyMissions, func(ctx context.Context) (any, error) { return r.inner.ListMissions(ctx) })
	if err != nil {
		return nil, err
	}
	return append([]model.Mission(nil), v.([]model.Mission)...), nil
}

func (r *Repository) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := r.lru.Get(key); ok {
		cacheHits.WithLabelValues(key).Inc()
		return v, nil
	}
	cacheMisses.WithLabelValues(key).Inc()
	gen := r.gen.Load()
	v, err, shared := r.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		// A load that raced with an invalidation must not repopulate the cache.
		if r.gen.Load() == gen {
			r.lru.Add(key, v)
		}
		return v, nil
	})
	if shared {
		r.log.Debugw("roster read shared", map[string]any{"key": key})
	}
	return v, err
}

// FindRow is never cached: it feeds writes and must see the current version.
func (r *Repository) FindRow(ctx context.Context, kind model.Kind, id string) (roster.Row, error) {
	return r.inner.FindRow(ctx, kind, id)
}

func (r *Repository) WriteField(ctx context.Context, kind model.Kind, id, field, value string) error {
	if err := r.inner.WriteField(ctx, kind, id, field, value); err != nil {
		return err
	}
	r.InvalidateCache()
	return nil
}

func (r *Repository) WriteAssignment(ctx context.Context, kind model.Kind, id string, a model.Assignment, expectedVersion int64) (int64, error) {
	v, err := r.inner.WriteAssignment(ctx, kind, id, a, expectedVersion)
	if err != nil {
		return v, err
	}
	r.InvalidateCache()
	return v, nil
}

// InvalidateCache drops every cached list and forwards to the wrapped
// repository.
func (r *Repository) InvalidateCache() {
	r.gen.Add(1)
	r.lru.Purge()
	cacheInvalidations.Inc()
	r.inner.InvalidateCache()
}

// Len reports how many lists are currently cached.
func (r *Repository) Len() int { return r.lru.Len() }
