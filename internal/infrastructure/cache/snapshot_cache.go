package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Default TTL applied when no refresh interval is configured
const defaultRefreshTTL = time.Hour

// Loader builds a complete snapshot from the persistence collaborator in
// one pass
type Loader[K comparable, V any] func(ctx context.Context) (map[K]V, error)

// SnapshotCache is a refresh-on-demand container for derived values. It
// holds an immutable snapshot map that is rebuilt wholesale and atomically
// swapped on refresh; entries are never patched in place.
//
// Reads are lock-free: Get dereferences the current snapshot pointer
// without taking a lock, so a read arriving during an in-progress refresh
// observes the previous, still-valid snapshot. Only the refresh itself is
// serialized through a mutex. When the loader fails, the dirty flag stays
// set and the stale snapshot remains authoritative until the next
// successful refresh; a failed refresh is never partially applied.
type SnapshotCache[K comparable, V any] struct {
	name   string
	loader Loader[K, V]
	logger *zap.Logger
	ttl    time.Duration

	snapshot    atomic.Pointer[map[K]V]
	dirty       atomic.Bool
	refreshedAt atomic.Int64 // unix nanos of the last successful refresh
	mu          sync.Mutex   // serializes refresh, never held by readers
}

// SnapshotCacheOption is a functional option for configuring the cache
type SnapshotCacheOption[K comparable, V any] func(*SnapshotCache[K, V])

// WithTTL sets the refresh interval after which a read forces a rebuild
// even without an invalidation
func WithTTL[K comparable, V any](ttl time.Duration) SnapshotCacheOption[K, V] {
	return func(c *SnapshotCache[K, V]) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for the cache
func WithLogger[K comparable, V any](logger *zap.Logger) SnapshotCacheOption[K, V] {
	return func(c *SnapshotCache[K, V]) {
		c.logger = logger
	}
}

// NewSnapshotCache creates a refresh-on-demand cache around the given
// loader. The cache starts dirty: the first read triggers the initial load.
func NewSnapshotCache[K comparable, V any](name string, loader Loader[K, V], opts ...SnapshotCacheOption[K, V]) *SnapshotCache[K, V] {
	c := &SnapshotCache[K, V]{
		name:   name,
		loader: loader,
		logger: zap.NewNop(),
		ttl:    defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	empty := make(map[K]V)
	c.snapshot.Store(&empty)
	c.dirty.Store(true)
	return c
}

// Get returns the derived value for the id from the current snapshot,
// refreshing first when the cache is dirty or its TTL elapsed
func (c *SnapshotCache[K, V]) Get(ctx context.Context, id K) (V, bool) {
	c.refreshIfNeeded(ctx)
	snap := *c.snapshot.Load()
	v, ok := snap[id]
	return v, ok
}

// Snapshot returns the current whole snapshot after a refresh check. The
// returned map is shared and must not be mutated; it is how one cache's
// refresh hands already-computed data to another without a live cross-cache
// call.
func (c *SnapshotCache[K, V]) Snapshot(ctx context.Context) map[K]V {
	c.refreshIfNeeded(ctx)
	return *c.snapshot.Load()
}

// Peek returns the current snapshot without any refresh check. Used by
// cross-cache consumers that tolerate staleness of at most one refresh
// cycle.
func (c *SnapshotCache[K, V]) Peek() map[K]V {
	return *c.snapshot.Load()
}

// Invalidate marks the snapshot dirty. It never blocks: the rebuild is
// deferred to the next read.
func (c *SnapshotCache[K, V]) Invalidate() {
	c.dirty.Store(true)
}

// Len returns the number of entries in the current snapshot
func (c *SnapshotCache[K, V]) Len() int {
	return len(*c.snapshot.Load())
}

// refreshIfNeeded rebuilds the snapshot when dirty or expired. Loader
// errors are logged and swallowed here: callers keep reading the stale
// snapshot, which stays authoritative until a refresh succeeds.
func (c *SnapshotCache[K, V]) refreshIfNeeded(ctx context.Context) {
	if !c.needsRefresh() {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Error("cache refresh failed, serving stale snapshot",
			zap.String("cache", c.name),
			zap.Error(err))
	}
}

// needsRefresh reports whether the dirty flag is set or the TTL elapsed
func (c *SnapshotCache[K, V]) needsRefresh() bool {
	if c.dirty.Load() {
		return true
	}
	if c.ttl <= 0 {
		return false
	}
	last := time.Unix(0, c.refreshedAt.Load())
	return time.Since(last) >= c.ttl
}

// Refresh rebuilds the snapshot under mutual exclusion and publishes it
// atomically. Concurrent callers that lose the race return without loading
// again. On loader failure the dirty flag stays set and the previous
// snapshot remains in service.
func (c *SnapshotCache[K, V]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if !c.needsRefresh() {
		return nil
	}

	started := time.Now()
	snap, err := c.loader(ctx)
	if err != nil {
		return err
	}

	c.snapshot.Store(&snap)
	c.refreshedAt.Store(time.Now().UnixNano())
	c.dirty.Store(false)

	c.logger.Debug("cache snapshot refreshed",
		zap.String("cache", c.name),
		zap.Int("entries", len(snap)),
		zap.Duration("took", time.Since(started)))
	return nil
}
