package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countingLoader(data map[string]int, fail *atomic.Bool) (Loader[string, int], *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) (map[string]int, error) {
		calls.Add(1)
		if fail != nil && fail.Load() {
			return nil, errors.New("storage unavailable")
		}
		snapshot := make(map[string]int, len(data))
		for k, v := range data {
			snapshot[k] = v
		}
		return snapshot, nil
	}, &calls
}

func TestSnapshotCache_FirstReadLoads(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader)

	v, ok := c.Get(context.Background(), "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSnapshotCache_ReadsDoNotReload(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, _ = c.Get(ctx, "a")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSnapshotCache_InvalidateTriggersReload(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader)

	ctx := context.Background()
	_, _ = c.Get(ctx, "a")
	c.Invalidate()
	_, _ = c.Get(ctx, "a")

	assert.Equal(t, int32(2), calls.Load())
}

func TestSnapshotCache_InvalidateNeverBlocks(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader)

	// Invalidation before any read defers the load to the next read.
	c.Invalidate()
	c.Invalidate()
	assert.Equal(t, int32(0), calls.Load())
}

func TestSnapshotCache_StaleSnapshotSurvivesLoaderFailure(t *testing.T) {
	var fail atomic.Bool
	loader, _ := countingLoader(map[string]int{"a": 1}, &fail)
	c := NewSnapshotCache("test", loader, WithLogger[string, int](zap.NewNop()))

	ctx := context.Background()
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	fail.Store(true)
	c.Invalidate()

	// The failed refresh serves the stale snapshot; nothing partial.
	v, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// The cache stays dirty: once the loader recovers, the next read heals.
	fail.Store(false)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
}

func TestSnapshotCache_RefreshReturnsLoaderError(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	loader, _ := countingLoader(nil, &fail)
	c := NewSnapshotCache("test", loader)

	err := c.Refresh(context.Background())
	assert.Error(t, err)
}

func TestSnapshotCache_TTLExpiryReloads(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader, WithTTL[string, int](time.Nanosecond))

	ctx := context.Background()
	_, _ = c.Get(ctx, "a")
	time.Sleep(time.Millisecond)
	_, _ = c.Get(ctx, "a")

	assert.Equal(t, int32(2), calls.Load())
}

func TestSnapshotCache_ZeroTTLNeverExpires(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader, WithTTL[string, int](0))

	ctx := context.Background()
	_, _ = c.Get(ctx, "a")
	time.Sleep(time.Millisecond)
	_, _ = c.Get(ctx, "a")

	assert.Equal(t, int32(1), calls.Load())
}

func TestSnapshotCache_PeekNeverRefreshes(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader)

	snap := c.Peek()
	assert.Empty(t, snap)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSnapshotCache_SnapshotIsImmutablePublication(t *testing.T) {
	loader, _ := countingLoader(map[string]int{"a": 1, "b": 2}, nil)
	c := NewSnapshotCache("test", loader)

	ctx := context.Background()
	before := c.Snapshot(ctx)
	c.Invalidate()
	after := c.Snapshot(ctx)

	// A refresh publishes a new map; the previously handed-out snapshot
	// is untouched.
	assert.Len(t, before, 2)
	assert.Len(t, after, 2)
	assert.NotSame(t, &before, &after)
}

func TestSnapshotCache_ConcurrentReadersSeeOneGeneration(t *testing.T) {
	var generation atomic.Int32
	loader := func(ctx context.Context) (map[string]int, error) {
		g := int(generation.Add(1))
		return map[string]int{"a": g, "b": g}, nil
	}
	c := NewSnapshotCache("test", loader)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := c.Snapshot(ctx)
				// Both entries always come from the same generation: the
				// snapshot is swapped wholesale, never patched.
				assert.Equal(t, snap["a"], snap["b"])
				if j%10 == 0 {
					c.Invalidate()
				}
			}
		}()
	}
	wg.Wait()
}

func TestSnapshotCache_ConcurrentInvalidateCoalesces(t *testing.T) {
	loader, calls := countingLoader(map[string]int{"a": 1}, nil)
	c := NewSnapshotCache("test", loader)

	ctx := context.Background()
	_, _ = c.Get(ctx, "a")

	c.Invalidate()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, "a")
		}()
	}
	wg.Wait()

	// One dirty flag, at most one refresh regardless of reader count.
	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestSnapshotCache_Len(t *testing.T) {
	loader, _ := countingLoader(map[string]int{"a": 1, "b": 2, "c": 3}, nil)
	c := NewSnapshotCache("test", loader)

	assert.Equal(t, 0, c.Len())
	_, _ = c.Get(context.Background(), "a")
	assert.Equal(t, 3, c.Len())
}
