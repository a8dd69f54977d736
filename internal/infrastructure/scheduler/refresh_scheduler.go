package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrSchedulerNotRunning is returned when interacting with a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerRunning is returned when adding targets after start
	ErrSchedulerRunning = errors.New("scheduler is already running")
)

// RefreshTarget is anything whose contents can be recomputed on a schedule.
// The snapshot caches satisfy it.
type RefreshTarget interface {
	Refresh(ctx context.Context) error
}

// target binds a named cache to its refresh interval
type target struct {
	name     string
	interval time.Duration
	cache    RefreshTarget
}

// RefreshSchedulerConfig holds refresh scheduler configuration
type RefreshSchedulerConfig struct {
	Enabled        bool
	RefreshTimeout time.Duration
}

// DefaultRefreshSchedulerConfig returns default refresh scheduler configuration
func DefaultRefreshSchedulerConfig() RefreshSchedulerConfig {
	return RefreshSchedulerConfig{
		Enabled:        true,
		RefreshTimeout: 5 * time.Minute,
	}
}

// RefreshScheduler periodically recomputes registered caches so that a
// quiet system does not serve arbitrarily old snapshots when the
// invalidation path misses an update. Each target runs on its own ticker;
// a failed refresh is logged and retried at the next tick, the cache keeps
// serving its previous snapshot in the meantime.
type RefreshScheduler struct {
	config  RefreshSchedulerConfig
	logger  *zap.Logger
	targets []target

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRefreshScheduler creates a new refresh scheduler instance
func NewRefreshScheduler(config RefreshSchedulerConfig, logger *zap.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		config: config,
		logger: logger,
	}
}

// Add registers a cache for periodic refreshing. Targets must be added
// before Start; an interval of zero disables the target.
func (s *RefreshScheduler) Add(name string, interval time.Duration, cache RefreshTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerRunning
	}
	if interval <= 0 {
		s.logger.Info("Periodic refresh disabled", zap.String("cache", name))
		return nil
	}
	s.targets = append(s.targets, target{name: name, interval: interval, cache: cache})
	return nil
}

// Start launches one refresh loop per registered target
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, t := range s.targets {
		s.wg.Add(1)
		go s.run(ctx, t)
	}

	s.logger.Info("Refresh scheduler started",
		zap.Int("targets", len(s.targets)),
		zap.Duration("refresh_timeout", s.config.RefreshTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Refresh scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Refresh scheduler stop timed out")
		return ctx.Err()
	}
}

// run drives one target's ticker loop
func (s *RefreshScheduler) run(ctx context.Context, t target) {
	defer s.wg.Done()

	s.logger.Debug("Refresh loop started",
		zap.String("cache", t.name),
		zap.Duration("interval", t.interval),
	)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Refresh loop stopping", zap.String("cache", t.name))
			return
		case <-ticker.C:
			s.refresh(ctx, t)
		}
	}
}

// refresh recomputes a single target under the configured timeout
func (s *RefreshScheduler) refresh(ctx context.Context, t target) {
	refreshCtx, cancel := context.WithTimeout(ctx, s.config.RefreshTimeout)
	defer cancel()

	start := time.Now()
	if err := t.cache.Refresh(refreshCtx); err != nil {
		s.logger.Error("Periodic cache refresh failed",
			zap.String("cache", t.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Periodic cache refresh completed",
		zap.String("cache", t.name),
		zap.Duration("elapsed", time.Since(start)),
	)
}
