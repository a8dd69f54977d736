package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erp/finstate/internal/application/finance"
	"github.com/erp/finstate/internal/domain/billing"
	"github.com/erp/finstate/internal/domain/currency"
	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/erp/finstate/internal/infrastructure/cache"
	"github.com/erp/finstate/internal/infrastructure/config"
	"github.com/erp/finstate/internal/infrastructure/event"
	"github.com/erp/finstate/internal/infrastructure/logger"
	"github.com/erp/finstate/internal/infrastructure/persistence"
	"github.com/erp/finstate/internal/infrastructure/scheduler"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting finstate",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	orderRepo := persistence.NewOrderRepository(db.DB)
	invoiceRepo := persistence.NewInvoiceRepository(db.DB)
	currencyRepo := persistence.NewCurrencyRepository(db.DB)

	invoiceCache := cache.NewInvoiceInfoCache(invoiceRepo, log,
		cache.WithTTL[uuid.UUID, *billing.InvoiceInfo](cfg.Cache.InvoiceTTL))
	orderCache := cache.NewOrderInfoCache(orderRepo, invoiceCache, log,
		cache.WithTTL[uuid.UUID, *ordering.OrderInfo](cfg.Cache.OrderTTL))
	currencyCache := cache.NewCurrencyCache(currencyRepo, log,
		cache.WithTTL[uuid.UUID, *currency.Pair](cfg.Cache.CurrencyTTL))

	// Warm the caches so the first caller does not pay the load. The
	// invoice cache must come first: the order cache reads its snapshot.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	for _, c := range []struct {
		name  string
		cache interface {
			Refresh(ctx context.Context) error
		}
	}{
		{"invoice_info", invoiceCache},
		{"order_info", orderCache},
		{"currency_pair", currencyCache},
	} {
		if err := c.cache.Refresh(warmCtx); err != nil {
			log.Warn("Cache warm-up failed, continuing with lazy refresh",
				zap.String("cache", c.name), zap.Error(err))
		}
	}
	cancelWarm()

	// Local write notifications invalidate the affected caches.
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(cache.NewInvalidationHandler(log, ordering.OrderEventTypes(), orderCache))
	bus.Subscribe(cache.NewInvalidationHandler(log, billing.InvoiceEventTypes(), invoiceCache, orderCache))
	bus.Subscribe(cache.NewInvalidationHandler(log, currency.PairEventTypes(), currencyCache))

	// Cross-instance invalidation via Redis pub/sub.
	redisBus, err := cache.NewRedisInvalidationBus(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithInvalidationLogger(log))
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	redisBus.Register("order", orderCache)
	redisBus.Register("invoice", invoiceCache, orderCache)
	redisBus.Register("currency_pair", currencyCache)

	subCtx, cancelSub := context.WithCancel(context.Background())
	go func() {
		if err := redisBus.Subscribe(subCtx); err != nil && subCtx.Err() == nil {
			log.Error("Redis invalidation subscription terminated", zap.Error(err))
		}
	}()

	// Periodic recompute as a safety net for updates the event path missed.
	// The cache TTLs double as refresh intervals.
	refresher := scheduler.NewRefreshScheduler(scheduler.DefaultRefreshSchedulerConfig(), log)
	for _, err := range []error{
		refresher.Add("invoice_info", cfg.Cache.InvoiceTTL, invoiceCache),
		refresher.Add("order_info", cfg.Cache.OrderTTL, orderCache),
		refresher.Add("currency_pair", cfg.Cache.CurrencyTTL, currencyCache),
	} {
		if err != nil {
			log.Fatal("Failed to register cache refresh target", zap.Error(err))
		}
	}
	if err := refresher.Start(context.Background()); err != nil {
		log.Fatal("Failed to start refresh scheduler", zap.Error(err))
	}

	svc := finance.NewInfoService(orderCache, invoiceCache, currencyCache, orderRepo,
		finance.WithLogger(log))

	log.Info("finstate ready",
		zap.Int("orders", orderCache.Len()),
		zap.Int("invoices", invoiceCache.Len()),
		zap.Int("currency_pairs", currencyCache.Len()),
	)

	// SIGHUP forces a full recompute on the next read, e.g. after bulk
	// imports that bypass the event bus.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			log.Info("Reload signal received, invalidating all caches")
			svc.InvalidateAll()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := refresher.Stop(stopCtx); err != nil {
		log.Error("Failed to stop refresh scheduler", zap.Error(err))
	}
	cancelSub()
	if err := redisBus.Close(); err != nil {
		log.Error("Failed to close redis invalidation bus", zap.Error(err))
	}
}
