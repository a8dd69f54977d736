package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/finstate/internal/domain/billing"
	"github.com/erp/finstate/internal/domain/currency"
	"github.com/erp/finstate/internal/domain/forecast"
	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/erp/finstate/internal/infrastructure/cache"
)

// InfoService provides application-level access to the computed order,
// invoice and currency information. All reads go through the snapshot
// caches; the order reader is only consulted for the forecast export,
// which needs the full order entity alongside its computed info.
type InfoService struct {
	orderCache    *cache.OrderInfoCache
	invoiceCache  *cache.InvoiceInfoCache
	currencyCache *cache.CurrencyCache
	orders        ordering.Reader
	logger        *zap.Logger
}

// InfoServiceOption is a functional option for configuring InfoService
type InfoServiceOption func(*InfoService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) InfoServiceOption {
	return func(s *InfoService) {
		s.logger = logger
	}
}

// NewInfoService creates a new InfoService
func NewInfoService(
	orderCache *cache.OrderInfoCache,
	invoiceCache *cache.InvoiceInfoCache,
	currencyCache *cache.CurrencyCache,
	orders ordering.Reader,
	opts ...InfoServiceOption,
) *InfoService {
	s := &InfoService{
		orderCache:    orderCache,
		invoiceCache:  invoiceCache,
		currencyCache: currencyCache,
		orders:        orders,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrderInfo returns the computed info for a single order, or nil when
// the order is unknown or deleted.
func (s *InfoService) GetOrderInfo(ctx context.Context, orderID uuid.UUID) *ordering.OrderInfo {
	info, ok := s.orderCache.Get(ctx, orderID)
	if !ok {
		return nil
	}
	return info
}

// GetInvoiceInfo returns the computed info for a single invoice, or nil
// when the invoice is unknown.
func (s *InfoService) GetInvoiceInfo(ctx context.Context, invoiceID uuid.UUID) *billing.InvoiceInfo {
	info, ok := s.invoiceCache.Get(ctx, invoiceID)
	if !ok {
		return nil
	}
	return info
}

// GetConversionRate returns the rate of the given currency pair valid at
// the given date, or nil when the pair is unknown or has no usable rate.
// With fallbackToOldest the oldest recorded rate is used when no rate was
// valid yet at the date; the fallback is logged as a warning.
func (s *InfoService) GetConversionRate(ctx context.Context, pairID uuid.UUID, atDate time.Time, fallbackToOldest bool) *currency.Rate {
	return s.currencyCache.FindRate(ctx, pairID, atDate, fallbackToOldest)
}

// Convert converts an amount between two currencies at the given date,
// rounded half-up to the given scale. The result carries the target
// currency. It returns nil when no matching currency pair or rate exists.
func (s *InfoService) Convert(ctx context.Context, amount decimal.Decimal, from, to valueobject.Currency, atDate time.Time, scale int32, fallbackToOldest bool) *valueobject.Money {
	return s.currencyCache.Convert(ctx, amount, from, to, atDate, scale, fallbackToOldest)
}

// ExportOrderAnalysis produces the forecast rows for every active position
// of the given order: probability-weighted sums distributed over the
// months of the performance period.
func (s *InfoService) ExportOrderAnalysis(ctx context.Context, orderID uuid.UUID) ([]*forecast.ForecastPositionInfo, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if order == nil || order.Deleted {
		return nil, nil
	}

	info, ok := s.orderCache.Get(ctx, orderID)
	if !ok {
		s.logger.Warn("order missing from info cache during forecast export",
			zap.String("order_id", orderID.String()))
		return nil, nil
	}

	now := time.Now()
	rows := make([]*forecast.ForecastPositionInfo, 0, len(order.Positions))
	for i := range order.Positions {
		pos := &order.Positions[i]
		if pos.Deleted {
			continue
		}
		posInfo := info.PositionInfo(pos.Number)
		if posInfo == nil {
			s.logger.Error("order position missing from computed info",
				zap.String("order_id", orderID.String()),
				zap.Int("position_number", pos.Number))
			continue
		}
		rows = append(rows, forecast.DistributePosition(order, pos, posInfo, now))
	}
	return rows, nil
}

// InvalidateAll marks every cache dirty. Intended for administrative use
// after bulk data changes.
func (s *InfoService) InvalidateAll() {
	s.orderCache.Invalidate()
	s.invoiceCache.Invalidate()
	s.currencyCache.Invalidate()
}
