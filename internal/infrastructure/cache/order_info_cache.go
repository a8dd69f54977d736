package cache

import (
	"context"

	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoicedAmountSource supplies the invoice-side lookup consumed by the
// order refresh. The invoice info cache implements it; the indirection
// keeps the order cache from ever calling back into a live, possibly
// refreshing cache.
type InvoicedAmountSource interface {
	InvoicedAmounts() map[ordering.PositionRef]decimal.Decimal
}

// OrderInfoCache holds derived order infos keyed by order id. Its refresh
// re-derives every order in one pass, taking the invoice-derived sums as a
// plain snapshot argument (eventual consistency of at most one refresh
// cycle with the invoice cache).
type OrderInfoCache struct {
	*SnapshotCache[uuid.UUID, *ordering.OrderInfo]
}

// NewOrderInfoCache creates the order info cache over the given reader and
// invoice-side lookup source
func NewOrderInfoCache(reader ordering.Reader, invoiced InvoicedAmountSource, logger *zap.Logger, opts ...SnapshotCacheOption[uuid.UUID, *ordering.OrderInfo]) *OrderInfoCache {
	loader := func(ctx context.Context) (map[uuid.UUID]*ordering.OrderInfo, error) {
		orders, err := reader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}

		orderIDs := make(map[uuid.UUID]bool, len(orders))
		for _, order := range orders {
			orderIDs[order.ID] = true
		}

		// Take the invoice-derived sums once, as plain data. Entries that
		// reference an order unknown to this refresh are an invariant
		// violation: logged and skipped, never fatal to the whole pass.
		amounts := invoiced.InvoicedAmounts()
		for ref := range amounts {
			if !orderIDs[ref.OrderID] {
				logger.Error("invoiced amount references unknown order, skipping entry",
					zap.String("order_id", ref.OrderID.String()),
					zap.Int("position_number", ref.PositionNumber))
				delete(amounts, ref)
			}
		}
		lookup := func(ref ordering.PositionRef) decimal.Decimal {
			return amounts[ref]
		}

		snapshot := make(map[uuid.UUID]*ordering.OrderInfo, len(orders))
		for _, order := range orders {
			snapshot[order.ID] = ordering.CalculateOrderInfo(order, lookup)
		}
		return snapshot, nil
	}

	allOpts := append([]SnapshotCacheOption[uuid.UUID, *ordering.OrderInfo]{
		WithLogger[uuid.UUID, *ordering.OrderInfo](logger),
	}, opts...)

	return &OrderInfoCache{
		SnapshotCache: NewSnapshotCache("order-info", loader, allOpts...),
	}
}
