package cache

import (
	"context"
	"time"

	"github.com/erp/finstate/internal/domain/billing"
	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceInfoCache holds derived invoice infos keyed by invoice id,
// rebuilt in one pass over all invoices on refresh
type InvoiceInfoCache struct {
	*SnapshotCache[uuid.UUID, *billing.InvoiceInfo]
}

// NewInvoiceInfoCache creates the invoice info cache over the given reader
func NewInvoiceInfoCache(reader billing.Reader, logger *zap.Logger, opts ...SnapshotCacheOption[uuid.UUID, *billing.InvoiceInfo]) *InvoiceInfoCache {
	loader := func(ctx context.Context) (map[uuid.UUID]*billing.InvoiceInfo, error) {
		invoices, err := reader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		snapshot := make(map[uuid.UUID]*billing.InvoiceInfo, len(invoices))
		for _, inv := range invoices {
			snapshot[inv.ID] = billing.CalculateInvoiceInfo(inv, now)
		}
		return snapshot, nil
	}

	allOpts := append([]SnapshotCacheOption[uuid.UUID, *billing.InvoiceInfo]{
		WithLogger[uuid.UUID, *billing.InvoiceInfo](logger),
	}, opts...)

	return &InvoiceInfoCache{
		SnapshotCache: NewSnapshotCache("invoice-info", loader, allOpts...),
	}
}

// InvoicedAmounts sums the net amounts of outgoing invoice positions per
// linked order position, from the current snapshot without forcing a
// refresh. The order cache consumes this during its own refresh; staleness
// of at most one refresh cycle is tolerated by design, and reading the
// snapshot instead of calling Get avoids refresh cycles between the two
// caches.
func (c *InvoiceInfoCache) InvoicedAmounts() map[ordering.PositionRef]decimal.Decimal {
	amounts := make(map[ordering.PositionRef]decimal.Decimal)
	for _, info := range c.Peek() {
		if info.Type != billing.InvoiceTypeOutgoing {
			continue
		}
		for _, pos := range info.Positions {
			if pos.OrderID == nil || pos.OrderPositionNumber == nil {
				continue
			}
			ref := ordering.PositionRef{OrderID: *pos.OrderID, PositionNumber: *pos.OrderPositionNumber}
			amounts[ref] = amounts[ref].Add(pos.NetSum)
		}
	}
	return amounts
}
