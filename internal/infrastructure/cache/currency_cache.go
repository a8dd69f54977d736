package cache

import (
	"context"
	"time"

	"github.com/erp/finstate/internal/domain/currency"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrencyCache holds currency pairs with their time-valid rate lists and
// resolves conversion rates effective at a given date
type CurrencyCache struct {
	*SnapshotCache[uuid.UUID, *currency.Pair]
	logger *zap.Logger
}

// NewCurrencyCache creates the currency cache over the given reader. Rate
// lists are sorted descending by valid-from date during refresh, so reads
// resolve rates with a single forward scan.
func NewCurrencyCache(reader currency.Reader, logger *zap.Logger, opts ...SnapshotCacheOption[uuid.UUID, *currency.Pair]) *CurrencyCache {
	loader := func(ctx context.Context) (map[uuid.UUID]*currency.Pair, error) {
		pairs, err := reader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		snapshot := make(map[uuid.UUID]*currency.Pair, len(pairs))
		for _, pair := range pairs {
			if pair.Deleted {
				continue
			}
			pair.SortRates()
			snapshot[pair.ID] = pair
		}
		return snapshot, nil
	}

	allOpts := append([]SnapshotCacheOption[uuid.UUID, *currency.Pair]{
		WithLogger[uuid.UUID, *currency.Pair](logger),
	}, opts...)

	return &CurrencyCache{
		SnapshotCache: NewSnapshotCache("currency-pairs", loader, allOpts...),
		logger:        logger,
	}
}

// FindRate resolves the rate of a pair effective at the given date. With
// fallbackToOldest set, a date predating every recorded rate yields the
// chronologically earliest rate and a warning is logged; this compliance
// caveat is deliberate and never hidden.
func (c *CurrencyCache) FindRate(ctx context.Context, pairID uuid.UUID, atDate time.Time, fallbackToOldest bool) *currency.Rate {
	pair, ok := c.Get(ctx, pairID)
	if !ok {
		return nil
	}
	rate, fellBack := pair.RateAt(atDate, fallbackToOldest)
	if fellBack {
		c.logger.Warn("no conversion rate recorded for date, falling back to oldest known rate",
			zap.String("pair", string(pair.Source)+"/"+string(pair.Target)),
			zap.Time("at_date", atDate),
			zap.Time("oldest_valid_from", rate.ValidFrom))
	}
	return rate
}

// FindPair locates a pair converting between the two currencies in either
// direction. inverted reports that the stored rate must be inverted.
func (c *CurrencyCache) FindPair(ctx context.Context, from, to valueobject.Currency) (pair *currency.Pair, inverted bool) {
	for _, p := range c.Snapshot(ctx) {
		if ok, inv := p.Matches(from, to); ok {
			// A direct pair wins over an inverse one.
			if !inv {
				return p, false
			}
			pair, inverted = p, true
		}
	}
	return pair, inverted
}

// Convert converts an amount between currencies at the given date, rounding
// half-up to scale. The result carries the target currency. A same-currency
// conversion returns the rescaled amount unchanged. Nil means "conversion
// unavailable" (no pair or no rate) — the caller decides to fall back to
// the original amount and record a warning; it is not an error.
func (c *CurrencyCache) Convert(ctx context.Context, amount decimal.Decimal, from, to valueobject.Currency, atDate time.Time, scale int32, fallbackToOldest bool) *valueobject.Money {
	if from == to {
		return moneyOrNil(valueobject.RoundHalfUp(amount, scale), to)
	}

	pair, inverted := c.FindPair(ctx, from, to)
	if pair == nil {
		return nil
	}
	rate := c.FindRate(ctx, pair.ID, atDate, fallbackToOldest)
	if rate == nil {
		return nil
	}

	var converted decimal.Decimal
	if inverted {
		if rate.Rate.IsZero() {
			return nil
		}
		converted = amount.DivRound(rate.Rate, scale+4)
	} else {
		converted = amount.Mul(rate.Rate)
	}
	return moneyOrNil(valueobject.RoundHalfUp(converted, scale), to)
}

func moneyOrNil(amount decimal.Decimal, currency valueobject.Currency) *valueobject.Money {
	m, err := valueobject.NewMoney(amount, currency)
	if err != nil {
		return nil
	}
	return &m
}
