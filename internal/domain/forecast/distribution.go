package forecast

import (
	"time"

	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthBucket holds the revenue expected to be invoiced within one
// calendar month
type MonthBucket struct {
	Month           time.Time       `json:"month"` // first day of the month, UTC
	ToBeInvoicedSum decimal.Decimal `json:"to_be_invoiced_sum"`
}

// ForecastPositionInfo is the month-by-month revenue projection for a
// single order position. Months always span the position's period of
// performance plus one trailing month; their sums reconcile, within
// rounding, with the weighted to-be-invoiced figure, and any residual is
// surfaced in Difference rather than silently absorbed.
type ForecastPositionInfo struct {
	OrderID         uuid.UUID            `json:"order_id"`
	OrderNumber     string               `json:"order_number"`
	PositionNumber  int                  `json:"position_number"`
	Status          ordering.Status      `json:"status"`
	PaymentType     ordering.PaymentType `json:"payment_type"`
	Probability     decimal.Decimal      `json:"probability"`
	NetSum          decimal.Decimal      `json:"net_sum"`
	WeightedNetSum  decimal.Decimal      `json:"weighted_net_sum"`
	ToBeInvoicedSum decimal.Decimal      `json:"to_be_invoiced_sum"` // weighted
	Months          []MonthBucket        `json:"months"`
	Difference      decimal.Decimal      `json:"difference"`
}

// DistributePosition projects an order position's expected revenue across
// the calendar months of its performance period (own or inherited from the
// order) plus one trailing month.
//
// Only the open amount is distributed: the derived to-be-invoiced sum when
// the position is flagged for invoicing, otherwise the part of the net sum
// not yet invoiced. Revenue already billed is never forecast again, so a
// fully invoiced position projects zero. Payment schedule entries that are
// not yet fully invoiced contribute amount x probability to the month
// containing their schedule date. The unscheduled remainder goes entirely
// into the last month of the performance period for fixed-price packages,
// and is otherwise divided evenly across the months from the first
// unscheduled point to the period end. now anchors positions without any
// usable period.
func DistributePosition(order *ordering.Order, pos *ordering.OrderPosition, posInfo *ordering.OrderPositionInfo, now time.Time) *ForecastPositionInfo {
	probability := ProbabilityOf(order.Status, pos.Status, order.Probability())
	net := valueobject.RoundHalfUp(pos.NetSum, valueobject.CurrencyScale)
	weightedNet := valueobject.RoundHalfUp(net.Mul(probability), valueobject.CurrencyScale)
	target := valueobject.RoundHalfUp(openAmount(pos, posInfo).Mul(probability), valueobject.CurrencyScale)

	info := &ForecastPositionInfo{
		OrderID:        order.ID,
		OrderNumber:    order.Number,
		PositionNumber: pos.Number,
		Status:         pos.Status,
		PaymentType:    pos.PaymentType,
		Probability:    probability,
		NetSum:         net,
		WeightedNetSum: weightedNet,
	}

	period, ok := order.PositionPeriod(pos)
	if !ok {
		// No period recorded anywhere. Anchor a single-month span at now so
		// the projection still lands somewhere visible.
		period, _ = valueobject.NewPerformancePeriod(now, now)
	}

	// One bucket per calendar month of the period, plus one trailing month.
	periodMonths := period.Months()
	bucketCount := periodMonths + 1
	buckets := make([]MonthBucket, bucketCount)
	for i := range buckets {
		buckets[i] = MonthBucket{Month: period.MonthStart(i), ToBeInvoicedSum: decimal.Zero}
	}

	scheduledSum := decimal.Zero
	lastScheduledIdx := -1
	for _, entry := range order.SchedulesForPosition(pos.Number) {
		if entry.FullyInvoiced {
			continue
		}
		idx := clamp(period.MonthIndex(entry.ScheduleDate), 0, bucketCount-1)
		contribution := valueobject.RoundHalfUp(entry.Amount.Mul(probability), valueobject.CurrencyScale)
		buckets[idx].ToBeInvoicedSum = buckets[idx].ToBeInvoicedSum.Add(contribution)
		scheduledSum = scheduledSum.Add(contribution)
		if idx > lastScheduledIdx {
			lastScheduledIdx = idx
		}
	}

	remainder := target.Sub(scheduledSum)
	lastPeriodIdx := periodMonths - 1
	if remainder.IsPositive() {
		if pos.PaymentType == ordering.PaymentTypeFixedPrice {
			buckets[lastPeriodIdx].ToBeInvoicedSum = buckets[lastPeriodIdx].ToBeInvoicedSum.Add(remainder)
		} else {
			start := lastScheduledIdx + 1
			if start > lastPeriodIdx {
				start = lastPeriodIdx
			}
			span := int64(lastPeriodIdx - start + 1)
			share := valueobject.RoundHalfUp(remainder.Div(decimal.NewFromInt(span)), valueobject.CurrencyScale)
			for i := start; i <= lastPeriodIdx; i++ {
				buckets[i].ToBeInvoicedSum = buckets[i].ToBeInvoicedSum.Add(share)
			}
		}
	}

	info.Months = buckets
	info.ToBeInvoicedSum = target

	total := decimal.Zero
	for _, bucket := range buckets {
		total = total.Add(bucket.ToBeInvoicedSum)
	}
	info.Difference = total.Sub(target)

	return info
}

// openAmount resolves the unweighted amount still expected to be billed:
// the derived to-be-invoiced sum when the position is flagged for
// invoicing, otherwise the not-yet-invoiced remainder, floored at zero.
// Without derived info the full net sum counts as open.
func openAmount(pos *ordering.OrderPosition, posInfo *ordering.OrderPositionInfo) decimal.Decimal {
	if posInfo == nil {
		return pos.NetSum
	}
	if posInfo.ToBeInvoiced {
		return posInfo.ToBeInvoicedSum
	}
	if posInfo.NotYetInvoicedSum.IsNegative() {
		return decimal.Zero
	}
	return posInfo.NotYetInvoicedSum
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
