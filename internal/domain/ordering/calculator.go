package ordering

import (
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionRef identifies an order position across aggregate boundaries.
// Invoice positions link back to order positions through this reference.
type PositionRef struct {
	OrderID        uuid.UUID
	PositionNumber int
}

// InvoicedAmountLookup supplies the net amount already invoiced per order
// position. The order calculation never queries the invoice cache live; the
// refresh pass hands over an already-computed snapshot through this lookup,
// which keeps the two caches free of refresh cycles. A nil lookup counts
// everything as not yet invoiced.
type InvoicedAmountLookup func(ref PositionRef) decimal.Decimal

// OrderPositionInfo is the derived financial state of one order position.
// Immutable once returned.
type OrderPositionInfo struct {
	Number            int             `json:"number"`
	Status            Status          `json:"status"`
	State             OrderState      `json:"state"`
	PaymentType       PaymentType     `json:"payment_type"`
	NetSum            decimal.Decimal `json:"net_sum"`
	OrderedNetSum     decimal.Decimal `json:"ordered_net_sum"`
	AcquisitionSum    decimal.Decimal `json:"acquisition_sum"`
	InvoicedSum       decimal.Decimal `json:"invoiced_sum"`
	NotYetInvoicedSum decimal.Decimal `json:"not_yet_invoiced_sum"`
	ToBeInvoicedSum   decimal.Decimal `json:"to_be_invoiced_sum"`
	ToBeInvoiced      bool            `json:"to_be_invoiced"`
	FullyInvoiced     bool            `json:"fully_invoiced"`
	PersonDays        decimal.Decimal `json:"person_days"`
}

// OrderInfo is the derived financial state of an order. Recomputed in one
// pass during a cache refresh; consumers read immutable instances.
type OrderInfo struct {
	OrderID           uuid.UUID           `json:"order_id"`
	Number            string              `json:"number"`
	Status            Status              `json:"status"`
	NetSum            decimal.Decimal     `json:"net_sum"`
	OrderedNetSum     decimal.Decimal     `json:"ordered_net_sum"`
	AcquisitionSum    decimal.Decimal     `json:"acquisition_sum"`
	InvoicedSum       decimal.Decimal     `json:"invoiced_sum"`
	NotYetInvoicedSum decimal.Decimal     `json:"not_yet_invoiced_sum"`
	ToBeInvoicedSum   decimal.Decimal     `json:"to_be_invoiced_sum"`
	PersonDays        decimal.Decimal     `json:"person_days"`
	ToBeInvoiced      bool                `json:"to_be_invoiced"`
	FullyInvoiced     bool                `json:"fully_invoiced"`
	Positions         []OrderPositionInfo `json:"positions"`
}

// PositionInfo returns the derived info for a position number, or nil
func (i *OrderInfo) PositionInfo(number int) *OrderPositionInfo {
	for idx := range i.Positions {
		if i.Positions[idx].Number == number {
			return &i.Positions[idx]
		}
	}
	return nil
}

// CalculateOrderInfo derives the financial state of an order from its
// positions and payment schedule. Pure: invoiced amounts come in through
// the lookup, nothing is read from live caches or storage.
func CalculateOrderInfo(order *Order, invoiced InvoicedAmountLookup) *OrderInfo {
	info := &OrderInfo{
		OrderID:           order.ID,
		Number:            order.Number,
		Status:            order.Status,
		NetSum:            decimal.Zero,
		OrderedNetSum:     decimal.Zero,
		AcquisitionSum:    decimal.Zero,
		InvoicedSum:       decimal.Zero,
		NotYetInvoicedSum: decimal.Zero,
		ToBeInvoicedSum:   decimal.Zero,
		PersonDays:        decimal.Zero,
	}

	if order.Deleted {
		info.FullyInvoiced = order.Status == StatusClosed
		return info
	}

	for _, pos := range order.ActivePositions() {
		posInfo := calculatePositionInfo(order, &pos, invoiced)
		info.Positions = append(info.Positions, posInfo)

		if posInfo.State == StateLost {
			continue
		}
		info.NetSum = info.NetSum.Add(posInfo.NetSum)
		info.OrderedNetSum = info.OrderedNetSum.Add(posInfo.OrderedNetSum)
		info.AcquisitionSum = info.AcquisitionSum.Add(posInfo.AcquisitionSum)
		info.InvoicedSum = info.InvoicedSum.Add(posInfo.InvoicedSum)
		info.NotYetInvoicedSum = info.NotYetInvoicedSum.Add(posInfo.NotYetInvoicedSum)
		info.ToBeInvoicedSum = info.ToBeInvoicedSum.Add(posInfo.ToBeInvoicedSum)
		info.PersonDays = info.PersonDays.Add(posInfo.PersonDays)
		if posInfo.ToBeInvoiced {
			info.ToBeInvoiced = true
		}
	}

	info.FullyInvoiced = isOrderFullyInvoiced(order)

	return info
}

// calculatePositionInfo derives one position's financial state
func calculatePositionInfo(order *Order, pos *OrderPosition, invoiced InvoicedAmountLookup) OrderPositionInfo {
	posInfo := OrderPositionInfo{
		Number:            pos.Number,
		Status:            pos.Status,
		State:             pos.Status.State(),
		PaymentType:       pos.PaymentType,
		NetSum:            decimal.Zero,
		OrderedNetSum:     decimal.Zero,
		AcquisitionSum:    decimal.Zero,
		InvoicedSum:       decimal.Zero,
		NotYetInvoicedSum: decimal.Zero,
		ToBeInvoicedSum:   decimal.Zero,
		FullyInvoiced:     pos.FullyInvoiced,
		PersonDays:        decimal.Zero,
	}

	// Lost positions contribute zero to every sum.
	if posInfo.State == StateLost {
		return posInfo
	}

	net := valueobject.RoundHalfUp(pos.NetSum, valueobject.CurrencyScale)
	posInfo.NetSum = net

	// The ordered net sum is gated twice: the position must be commissioned
	// and the order itself must be in a commissioned-equivalent status.
	if order.Status.IsCommissioned() && pos.Status.IsCommissioned() {
		posInfo.OrderedNetSum = net
	}
	if posInfo.State == StatePotential {
		posInfo.AcquisitionSum = net
	}
	if pos.PersonDays != nil {
		posInfo.PersonDays = *pos.PersonDays
	}

	if invoiced != nil {
		posInfo.InvoicedSum = invoiced(PositionRef{OrderID: order.ID, PositionNumber: pos.Number})
	}
	posInfo.NotYetInvoicedSum = net.Sub(posInfo.InvoicedSum)

	openScheduleSum, hasOpenSchedule := openScheduleAmount(order, pos.Number)
	posInfo.ToBeInvoiced = !pos.FullyInvoiced &&
		(pos.Status == StatusClosed ||
			(order.Status == StatusClosed && pos.Status.IsCommissioned()) ||
			hasOpenSchedule)

	// A reached, unbilled schedule entry overrides the position net in the
	// to-be-invoiced sum; a position number is never counted from both
	// sources.
	if posInfo.ToBeInvoiced {
		if hasOpenSchedule {
			posInfo.ToBeInvoicedSum = openScheduleSum
		} else {
			posInfo.ToBeInvoicedSum = net
		}
	}

	return posInfo
}

// openScheduleAmount sums the reached, not fully invoiced schedule amounts
// for a position number
func openScheduleAmount(order *Order, positionNumber int) (decimal.Decimal, bool) {
	sum := decimal.Zero
	found := false
	for _, entry := range order.SchedulesForPosition(positionNumber) {
		if entry.IsOpen() {
			sum = sum.Add(entry.Amount)
			found = true
		}
	}
	return sum, found
}

// isOrderFullyInvoiced applies the order-level rule: the order must be
// closed, every non-deleted non-lost position must be individually marked
// fully invoiced, and every schedule entry belonging to a
// commissioned-equivalent position must be fully invoiced.
func isOrderFullyInvoiced(order *Order) bool {
	if order.Status != StatusClosed {
		return false
	}
	for _, pos := range order.ActivePositions() {
		if pos.Status.IsLost() {
			continue
		}
		if !pos.FullyInvoiced {
			return false
		}
	}
	for _, entry := range order.PaymentSchedules {
		if entry.Deleted {
			continue
		}
		pos := order.Position(entry.PositionNumber)
		if pos == nil || pos.Deleted || !pos.Status.IsCommissioned() {
			continue
		}
		if !entry.FullyInvoiced {
			return false
		}
	}
	return true
}
