package billing

import (
	"sort"
	"time"

	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoicePositionInfo is the derived financial state of a single invoice
// position. Instances are immutable once returned.
type InvoicePositionInfo struct {
	Number              int             `json:"number"`
	NetSum              decimal.Decimal `json:"net_sum"`
	GrossSum            decimal.Decimal `json:"gross_sum"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	CostSplitNetSum     decimal.Decimal `json:"cost_split_net_sum"`
	CostSplitGrossSum   decimal.Decimal `json:"cost_split_gross_sum"`
	CostSplitShortfall  decimal.Decimal `json:"cost_split_shortfall"`
	OrderID             *uuid.UUID      `json:"order_id,omitempty"`
	OrderPositionNumber *int            `json:"order_position_number,omitempty"`
}

// InvoiceInfo is the derived financial state of an invoice. It is created
// fresh on every calculation call and cached per invoice id by the cache
// layer; it is never mutated after construction.
type InvoiceInfo struct {
	InvoiceID            uuid.UUID             `json:"invoice_id"`
	Number               string                `json:"number"`
	Type                 InvoiceType           `json:"type"`
	Currency             valueobject.Currency  `json:"currency"`
	NetSum               decimal.Decimal       `json:"net_sum"`
	VATAmount            decimal.Decimal       `json:"vat_amount"`
	GrossSum             decimal.Decimal       `json:"gross_sum"`
	GrossSumWithDiscount decimal.Decimal       `json:"gross_sum_with_discount"`
	IsPaid               bool                  `json:"is_paid"`
	IsOverdue            bool                  `json:"is_overdue"`
	Positions            []InvoicePositionInfo `json:"positions"`
}

// CalculateInvoiceInfo derives the financial state of an invoice.
//
// Rounding follows the round-then-sum policy required for statutory
// compliance: each position's net and gross are rounded half-up to the
// currency scale before they enter the invoice totals. The VAT total is
// computed by grouping positions by VAT rate, rounding once per rate group,
// and summing the rounded group amounts; a single blended VAT amount would
// drift on mixed-rate invoices.
//
// The function is pure. It takes the reference time explicitly so the
// overdue and discount-maturity checks are reproducible.
func CalculateInvoiceInfo(inv *Invoice, now time.Time) *InvoiceInfo {
	info := &InvoiceInfo{
		InvoiceID: inv.ID,
		Number:    inv.Number,
		Type:      inv.Type,
		Currency:  inv.Currency,
		NetSum:    decimal.Zero,
		VATAmount: decimal.Zero,
		GrossSum:  decimal.Zero,
	}

	if inv.Deleted {
		info.GrossSumWithDiscount = decimal.Zero
		info.IsPaid = true
		return info
	}

	vatByRate := make(map[string]decimal.Decimal)
	for _, pos := range inv.ActivePositions() {
		posInfo := calculatePositionInfo(&pos)
		info.Positions = append(info.Positions, posInfo)

		info.NetSum = info.NetSum.Add(posInfo.NetSum)
		info.GrossSum = info.GrossSum.Add(posInfo.GrossSum)
		key := pos.VATRate.String()
		vatByRate[key] = vatByRate[key].Add(posInfo.NetSum)
	}

	// Sum VAT per distinct rate, rounding once per rate group. Keys sorted
	// for deterministic accumulation.
	rates := make([]string, 0, len(vatByRate))
	for rate := range vatByRate {
		rates = append(rates, rate)
	}
	sort.Strings(rates)
	for _, key := range rates {
		rate, _ := decimal.NewFromString(key)
		groupVAT := valueobject.RoundHalfUp(vatByRate[key].Mul(rate), valueobject.CurrencyScale)
		info.VATAmount = info.VATAmount.Add(groupVAT)
	}

	info.GrossSumWithDiscount = grossSumWithDiscount(inv, info.GrossSum, now)
	info.IsPaid = isPaid(inv, info.NetSum)
	info.IsOverdue = !info.IsPaid && valueobject.TruncateToDay(inv.DueDate).Before(valueobject.TruncateToDay(now))

	return info
}

// calculatePositionInfo derives a single position's rounded net/gross and
// cost-split sums
func calculatePositionInfo(pos *InvoicePosition) InvoicePositionInfo {
	net := valueobject.RoundHalfUp(pos.NetAmount(), valueobject.CurrencyScale)
	gross := valueobject.RoundHalfUp(net.Add(net.Mul(pos.VATRate)), valueobject.CurrencyScale)

	splitNet := decimal.Zero
	splitGross := decimal.Zero
	for _, split := range pos.CostSplits {
		if split.Deleted {
			continue
		}
		amount := valueobject.RoundHalfUp(split.Amount, valueobject.CurrencyScale)
		splitNet = splitNet.Add(amount)
		splitGross = splitGross.Add(valueobject.RoundHalfUp(amount.Add(amount.Mul(pos.VATRate)), valueobject.CurrencyScale))
	}

	return InvoicePositionInfo{
		Number:              pos.Number,
		NetSum:              net,
		GrossSum:            gross,
		VATAmount:           gross.Sub(net),
		CostSplitNetSum:     splitNet,
		CostSplitGrossSum:   splitGross,
		CostSplitShortfall:  net.Sub(splitNet),
		OrderID:             pos.OrderID,
		OrderPositionNumber: pos.OrderPositionNumber,
	}
}

// grossSumWithDiscount resolves the discount-adjusted gross: the recorded
// paid amount wins; otherwise a still-valid discount maturity reduces the
// gross by the discount percentage; otherwise the gross stands.
func grossSumWithDiscount(inv *Invoice, gross decimal.Decimal, now time.Time) decimal.Decimal {
	if inv.PaidAmount != nil {
		return *inv.PaidAmount
	}
	if inv.DiscountPercent != nil && inv.DiscountMaturity != nil &&
		!valueobject.TruncateToDay(now).After(valueobject.TruncateToDay(*inv.DiscountMaturity)) {
		discount := gross.Mul(*inv.DiscountPercent).Div(decimal.NewFromInt(100))
		return valueobject.RoundHalfUp(gross.Sub(discount), valueobject.CurrencyScale)
	}
	return gross
}

// isPaid resolves the paid flag: a zero net sum counts as paid; otherwise a
// paid date plus a non-zero paid amount is required, and outgoing invoices
// additionally need the PAID status on the invoice itself.
func isPaid(inv *Invoice, netSum decimal.Decimal) bool {
	if netSum.IsZero() {
		return true
	}
	if inv.PaidDate == nil || inv.PaidAmount == nil || inv.PaidAmount.IsZero() {
		return false
	}
	if inv.Type == InvoiceTypeOutgoing {
		return inv.Status == InvoiceStatusPaid
	}
	return true
}
