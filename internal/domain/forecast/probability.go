package forecast

import (
	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// StatusAny is the wildcard in probability table rows
const StatusAny ordering.Status = "*"

// ProbabilityRow is one row of the occurrence-probability decision table.
// A nil Probability means the order-supplied probability of occurrence
// applies (default 0 when the order carries none).
type ProbabilityRow struct {
	OrderStatus    ordering.Status
	PositionStatus ordering.Status
	Probability    *decimal.Decimal
}

func fixed(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// probabilityTable maps (order status, position status) to the probability
// weighting applied to forecasted revenue. Evaluated top to bottom, first
// match wins. Rejected and replaced states force zero; commissioned states
// force one; the remaining states fall through to either a table constant
// or the order's explicit probability of occurrence.
var probabilityTable = []ProbabilityRow{
	{StatusAny, ordering.StatusRejected, fixed("0")},
	{StatusAny, ordering.StatusReplaced, fixed("0")},
	{ordering.StatusRejected, StatusAny, fixed("0")},
	{ordering.StatusReplaced, StatusAny, fixed("0")},
	{StatusAny, ordering.StatusCommissioned, fixed("1")},
	{ordering.StatusCommissioned, StatusAny, fixed("1")},
	{ordering.StatusEscalation, StatusAny, fixed("1")},
	{ordering.StatusClosed, StatusAny, fixed("1")},
	{StatusAny, ordering.StatusOptional, nil},
	{ordering.StatusOptional, StatusAny, nil},
	{ordering.StatusLetterOfIntent, StatusAny, fixed("0.9")},
	{ordering.StatusSubmitted, StatusAny, fixed("0.5")},
	{ordering.StatusPotential, StatusAny, nil},
	{StatusAny, StatusAny, nil},
}

// ProbabilityTable returns a copy of the decision table for inspection
func ProbabilityTable() []ProbabilityRow {
	rows := make([]ProbabilityRow, len(probabilityTable))
	copy(rows, probabilityTable)
	return rows
}

// matches reports whether the row applies to the status combination
func (r ProbabilityRow) matches(orderStatus, positionStatus ordering.Status) bool {
	if r.OrderStatus != StatusAny && r.OrderStatus != orderStatus {
		return false
	}
	if r.PositionStatus != StatusAny && r.PositionStatus != positionStatus {
		return false
	}
	return true
}

// ProbabilityOf resolves the occurrence probability for an order position
// as a fraction in [0, 1]. orderProbability is the order's explicit
// probability of occurrence, consulted by the fall-through rows.
func ProbabilityOf(orderStatus, positionStatus ordering.Status, orderProbability decimal.Decimal) decimal.Decimal {
	for _, row := range probabilityTable {
		if !row.matches(orderStatus, positionStatus) {
			continue
		}
		if row.Probability != nil {
			return *row.Probability
		}
		return orderProbability
	}
	return orderProbability
}
