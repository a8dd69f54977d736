package ordering

import (
	"sort"

	"github.com/erp/finstate/internal/domain/shared"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Message keys for payment schedule validation failures
const (
	MsgScheduleDateOutsidePeriod = "order.paymentSchedule.date.outsidePeriod"
	MsgScheduleExceedsNetSum     = "order.paymentSchedule.amount.exceedsNetSum"
	MsgScheduleUnknownPosition   = "order.paymentSchedule.position.unknown"
)

// ValidatePaymentSchedule checks the order's payment schedule against its
// positions: every entry must reference an existing position, its date must
// fall inside the position's period of performance, and the scheduled total
// per position must not exceed the position's net sum. Violations are
// returned, never corrected.
func ValidatePaymentSchedule(order *Order) error {
	var outsidePeriod, unknown []int
	scheduled := make(map[int]decimal.Decimal)

	for _, entry := range order.PaymentSchedules {
		if entry.Deleted {
			continue
		}
		pos := order.Position(entry.PositionNumber)
		if pos == nil || pos.Deleted {
			unknown = appendUnique(unknown, entry.PositionNumber)
			continue
		}
		if period, ok := order.PositionPeriod(pos); ok && !period.Contains(entry.ScheduleDate) {
			outsidePeriod = appendUnique(outsidePeriod, entry.PositionNumber)
		}
		scheduled[entry.PositionNumber] = scheduled[entry.PositionNumber].Add(entry.Amount)
	}

	if len(unknown) > 0 {
		return shared.NewValidationError(MsgScheduleUnknownPosition, unknown...)
	}
	if len(outsidePeriod) > 0 {
		return shared.NewValidationError(MsgScheduleDateOutsidePeriod, outsidePeriod...)
	}

	var exceeding []int
	for number, sum := range scheduled {
		pos := order.Position(number)
		net := valueobject.RoundHalfUp(pos.NetSum, valueobject.CurrencyScale)
		if sum.GreaterThan(net) {
			exceeding = appendUnique(exceeding, number)
		}
	}
	if len(exceeding) > 0 {
		sort.Ints(exceeding)
		return shared.NewValidationError(MsgScheduleExceedsNetSum, exceeding...)
	}

	return nil
}

func appendUnique(numbers []int, n int) []int {
	for _, existing := range numbers {
		if existing == n {
			return numbers
		}
	}
	return append(numbers, n)
}
