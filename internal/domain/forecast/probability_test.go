package forecast

import (
	"testing"

	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProbabilityOf(t *testing.T) {
	orderProbability := decimal.RequireFromString("0.3")

	tests := []struct {
		name           string
		orderStatus    ordering.Status
		positionStatus ordering.Status
		expected       string
	}{
		{"rejected position forces zero", ordering.StatusCommissioned, ordering.StatusRejected, "0"},
		{"replaced position forces zero", ordering.StatusCommissioned, ordering.StatusReplaced, "0"},
		{"rejected order forces zero", ordering.StatusRejected, ordering.StatusCommissioned, "0"},
		{"replaced order forces zero", ordering.StatusReplaced, ordering.StatusCommissioned, "0"},
		{"commissioned position forces one", ordering.StatusPotential, ordering.StatusCommissioned, "1"},
		{"commissioned order forces one", ordering.StatusCommissioned, ordering.StatusSubmitted, "1"},
		{"escalation order forces one", ordering.StatusEscalation, ordering.StatusSubmitted, "1"},
		{"closed order forces one", ordering.StatusClosed, ordering.StatusSubmitted, "1"},
		{"optional position uses order probability", ordering.StatusLetterOfIntent, ordering.StatusOptional, "0.3"},
		{"optional order uses order probability", ordering.StatusOptional, ordering.StatusSubmitted, "0.3"},
		{"letter of intent is ninety percent", ordering.StatusLetterOfIntent, ordering.StatusSubmitted, "0.9"},
		{"submitted is fifty percent", ordering.StatusSubmitted, ordering.StatusSubmitted, "0.5"},
		{"potential uses order probability", ordering.StatusPotential, ordering.StatusPotential, "0.3"},
		{"fallthrough uses order probability", ordering.StatusInCreation, ordering.StatusInCreation, "0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProbabilityOf(tt.orderStatus, tt.positionStatus, orderProbability)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got),
				"got %s", got)
		})
	}
}

func TestProbabilityOf_RejectionBeatsCommission(t *testing.T) {
	// The zero rows sit above the one rows: a rejected position under a
	// commissioned order contributes nothing.
	got := ProbabilityOf(ordering.StatusCommissioned, ordering.StatusRejected, decimal.Zero)
	assert.True(t, got.IsZero())

	got = ProbabilityOf(ordering.StatusRejected, ordering.StatusCommissioned, decimal.Zero)
	assert.True(t, got.IsZero())
}

func TestProbabilityTable_IsOrderedAndComplete(t *testing.T) {
	rows := ProbabilityTable()
	assert.Len(t, rows, 14)

	// The final row is the catch-all.
	last := rows[len(rows)-1]
	assert.Equal(t, StatusAny, last.OrderStatus)
	assert.Equal(t, StatusAny, last.PositionStatus)
	assert.Nil(t, last.Probability)
}

func TestProbabilityTable_ReturnsCopy(t *testing.T) {
	rows := ProbabilityTable()
	rows[0] = ProbabilityRow{OrderStatus: "X", PositionStatus: "Y"}

	fresh := ProbabilityTable()
	assert.Equal(t, StatusAny, fresh[0].OrderStatus)
}
