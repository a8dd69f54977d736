package ordering

import (
	"time"

	"github.com/erp/finstate/internal/domain/shared"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of an order or an order position.
// Orders and positions share one status vocabulary.
type Status string

const (
	StatusInCreation     Status = "IN_CREATION"
	StatusPotential      Status = "POTENTIAL"
	StatusSubmitted      Status = "SUBMITTED" // offer submitted to the customer
	StatusLetterOfIntent Status = "LETTER_OF_INTENT"
	StatusCommissioned   Status = "COMMISSIONED"
	StatusEscalation     Status = "ESCALATION"
	StatusClosed         Status = "CLOSED"
	StatusRejected       Status = "REJECTED"
	StatusReplaced       Status = "REPLACED"
	StatusOptional       Status = "OPTIONAL"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusInCreation, StatusPotential, StatusSubmitted, StatusLetterOfIntent,
		StatusCommissioned, StatusEscalation, StatusClosed, StatusRejected,
		StatusReplaced, StatusOptional:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// OrderState is the invoicing-relevant classification of a status. Exactly
// three buckets exist: lost positions contribute zero to every sum,
// commissioned positions contribute to the ordered net sum, potential
// positions contribute only to the acquisition sum.
type OrderState string

const (
	StateLost         OrderState = "LOST"
	StateCommissioned OrderState = "COMMISSIONED"
	StatePotential    OrderState = "POTENTIAL"
)

// State classifies the status into its order-state bucket
func (s Status) State() OrderState {
	switch s {
	case StatusRejected, StatusReplaced:
		return StateLost
	case StatusCommissioned, StatusEscalation, StatusClosed:
		return StateCommissioned
	default:
		return StatePotential
	}
}

// IsLost returns true for rejected or replaced statuses
func (s Status) IsLost() bool {
	return s.State() == StateLost
}

// IsCommissioned returns true for commissioned, escalation and closed statuses
func (s Status) IsCommissioned() bool {
	return s.State() == StateCommissioned
}

// PaymentType describes how an order position is billed
type PaymentType string

const (
	PaymentTypeTimeAndMaterials PaymentType = "TIME_AND_MATERIALS"
	PaymentTypeFixedPrice       PaymentType = "FIXED_PRICE_PACKAGE"
	PaymentTypeNone             PaymentType = "NONE"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeTimeAndMaterials, PaymentTypeFixedPrice, PaymentTypeNone:
		return true
	}
	return false
}

// PeriodType selects which performance period applies to a position
type PeriodType string

const (
	PeriodTypeSeeAbove PeriodType = "SEE_ABOVE" // inherit the order's period
	PeriodTypeOwn      PeriodType = "OWN"       // the position carries its own period
)

// OrderPosition is a single position of an order
type OrderPosition struct {
	shared.BaseEntity
	OrderID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Number        int              `gorm:"not null"`
	Title         string           `gorm:"size:255"`
	Status        Status           `gorm:"size:30;not null"`
	PaymentType   PaymentType      `gorm:"size:30;not null"`
	NetSum        decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	PersonDays    *decimal.Decimal `gorm:"type:decimal(10,2)"`
	PeriodType    PeriodType       `gorm:"size:20;not null;default:SEE_ABOVE"`
	PeriodFrom    *time.Time       // only read when PeriodType is OWN
	PeriodUntil   *time.Time
	FullyInvoiced bool `gorm:"not null;default:false"`
	Deleted       bool `gorm:"not null;default:false"`
}

// PaymentScheduleEntry is a milestone of an order's billing plan. A reached
// entry that is not yet fully invoiced marks its position as to-be-invoiced
// and overrides the position's net amount in the to-be-invoiced sum.
type PaymentScheduleEntry struct {
	shared.BaseEntity
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number         int             `gorm:"not null"`
	PositionNumber int             `gorm:"not null"`
	ScheduleDate   time.Time       `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reached        bool            `gorm:"not null;default:false"`
	FullyInvoiced  bool            `gorm:"not null;default:false"`
	Deleted        bool            `gorm:"not null;default:false"`
}

// IsOpen returns true when the entry is reached but not yet fully invoiced
func (e *PaymentScheduleEntry) IsOpen() bool {
	return !e.Deleted && e.Reached && !e.FullyInvoiced
}

// Order is a sales order aggregate
type Order struct {
	shared.BaseEntity
	Number             string  `gorm:"size:50;not null;uniqueIndex"`
	Title              string  `gorm:"size:255"`
	Status             Status  `gorm:"size:30;not null"`
	ProbabilityPercent *int    // probability of occurrence for forecasting, 0-100
	EntryDate          *time.Time
	PeriodFrom         *time.Time
	PeriodUntil        *time.Time
	Positions          []OrderPosition        `gorm:"foreignKey:OrderID"`
	PaymentSchedules   []PaymentScheduleEntry `gorm:"foreignKey:OrderID"`
	Deleted            bool                   `gorm:"not null;default:false"`
}

// PerformancePeriod returns the order's own period of performance, or false
// when no complete period is set
func (o *Order) PerformancePeriod() (valueobject.PerformancePeriod, bool) {
	if o.PeriodFrom == nil || o.PeriodUntil == nil {
		return valueobject.PerformancePeriod{}, false
	}
	period, err := valueobject.NewPerformancePeriod(*o.PeriodFrom, *o.PeriodUntil)
	if err != nil {
		return valueobject.PerformancePeriod{}, false
	}
	return period, true
}

// PositionPeriod resolves the performance period effective for a position:
// the position's own period only when its type requests OWN, otherwise the
// order's period.
func (o *Order) PositionPeriod(pos *OrderPosition) (valueobject.PerformancePeriod, bool) {
	if pos.PeriodType == PeriodTypeOwn && pos.PeriodFrom != nil && pos.PeriodUntil != nil {
		period, err := valueobject.NewPerformancePeriod(*pos.PeriodFrom, *pos.PeriodUntil)
		if err == nil {
			return period, true
		}
	}
	return o.PerformancePeriod()
}

// ActivePositions returns the non-deleted positions
func (o *Order) ActivePositions() []OrderPosition {
	active := make([]OrderPosition, 0, len(o.Positions))
	for _, pos := range o.Positions {
		if !pos.Deleted {
			active = append(active, pos)
		}
	}
	return active
}

// SchedulesForPosition returns the non-deleted payment schedule entries for
// a position number
func (o *Order) SchedulesForPosition(positionNumber int) []PaymentScheduleEntry {
	entries := make([]PaymentScheduleEntry, 0)
	for _, entry := range o.PaymentSchedules {
		if !entry.Deleted && entry.PositionNumber == positionNumber {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Position returns the position with the given number, or nil
func (o *Order) Position(number int) *OrderPosition {
	for i := range o.Positions {
		if o.Positions[i].Number == number {
			return &o.Positions[i]
		}
	}
	return nil
}

// Probability returns the order's probability of occurrence as a fraction
// in [0, 1]; unset defaults to 0
func (o *Order) Probability() decimal.Decimal {
	if o.ProbabilityPercent == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(*o.ProbabilityPercent)).Div(decimal.NewFromInt(100))
}
