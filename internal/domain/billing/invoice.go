package billing

import (
	"time"

	"github.com/erp/finstate/internal/domain/shared"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes outgoing (issued to customers) from incoming
// (received from creditors) invoices
type InvoiceType string

const (
	InvoiceTypeOutgoing InvoiceType = "OUTGOING"
	InvoiceTypeIncoming InvoiceType = "INCOMING"
)

// IsValid checks if the type is a valid InvoiceType
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeOutgoing || t == InvoiceTypeIncoming
}

// String returns the string representation of InvoiceType
func (t InvoiceType) String() string {
	return string(t)
}

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CostSplit assigns a share of an invoice position's net amount to a
// cost-center pair. The split sum may fall short of the position net;
// the unassigned remainder is surfaced by the calculator as a shortfall.
type CostSplit struct {
	shared.BaseEntity
	InvoicePositionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number            int             `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostCenterPairID  uuid.UUID       `gorm:"type:uuid;not null"`
	Deleted           bool            `gorm:"not null;default:false"`
}

// InvoicePosition is a single line item of an invoice.
// Position numbers are 1-based and unique within an invoice; a deleted
// position is excluded from all sums but keeps its number for audit history.
type InvoicePosition struct {
	shared.BaseEntity
	InvoiceID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	Number              int              `gorm:"not null"`
	Text                string           `gorm:"size:1000"`
	Quantity            *decimal.Decimal `gorm:"type:decimal(18,5)"`
	UnitNetPrice        decimal.Decimal  `gorm:"type:decimal(18,5);not null"`
	VATRate             decimal.Decimal  `gorm:"type:decimal(10,5);not null"` // fraction, e.g. 0.19
	OrderID             *uuid.UUID       `gorm:"type:uuid;index"`             // linked order position, if any
	OrderPositionNumber *int
	CostSplits          []CostSplit `gorm:"foreignKey:InvoicePositionID"`
	Deleted             bool        `gorm:"not null;default:false"`
}

// NetAmount returns quantity x unit net price, unrounded.
// A position without a quantity counts the unit price as its net amount.
func (p *InvoicePosition) NetAmount() decimal.Decimal {
	if p.Quantity == nil {
		return p.UnitNetPrice
	}
	return p.Quantity.Mul(p.UnitNetPrice)
}

// Invoice is an outgoing or incoming invoice aggregate
type Invoice struct {
	shared.BaseEntity
	Number           string               `gorm:"size:50;not null;uniqueIndex"`
	Type             InvoiceType          `gorm:"size:20;not null"`
	Status           InvoiceStatus        `gorm:"size:20;not null"`
	Currency         valueobject.Currency `gorm:"size:3;not null"`
	IssueDate        time.Time            `gorm:"not null"`
	DueDate          time.Time            `gorm:"not null"`
	PaidDate         *time.Time
	PaidAmount       *decimal.Decimal `gorm:"type:decimal(18,2)"`
	DiscountPercent  *decimal.Decimal `gorm:"type:decimal(5,2)"`
	DiscountMaturity *time.Time       // last day on which the discount may be taken
	Positions        []InvoicePosition `gorm:"foreignKey:InvoiceID"`
	Deleted          bool              `gorm:"not null;default:false"`
}

// ActivePositions returns the non-deleted positions in position-number order.
// The slice is assumed to be stored ordered by number.
func (inv *Invoice) ActivePositions() []InvoicePosition {
	active := make([]InvoicePosition, 0, len(inv.Positions))
	for _, pos := range inv.Positions {
		if !pos.Deleted {
			active = append(active, pos)
		}
	}
	return active
}

// ValidatePositionNumbers verifies that position numbers are 1-based and
// unique within the invoice, deleted positions included (their identity is
// retained for audit history)
func (inv *Invoice) ValidatePositionNumbers() error {
	seen := make(map[int]bool, len(inv.Positions))
	var bad []int
	for _, pos := range inv.Positions {
		if pos.Number < 1 || seen[pos.Number] {
			bad = append(bad, pos.Number)
			continue
		}
		seen[pos.Number] = true
	}
	if len(bad) > 0 {
		return shared.NewValidationError("invoice.position.number.invalid", bad...)
	}
	return nil
}
