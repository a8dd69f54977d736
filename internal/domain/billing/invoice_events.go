package billing

import (
	"github.com/erp/finstate/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for invoice aggregates. The invoice info cache subscribes to
// all of them; any write to an invoice or its positions invalidates the
// derived snapshot.
const (
	EventTypeInvoiceCreated = "billing.invoice.created"
	EventTypeInvoiceUpdated = "billing.invoice.updated"
	EventTypeInvoiceDeleted = "billing.invoice.deleted"
)

// InvoiceEventTypes lists every event type emitted for invoices
func InvoiceEventTypes() []string {
	return []string{EventTypeInvoiceCreated, EventTypeInvoiceUpdated, EventTypeInvoiceDeleted}
}

// InvoiceChangedEvent signals that an invoice was written
type InvoiceChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
}

// NewInvoiceChangedEvent creates an invoice write event of the given type
func NewInvoiceChangedEvent(eventType string, invoiceID uuid.UUID, invoiceNumber string) *InvoiceChangedEvent {
	return &InvoiceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Invoice", invoiceID),
		InvoiceNumber:   invoiceNumber,
	}
}
