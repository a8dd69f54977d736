package ordering

import (
	"github.com/erp/finstate/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for order aggregates. Writes to an order, its positions or
// its payment schedule all raise one of these; the order info cache
// invalidates on any of them.
const (
	EventTypeOrderCreated = "ordering.order.created"
	EventTypeOrderUpdated = "ordering.order.updated"
	EventTypeOrderDeleted = "ordering.order.deleted"
)

// OrderEventTypes lists every event type emitted for orders
func OrderEventTypes() []string {
	return []string{EventTypeOrderCreated, EventTypeOrderUpdated, EventTypeOrderDeleted}
}

// OrderChangedEvent signals that an order was written
type OrderChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
}

// NewOrderChangedEvent creates an order write event of the given type
func NewOrderChangedEvent(eventType string, orderID uuid.UUID, orderNumber string) *OrderChangedEvent {
	return &OrderChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", orderID),
		OrderNumber:     orderNumber,
	}
}
