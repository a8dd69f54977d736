package currency

import (
	"github.com/erp/finstate/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for currency pair aggregates. Rate inserts count as pair
// updates; the currency cache invalidates on any of them.
const (
	EventTypePairCreated = "currency.pair.created"
	EventTypePairUpdated = "currency.pair.updated"
	EventTypePairDeleted = "currency.pair.deleted"
)

// PairEventTypes lists every event type emitted for currency pairs
func PairEventTypes() []string {
	return []string{EventTypePairCreated, EventTypePairUpdated, EventTypePairDeleted}
}

// PairChangedEvent signals that a currency pair or one of its rates was
// written
type PairChangedEvent struct {
	shared.BaseDomainEvent
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewPairChangedEvent creates a currency pair write event of the given type
func NewPairChangedEvent(eventType string, pairID uuid.UUID, source, target string) *PairChangedEvent {
	return &PairChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "CurrencyPair", pairID),
		Source:          source,
		Target:          target,
	}
}
