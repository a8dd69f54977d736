package cache

import (
	"context"

	"github.com/erp/finstate/internal/domain/shared"
	"go.uber.org/zap"
)

// Invalidator is the write-notification surface of a snapshot cache
type Invalidator interface {
	Invalidate()
}

// InvalidationHandler subscribes a set of caches to domain events: any
// insert or update of a watched entity type marks the caches dirty. The
// rebuild itself happens lazily on the next read.
type InvalidationHandler struct {
	eventTypes []string
	caches     []Invalidator
	logger     *zap.Logger
}

// NewInvalidationHandler creates a handler invalidating the given caches
// on any of the given event types
func NewInvalidationHandler(logger *zap.Logger, eventTypes []string, caches ...Invalidator) *InvalidationHandler {
	return &InvalidationHandler{
		eventTypes: eventTypes,
		caches:     caches,
		logger:     logger,
	}
}

// Handle marks all registered caches dirty
func (h *InvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	for _, c := range h.caches {
		c.Invalidate()
	}
	h.logger.Debug("caches invalidated by domain event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Int("caches", len(h.caches)))
	return nil
}

// EventTypes returns the event types this handler watches
func (h *InvalidationHandler) EventTypes() []string {
	return h.eventTypes
}

// Ensure InvalidationHandler implements shared.EventHandler
var _ shared.EventHandler = (*InvalidationHandler)(nil)
