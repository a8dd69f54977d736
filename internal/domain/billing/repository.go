package billing

import (
	"context"

	"github.com/google/uuid"
)

// Reader is the storage-read collaborator for invoices. Implementations
// return fully loaded aggregates (positions and cost splits attached,
// ordered by position number) and apply non-deleted filtering to cost
// splits; deleted invoices and positions are returned with their flag set
// so identity survives for audit history.
type Reader interface {
	// LoadAll returns every invoice for a full cache refresh pass
	LoadAll(ctx context.Context) ([]*Invoice, error)

	// FindByID returns a single invoice or nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
}
