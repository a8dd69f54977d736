package ordering

import (
	"context"

	"github.com/google/uuid"
)

// Reader is the storage-read collaborator for orders. Implementations
// return fully loaded aggregates (positions and payment schedule entries
// attached, ordered by number). Deleted rows keep their flag so derivation
// can exclude them from sums without losing identity.
type Reader interface {
	// LoadAll returns every order for a full cache refresh pass
	LoadAll(ctx context.Context) ([]*Order, error)

	// FindByID returns a single order or nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
}
