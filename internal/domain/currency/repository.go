package currency

import "context"

// Reader is the storage-read collaborator for currency pairs.
// Implementations return pairs with their rate lists attached; rate lists
// need not be pre-sorted, the cache sorts them on refresh.
type Reader interface {
	// LoadAll returns every currency pair for a full cache refresh pass
	LoadAll(ctx context.Context) ([]*Pair, error)
}
