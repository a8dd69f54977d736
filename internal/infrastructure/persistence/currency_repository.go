package persistence

import (
	"context"
	"fmt"

	"github.com/erp/finstate/internal/domain/currency"
	"gorm.io/gorm"
)

// CurrencyRepository implements currency.Reader on GORM. Pairs come back
// with their full rate lists; sorting is left to the cache refresh.
type CurrencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository creates a new currency pair repository
func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// LoadAll returns every currency pair for a full cache refresh pass
func (r *CurrencyRepository) LoadAll(ctx context.Context) ([]*currency.Pair, error) {
	var pairs []*currency.Pair
	err := r.db.WithContext(ctx).
		Preload("Rates").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load currency pairs: %w", err)
	}
	return pairs, nil
}

// Ensure CurrencyRepository implements currency.Reader
var _ currency.Reader = (*CurrencyRepository)(nil)
