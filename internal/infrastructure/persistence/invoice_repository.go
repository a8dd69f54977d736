package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/finstate/internal/domain/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceRepository implements billing.Reader on GORM. Invoices come back
// with positions and cost splits attached, ordered by position number.
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// LoadAll returns every invoice for a full cache refresh pass
func (r *InvoiceRepository) LoadAll(ctx context.Context) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	err := r.withAssociations(ctx).
		Order("number ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	return invoices, nil
}

// FindByID returns a single invoice or nil when it does not exist
func (r *InvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	err := r.withAssociations(ctx).
		Where("id = ?", id).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", id, err)
	}
	return &invoice, nil
}

func (r *InvoiceRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Preload("Positions.CostSplits", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		})
}

// Ensure InvoiceRepository implements billing.Reader
var _ billing.Reader = (*InvoiceRepository)(nil)
