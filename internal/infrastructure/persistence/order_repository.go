package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository implements ordering.Reader on GORM. Aggregates are
// returned fully loaded with positions and payment schedule entries in
// number order. Deleted rows are returned with their flag set so the
// derivation layer can exclude them from sums while their identity
// survives for audit history.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// LoadAll returns every order for a full cache refresh pass
func (r *OrderRepository) LoadAll(ctx context.Context) ([]*ordering.Order, error) {
	var orders []*ordering.Order
	err := r.withAssociations(ctx).
		Order("number ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// FindByID returns a single order or nil when it does not exist
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	err := r.withAssociations(ctx).
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order %s: %w", id, err)
	}
	return &order, nil
}

func (r *OrderRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Preload("PaymentSchedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		})
}

// Ensure OrderRepository implements ordering.Reader
var _ ordering.Reader = (*OrderRepository)(nil)
