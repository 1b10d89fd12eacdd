package repository

import (
	"context"
	"time"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
)

// OrderFilter holds optional filters for listing orders. From and To
// bound the order's creation time.
type OrderFilter struct {
	UserID  *string
	Status  *domain.Status
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the order to the given status and records
	// whether stock is currently allocated to it.
	UpdateStatus(ctx context.Context, id string, status domain.Status, stockAllocated bool) error

	Delete(ctx context.Context, id string) error
}
