package repository

import (
	"context"

	"github.com/kokoruadmin/kokoru-backend/internal/cart/domain"
)

// CartRepository defines cart persistence. Get returns an empty cart for
// users who have none.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
