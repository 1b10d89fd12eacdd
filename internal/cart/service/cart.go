package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kokoruadmin/kokoru-backend/internal/cart/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/cart/repository"
	catalog "github.com/kokoruadmin/kokoru-backend/internal/catalog/domain"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// ProductCatalog looks up products when items are added to a cart.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// CartService implements the business logic for shopping carts.
type CartService struct {
	repo    repository.CartRepository
	catalog ProductCatalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, catalog ProductCatalog, logger *slog.Logger) *CartService {
	return &CartService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// GetCart returns the user's cart, empty if they have none.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

// AddItem puts a product variant in the cart, merging with an existing
// line for the same variant. The price is snapshotted from the catalog.
func (s *CartService) AddItem(ctx context.Context, userID, productID, color, size string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", productID)
	}

	maxOrder := product.EffectiveMaxOrder()
	if product.HasVariants() {
		c, ok := product.FindColor(color)
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product has no color %q", color))
		}
		sz, ok := c.FindSize(size)
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("color %q has no size %q", color, size))
		}
		if sz.MaxOrder > 0 {
			maxOrder = sz.MaxOrder
		}
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := 0
	if i := cart.Find(productID, color, size); i >= 0 {
		existing = cart.Items[i].Quantity
	}
	if existing+quantity > maxOrder {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("quantity exceeds the per-order limit of %d", maxOrder))
	}

	cart.Upsert(domain.Item{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Color:     color,
		Size:      size,
		UnitPrice: product.OurPrice,
		Quantity:  quantity,
	})
	cart.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "cart item added",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateQuantity sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID, color, size string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := cart.Find(productID, color, size)
	if i < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if quantity == 0 {
		cart.Remove(productID, color, size)
	} else {
		cart.Items[i].Quantity = quantity
	}
	cart.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID, color, size string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Remove(productID, color, size)
	cart.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// ClearCart empties the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}
