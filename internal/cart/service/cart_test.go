package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoruadmin/kokoru-backend/internal/cart/domain"
	catalog "github.com/kokoruadmin/kokoru-backend/internal/catalog/domain"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const testProductID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func testProduct() *catalog.Product {
	return &catalog.Product{
		ID:       testProductID,
		Name:     "Oversized Tee",
		Category: "tshirts",
		OurPrice: 50000,
		IsActive: true,
		Colors: []catalog.Color{
			{
				Name: "Red",
				Sizes: []catalog.Size{
					{Label: "M", Stock: 10, MaxOrder: 3},
				},
			},
		},
	}
}

func newCartService(repo *mockCartRepository, cat *mockCatalog) *CartService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewCartService(repo, cat, logger)
}

func TestAddItem(t *testing.T) {
	repo := new(mockCartRepository)
	cat := new(mockCatalog)
	svc := newCartService(repo, cat)

	cat.On("GetProduct", mock.Anything, testProductID).Return(testProduct(), nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1"}, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 2 && c.Items[0].UnitPrice == 50000
	})).Return(nil)

	cart, err := svc.AddItem(context.Background(), "u1", testProductID, "Red", "M", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), cart.Subtotal())

	repo.AssertExpectations(t)
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	repo := new(mockCartRepository)
	cat := new(mockCatalog)
	svc := newCartService(repo, cat)

	existing := &domain.Cart{
		UserID: "u1",
		Items: []domain.Item{
			{ProductID: testProductID, Color: "Red", Size: "M", UnitPrice: 50000, Quantity: 1},
		},
	}

	cat.On("GetProduct", mock.Anything, testProductID).Return(testProduct(), nil)
	repo.On("Get", mock.Anything, "u1").Return(existing, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 3
	})).Return(nil)

	_, err := svc.AddItem(context.Background(), "u1", testProductID, "Red", "M", 2)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestAddItem_OrderLimit(t *testing.T) {
	repo := new(mockCartRepository)
	cat := new(mockCatalog)
	svc := newCartService(repo, cat)

	cat.On("GetProduct", mock.Anything, testProductID).Return(testProduct(), nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1"}, nil)

	// Size M caps at 3 per order.
	_, err := svc.AddItem(context.Background(), "u1", testProductID, "Red", "M", 4)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_ProductLevelOrderLimit(t *testing.T) {
	repo := new(mockCartRepository)
	cat := new(mockCatalog)
	svc := newCartService(repo, cat)

	// No variants: the cap on the product itself applies.
	gift := &catalog.Product{
		ID:       testProductID,
		Name:     "Gift Card",
		OurPrice: 100000,
		Stock:    50,
		MaxOrder: 2,
		IsActive: true,
	}
	cat.On("GetProduct", mock.Anything, testProductID).Return(gift, nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1"}, nil)

	_, err := svc.AddItem(context.Background(), "u1", testProductID, "", "", 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_UnknownVariant(t *testing.T) {
	repo := new(mockCartRepository)
	cat := new(mockCatalog)
	svc := newCartService(repo, cat)

	cat.On("GetProduct", mock.Anything, testProductID).Return(testProduct(), nil)

	_, err := svc.AddItem(context.Background(), "u1", testProductID, "Green", "M", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newCartService(repo, new(mockCatalog))

	existing := &domain.Cart{
		UserID: "u1",
		Items: []domain.Item{
			{ProductID: testProductID, Color: "Red", Size: "M", UnitPrice: 50000, Quantity: 2},
		},
	}

	repo.On("Get", mock.Anything, "u1").Return(existing, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 0
	})).Return(nil)

	cart, err := svc.UpdateQuantity(context.Background(), "u1", testProductID, "Red", "M", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestUpdateQuantity_MissingLine(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newCartService(repo, new(mockCatalog))

	repo.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1"}, nil)

	_, err := svc.UpdateQuantity(context.Background(), "u1", testProductID, "Red", "M", 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
