package repository

import (
	"context"

	"github.com/kokoruadmin/kokoru-backend/internal/catalog/domain"
)

// ProductFilter holds optional filters for listing products.
type ProductFilter struct {
	Category   *string
	Search     *string
	IsActive   *bool
	IsFeatured *bool
	MinPrice   *int64
	MaxPrice   *int64
	Page       int
	PerPage    int
}

// ProductRepository defines persistence operations for catalog products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}
