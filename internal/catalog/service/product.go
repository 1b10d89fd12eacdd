package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kokoruadmin/kokoru-backend/internal/catalog/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/catalog/event"
	"github.com/kokoruadmin/kokoru-backend/internal/catalog/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
	"github.com/kokoruadmin/kokoru-backend/pkg/slug"
)

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	repo     repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new catalog service.
func NewProductService(repo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// SizeInput holds the parameters for a product size.
type SizeInput struct {
	Label    string
	Stock    int
	MaxOrder int
}

// ColorInput holds the parameters for a product color variant.
type ColorInput struct {
	Name   string
	Hex    string
	Images []string
	Sizes  []SizeInput
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	OurPrice    int64
	Discount    float64
	Colors      []ColorInput
	Stock       int
	MaxOrder    int
	IsActive    bool
	IsFeatured  bool
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields are left unchanged; a non-nil Colors slice replaces the whole
// variant tree.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	OurPrice    *int64
	Discount    *float64
	Colors      []ColorInput
	Stock       *int
	MaxOrder    *int
	IsActive    *bool
	IsFeatured  *bool
}

// CreateProduct creates a new product with its variant tree.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.OurPrice <= 0 {
		return nil, apperrors.InvalidInput("price must be positive")
	}
	if input.Discount < 0 || input.Discount >= 100 {
		return nil, apperrors.InvalidInput("discount must be between 0 and 100")
	}
	if input.MaxOrder < 0 {
		return nil, apperrors.InvalidInput("max order must not be negative")
	}

	maxOrder := input.MaxOrder
	if maxOrder == 0 {
		maxOrder = domain.DefaultMaxOrder
	}

	colors, err := buildColors(input.Colors)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		Category:    input.Category,
		OurPrice:    input.OurPrice,
		Discount:    input.Discount,
		Colors:      colors,
		Stock:       input.Stock,
		MaxOrder:    maxOrder,
		IsActive:    input.IsActive,
		IsFeatured:  input.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	product.RecomputeStock()

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductBySlug retrieves a product by its slug.
func (s *ProductService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.repo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// ListProducts returns products matching the filter with the total count.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies the given changes to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
		product.Slug = slug.Generate(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.OurPrice != nil {
		if *input.OurPrice <= 0 {
			return nil, apperrors.InvalidInput("price must be positive")
		}
		product.OurPrice = *input.OurPrice
	}
	if input.Discount != nil {
		if *input.Discount < 0 || *input.Discount >= 100 {
			return nil, apperrors.InvalidInput("discount must be between 0 and 100")
		}
		product.Discount = *input.Discount
	}
	if input.Colors != nil {
		colors, err := buildColors(input.Colors)
		if err != nil {
			return nil, err
		}
		product.Colors = colors
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.MaxOrder != nil {
		if *input.MaxOrder <= 0 {
			return nil, apperrors.InvalidInput("max order must be positive")
		}
		product.MaxOrder = *input.MaxOrder
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}

	product.RecomputeStock()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	return nil
}

// Categories returns the distinct product categories in use.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func buildColors(inputs []ColorInput) ([]domain.Color, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	colors := make([]domain.Color, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))

	for _, ci := range inputs {
		if ci.Name == "" {
			return nil, apperrors.InvalidInput("color name is required")
		}
		key := strings.ToLower(ci.Name)
		if _, dup := seen[key]; dup {
			return nil, apperrors.InvalidInput("duplicate color name: " + ci.Name)
		}
		seen[key] = struct{}{}

		color := domain.Color{
			ID:     uuid.New().String(),
			Name:   ci.Name,
			Hex:    ci.Hex,
			Images: ci.Images,
		}

		sizeSeen := make(map[string]struct{}, len(ci.Sizes))
		for _, si := range ci.Sizes {
			if si.Label == "" {
				return nil, apperrors.InvalidInput("size label is required")
			}
			if si.Stock < 0 {
				return nil, apperrors.InvalidInput("size stock must not be negative")
			}
			if si.MaxOrder < 0 {
				return nil, apperrors.InvalidInput("size max order must not be negative")
			}
			sizeKey := strings.ToLower(si.Label)
			if _, dup := sizeSeen[sizeKey]; dup {
				return nil, apperrors.InvalidInput("duplicate size label: " + si.Label)
			}
			sizeSeen[sizeKey] = struct{}{}

			color.Sizes = append(color.Sizes, domain.Size{
				ID:       uuid.New().String(),
				Label:    si.Label,
				Stock:    si.Stock,
				MaxOrder: si.MaxOrder,
			})
		}

		colors = append(colors, color)
	}

	return colors, nil
}

