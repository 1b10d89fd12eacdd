package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/catalog/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/catalog/repository"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const productColumns = "id, name, slug, description, category, our_price, discount, stock, sold, max_order, is_active, is_featured, created_at, updated_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// Colors and sizes live in their own tables so stock mutations can target
// a single row.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product with its colors and sizes atomically.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (id, name, slug, description, category, our_price, discount, stock, sold, max_order, is_active, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.Category,
		p.OurPrice,
		p.Discount,
		p.Stock,
		p.Sold,
		p.MaxOrder,
		p.IsActive,
		p.IsFeatured,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	if err := insertColors(ctx, tx, p.ID, p.Colors); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a product with its full color and size tree.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.scanProduct(ctx, query, id)
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.scanProduct(ctx, query, slug)
}

// List returns products matching the filter with the total count. Listed
// products do not include their color tree; use GetByID for the full
// variant detail.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	if filter.IsFeatured != nil {
		conditions = append(conditions, fmt.Sprintf("is_featured = $%d", argIndex))
		args = append(args, *filter.IsFeatured)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("our_price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("our_price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() returns the total in the same query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		if err := scanProductRow(rows, &p, &totalCount); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// Update rewrites the product row and replaces its color tree atomically.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, category = $4, our_price = $5,
		    discount = $6, stock = $7, max_order = $8, is_active = $9, is_featured = $10, updated_at = $11
		WHERE id = $12`

	ct, err := tx.Exec(ctx, query,
		p.Name,
		p.Slug,
		p.Description,
		p.Category,
		p.OurPrice,
		p.Discount,
		p.Stock,
		p.MaxOrder,
		p.IsActive,
		p.IsFeatured,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	// Sizes cascade when colors are deleted.
	if _, err := tx.Exec(ctx, `DELETE FROM product_colors WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("delete product colors: %w", err)
	}

	if err := insertColors(ctx, tx, p.ID, p.Colors); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a product; colors and sizes cascade.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// Categories returns the distinct category names in use.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	if categories == nil {
		categories = []string{}
	}

	return categories, nil
}

func insertColors(ctx context.Context, tx pgx.Tx, productID string, colors []domain.Color) error {
	for ci, c := range colors {
		imagesJSON, err := json.Marshal(c.Images)
		if err != nil {
			return fmt.Errorf("marshal color images: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO product_colors (id, product_id, name, hex, images, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, productID, c.Name, c.Hex, imagesJSON, ci,
		)
		if err != nil {
			return fmt.Errorf("insert product color: %w", err)
		}

		for si, s := range c.Sizes {
			_, err = tx.Exec(ctx, `
				INSERT INTO product_sizes (id, color_id, label, stock, max_order, position)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				s.ID, c.ID, s.Label, s.Stock, s.MaxOrder, si,
			)
			if err != nil {
				return fmt.Errorf("insert product size: %w", err)
			}
		}
	}
	return nil
}

func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var p domain.Product

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&p.OurPrice,
		&p.Discount,
		&p.Stock,
		&p.Sold,
		&p.MaxOrder,
		&p.IsActive,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	colors, err := r.loadColors(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Colors = colors

	return &p, nil
}

// loadColors fetches the color and size tree for a product in two queries.
func (r *ProductRepository) loadColors(ctx context.Context, productID string) ([]domain.Color, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, hex, images
		FROM product_colors
		WHERE product_id = $1
		ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("load product colors: %w", err)
	}
	defer rows.Close()

	var colors []domain.Color
	colorIndex := make(map[string]int)

	for rows.Next() {
		var (
			c          domain.Color
			imagesJSON []byte
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Hex, &imagesJSON); err != nil {
			return nil, fmt.Errorf("scan color row: %w", err)
		}
		if imagesJSON != nil {
			if err := json.Unmarshal(imagesJSON, &c.Images); err != nil {
				return nil, fmt.Errorf("unmarshal color images: %w", err)
			}
		}
		colorIndex[c.ID] = len(colors)
		colors = append(colors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate color rows: %w", err)
	}

	if len(colors) == 0 {
		return nil, nil
	}

	sizeRows, err := r.pool.Query(ctx, `
		SELECT s.id, s.color_id, s.label, s.stock, s.max_order
		FROM product_sizes s
		JOIN product_colors c ON c.id = s.color_id
		WHERE c.product_id = $1
		ORDER BY s.position`, productID)
	if err != nil {
		return nil, fmt.Errorf("load product sizes: %w", err)
	}
	defer sizeRows.Close()

	for sizeRows.Next() {
		var (
			s       domain.Size
			colorID string
		)
		if err := sizeRows.Scan(&s.ID, &colorID, &s.Label, &s.Stock, &s.MaxOrder); err != nil {
			return nil, fmt.Errorf("scan size row: %w", err)
		}
		if idx, ok := colorIndex[colorID]; ok {
			colors[idx].Sizes = append(colors[idx].Sizes, s)
		}
	}
	if err := sizeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate size rows: %w", err)
	}

	return colors, nil
}

func scanProductRow(rows pgx.Rows, p *domain.Product, totalCount *int) error {
	if err := rows.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&p.OurPrice,
		&p.Discount,
		&p.Stock,
		&p.Sold,
		&p.MaxOrder,
		&p.IsActive,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
		totalCount,
	); err != nil {
		return fmt.Errorf("scan product row: %w", err)
	}
	return nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
