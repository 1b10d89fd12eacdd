package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// StockRepository implements repository.StockRepository using PostgreSQL.
// Stock lives on product_sizes rows (or on the product itself when it has
// no variants), so a decrement is a single conditional UPDATE.
type StockRepository struct {
	pool database.DBTX
}

// NewStockRepository creates a new PostgreSQL-backed stock repository.
func NewStockRepository(pool database.DBTX) *StockRepository {
	return &StockRepository{pool: pool}
}

const variantQuery = `
	SELECT ps.id, ps.stock, ps.max_order, p.max_order, p.is_active
	FROM product_sizes ps
	JOIN product_colors pc ON pc.id = ps.color_id
	JOIN products p ON p.id = pc.product_id
	WHERE pc.product_id = $1 AND lower(pc.name) = lower($2) AND lower(ps.label) = lower($3)`

// GetAvailability reports the current stock state for one variant.
func (r *StockRepository) GetAvailability(ctx context.Context, line domain.StockLine) (*domain.Availability, error) {
	av := &domain.Availability{
		ProductID: line.ProductID,
		Color:     line.Color,
		Size:      line.Size,
	}

	if line.Color == "" && line.Size == "" {
		err := r.pool.QueryRow(ctx,
			`SELECT stock, max_order, is_active FROM products WHERE id = $1`,
			line.ProductID,
		).Scan(&av.Stock, &av.ProductMaxOrder, &av.ProductActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NotFound("product", line.ProductID)
			}
			return nil, fmt.Errorf("get product stock: %w", err)
		}
		return av, nil
	}

	var sizeID string
	err := r.pool.QueryRow(ctx, variantQuery, line.ProductID, line.Color, line.Size).
		Scan(&sizeID, &av.Stock, &av.MaxOrder, &av.ProductMaxOrder, &av.ProductActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.variantNotFound(ctx, r.pool, line)
		}
		return nil, fmt.Errorf("get variant stock: %w", err)
	}

	return av, nil
}

// Reserve decrements stock for every line in one transaction, validating
// all lines before touching any stock. Row locks taken during validation
// hold until commit, so concurrent reservations for the same variant
// serialize.
func (r *StockRepository) Reserve(ctx context.Context, lines []domain.StockLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	type target struct {
		line   domain.StockLine
		sizeID string // empty for product-level stock
	}
	targets := make([]target, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return apperrors.InvalidInput("reservation quantity must be positive")
		}

		if line.Color == "" && line.Size == "" {
			var av domain.Availability
			err := tx.QueryRow(ctx,
				`SELECT stock, max_order, is_active FROM products WHERE id = $1 FOR UPDATE`,
				line.ProductID,
			).Scan(&av.Stock, &av.ProductMaxOrder, &av.ProductActive)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return reserveFailure(domain.ReasonProductNotFound, line)
				}
				return fmt.Errorf("lock product stock: %w", err)
			}
			if !av.ProductActive {
				return reserveFailure(domain.ReasonProductNotFound, line)
			}
			if line.Quantity > av.EffectiveMaxOrder() {
				return reserveFailure(domain.ReasonOrderLimitExceeded, line)
			}
			if av.Stock < line.Quantity {
				return reserveFailure(domain.ReasonInsufficientStock, line)
			}
			targets = append(targets, target{line: line})
			continue
		}

		var av domain.Availability
		var sizeID string
		err := tx.QueryRow(ctx, variantQuery+" FOR UPDATE OF ps", line.ProductID, line.Color, line.Size).
			Scan(&sizeID, &av.Stock, &av.MaxOrder, &av.ProductMaxOrder, &av.ProductActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.variantNotFound(ctx, tx, line)
			}
			return fmt.Errorf("lock variant stock: %w", err)
		}
		if !av.ProductActive {
			return reserveFailure(domain.ReasonProductNotFound, line)
		}
		if line.Quantity > av.EffectiveMaxOrder() {
			return reserveFailure(domain.ReasonOrderLimitExceeded, line)
		}
		if av.Stock < line.Quantity {
			return reserveFailure(domain.ReasonInsufficientStock, line)
		}
		targets = append(targets, target{line: line, sizeID: sizeID})
	}

	for _, t := range targets {
		if t.sizeID != "" {
			tag, err := tx.Exec(ctx,
				`UPDATE product_sizes SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
				t.line.Quantity, t.sizeID,
			)
			if err != nil {
				return fmt.Errorf("decrement variant stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return reserveFailure(domain.ReasonInsufficientStock, t.line)
			}

			_, err = tx.Exec(ctx,
				`UPDATE products SET stock = stock - $1, sold = sold + $1, updated_at = now() WHERE id = $2`,
				t.line.Quantity, t.line.ProductID,
			)
			if err != nil {
				return fmt.Errorf("update product aggregates: %w", err)
			}
			continue
		}

		tag, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $1, sold = sold + $1, updated_at = now() WHERE id = $2 AND stock >= $1`,
			t.line.Quantity, t.line.ProductID,
		)
		if err != nil {
			return fmt.Errorf("decrement product stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return reserveFailure(domain.ReasonInsufficientStock, t.line)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Release returns previously reserved stock. Sold counts never go below
// zero. Lines whose variant has since been deleted are skipped.
func (r *StockRepository) Release(ctx context.Context, lines []domain.StockLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}

		if line.Color == "" && line.Size == "" {
			_, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock + $1, sold = GREATEST(sold - $1, 0), updated_at = now() WHERE id = $2`,
				line.Quantity, line.ProductID,
			)
			if err != nil {
				return fmt.Errorf("restore product stock: %w", err)
			}
			continue
		}

		var sizeID string
		err := tx.QueryRow(ctx, variantQuery+" FOR UPDATE OF ps", line.ProductID, line.Color, line.Size).
			Scan(&sizeID, new(int), new(int), new(int), new(bool))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return fmt.Errorf("lock variant stock: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE product_sizes SET stock = stock + $1 WHERE id = $2`,
			line.Quantity, sizeID,
		)
		if err != nil {
			return fmt.Errorf("restore variant stock: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET stock = stock + $1, sold = GREATEST(sold - $1, 0), updated_at = now() WHERE id = $2`,
			line.Quantity, line.ProductID,
		)
		if err != nil {
			return fmt.Errorf("update product aggregates: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Restock tops up stock for the given variants in one transaction.
func (r *StockRepository) Restock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, adj := range adjustments {
		if adj.Quantity <= 0 {
			return apperrors.InvalidInput("restock quantity must be positive")
		}

		if adj.Color == "" && adj.Size == "" {
			tag, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock + $1, updated_at = now() WHERE id = $2`,
				adj.Quantity, adj.ProductID,
			)
			if err != nil {
				return fmt.Errorf("restock product: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return apperrors.NotFound("product", adj.ProductID)
			}
			continue
		}

		line := domain.StockLine{ProductID: adj.ProductID, Color: adj.Color, Size: adj.Size}
		var sizeID string
		err := tx.QueryRow(ctx, variantQuery+" FOR UPDATE OF ps", adj.ProductID, adj.Color, adj.Size).
			Scan(&sizeID, new(int), new(int), new(int), new(bool))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.variantNotFound(ctx, tx, line)
			}
			return fmt.Errorf("lock variant stock: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE product_sizes SET stock = stock + $1 WHERE id = $2`,
			adj.Quantity, sizeID,
		)
		if err != nil {
			return fmt.Errorf("restock variant: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET stock = stock + $1, updated_at = now() WHERE id = $2`,
			adj.Quantity, adj.ProductID,
		)
		if err != nil {
			return fmt.Errorf("update product aggregates: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// variantNotFound distinguishes a missing product from a missing variant
// on that product.
func (r *StockRepository) variantNotFound(ctx context.Context, q rowQuerier, line domain.StockLine) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`,
		line.ProductID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check product existence: %w", err)
	}
	if !exists {
		return reserveFailure(domain.ReasonProductNotFound, line)
	}
	return reserveFailure(domain.ReasonVariantNotFound, line)
}

func reserveFailure(reason string, line domain.StockLine) error {
	msg := fmt.Sprintf("product %s", line.ProductID)
	if line.Color != "" || line.Size != "" {
		msg = fmt.Sprintf("product %s variant %s/%s", line.ProductID, line.Color, line.Size)
	}
	return apperrors.Conflict(reason, msg)
}
