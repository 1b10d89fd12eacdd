package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/repository"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const orderColumns = "id, user_id, email, status, subtotal, coupon_code, coupon_discount, offer_id, offer_discount, total, payment_id, address, stock_allocated, created_at, updated_at"

const itemColumns = "id, product_id, name, category, color, size, unit_price, quantity"

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order with its items atomically.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("encode order address: %w", err)
	}

	query := `
		INSERT INTO orders (id, user_id, email, status, subtotal, coupon_code, coupon_discount, offer_id, offer_discount, total, payment_id, address, stock_allocated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, query,
		o.ID,
		o.UserID,
		o.Email,
		o.Status,
		o.Subtotal,
		o.CouponCode,
		o.CouponDiscount,
		nullable(o.OfferID),
		o.OfferDiscount,
		o.Total,
		o.PaymentID,
		addressJSON,
		o.StockAllocated,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, category, color, size, unit_price, quantity, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, o.ID, it.ProductID, it.Name, it.Category, it.Color, it.Size, it.UnitPrice, it.Quantity, i,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// List returns orders matching the filter with the total count, newest
// first, including their items.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, orderColumns, where, argIndex, argIndex+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		total  int
	)
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

// UpdateStatus moves the order to the given status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, stockAllocated bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, stock_allocated = $3, updated_at = now() WHERE id = $1`,
		id, status, stockAllocated,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// Delete removes an order. Items cascade.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *domain.Order) error {
	query := fmt.Sprintf(`SELECT %s FROM order_items WHERE order_id = $1 ORDER BY position`, itemColumns)

	rows, err := r.pool.Query(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Category, &it.Color, &it.Size, &it.UnitPrice, &it.Quantity)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row, total *int) (*domain.Order, error) {
	var (
		o           domain.Order
		offerID     *string
		addressJSON []byte
	)

	dest := []any{
		&o.ID,
		&o.UserID,
		&o.Email,
		&o.Status,
		&o.Subtotal,
		&o.CouponCode,
		&o.CouponDiscount,
		&offerID,
		&o.OfferDiscount,
		&o.Total,
		&o.PaymentID,
		&addressJSON,
		&o.StockAllocated,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if offerID != nil {
		o.OfferID = *offerID
	}

	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
			return nil, fmt.Errorf("decode order address: %w", err)
		}
	}

	return &o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
