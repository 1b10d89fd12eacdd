package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const couponColumns = "id, code, type, discount_amount, discount_percentage, max_discount_amount, min_cart_value, expires_at, is_active, is_user_specific, target_user_id, usage_limit, usage_count, total_savings, priority, is_scheduled, schedule, applicable_categories, excluded_categories, applicable_products, excluded_products, created_at, updated_at"

// CouponRepository implements repository.CouponRepository using PostgreSQL.
// Usage records live in coupon_usages with a unique (coupon_id, order_id)
// pair so redemptions are idempotent per order.
type CouponRepository struct {
	pool database.DBTX
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool database.DBTX) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	scheduleJSON, err := marshalSchedule(c.Schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO coupons (id, code, type, discount_amount, discount_percentage, max_discount_amount, min_cart_value, expires_at, is_active, is_user_specific, target_user_id, usage_limit, usage_count, total_savings, priority, is_scheduled, schedule, applicable_categories, excluded_categories, applicable_products, excluded_products, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.Code,
		c.Type,
		c.DiscountAmount,
		c.DiscountPercentage,
		c.MaxDiscountAmount,
		c.MinCartValue,
		c.ExpiresAt,
		c.IsActive,
		c.IsUserSpecific,
		c.TargetUserID,
		c.UsageLimit,
		c.UsageCount,
		c.TotalSavings,
		c.Priority,
		c.IsScheduled,
		scheduleJSON,
		c.ApplicableCategories,
		c.ExcludedCategories,
		c.ApplicableProducts,
		c.ExcludedProducts,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}

	return nil
}

// GetByID retrieves a coupon by its ID.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE id = $1`, couponColumns)
	return r.scanCoupon(r.pool.QueryRow(ctx, query, id))
}

// GetByCode retrieves a coupon by its code, case-insensitively.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE upper(code) = upper($1)`, couponColumns)
	return r.scanCoupon(r.pool.QueryRow(ctx, query, code))
}

// List returns coupons matching the filter with the total count, newest
// first. The UserID filter keeps generic coupons and those targeted at
// the given user.
func (r *CouponRepository) List(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("(NOT is_user_specific OR target_user_id = $%d)", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total
		FROM coupons
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, couponColumns, where, argIndex, argIndex+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var (
		coupons []domain.Coupon
		total   int
	)
	for rows.Next() {
		c, err := scanCouponRow(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupons: %w", err)
	}

	return coupons, total, nil
}

// Update rewrites the coupon row. UsageCount and TotalSavings are not
// touched here; they only move through Apply.
func (r *CouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	scheduleJSON, err := marshalSchedule(c.Schedule)
	if err != nil {
		return err
	}

	query := `
		UPDATE coupons SET
			code = $2,
			type = $3,
			discount_amount = $4,
			discount_percentage = $5,
			max_discount_amount = $6,
			min_cart_value = $7,
			expires_at = $8,
			is_active = $9,
			is_user_specific = $10,
			target_user_id = $11,
			usage_limit = $12,
			priority = $13,
			is_scheduled = $14,
			schedule = $15,
			applicable_categories = $16,
			excluded_categories = $17,
			applicable_products = $18,
			excluded_products = $19,
			updated_at = $20
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Code,
		c.Type,
		c.DiscountAmount,
		c.DiscountPercentage,
		c.MaxDiscountAmount,
		c.MinCartValue,
		c.ExpiresAt,
		c.IsActive,
		c.IsUserSpecific,
		c.TargetUserID,
		c.UsageLimit,
		c.Priority,
		c.IsScheduled,
		scheduleJSON,
		c.ApplicableCategories,
		c.ExcludedCategories,
		c.ApplicableProducts,
		c.ExcludedProducts,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", c.ID)
	}

	return nil
}

// Delete removes a coupon. Usage records cascade.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", id)
	}
	return nil
}

// HasUserUsed reports whether the user has a usage record for the coupon.
func (r *CouponRepository) HasUserUsed(ctx context.Context, couponID, userID string) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2)`,
		couponID, userID,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check coupon usage: %w", err)
	}
	return used, nil
}

// Apply records a redemption and bumps the coupon's usage count in one
// transaction. Inserting for an order that already redeemed the coupon
// is a no-op, so retried checkouts never double-count.
func (r *CouponRepository) Apply(ctx context.Context, usage *domain.CouponUsage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO coupon_usages (id, coupon_id, user_id, order_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coupon_id, order_id) DO NOTHING`,
		usage.ID,
		usage.CouponID,
		usage.UserID,
		usage.OrderID,
		usage.DiscountAmount,
		usage.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already applied for this order.
		return nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE coupons
		SET usage_count = usage_count + 1, total_savings = total_savings + $2, updated_at = $3
		WHERE id = $1 AND (usage_limit = 0 OR usage_count < usage_limit)`,
		usage.CouponID, usage.DiscountAmount, usage.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Ineligible(domain.ReasonUsageLimitReached, "coupon usage limit reached")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *CouponRepository) scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	c, err := scanCouponFields(row, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("coupon", "")
		}
		return nil, fmt.Errorf("scan coupon: %w", err)
	}
	return c, nil
}

func scanCouponRow(rows pgx.Rows, total *int) (*domain.Coupon, error) {
	c, err := scanCouponFields(rows, total)
	if err != nil {
		return nil, fmt.Errorf("scan coupon: %w", err)
	}
	return c, nil
}

func scanCouponFields(row pgx.Row, total *int) (*domain.Coupon, error) {
	var (
		c            domain.Coupon
		scheduleJSON []byte
	)

	dest := []any{
		&c.ID,
		&c.Code,
		&c.Type,
		&c.DiscountAmount,
		&c.DiscountPercentage,
		&c.MaxDiscountAmount,
		&c.MinCartValue,
		&c.ExpiresAt,
		&c.IsActive,
		&c.IsUserSpecific,
		&c.TargetUserID,
		&c.UsageLimit,
		&c.UsageCount,
		&c.TotalSavings,
		&c.Priority,
		&c.IsScheduled,
		&scheduleJSON,
		&c.ApplicableCategories,
		&c.ExcludedCategories,
		&c.ApplicableProducts,
		&c.ExcludedProducts,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if len(scheduleJSON) > 0 {
		c.Schedule = &domain.Schedule{}
		if err := json.Unmarshal(scheduleJSON, c.Schedule); err != nil {
			return nil, fmt.Errorf("decode coupon schedule: %w", err)
		}
	}

	return &c, nil
}

func marshalSchedule(s *domain.Schedule) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode coupon schedule: %w", err)
	}
	return data, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
