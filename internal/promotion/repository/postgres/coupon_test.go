package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const couponID = "c3d4e5f6-0000-0000-0000-000000000001"

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func couponRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "code", "type", "discount_amount", "discount_percentage",
		"max_discount_amount", "min_cart_value", "expires_at", "is_active",
		"is_user_specific", "target_user_id", "usage_limit", "usage_count",
		"total_savings", "priority", "is_scheduled", "schedule",
		"applicable_categories", "excluded_categories", "applicable_products",
		"excluded_products", "created_at", "updated_at",
	})
}

func TestGetByCode(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	now := time.Now().UTC()
	rows := couponRows().AddRow(
		couponID, "WEEKEND20", domain.CouponType("percentage"), int64(0), 20.0,
		int64(20000), int64(0), (*time.Time)(nil), true,
		false, "", 0, 3,
		int64(30000), 0, true, []byte(`{"days_of_week":["saturday","sunday"]}`),
		[]string{}, []string{}, []string{},
		[]string{}, now, now,
	)

	mockPool.ExpectQuery("SELECT (.+) FROM coupons WHERE upper\\(code\\) = upper\\(\\$1\\)").
		WithArgs("weekend20").
		WillReturnRows(rows)

	c, err := repo.GetByCode(context.Background(), "weekend20")
	require.NoError(t, err)
	assert.Equal(t, "WEEKEND20", c.Code)
	assert.Equal(t, 20.0, c.DiscountPercentage)
	assert.Equal(t, int64(30000), c.TotalSavings)
	require.NotNil(t, c.Schedule)
	assert.Equal(t, []string{"saturday", "sunday"}, c.Schedule.DaysOfWeek)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetByCode_NotFound(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	mockPool.ExpectQuery("SELECT (.+) FROM coupons").
		WithArgs("NOPE").
		WillReturnRows(couponRows())

	_, err := repo.GetByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCreate_DuplicateCode(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	insertArgs := make([]interface{}, 23)
	for i := range insertArgs {
		insertArgs[i] = pgxmock.AnyArg()
	}
	mockPool.ExpectExec("INSERT INTO coupons").
		WithArgs(insertArgs...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &domain.Coupon{ID: couponID, Code: "WELCOME10"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "ALREADY_EXISTS", apperrors.Code(err))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestApply(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	usage := &domain.CouponUsage{
		ID:             "use1",
		CouponID:       couponID,
		UserID:         "u1",
		OrderID:        "ord1",
		DiscountAmount: 10000,
		UsedAt:         time.Now().UTC(),
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO coupon_usages").
		WithArgs(usage.ID, usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountAmount, usage.UsedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("UPDATE coupons").
		WithArgs(usage.CouponID, usage.DiscountAmount, usage.UsedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	require.NoError(t, repo.Apply(context.Background(), usage))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestApply_DuplicateOrderIsNoop(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	usage := &domain.CouponUsage{ID: "use1", CouponID: couponID, UserID: "u1", OrderID: "ord1", UsedAt: time.Now().UTC()}

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO coupon_usages").
		WithArgs(usage.ID, usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountAmount, usage.UsedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mockPool.ExpectRollback()

	require.NoError(t, repo.Apply(context.Background(), usage))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestApply_UsageLimitReached(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	usage := &domain.CouponUsage{ID: "use1", CouponID: couponID, UserID: "u1", OrderID: "ord1", UsedAt: time.Now().UTC()}

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO coupon_usages").
		WithArgs(usage.ID, usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountAmount, usage.UsedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("UPDATE coupons").
		WithArgs(usage.CouponID, usage.DiscountAmount, usage.UsedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	err := repo.Apply(context.Background(), usage)
	assert.ErrorIs(t, err, apperrors.ErrIneligible)
	assert.Equal(t, domain.ReasonUsageLimitReached, apperrors.Code(err))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	mockPool := newMock(t)
	repo := NewCouponRepository(mockPool)

	mockPool.ExpectExec("DELETE FROM coupons").
		WithArgs(couponID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), couponID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
