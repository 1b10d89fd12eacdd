package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/repository"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const orderID = "b5e6c1d0-0000-0000-0000-000000000001"

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func TestCreate(t *testing.T) {
	mockPool := newMock(t)
	repo := NewOrderRepository(mockPool)

	o := &domain.Order{
		ID:     orderID,
		UserID: "u1",
		Email:  "u1@example.com",
		Status: domain.StatusPaid,
		Items: []domain.OrderItem{
			{ID: "it1", ProductID: "p1", Name: "Oversized Tee", Category: "tshirts", Color: "Red", Size: "M", UnitPrice: 50000, Quantity: 2},
		},
		Subtotal: 100000,
		Total:    100000,
		Address:  domain.Address{Name: "Priya", Pincode: "560001"},
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.UserID, o.Email, o.Status, o.Subtotal, o.CouponCode, o.CouponDiscount,
			(*string)(nil), o.OfferDiscount, o.Total, o.PaymentID, pgxmock.AnyArg(),
			o.StockAllocated, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO order_items").
		WithArgs("it1", o.ID, "p1", "Oversized Tee", "tshirts", "Red", "M", int64(50000), 2, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mockPool := newMock(t)
	repo := NewOrderRepository(mockPool)

	mockPool.ExpectQuery("FROM orders WHERE id").
		WithArgs(orderID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), orderID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestList_UserAndDateFilter(t *testing.T) {
	mockPool := newMock(t)
	repo := NewOrderRepository(mockPool)

	userID := "u1"
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	orderRows := pgxmock.NewRows([]string{
		"id", "user_id", "email", "status", "subtotal", "coupon_code", "coupon_discount",
		"offer_id", "offer_discount", "total", "payment_id", "address", "stock_allocated",
		"created_at", "updated_at", "total_count",
	}).AddRow(
		orderID, userID, "u1@example.com", domain.StatusPaid, int64(100000), "", int64(0),
		(*string)(nil), int64(0), int64(100000), "pay_123", []byte(`{"name":"Priya"}`), false,
		now, now, 1,
	)

	mockPool.ExpectQuery("FROM orders").
		WithArgs(userID, from, 20, 0).
		WillReturnRows(orderRows)
	mockPool.ExpectQuery("FROM order_items").
		WithArgs(orderID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "category", "color", "size", "unit_price", "quantity"}).
			AddRow("it1", "p1", "Oversized Tee", "tshirts", "Red", "M", int64(50000), 2))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{
		UserID:  &userID,
		From:    &from,
		Page:    1,
		PerPage: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "Priya", orders[0].Address.Name)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Oversized Tee", orders[0].Items[0].Name)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUpdateStatus_NotFound(t *testing.T) {
	mockPool := newMock(t)
	repo := NewOrderRepository(mockPool)

	mockPool.ExpectExec("UPDATE orders SET status").
		WithArgs(orderID, domain.StatusShipped, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), orderID, domain.StatusShipped, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
