package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	inventory "github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/event"
	"github.com/kokoruadmin/kokoru-backend/internal/order/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
)

// --- Mocks ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, stockAllocated bool) error {
	args := m.Called(ctx, id, status, stockAllocated)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockStockAllocator struct {
	mock.Mock
}

func (m *mockStockAllocator) Reserve(ctx context.Context, orderID string, lines []inventory.StockLine) error {
	args := m.Called(ctx, orderID, lines)
	return args.Error(0)
}

func (m *mockStockAllocator) Release(ctx context.Context, orderID string, lines []inventory.StockLine) error {
	args := m.Called(ctx, orderID, lines)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyOrderStatus(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newOrderService(repo *mockOrderRepository, stock *mockStockAllocator, notifier *mockNotifier) *OrderService {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	var n StatusNotifier
	if notifier != nil {
		n = notifier
	}
	return NewOrderService(repo, stock, n, producer, logger)
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:     "ord1",
		UserID: "u1",
		Status: domain.StatusPaid,
		Items: []domain.OrderItem{
			{ID: "it1", ProductID: "p1", Name: "Oversized Tee", Color: "Red", Size: "M", UnitPrice: 50000, Quantity: 2},
		},
		Subtotal: 100000,
		Total:    100000,
	}
}

// --- Tests ---

func TestCreateOrder(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newOrderService(repo, new(mockStockAllocator), nil)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Status == domain.StatusPaid && o.Total == 100000 && !o.StockAllocated
	})).Return(nil)

	o, err := svc.CreateOrder(context.Background(), &domain.Order{
		UserID: "u1",
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Oversized Tee", UnitPrice: 50000, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.NotEmpty(t, o.Items[0].ID)

	repo.AssertExpectations(t)
}

func TestUpdateStatus_ShippingReservesStock(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	repo.On("GetByID", mock.Anything, "ord1").Return(paidOrder(), nil)
	stock.On("Reserve", mock.Anything, "ord1", []inventory.StockLine{
		{ProductID: "p1", Color: "Red", Size: "M", Quantity: 2},
	}).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "ord1", domain.StatusShipped, true).Return(nil)

	o, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)
	assert.True(t, o.StockAllocated)

	repo.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestUpdateStatus_ReserveFailureBlocksShipping(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	repo.On("GetByID", mock.Anything, "ord1").Return(paidOrder(), nil)
	stock.On("Reserve", mock.Anything, "ord1", mock.Anything).
		Return(apperrors.Conflict(inventory.ReasonInsufficientStock, "out of stock"))

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusShipped)
	require.Error(t, err)
	assert.Equal(t, inventory.ReasonInsufficientStock, apperrors.Code(err))

	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_CompensatingReleaseOnWriteFailure(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	repo.On("GetByID", mock.Anything, "ord1").Return(paidOrder(), nil)
	stock.On("Reserve", mock.Anything, "ord1", mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "ord1", domain.StatusShipped, true).
		Return(errors.New("db down"))
	stock.On("Release", mock.Anything, "ord1", mock.Anything).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusShipped)
	require.Error(t, err)

	stock.AssertCalled(t, "Release", mock.Anything, "ord1", mock.Anything)
}

func TestUpdateStatus_CancellingReleasesStock(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	shipped := paidOrder()
	shipped.Status = domain.StatusShipped
	shipped.StockAllocated = true

	repo.On("GetByID", mock.Anything, "ord1").Return(shipped, nil)
	repo.On("UpdateStatus", mock.Anything, "ord1", domain.StatusCancelled, false).Return(nil)
	stock.On("Release", mock.Anything, "ord1", mock.Anything).Return(nil)

	o, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.False(t, o.StockAllocated)

	stock.AssertExpectations(t)
}

func TestUpdateStatus_CancelWithoutAllocationSkipsRelease(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	repo.On("GetByID", mock.Anything, "ord1").Return(paidOrder(), nil)
	repo.On("UpdateStatus", mock.Anything, "ord1", domain.StatusCancelled, false).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusCancelled)
	require.NoError(t, err)

	stock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newOrderService(repo, new(mockStockAllocator), nil)

	delivered := paidOrder()
	delivered.Status = domain.StatusDelivered

	repo.On("GetByID", mock.Anything, "ord1").Return(delivered, nil)

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusShipped)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.Code(err))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateStatus_NotifiesCustomer(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	notifier := new(mockNotifier)
	svc := newOrderService(repo, stock, notifier)

	repo.On("GetByID", mock.Anything, "ord1").Return(paidOrder(), nil)
	repo.On("UpdateStatus", mock.Anything, "ord1", domain.StatusDelivered, false).Return(nil)
	notifier.On("NotifyOrderStatus", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Status == domain.StatusDelivered
	})).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusDelivered)
	require.NoError(t, err)

	notifier.AssertExpectations(t)
}

func TestGetOrder_Ownership(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newOrderService(repo, new(mockStockAllocator), nil)

	repo.On("GetByID", mock.Anything, "ord1").Return(paidOrder(), nil)

	_, err := svc.GetOrder(context.Background(), "ord1", "someone-else", false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	o, err := svc.GetOrder(context.Background(), "ord1", "someone-else", true)
	require.NoError(t, err)
	assert.Equal(t, "ord1", o.ID)
}

func TestDeleteOrder_DoesNotTouchStock(t *testing.T) {
	// Admin deletion is an erasure, not a cancellation: allocated stock
	// stays off the shelf.
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	shipped := paidOrder()
	shipped.Status = domain.StatusShipped
	shipped.StockAllocated = true

	repo.On("GetByID", mock.Anything, "ord1").Return(shipped, nil)
	repo.On("Delete", mock.Anything, "ord1").Return(nil)

	err := svc.DeleteOrder(context.Background(), "ord1")
	require.NoError(t, err)

	stock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpdateStatus_ReleaseFailureKeepsOrderUnchanged(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	shipped := paidOrder()
	shipped.Status = domain.StatusShipped
	shipped.StockAllocated = true

	repo.On("GetByID", mock.Anything, "ord1").Return(shipped, nil)
	stock.On("Release", mock.Anything, "ord1", mock.Anything).Return(errors.New("inventory down"))

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusCancelled)
	require.Error(t, err)

	// The order must not go terminal while it still holds stock.
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_CancelWriteFailureReservesBack(t *testing.T) {
	repo := new(mockOrderRepository)
	stock := new(mockStockAllocator)
	svc := newOrderService(repo, stock, nil)

	shipped := paidOrder()
	shipped.Status = domain.StatusShipped
	shipped.StockAllocated = true

	repo.On("GetByID", mock.Anything, "ord1").Return(shipped, nil)
	stock.On("Release", mock.Anything, "ord1", mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "ord1", domain.StatusCancelled, false).
		Return(errors.New("db down"))
	stock.On("Reserve", mock.Anything, "ord1", mock.Anything).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), "ord1", domain.StatusCancelled)
	require.Error(t, err)

	stock.AssertCalled(t, "Reserve", mock.Anything, "ord1", mock.Anything)
}
