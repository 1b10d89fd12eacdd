package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/inventory/event"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
)

type mockStockRepository struct {
	mock.Mock
}

func (m *mockStockRepository) GetAvailability(ctx context.Context, line domain.StockLine) (*domain.Availability, error) {
	args := m.Called(ctx, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *mockStockRepository) Reserve(ctx context.Context, lines []domain.StockLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *mockStockRepository) Release(ctx context.Context, lines []domain.StockLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *mockStockRepository) Restock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	args := m.Called(ctx, adjustments)
	return args.Error(0)
}

func newStockService(repo *mockStockRepository) *StockService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
	return NewStockService(repo, producer, logger)
}

func redM(quantity int) domain.StockLine {
	return domain.StockLine{ProductID: "p1", Color: "Red", Size: "M", Quantity: quantity}
}

func available(stock, maxOrder int, active bool) *domain.Availability {
	return &domain.Availability{
		ProductID:     "p1",
		Color:         "Red",
		Size:          "M",
		Stock:         stock,
		MaxOrder:      maxOrder,
		ProductActive: active,
	}
}

func TestEnsureAvailable(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	repo.On("GetAvailability", mock.Anything, redM(2)).Return(available(5, 0, true), nil)

	err := svc.EnsureAvailable(context.Background(), []domain.StockLine{redM(2)})
	require.NoError(t, err)

	repo.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
}

func TestEnsureAvailable_InsufficientStock(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	repo.On("GetAvailability", mock.Anything, redM(3)).Return(available(1, 0, true), nil)

	err := svc.EnsureAvailable(context.Background(), []domain.StockLine{redM(3)})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, domain.ReasonInsufficientStock, apperrors.Code(err))
}

func TestEnsureAvailable_InactiveProduct(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	repo.On("GetAvailability", mock.Anything, redM(1)).Return(available(5, 0, false), nil)

	err := svc.EnsureAvailable(context.Background(), []domain.StockLine{redM(1)})
	require.Error(t, err)
	assert.Equal(t, domain.ReasonProductNotFound, apperrors.Code(err))
}

func TestEnsureAvailable_OrderLimit(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	repo.On("GetAvailability", mock.Anything, redM(4)).Return(available(100, 3, true), nil)

	err := svc.EnsureAvailable(context.Background(), []domain.StockLine{redM(4)})
	require.Error(t, err)
	assert.Equal(t, domain.ReasonOrderLimitExceeded, apperrors.Code(err))
}

func TestEnsureAvailable_NoLines(t *testing.T) {
	svc := newStockService(new(mockStockRepository))

	err := svc.EnsureAvailable(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCheckAvailability(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	repo.On("GetAvailability", mock.Anything, redM(2)).Return(available(5, 0, true), nil)

	out, err := svc.CheckAvailability(context.Background(), []domain.StockLine{redM(2)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].Stock)
}

func TestReserve_DelegatesToRepository(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	lines := []domain.StockLine{redM(2)}
	repo.On("Reserve", mock.Anything, lines).Return(nil)

	err := svc.Reserve(context.Background(), "ord1", lines)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRelease_NoLinesIsNoop(t *testing.T) {
	repo := new(mockStockRepository)
	svc := newStockService(repo)

	err := svc.Release(context.Background(), "ord1", nil)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}
