package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/event"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
)

// --- Mock Repository ---

type mockCouponRepository struct {
	mock.Mock
}

func (m *mockCouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) List(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Coupon), args.Int(1), args.Error(2)
}

func (m *mockCouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCouponRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCouponRepository) HasUserUsed(ctx context.Context, couponID, userID string) (bool, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCouponRepository) Apply(ctx context.Context, usage *domain.CouponUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newCouponService(repo *mockCouponRepository) *CouponService {
	logger := newTestLogger()
	// Kafka producer pointed at an unreachable broker; publish failures are
	// logged and ignored.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCouponService(repo, producer, logger)
}

func testCart() []domain.CartItem {
	return []domain.CartItem{
		{ProductID: "p1", Category: "tshirts", UnitPrice: 60000, Quantity: 1},
	}
}

func ineligibleReason(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	return appErr.Code
}

// --- Tests ---

func TestCreateCoupon(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
		return c.Code == "SAVE100" && c.Type == domain.CouponTypeFlat
	})).Return(nil)

	coupon, err := svc.CreateCoupon(context.Background(), &CreateCouponInput{
		Code:           "  save100 ",
		Type:           domain.CouponTypeFlat,
		DiscountAmount: 10000,
		IsActive:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "SAVE100", coupon.Code)
	assert.NotEmpty(t, coupon.ID)

	repo.AssertExpectations(t)
}

func TestCreateCoupon_Validation(t *testing.T) {
	svc := newCouponService(new(mockCouponRepository))

	tests := []struct {
		name  string
		input CreateCouponInput
	}{
		{
			name:  "missing code",
			input: CreateCouponInput{Type: domain.CouponTypeFlat, DiscountAmount: 100},
		},
		{
			name:  "flat without amount",
			input: CreateCouponInput{Code: "X", Type: domain.CouponTypeFlat},
		},
		{
			name:  "upto without percentage",
			input: CreateCouponInput{Code: "X", Type: domain.CouponTypeUpto},
		},
		{
			name:  "unknown type",
			input: CreateCouponInput{Code: "X", Type: "bogus"},
		},
		{
			name:  "scheduled without schedule",
			input: CreateCouponInput{Code: "X", Type: domain.CouponTypeFlat, DiscountAmount: 100, IsScheduled: true},
		},
		{
			name:  "user specific without target",
			input: CreateCouponInput{Code: "X", Type: domain.CouponTypeFlat, DiscountAmount: 100, IsUserSpecific: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCoupon(context.Background(), &tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestValidateCoupon(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	coupon := &domain.Coupon{
		ID:             "cp1",
		Code:           "SAVE100",
		Type:           domain.CouponTypeFlat,
		DiscountAmount: 10000,
		IsActive:       true,
	}

	repo.On("GetByCode", mock.Anything, "SAVE100").Return(coupon, nil)
	repo.On("HasUserUsed", mock.Anything, "cp1", "u1").Return(false, nil)

	result, err := svc.ValidateCoupon(context.Background(), "SAVE100", "u1", testCart())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Discount)
	assert.Equal(t, "cp1", result.Coupon.ID)

	repo.AssertExpectations(t)
}

func TestValidateCoupon_UnknownCode(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	repo.On("GetByCode", mock.Anything, "NOPE").Return(nil, apperrors.NotFound("coupon", "NOPE"))

	_, err := svc.ValidateCoupon(context.Background(), "NOPE", "u1", testCart())
	require.Error(t, err)
	assert.Equal(t, domain.ReasonCouponNotFound, ineligibleReason(t, err))
	assert.ErrorIs(t, err, apperrors.ErrIneligible)
}

func TestValidateCoupon_AlreadyUsed(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	coupon := &domain.Coupon{
		ID:             "cp1",
		Code:           "ONCE",
		Type:           domain.CouponTypeFlat,
		DiscountAmount: 5000,
		IsActive:       true,
	}

	repo.On("GetByCode", mock.Anything, "ONCE").Return(coupon, nil)
	repo.On("HasUserUsed", mock.Anything, "cp1", "u1").Return(true, nil)

	_, err := svc.ValidateCoupon(context.Background(), "ONCE", "u1", testCart())
	require.Error(t, err)
	assert.Equal(t, domain.ReasonAlreadyUsed, ineligibleReason(t, err))
}

func TestApplyCoupon(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	coupon := &domain.Coupon{
		ID:             "cp1",
		Code:           "SAVE100",
		Type:           domain.CouponTypeFlat,
		DiscountAmount: 10000,
		IsActive:       true,
	}

	repo.On("GetByCode", mock.Anything, "SAVE100").Return(coupon, nil)
	repo.On("HasUserUsed", mock.Anything, "cp1", "u1").Return(false, nil)
	repo.On("Apply", mock.Anything, mock.MatchedBy(func(u *domain.CouponUsage) bool {
		return u.CouponID == "cp1" && u.OrderID == "ord1" && u.DiscountAmount == 10000
	})).Return(nil)

	result, err := svc.ApplyCoupon(context.Background(), "SAVE100", "u1", "ord1", testCart())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Discount)

	repo.AssertExpectations(t)
}

func TestApplyCoupon_IneligibleNotRecorded(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	coupon := &domain.Coupon{
		ID:             "cp1",
		Code:           "BIG",
		Type:           domain.CouponTypeFlat,
		DiscountAmount: 10000,
		MinCartValue:   100000,
		IsActive:       true,
	}

	repo.On("GetByCode", mock.Anything, "BIG").Return(coupon, nil)
	repo.On("HasUserUsed", mock.Anything, "cp1", "u1").Return(false, nil)

	_, err := svc.ApplyCoupon(context.Background(), "BIG", "u1", "ord1", testCart())
	require.Error(t, err)
	assert.Equal(t, domain.ReasonMinCartValue, ineligibleReason(t, err))

	repo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestUpdateCoupon(t *testing.T) {
	repo := new(mockCouponRepository)
	svc := newCouponService(repo)

	existing := &domain.Coupon{
		ID:             "cp1",
		Code:           "SAVE100",
		Type:           domain.CouponTypeFlat,
		DiscountAmount: 10000,
		IsActive:       true,
		CreatedAt:      time.Now().Add(-time.Hour),
	}

	repo.On("GetByID", mock.Anything, "cp1").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
		return c.DiscountAmount == 20000 && !c.IsActive
	})).Return(nil)

	inactive := false
	amount := int64(20000)
	coupon, err := svc.UpdateCoupon(context.Background(), "cp1", &UpdateCouponInput{
		DiscountAmount: &amount,
		IsActive:       &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), coupon.DiscountAmount)

	repo.AssertExpectations(t)
}
