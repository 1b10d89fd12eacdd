package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/event"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// CouponService implements the business logic for coupon operations.
type CouponService struct {
	repo     repository.CouponRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewCouponService creates a new coupon service.
func NewCouponService(repo repository.CouponRepository, producer *event.Producer, logger *slog.Logger) *CouponService {
	return &CouponService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateCouponInput holds the parameters for creating a coupon.
type CreateCouponInput struct {
	Code                 string
	Type                 domain.CouponType
	DiscountAmount       int64
	DiscountPercentage   float64
	MaxDiscountAmount    int64
	MinCartValue         int64
	ExpiresAt            *time.Time
	IsActive             bool
	IsUserSpecific       bool
	TargetUserID         string
	UsageLimit           int
	Priority             int
	IsScheduled          bool
	Schedule             *domain.Schedule
	ApplicableCategories []string
	ExcludedCategories   []string
	ApplicableProducts   []string
	ExcludedProducts     []string
}

// UpdateCouponInput holds the parameters for updating a coupon. Nil
// fields are left unchanged.
type UpdateCouponInput struct {
	DiscountAmount       *int64
	DiscountPercentage   *float64
	MaxDiscountAmount    *int64
	MinCartValue         *int64
	ExpiresAt            *time.Time
	IsActive             *bool
	UsageLimit           *int
	Priority             *int
	IsScheduled          *bool
	Schedule             *domain.Schedule
	ApplicableCategories []string
	ExcludedCategories   []string
	ApplicableProducts   []string
	ExcludedProducts     []string
}

// CouponResult is the outcome of a successful coupon evaluation.
type CouponResult struct {
	Coupon   *domain.Coupon `json:"coupon"`
	Discount int64          `json:"discount"`
}

// CreateCoupon creates a new coupon.
func (s *CouponService) CreateCoupon(ctx context.Context, input *CreateCouponInput) (*domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, apperrors.InvalidInput("coupon code is required")
	}

	switch input.Type {
	case domain.CouponTypeFlat:
		if input.DiscountAmount <= 0 {
			return nil, apperrors.InvalidInput("flat coupons need a positive discount amount")
		}
	case domain.CouponTypeUpto:
		if input.DiscountPercentage <= 0 || input.DiscountPercentage > 100 {
			return nil, apperrors.InvalidInput("discount percentage must be between 0 and 100")
		}
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown coupon type %q", input.Type))
	}

	if input.IsScheduled {
		if input.Schedule == nil {
			return nil, apperrors.InvalidInput("scheduled coupons need a schedule")
		}
		if err := input.Schedule.Validate(); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
	}

	if input.IsUserSpecific && input.TargetUserID == "" {
		return nil, apperrors.InvalidInput("user specific coupons need a target user")
	}

	now := s.now().UTC()
	coupon := &domain.Coupon{
		ID:                   uuid.NewString(),
		Code:                 code,
		Type:                 input.Type,
		DiscountAmount:       input.DiscountAmount,
		DiscountPercentage:   input.DiscountPercentage,
		MaxDiscountAmount:    input.MaxDiscountAmount,
		MinCartValue:         input.MinCartValue,
		ExpiresAt:            input.ExpiresAt,
		IsActive:             input.IsActive,
		IsUserSpecific:       input.IsUserSpecific,
		TargetUserID:         input.TargetUserID,
		UsageLimit:           input.UsageLimit,
		Priority:             input.Priority,
		IsScheduled:          input.IsScheduled,
		Schedule:             input.Schedule,
		ApplicableCategories: input.ApplicableCategories,
		ExcludedCategories:   input.ExcludedCategories,
		ApplicableProducts:   input.ApplicableProducts,
		ExcludedProducts:     input.ExcludedProducts,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	if err := s.producer.PublishCouponCreated(ctx, coupon); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.created event",
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "coupon created",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
	)

	return coupon, nil
}

// GetCoupon retrieves a coupon by ID.
func (s *CouponService) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCoupons returns coupons matching the filter.
func (s *CouponService) ListCoupons(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	return s.repo.List(ctx, filter)
}

// UpdateCoupon applies a partial update to a coupon.
func (s *CouponService) UpdateCoupon(ctx context.Context, id string, input *UpdateCouponInput) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.DiscountAmount != nil {
		coupon.DiscountAmount = *input.DiscountAmount
	}
	if input.DiscountPercentage != nil {
		if *input.DiscountPercentage <= 0 || *input.DiscountPercentage > 100 {
			return nil, apperrors.InvalidInput("discount percentage must be between 0 and 100")
		}
		coupon.DiscountPercentage = *input.DiscountPercentage
	}
	if input.MaxDiscountAmount != nil {
		coupon.MaxDiscountAmount = *input.MaxDiscountAmount
	}
	if input.MinCartValue != nil {
		coupon.MinCartValue = *input.MinCartValue
	}
	if input.ExpiresAt != nil {
		coupon.ExpiresAt = input.ExpiresAt
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = *input.UsageLimit
	}
	if input.Priority != nil {
		coupon.Priority = *input.Priority
	}
	if input.IsScheduled != nil {
		coupon.IsScheduled = *input.IsScheduled
	}
	if input.Schedule != nil {
		if err := input.Schedule.Validate(); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		coupon.Schedule = input.Schedule
	}
	if input.ApplicableCategories != nil {
		coupon.ApplicableCategories = input.ApplicableCategories
	}
	if input.ExcludedCategories != nil {
		coupon.ExcludedCategories = input.ExcludedCategories
	}
	if input.ApplicableProducts != nil {
		coupon.ApplicableProducts = input.ApplicableProducts
	}
	if input.ExcludedProducts != nil {
		coupon.ExcludedProducts = input.ExcludedProducts
	}

	coupon.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	s.logger.InfoContext(ctx, "coupon updated", slog.String("coupon_id", coupon.ID))

	return coupon, nil
}

// DeleteCoupon removes a coupon.
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "coupon deleted", slog.String("coupon_id", id))

	return nil
}

// ValidateCoupon evaluates the coupon identified by code against the
// user's cart without redeeming it. Ineligible coupons come back as
// errors carrying a machine-readable reason code. A missing code is
// reported the same way as an inactive one so codes cannot be enumerated.
func (s *CouponService) ValidateCoupon(ctx context.Context, code, userID string, items []domain.CartItem) (*CouponResult, error) {
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Ineligible(domain.ReasonCouponNotFound, "coupon not found")
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	used, err := s.repo.HasUserUsed(ctx, coupon.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("check coupon usage: %w", err)
	}

	discount, err := coupon.Evaluate(&domain.EvalContext{
		Items:       items,
		UserID:      userID,
		AlreadyUsed: used,
		Now:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	return &CouponResult{Coupon: coupon, Discount: discount}, nil
}

// ApplyCoupon redeems a coupon against an order. The redemption is
// idempotent: retrying with the same order leaves the usage count alone.
func (s *CouponService) ApplyCoupon(ctx context.Context, code, userID, orderID string, items []domain.CartItem) (*CouponResult, error) {
	result, err := s.ValidateCoupon(ctx, code, userID, items)
	if err != nil {
		return nil, err
	}

	usage := &domain.CouponUsage{
		ID:             uuid.NewString(),
		CouponID:       result.Coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: result.Discount,
		UsedAt:         s.now().UTC(),
	}

	if err := s.repo.Apply(ctx, usage); err != nil {
		return nil, err
	}

	if err := s.producer.PublishCouponApplied(ctx, result.Coupon, usage); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.applied event",
			slog.String("coupon_id", result.Coupon.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon applied",
		slog.String("coupon_id", result.Coupon.ID),
		slog.String("order_id", orderID),
		slog.Int64("discount", result.Discount),
	)

	return result, nil
}
