package repository

import (
	"context"
	"time"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
)

// CouponFilter holds optional filters for listing coupons.
type CouponFilter struct {
	IsActive *bool
	UserID   *string
	Page     int
	PerPage  int
}

// CouponRepository defines persistence operations for coupons and their
// usage records.
type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByID(ctx context.Context, id string) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context, filter CouponFilter) ([]domain.Coupon, int, error)
	Update(ctx context.Context, c *domain.Coupon) error
	Delete(ctx context.Context, id string) error

	// HasUserUsed reports whether the user has already redeemed the coupon.
	HasUserUsed(ctx context.Context, couponID, userID string) (bool, error)

	// Apply records a redemption and increments the coupon's usage count.
	// Re-applying for the same order is a no-op.
	Apply(ctx context.Context, usage *domain.CouponUsage) error
}

// OfferFilter holds optional filters for listing offers.
type OfferFilter struct {
	IsActive *bool
	Page     int
	PerPage  int
}

// OfferRepository defines persistence operations for storewide offers.
type OfferRepository interface {
	Create(ctx context.Context, o *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	List(ctx context.Context, filter OfferFilter) ([]domain.Offer, int, error)

	// ListLive returns active offers whose date window contains now,
	// ordered by priority descending.
	ListLive(ctx context.Context, now time.Time) ([]domain.Offer, error)

	Update(ctx context.Context, o *domain.Offer) error
	Delete(ctx context.Context, id string) error

	// RecordApplication increments the offer's applied count and adds the
	// granted discount to its running savings total.
	RecordApplication(ctx context.Context, offerID string, savings int64) error
}
