package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// CouponType determines how a coupon's discount is computed.
type CouponType string

const (
	// CouponTypeFlat deducts a fixed amount from the cart total.
	CouponTypeFlat CouponType = "flat"
	// CouponTypeUpto deducts a percentage of the cart total, capped at
	// MaxDiscountAmount.
	CouponTypeUpto CouponType = "upto"
)

// Eligibility reason codes surfaced to clients when a coupon is rejected.
const (
	ReasonCouponNotFound    = "COUPON_NOT_FOUND"
	ReasonCouponExpired     = "COUPON_EXPIRED"
	ReasonOutsideSchedule   = "OUTSIDE_SCHEDULE"
	ReasonNotForUser        = "NOT_FOR_USER"
	ReasonAlreadyUsed       = "ALREADY_USED"
	ReasonUsageLimitReached = "USAGE_LIMIT_REACHED"
	ReasonMinCartValue      = "MIN_CART_VALUE"
	ReasonNotApplicable     = "NOT_APPLICABLE"
	ReasonExcludedItems     = "EXCLUDED_ITEMS"
	ReasonZeroDiscount      = "ZERO_DISCOUNT"
)

// Coupon represents a discount code. Amounts are in minor currency units.
type Coupon struct {
	ID                   string     `json:"id"`
	Code                 string     `json:"code"`
	Type                 CouponType `json:"type"`
	DiscountAmount       int64      `json:"discount_amount,omitempty"`
	DiscountPercentage   float64    `json:"discount_percentage,omitempty"`
	MaxDiscountAmount    int64      `json:"max_discount_amount,omitempty"`
	MinCartValue         int64      `json:"min_cart_value"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	IsActive             bool       `json:"is_active"`
	IsUserSpecific       bool       `json:"is_user_specific"`
	TargetUserID         string     `json:"target_user_id,omitempty"`
	UsageLimit           int        `json:"usage_limit"`
	UsageCount           int        `json:"usage_count"`
	TotalSavings         int64      `json:"total_savings"`
	Priority             int        `json:"priority"`
	IsScheduled          bool       `json:"is_scheduled"`
	Schedule             *Schedule  `json:"schedule,omitempty"`
	ApplicableCategories []string   `json:"applicable_categories,omitempty"`
	ExcludedCategories   []string   `json:"excluded_categories,omitempty"`
	ApplicableProducts   []string   `json:"applicable_products,omitempty"`
	ExcludedProducts     []string   `json:"excluded_products,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// CartItem is the slice of an order a coupon is evaluated against.
type CartItem struct {
	ProductID string
	Category  string
	UnitPrice int64
	Quantity  int
}

// EvalContext carries the caller-supplied facts needed to evaluate a
// coupon: the cart, the user, whether that user already redeemed the
// coupon, and the evaluation time.
type EvalContext struct {
	Items       []CartItem
	UserID      string
	AlreadyUsed bool
	Now         time.Time
}

// CartTotal sums the full cart value.
func (ec *EvalContext) CartTotal() int64 {
	var total int64
	for _, it := range ec.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// Evaluate runs the full eligibility chain and returns the discount the
// coupon grants against the cart. Checks run in a fixed order so clients
// always see the most fundamental failure first. A nil error means the
// coupon applies with the returned discount.
func (c *Coupon) Evaluate(ec *EvalContext) (int64, error) {
	if !c.IsActive {
		return 0, apperrors.Ineligible(ReasonCouponNotFound, "coupon not found")
	}

	if c.ExpiresAt != nil && ec.Now.After(*c.ExpiresAt) {
		return 0, apperrors.Ineligible(ReasonCouponExpired, "coupon has expired")
	}

	if c.IsScheduled && c.Schedule != nil && !c.Schedule.Contains(ec.Now) {
		return 0, apperrors.Ineligible(ReasonOutsideSchedule, "coupon is not active at this time")
	}

	if c.IsUserSpecific && c.TargetUserID != ec.UserID {
		return 0, apperrors.Ineligible(ReasonNotForUser, "coupon is not available for this user")
	}

	if ec.AlreadyUsed {
		return 0, apperrors.Ineligible(ReasonAlreadyUsed, "coupon has already been used")
	}

	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return 0, apperrors.Ineligible(ReasonUsageLimitReached, "coupon usage limit reached")
	}

	total := ec.CartTotal()
	if total < c.MinCartValue {
		return 0, apperrors.Ineligible(ReasonMinCartValue,
			fmt.Sprintf("cart value %d is below the minimum %d", total, c.MinCartValue))
	}

	if (len(c.ApplicableCategories) > 0 || len(c.ApplicableProducts) > 0) && !c.anyApplicable(ec.Items) {
		return 0, apperrors.Ineligible(ReasonNotApplicable, "coupon does not apply to any item in the cart")
	}

	if c.anyExcluded(ec.Items) {
		return 0, apperrors.Ineligible(ReasonExcludedItems, "cart contains items excluded from this coupon")
	}

	discount := c.computeDiscount(total)
	if discount <= 0 {
		return 0, apperrors.Ineligible(ReasonZeroDiscount, "coupon grants no discount on this cart")
	}

	return discount, nil
}

// anyApplicable reports whether at least one cart line intersects the
// coupon's allow-lists.
func (c *Coupon) anyApplicable(items []CartItem) bool {
	for _, it := range items {
		if containsFold(c.ApplicableCategories, it.Category) || contains(c.ApplicableProducts, it.ProductID) {
			return true
		}
	}
	return false
}

// anyExcluded reports whether any cart line intersects the coupon's
// deny-lists. One excluded line rejects the whole cart.
func (c *Coupon) anyExcluded(items []CartItem) bool {
	for _, it := range items {
		if containsFold(c.ExcludedCategories, it.Category) || contains(c.ExcludedProducts, it.ProductID) {
			return true
		}
	}
	return false
}

// computeDiscount derives the discount amount against the cart total.
// Flat coupons never discount more than the amount payable.
func (c *Coupon) computeDiscount(total int64) int64 {
	switch c.Type {
	case CouponTypeFlat:
		if c.DiscountAmount > total {
			return total
		}
		return c.DiscountAmount
	case CouponTypeUpto:
		discount := int64(float64(total) * c.DiscountPercentage / 100)
		if c.MaxDiscountAmount > 0 && discount > c.MaxDiscountAmount {
			discount = c.MaxDiscountAmount
		}
		return discount
	default:
		return 0
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
