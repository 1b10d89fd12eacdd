package domain

import "time"

// CouponUsage records a redemption of a coupon against an order. The
// (coupon, order) pair is unique, which makes applying a coupon to the
// same order idempotent.
type CouponUsage struct {
	ID             string    `json:"id"`
	CouponID       string    `json:"coupon_id"`
	UserID         string    `json:"user_id"`
	OrderID        string    `json:"order_id"`
	DiscountAmount int64     `json:"discount_amount"`
	UsedAt         time.Time `json:"used_at"`
}
