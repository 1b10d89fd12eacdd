package service

import (
	"context"
	"fmt"
	"log/slog"

	cartdomain "github.com/kokoruadmin/kokoru-backend/internal/cart/domain"
	inventorydomain "github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	orderdomain "github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	promodomain "github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	promoservice "github.com/kokoruadmin/kokoru-backend/internal/promotion/service"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// CartStore reads and clears the user's cart.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// CouponEngine validates and redeems coupon codes.
type CouponEngine interface {
	ValidateCoupon(ctx context.Context, code, userID string, items []promodomain.CartItem) (*promoservice.CouponResult, error)
	ApplyCoupon(ctx context.Context, code, userID, orderID string, items []promodomain.CartItem) (*promoservice.CouponResult, error)
}

// OfferEngine picks and records storewide offers.
type OfferEngine interface {
	BestOffer(ctx context.Context, items []promodomain.CartItem) (*promoservice.OfferResult, error)
	RecordApplication(ctx context.Context, offer *promodomain.Offer, orderID string, discount int64) error
}

// StockChecker confirms the cart can currently be fulfilled without
// reserving anything.
type StockChecker interface {
	EnsureAvailable(ctx context.Context, lines []inventorydomain.StockLine) error
}

// PlacedNotifier emails the customer and the shop about a new order.
type PlacedNotifier interface {
	NotifyOrderPlaced(ctx context.Context, o *orderdomain.Order) error
}

// PaymentVerifier checks the gateway signature on a payment.
type PaymentVerifier interface {
	Verify(orderRef, paymentID, signature string) error
}

// OrderCreator persists a new order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, o *orderdomain.Order) (*orderdomain.Order, error)
}

// CheckoutService turns a cart into a paid order: it verifies the
// payment, applies the best live offer and an optional coupon, creates
// the order and empties the cart.
type CheckoutService struct {
	cart     CartStore
	stock    StockChecker
	coupons  CouponEngine
	offers   OfferEngine
	verifier PaymentVerifier
	orders   OrderCreator
	notifier PlacedNotifier
	logger   *slog.Logger
}

// NewCheckoutService creates a checkout orchestrator.
func NewCheckoutService(cart CartStore, stock StockChecker, coupons CouponEngine, offers OfferEngine, verifier PaymentVerifier, orders OrderCreator, notifier PlacedNotifier, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		stock:    stock,
		coupons:  coupons,
		offers:   offers,
		verifier: verifier,
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}
}

// CheckoutInput holds the parameters for placing an order.
type CheckoutInput struct {
	UserID     string
	Email      string
	CouponCode string
	Address    orderdomain.Address

	// Gateway payment callback fields.
	PaymentRef       string
	PaymentID        string
	PaymentSignature string
}

// Checkout places an order from the user's cart. The coupon is redeemed
// only after the order exists, so a crash in between never burns a
// redemption without an order to show for it.
func (s *CheckoutService) Checkout(ctx context.Context, input *CheckoutInput) (*orderdomain.Order, error) {
	cart, err := s.cart.GetCart(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	if err := s.verifier.Verify(input.PaymentRef, input.PaymentID, input.PaymentSignature); err != nil {
		return nil, err
	}

	if err := s.stock.EnsureAvailable(ctx, stockLines(cart)); err != nil {
		return nil, err
	}

	items := promoItems(cart)

	offerRes, err := s.offers.BestOffer(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("pick best offer: %w", err)
	}

	var couponRes *promoservice.CouponResult
	if input.CouponCode != "" {
		couponRes, err = s.coupons.ValidateCoupon(ctx, input.CouponCode, input.UserID, items)
		if err != nil {
			return nil, err
		}
	}

	order := &orderdomain.Order{
		UserID:    input.UserID,
		Email:     input.Email,
		Status:    orderdomain.StatusPaid,
		PaymentID: input.PaymentID,
		Address:   input.Address,
		Items:     orderItems(cart),
	}
	if couponRes != nil {
		order.CouponCode = couponRes.Coupon.Code
		order.CouponDiscount = couponRes.Discount
	}
	if offerRes != nil {
		order.OfferID = offerRes.Offer.ID
		order.OfferDiscount = offerRes.Discount
	}

	order, err = s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if couponRes != nil {
		if _, err := s.coupons.ApplyCoupon(ctx, input.CouponCode, input.UserID, order.ID, items); err != nil {
			s.logger.ErrorContext(ctx, "failed to record coupon redemption",
				slog.String("order_id", order.ID),
				slog.String("code", input.CouponCode),
				slog.String("error", err.Error()),
			)
		}
	}

	if offerRes != nil {
		if err := s.offers.RecordApplication(ctx, offerRes.Offer, order.ID, offerRes.Discount); err != nil {
			s.logger.ErrorContext(ctx, "failed to record offer application",
				slog.String("order_id", order.ID),
				slog.String("offer_id", offerRes.Offer.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.notifier.NotifyOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to send order placed notifications",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.cart.ClearCart(ctx, input.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("user_id", input.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.String("user_id", input.UserID),
		slog.Int64("total", order.Total),
	)

	return order, nil
}

// Quote previews the totals for the current cart without placing an
// order.
func (s *CheckoutService) Quote(ctx context.Context, userID, couponCode string) (*QuoteResult, error) {
	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	items := promoItems(cart)
	quote := &QuoteResult{Subtotal: cart.Subtotal()}

	offerRes, err := s.offers.BestOffer(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("pick best offer: %w", err)
	}
	if offerRes != nil {
		quote.Offer = offerRes.Offer
		quote.OfferDiscount = offerRes.Discount
	}

	if couponCode != "" {
		couponRes, err := s.coupons.ValidateCoupon(ctx, couponCode, userID, items)
		if err != nil {
			return nil, err
		}
		quote.CouponCode = couponRes.Coupon.Code
		quote.CouponDiscount = couponRes.Discount
	}

	quote.Total = quote.Subtotal - quote.OfferDiscount - quote.CouponDiscount
	if quote.Total < 0 {
		quote.Total = 0
	}

	return quote, nil
}

// QuoteResult is a checkout preview.
type QuoteResult struct {
	Subtotal       int64              `json:"subtotal"`
	Offer          *promodomain.Offer `json:"offer,omitempty"`
	OfferDiscount  int64              `json:"offer_discount"`
	CouponCode     string             `json:"coupon_code,omitempty"`
	CouponDiscount int64              `json:"coupon_discount"`
	Total          int64              `json:"total"`
}

func stockLines(cart *cartdomain.Cart) []inventorydomain.StockLine {
	lines := make([]inventorydomain.StockLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, inventorydomain.StockLine{
			ProductID: it.ProductID,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  it.Quantity,
		})
	}
	return lines
}

func promoItems(cart *cartdomain.Cart) []promodomain.CartItem {
	items := make([]promodomain.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, promodomain.CartItem{
			ProductID: it.ProductID,
			Category:  it.Category,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return items
}

func orderItems(cart *cartdomain.Cart) []orderdomain.OrderItem {
	items := make([]orderdomain.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, orderdomain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Category:  it.Category,
			Color:     it.Color,
			Size:      it.Size,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return items
}
