package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/kokoruadmin/kokoru-backend/internal/cart/domain"
	inventorydomain "github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	orderdomain "github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/payment"
	promodomain "github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	promoservice "github.com/kokoruadmin/kokoru-backend/internal/promotion/service"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// --- Mocks ---

type mockCartStore struct {
	mock.Mock
}

func (m *mockCartStore) GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartdomain.Cart), args.Error(1)
}

func (m *mockCartStore) ClearCart(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockStockChecker struct {
	mock.Mock
}

func (m *mockStockChecker) EnsureAvailable(ctx context.Context, lines []inventorydomain.StockLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

type mockCouponEngine struct {
	mock.Mock
}

func (m *mockCouponEngine) ValidateCoupon(ctx context.Context, code, userID string, items []promodomain.CartItem) (*promoservice.CouponResult, error) {
	args := m.Called(ctx, code, userID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promoservice.CouponResult), args.Error(1)
}

func (m *mockCouponEngine) ApplyCoupon(ctx context.Context, code, userID, orderID string, items []promodomain.CartItem) (*promoservice.CouponResult, error) {
	args := m.Called(ctx, code, userID, orderID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promoservice.CouponResult), args.Error(1)
}

type mockOfferEngine struct {
	mock.Mock
}

func (m *mockOfferEngine) BestOffer(ctx context.Context, items []promodomain.CartItem) (*promoservice.OfferResult, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promoservice.OfferResult), args.Error(1)
}

func (m *mockOfferEngine) RecordApplication(ctx context.Context, offer *promodomain.Offer, orderID string, discount int64) error {
	args := m.Called(ctx, offer, orderID, discount)
	return args.Error(0)
}

type mockOrderCreator struct {
	mock.Mock
}

func (m *mockOrderCreator) CreateOrder(ctx context.Context, o *orderdomain.Order) (*orderdomain.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderdomain.Order), args.Error(1)
}

type mockPlacedNotifier struct {
	mock.Mock
}

func (m *mockPlacedNotifier) NotifyOrderPlaced(ctx context.Context, o *orderdomain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// --- Test Helpers ---

type checkoutFixture struct {
	cart     *mockCartStore
	stock    *mockStockChecker
	coupons  *mockCouponEngine
	offers   *mockOfferEngine
	orders   *mockOrderCreator
	notifier *mockPlacedNotifier
}

func newCheckout(verifier PaymentVerifier) (*CheckoutService, *checkoutFixture) {
	f := &checkoutFixture{
		cart:     new(mockCartStore),
		stock:    new(mockStockChecker),
		coupons:  new(mockCouponEngine),
		offers:   new(mockOfferEngine),
		orders:   new(mockOrderCreator),
		notifier: new(mockPlacedNotifier),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewCheckoutService(f.cart, f.stock, f.coupons, f.offers, verifier, f.orders, f.notifier, logger)
	return svc, f
}

func filledCart() *cartdomain.Cart {
	return &cartdomain.Cart{
		UserID: "u1",
		Items: []cartdomain.Item{
			{ProductID: "p1", Name: "Oversized Tee", Category: "tshirts", Color: "Red", Size: "M", UnitPrice: 50000, Quantity: 2},
		},
	}
}

func checkoutInput() *CheckoutInput {
	return &CheckoutInput{
		UserID:           "u1",
		PaymentRef:       "order_abc",
		PaymentID:        "pay_123",
		PaymentSignature: "sig",
		Address: orderdomain.Address{
			Name:    "Priya",
			Mobile:  "9876543210",
			Pincode: "560001",
			Line1:   "14 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
		},
	}
}

// --- Tests ---

func TestCheckout(t *testing.T) {
	svc, f := newCheckout(payment.NopVerifier{})

	f.cart.On("GetCart", mock.Anything, "u1").Return(filledCart(), nil)
	f.stock.On("EnsureAvailable", mock.Anything, mock.Anything).Return(nil)
	f.offers.On("BestOffer", mock.Anything, mock.Anything).Return(nil, nil)

	created := &orderdomain.Order{ID: "ord1", UserID: "u1", Status: orderdomain.StatusPaid, Total: 100000}
	f.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *orderdomain.Order) bool {
		return o.Status == orderdomain.StatusPaid && o.PaymentID == "pay_123" && len(o.Items) == 1
	})).Return(created, nil)
	f.notifier.On("NotifyOrderPlaced", mock.Anything, created).Return(nil)
	f.cart.On("ClearCart", mock.Anything, "u1").Return(nil)

	order, err := svc.Checkout(context.Background(), checkoutInput())
	require.NoError(t, err)
	assert.Equal(t, "ord1", order.ID)

	f.cart.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestCheckout_WithCouponAndOffer(t *testing.T) {
	svc, f := newCheckout(payment.NopVerifier{})

	offer := &promodomain.Offer{ID: "off1", Title: "Summer Sale"}
	coupon := &promodomain.Coupon{ID: "cp1", Code: "SAVE100"}

	f.cart.On("GetCart", mock.Anything, "u1").Return(filledCart(), nil)
	f.stock.On("EnsureAvailable", mock.Anything, mock.Anything).Return(nil)
	f.offers.On("BestOffer", mock.Anything, mock.Anything).
		Return(&promoservice.OfferResult{Offer: offer, Discount: 5000}, nil)
	f.coupons.On("ValidateCoupon", mock.Anything, "SAVE100", "u1", mock.Anything).
		Return(&promoservice.CouponResult{Coupon: coupon, Discount: 10000}, nil)

	created := &orderdomain.Order{ID: "ord1", Status: orderdomain.StatusPaid}
	f.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *orderdomain.Order) bool {
		return o.CouponCode == "SAVE100" && o.CouponDiscount == 10000 &&
			o.OfferID == "off1" && o.OfferDiscount == 5000
	})).Return(created, nil)

	f.coupons.On("ApplyCoupon", mock.Anything, "SAVE100", "u1", "ord1", mock.Anything).
		Return(&promoservice.CouponResult{Coupon: coupon, Discount: 10000}, nil)
	f.offers.On("RecordApplication", mock.Anything, offer, "ord1", int64(5000)).Return(nil)
	f.notifier.On("NotifyOrderPlaced", mock.Anything, created).Return(nil)
	f.cart.On("ClearCart", mock.Anything, "u1").Return(nil)

	input := checkoutInput()
	input.CouponCode = "SAVE100"

	_, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)

	f.coupons.AssertExpectations(t)
	f.offers.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, f := newCheckout(payment.NopVerifier{})

	f.cart.On("GetCart", mock.Anything, "u1").Return(&cartdomain.Cart{UserID: "u1"}, nil)

	_, err := svc.Checkout(context.Background(), checkoutInput())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCheckout_BadSignature(t *testing.T) {
	svc, f := newCheckout(payment.NewHMACVerifier("secret"))

	f.cart.On("GetCart", mock.Anything, "u1").Return(filledCart(), nil)

	_, err := svc.Checkout(context.Background(), checkoutInput())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCheckout_OutOfStockAborts(t *testing.T) {
	svc, f := newCheckout(payment.NopVerifier{})

	f.cart.On("GetCart", mock.Anything, "u1").Return(filledCart(), nil)
	f.stock.On("EnsureAvailable", mock.Anything, mock.Anything).
		Return(apperrors.Conflict(inventorydomain.ReasonInsufficientStock, "product p1 Red/M has 1 in stock"))

	_, err := svc.Checkout(context.Background(), checkoutInput())
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCheckout_IneligibleCouponAborts(t *testing.T) {
	svc, f := newCheckout(payment.NopVerifier{})

	f.cart.On("GetCart", mock.Anything, "u1").Return(filledCart(), nil)
	f.stock.On("EnsureAvailable", mock.Anything, mock.Anything).Return(nil)
	f.offers.On("BestOffer", mock.Anything, mock.Anything).Return(nil, nil)
	f.coupons.On("ValidateCoupon", mock.Anything, "EXPIRED", "u1", mock.Anything).
		Return(nil, apperrors.Ineligible(promodomain.ReasonCouponExpired, "coupon has expired"))

	input := checkoutInput()
	input.CouponCode = "EXPIRED"

	_, err := svc.Checkout(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrIneligible)

	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestQuote(t *testing.T) {
	svc, f := newCheckout(payment.NopVerifier{})

	f.cart.On("GetCart", mock.Anything, "u1").Return(filledCart(), nil)
	f.offers.On("BestOffer", mock.Anything, mock.Anything).
		Return(&promoservice.OfferResult{Offer: &promodomain.Offer{ID: "off1"}, Discount: 5000}, nil)
	f.coupons.On("ValidateCoupon", mock.Anything, "SAVE100", "u1", mock.Anything).
		Return(&promoservice.CouponResult{Coupon: &promodomain.Coupon{Code: "SAVE100"}, Discount: 10000}, nil)

	quote, err := svc.Quote(context.Background(), "u1", "SAVE100")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), quote.Subtotal)
	assert.Equal(t, int64(85000), quote.Total)
}
