package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kokoruadmin/kokoru-backend/internal/checkout/service"
	orderdomain "github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/pkg/httputil"
	"github.com/kokoruadmin/kokoru-backend/pkg/middleware"
	"github.com/kokoruadmin/kokoru-backend/pkg/validator"
)

// CheckoutHandler handles HTTP requests for placing orders.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// AddressRequest carries the shipping address for an order.
type AddressRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Mobile  string `json:"mobile" validate:"required,mobile"`
	Pincode string `json:"pincode" validate:"required,pincode"`
	Line1   string `json:"line1" validate:"required,max=200"`
	Line2   string `json:"line2" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
}

// CheckoutRequest is the JSON request body for placing an order.
type CheckoutRequest struct {
	CouponCode string         `json:"coupon_code"`
	Address    AddressRequest `json:"address" validate:"required"`

	PaymentRef       string `json:"payment_ref" validate:"required"`
	PaymentID        string `json:"payment_id" validate:"required"`
	PaymentSignature string `json:"payment_signature" validate:"required"`
}

// QuoteRequest is the JSON request body for previewing checkout totals.
type QuoteRequest struct {
	CouponCode string `json:"coupon_code"`
}

// Checkout handles POST /api/v1/checkout
// @Summary Place an order from the current cart
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "Checkout details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.Checkout(r.Context(), &service.CheckoutInput{
		UserID:     userID,
		Email:      middleware.EmailFromContext(r.Context()),
		CouponCode: req.CouponCode,
		Address: orderdomain.Address{
			Name:    req.Address.Name,
			Mobile:  req.Address.Mobile,
			Pincode: req.Address.Pincode,
			Line1:   req.Address.Line1,
			Line2:   req.Address.Line2,
			City:    req.Address.City,
			State:   req.Address.State,
		},
		PaymentRef:       req.PaymentRef,
		PaymentID:        req.PaymentID,
		PaymentSignature: req.PaymentSignature,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// Quote handles POST /api/v1/checkout/quote. It previews the totals for
// the current cart, including the best live offer and an optional
// coupon, without placing an order.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	quote, err := h.service.Quote(r.Context(), userID, req.CouponCode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: quote})
}
