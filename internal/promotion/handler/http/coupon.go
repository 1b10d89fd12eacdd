package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/service"
	"github.com/kokoruadmin/kokoru-backend/pkg/httputil"
	"github.com/kokoruadmin/kokoru-backend/pkg/middleware"
	"github.com/kokoruadmin/kokoru-backend/pkg/pagination"
	"github.com/kokoruadmin/kokoru-backend/pkg/validator"
)

// CouponHandler handles HTTP requests for coupon endpoints.
type CouponHandler struct {
	service *service.CouponService
	logger  *slog.Logger
}

// NewCouponHandler creates a new coupon HTTP handler.
func NewCouponHandler(svc *service.CouponService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CartItemRequest is a cart line in a coupon validation request.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Category  string `json:"category"`
	UnitPrice int64  `json:"unit_price" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// ScheduleRequest mirrors a coupon schedule in request bodies.
type ScheduleRequest struct {
	DaysOfWeek []string          `json:"days_of_week" validate:"dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	TimeSlots  []TimeSlotRequest `json:"time_slots" validate:"dive"`
}

// TimeSlotRequest is an inclusive time window entry.
type TimeSlotRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// CreateCouponRequest is the JSON request body for creating a coupon.
type CreateCouponRequest struct {
	Code                 string            `json:"code" validate:"required,min=3,max=30"`
	Type                 domain.CouponType `json:"type" validate:"required,oneof=flat upto"`
	DiscountAmount       int64             `json:"discount_amount" validate:"gte=0"`
	DiscountPercentage   float64           `json:"discount_percentage" validate:"gte=0,lte=100"`
	MaxDiscountAmount    int64             `json:"max_discount_amount" validate:"gte=0"`
	MinCartValue         int64             `json:"min_cart_value" validate:"gte=0"`
	ExpiresAt            *time.Time        `json:"expires_at"`
	IsActive             bool              `json:"is_active"`
	IsUserSpecific       bool              `json:"is_user_specific"`
	TargetUserID         string            `json:"target_user_id" validate:"omitempty,uuid"`
	UsageLimit           int               `json:"usage_limit" validate:"gte=0"`
	Priority             int               `json:"priority"`
	IsScheduled          bool              `json:"is_scheduled"`
	Schedule             *ScheduleRequest  `json:"schedule"`
	ApplicableCategories []string          `json:"applicable_categories"`
	ExcludedCategories   []string          `json:"excluded_categories"`
	ApplicableProducts   []string          `json:"applicable_products" validate:"dive,uuid"`
	ExcludedProducts     []string          `json:"excluded_products" validate:"dive,uuid"`
}

// UpdateCouponRequest is the JSON request body for updating a coupon. All
// fields are optional.
type UpdateCouponRequest struct {
	DiscountAmount       *int64           `json:"discount_amount" validate:"omitempty,gte=0"`
	DiscountPercentage   *float64         `json:"discount_percentage" validate:"omitempty,gte=0,lte=100"`
	MaxDiscountAmount    *int64           `json:"max_discount_amount" validate:"omitempty,gte=0"`
	MinCartValue         *int64           `json:"min_cart_value" validate:"omitempty,gte=0"`
	ExpiresAt            *time.Time       `json:"expires_at"`
	IsActive             *bool            `json:"is_active"`
	UsageLimit           *int             `json:"usage_limit" validate:"omitempty,gte=0"`
	Priority             *int             `json:"priority"`
	IsScheduled          *bool            `json:"is_scheduled"`
	Schedule             *ScheduleRequest `json:"schedule"`
	ApplicableCategories []string         `json:"applicable_categories"`
	ExcludedCategories   []string         `json:"excluded_categories"`
	ApplicableProducts   []string         `json:"applicable_products" validate:"omitempty,dive,uuid"`
	ExcludedProducts     []string         `json:"excluded_products" validate:"omitempty,dive,uuid"`
}

// ValidateCouponRequest is the JSON request body for validating a coupon
// against a cart.
type ValidateCouponRequest struct {
	Code  string            `json:"code" validate:"required"`
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// --- Handlers ---

// CreateCoupon handles POST /api/v1/admin/coupons
// @Summary Create a coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Param request body CreateCouponRequest true "Coupon to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/coupons [post]
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateCouponRequest
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

	input := &service.CreateCouponInput{
		Code:                 req.Code,
		Type:                 req.Type,
		DiscountAmount:       req.DiscountAmount,
		DiscountPercentage:   req.DiscountPercentage,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		MinCartValue:         req.MinCartValue,
		ExpiresAt:            req.ExpiresAt,
		IsActive:             req.IsActive,
		IsUserSpecific:       req.IsUserSpecific,
		TargetUserID:         req.TargetUserID,
		UsageLimit:           req.UsageLimit,
		Priority:             req.Priority,
		IsScheduled:          req.IsScheduled,
		Schedule:             toSchedule(req.Schedule),
		ApplicableCategories: req.ApplicableCategories,
		ExcludedCategories:   req.ExcludedCategories,
		ApplicableProducts:   req.ApplicableProducts,
		ExcludedProducts:     req.ExcludedProducts,
	}

	coupon, err := h.service.CreateCoupon(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: coupon})
}

// ListCoupons handles GET /api/v1/admin/coupons.
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.CouponFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "active must be a boolean"},
			})
			return
		}
		filter.IsActive = &active
	}

	coupons, total, err := h.service.ListCoupons(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(coupons, total, filter.Page, filter.PerPage))
}

// ListMyCoupons handles GET /api/v1/coupons, returning active coupons the
// requesting user can see.
func (h *CouponHandler) ListMyCoupons(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	userID := middleware.UserIDFromContext(r.Context())
	active := true

	filter := repository.CouponFilter{
		IsActive: &active,
		UserID:   &userID,
		Page:     params.Page,
		PerPage:  params.PerPage,
	}

	coupons, total, err := h.service.ListCoupons(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(coupons, total, filter.Page, filter.PerPage))
}

// GetCoupon handles GET /api/v1/admin/coupons/{id}.
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	coupon, err := h.service.GetCoupon(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// UpdateCoupon handles PUT /api/v1/admin/coupons/{id}.
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateCouponRequest
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

	input := &service.UpdateCouponInput{
		DiscountAmount:       req.DiscountAmount,
		DiscountPercentage:   req.DiscountPercentage,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		MinCartValue:         req.MinCartValue,
		ExpiresAt:            req.ExpiresAt,
		IsActive:             req.IsActive,
		UsageLimit:           req.UsageLimit,
		Priority:             req.Priority,
		IsScheduled:          req.IsScheduled,
		Schedule:             toSchedule(req.Schedule),
		ApplicableCategories: req.ApplicableCategories,
		ExcludedCategories:   req.ExcludedCategories,
		ApplicableProducts:   req.ApplicableProducts,
		ExcludedProducts:     req.ExcludedProducts,
	}

	coupon, err := h.service.UpdateCoupon(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// DeleteCoupon handles DELETE /api/v1/admin/coupons/{id}.
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidateCoupon handles POST /api/v1/coupons/validate
// @Summary Validate a coupon against a cart
// @Tags coupons
// @Accept json
// @Produce json
// @Param request body ValidateCouponRequest true "Coupon code and cart"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/coupons/validate [post]
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ValidateCouponRequest
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

	result, err := h.service.ValidateCoupon(r.Context(), req.Code, userID, toCartItems(req.Items))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

func toCartItems(reqs []CartItemRequest) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, domain.CartItem{
			ProductID: it.ProductID,
			Category:  it.Category,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return items
}

func toSchedule(req *ScheduleRequest) *domain.Schedule {
	if req == nil {
		return nil
	}
	slots := make([]domain.TimeSlot, 0, len(req.TimeSlots))
	for _, s := range req.TimeSlots {
		slots = append(slots, domain.TimeSlot{Start: s.Start, End: s.End})
	}
	return &domain.Schedule{
		DaysOfWeek: req.DaysOfWeek,
		TimeSlots:  slots,
	}
}
