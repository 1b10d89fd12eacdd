package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/service"
	"github.com/kokoruadmin/kokoru-backend/pkg/httputil"
	"github.com/kokoruadmin/kokoru-backend/pkg/pagination"
	"github.com/kokoruadmin/kokoru-backend/pkg/validator"
)

// OfferHandler handles HTTP requests for offer endpoints.
type OfferHandler struct {
	service *service.OfferService
	logger  *slog.Logger
}

// NewOfferHandler creates a new offer HTTP handler.
func NewOfferHandler(svc *service.OfferService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateOfferRequest is the JSON request body for creating an offer.
type CreateOfferRequest struct {
	Title              string     `json:"title" validate:"required,min=1,max=200"`
	Description        string     `json:"description"`
	Categories         []string   `json:"categories"`
	DiscountPercentage float64    `json:"discount_percentage" validate:"required,gt=0,lte=100"`
	MaxDiscountAmount  int64      `json:"max_discount_amount" validate:"gte=0"`
	StartsAt           *time.Time `json:"starts_at"`
	EndsAt             *time.Time `json:"ends_at"`
	IsActive           bool       `json:"is_active"`
	Priority           int        `json:"priority"`

	IsScheduled bool             `json:"is_scheduled"`
	Schedule    *ScheduleRequest `json:"schedule"`
}

// UpdateOfferRequest is the JSON request body for updating an offer. All
// fields are optional.
type UpdateOfferRequest struct {
	Title              *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description        *string    `json:"description"`
	Categories         []string   `json:"categories"`
	DiscountPercentage *float64   `json:"discount_percentage" validate:"omitempty,gt=0,lte=100"`
	MaxDiscountAmount  *int64     `json:"max_discount_amount" validate:"omitempty,gte=0"`
	StartsAt           *time.Time `json:"starts_at"`
	EndsAt             *time.Time `json:"ends_at"`
	IsActive           *bool      `json:"is_active"`
	Priority           *int       `json:"priority"`

	IsScheduled *bool            `json:"is_scheduled"`
	Schedule    *ScheduleRequest `json:"schedule"`
}

// BestOfferRequest is the JSON request body for picking the best offer
// for a cart.
type BestOfferRequest struct {
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// --- Handlers ---

// CreateOffer handles POST /api/v1/admin/offers
// @Summary Create an offer
// @Tags offers
// @Accept json
// @Produce json
// @Param request body CreateOfferRequest true "Offer to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/offers [post]
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateOfferRequest
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

	input := &service.CreateOfferInput{
		Title:              req.Title,
		Description:        req.Description,
		Categories:         req.Categories,
		DiscountPercentage: req.DiscountPercentage,
		MaxDiscountAmount:  req.MaxDiscountAmount,
		StartsAt:           req.StartsAt,
		EndsAt:             req.EndsAt,
		IsActive:           req.IsActive,
		Priority:           req.Priority,
		IsScheduled:        req.IsScheduled,
		Schedule:           toSchedule(req.Schedule),
	}

	offer, err := h.service.CreateOffer(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: offer})
}

// ListOffers handles GET /api/v1/admin/offers.
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.OfferFilter{
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

	offers, total, err := h.service.ListOffers(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(offers, total, filter.Page, filter.PerPage))
}

// ListLiveOffers handles GET /api/v1/offers, the storefront carousel
// feed.
func (h *OfferHandler) ListLiveOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.LiveOffers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: offers})
}

// GetOffer handles GET /api/v1/admin/offers/{id}.
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	offer, err := h.service.GetOffer(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: offer})
}

// UpdateOffer handles PUT /api/v1/admin/offers/{id}.
func (h *OfferHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateOfferRequest
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

	input := &service.UpdateOfferInput{
		Title:              req.Title,
		Description:        req.Description,
		Categories:         req.Categories,
		DiscountPercentage: req.DiscountPercentage,
		MaxDiscountAmount:  req.MaxDiscountAmount,
		StartsAt:           req.StartsAt,
		EndsAt:             req.EndsAt,
		IsActive:           req.IsActive,
		Priority:           req.Priority,
		IsScheduled:        req.IsScheduled,
		Schedule:           toSchedule(req.Schedule),
	}

	offer, err := h.service.UpdateOffer(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: offer})
}

// DeleteOffer handles DELETE /api/v1/admin/offers/{id}.
func (h *OfferHandler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOffer(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BestOffer handles POST /api/v1/offers/best, returning the winning live
// offer for a cart or null when none applies.
func (h *OfferHandler) BestOffer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req BestOfferRequest
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

	result, err := h.service.BestOffer(r.Context(), toCartItems(req.Items))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
