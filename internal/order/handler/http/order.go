package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/repository"
	"github.com/kokoruadmin/kokoru-backend/internal/order/service"
	"github.com/kokoruadmin/kokoru-backend/pkg/httputil"
	"github.com/kokoruadmin/kokoru-backend/pkg/middleware"
	"github.com/kokoruadmin/kokoru-backend/pkg/pagination"
	"github.com/kokoruadmin/kokoru-backend/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// UpdateStatusRequest is the JSON request body for an order status
// change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=paid confirmed packed processing shipped delivered cancelled refunded"`
}

// ListMyOrders handles GET /api/v1/orders, returning the requesting
// user's orders.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	userID := middleware.UserIDFromContext(r.Context())

	filter := repository.OrderFilter{
		UserID:  &userID,
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if ok := applyStatusFilter(w, r, &filter); !ok {
		return
	}
	if ok := applyDateFilter(w, r, &filter); !ok {
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, filter.Page, filter.PerPage))
}

// ListOrders handles GET /api/v1/admin/orders
// @Summary List all orders
// @Tags orders
// @Produce json
// @Param status query string false "Filter by status"
// @Param from query string false "Created at or after (RFC 3339)"
// @Param to query string false "Created at or before (RFC 3339)"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	filter := repository.OrderFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		filter.UserID = &v
	}
	if ok := applyStatusFilter(w, r, &filter); !ok {
		return
	}
	if ok := applyDateFilter(w, r, &filter); !ok {
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, filter.Page, filter.PerPage))
}

// GetOrder handles GET /api/v1/orders/{id}. Customers only see their own
// orders; admins see any.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	isAdmin := middleware.RoleFromContext(r.Context()) == "admin"

	order, err := h.service.GetOrder(r.Context(), id.String(), userID, isAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status
// @Summary Update order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
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

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id.String(), status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// DeleteOrder handles DELETE /api/v1/admin/orders/{id}.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func applyStatusFilter(w http.ResponseWriter, r *http.Request, filter *repository.OrderFilter) bool {
	v := r.URL.Query().Get("status")
	if v == "" {
		return true
	}

	status, err := domain.ParseStatus(v)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: err.Error()},
		})
		return false
	}

	filter.Status = &status
	return true
}

func applyDateFilter(w http.ResponseWriter, r *http.Request, filter *repository.OrderFilter) bool {
	for _, q := range []struct {
		name string
		dest **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		v := r.URL.Query().Get(q.name)
		if v == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: q.name + " must be an RFC 3339 timestamp"},
			})
			return false
		}
		*q.dest = &t
	}

	return true
}
