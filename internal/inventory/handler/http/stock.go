package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/inventory/service"
	"github.com/kokoruadmin/kokoru-backend/pkg/httputil"
	"github.com/kokoruadmin/kokoru-backend/pkg/validator"
)

// StockHandler handles HTTP requests for stock endpoints.
type StockHandler struct {
	service *service.StockService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock HTTP handler.
func NewStockHandler(svc *service.StockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  logger,
	}
}

// StockLineRequest identifies one variant quantity.
type StockLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CheckStockRequest is the JSON request body for an availability check.
type CheckStockRequest struct {
	Lines []StockLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// RestockRequest is the JSON request body for a bulk stock top-up.
type RestockRequest struct {
	Adjustments []StockLineRequest `json:"adjustments" validate:"required,min=1,dive"`
}

// CheckStock handles POST /api/v1/stock/check
// @Summary Check variant availability
// @Tags stock
// @Accept json
// @Produce json
// @Param request body CheckStockRequest true "Lines to check"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/stock/check [post]
func (h *StockHandler) CheckStock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CheckStockRequest
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

	availability, err := h.service.CheckAvailability(r.Context(), toStockLines(req.Lines))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: availability})
}

// Restock handles POST /api/v1/admin/stock/restock
// @Summary Top up variant stock
// @Tags stock
// @Accept json
// @Produce json
// @Param request body RestockRequest true "Adjustments to apply"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/stock/restock [post]
func (h *StockHandler) Restock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RestockRequest
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

	adjustments := make([]domain.StockAdjustment, 0, len(req.Adjustments))
	for _, a := range req.Adjustments {
		adjustments = append(adjustments, domain.StockAdjustment{
			ProductID: a.ProductID,
			Color:     a.Color,
			Size:      a.Size,
			Quantity:  a.Quantity,
		})
	}

	if err := h.service.Restock(r.Context(), adjustments); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toStockLines(reqs []StockLineRequest) []domain.StockLine {
	lines := make([]domain.StockLine, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, domain.StockLine{
			ProductID: l.ProductID,
			Color:     l.Color,
			Size:      l.Size,
			Quantity:  l.Quantity,
		})
	}
	return lines
}
