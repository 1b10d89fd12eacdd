package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kokoruadmin/kokoru-backend/internal/catalog/repository"
	"github.com/kokoruadmin/kokoru-backend/internal/catalog/service"
	"github.com/kokoruadmin/kokoru-backend/pkg/httputil"
	"github.com/kokoruadmin/kokoru-backend/pkg/pagination"
	"github.com/kokoruadmin/kokoru-backend/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new catalog HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SizeRequest is a size entry inside a color variant.
type SizeRequest struct {
	Label    string `json:"label" validate:"required,max=20"`
	Stock    int    `json:"stock" validate:"gte=0"`
	MaxOrder int    `json:"max_order" validate:"gte=0"`
}

// ColorRequest is a color variant entry.
type ColorRequest struct {
	Name   string        `json:"name" validate:"required,max=50"`
	Hex    string        `json:"hex" validate:"omitempty,hexcolor"`
	Images []string      `json:"images" validate:"dive,url"`
	Sizes  []SizeRequest `json:"sizes" validate:"dive"`
}

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name        string         `json:"name" validate:"required,min=1,max=500"`
	Description string         `json:"description"`
	Category    string         `json:"category" validate:"max=100"`
	OurPrice    int64          `json:"our_price" validate:"required,gt=0"`
	Discount    float64        `json:"discount" validate:"gte=0,lt=100"`
	Colors      []ColorRequest `json:"colors" validate:"dive"`
	Stock       int            `json:"stock" validate:"gte=0"`
	MaxOrder    int            `json:"max_order" validate:"gte=0"`
	IsActive    bool           `json:"is_active"`
	IsFeatured  bool           `json:"is_featured"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// All fields are optional; a colors array replaces the variant tree.
type UpdateProductRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=1,max=500"`
	Description *string        `json:"description"`
	Category    *string        `json:"category" validate:"omitempty,max=100"`
	OurPrice    *int64         `json:"our_price" validate:"omitempty,gt=0"`
	Discount    *float64       `json:"discount" validate:"omitempty,gte=0,lt=100"`
	Colors      []ColorRequest `json:"colors" validate:"omitempty,dive"`
	Stock       *int           `json:"stock" validate:"omitempty,gte=0"`
	MaxOrder    *int           `json:"max_order" validate:"omitempty,gt=0"`
	IsActive    *bool          `json:"is_active"`
	IsFeatured  *bool          `json:"is_featured"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param category query string false "Filter by category"
// @Param search query string false "Full-text search query"
// @Param featured query bool false "Only featured products"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.ProductFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if v := r.URL.Query().Get("category"); v != "" {
		filter.Category = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}
	if v := r.URL.Query().Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "featured must be a boolean"},
			})
			return
		}
		filter.IsFeatured = &featured
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
	if v := r.URL.Query().Get("min_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a valid number"},
			})
			return
		}
		filter.MinPrice = &price
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a valid number"},
			})
			return
		}
		filter.MaxPrice = &price
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not exceed max_price"},
		})
		return
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(products, total, filter.Page, filter.PerPage))
}

// GetProduct handles GET /api/v1/products/{idOrSlug}. Accepts both a UUID
// and a slug for lookup.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id or slug is required"},
		})
		return
	}

	var (
		product any
		err     error
	)

	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = h.service.GetProduct(r.Context(), idOrSlug)
	} else {
		product, err = h.service.GetProductBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// CreateProduct handles POST /api/v1/products
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body CreateProductRequest true "Product to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateProductRequest
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

	input := &service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		OurPrice:    req.OurPrice,
		Discount:    req.Discount,
		Colors:      toColorInputs(req.Colors),
		Stock:       req.Stock,
		MaxOrder:    req.MaxOrder,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateProductRequest
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

	input := &service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		OurPrice:    req.OurPrice,
		Discount:    req.Discount,
		Stock:       req.Stock,
		MaxOrder:    req.MaxOrder,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
	}
	if req.Colors != nil {
		input.Colors = toColorInputs(req.Colors)
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/v1/categories.
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

func toColorInputs(reqs []ColorRequest) []service.ColorInput {
	colors := make([]service.ColorInput, 0, len(reqs))
	for _, c := range reqs {
		sizes := make([]service.SizeInput, 0, len(c.Sizes))
		for _, s := range c.Sizes {
			sizes = append(sizes, service.SizeInput{
				Label:    s.Label,
				Stock:    s.Stock,
				MaxOrder: s.MaxOrder,
			})
		}
		colors = append(colors, service.ColorInput{
			Name:   c.Name,
			Hex:    c.Hex,
			Images: c.Images,
			Sizes:  sizes,
		})
	}
	return colors
}
