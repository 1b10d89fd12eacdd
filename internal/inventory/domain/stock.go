package domain

// Reservation failure codes surfaced to clients when stock cannot be
// allocated.
const (
	ReasonProductNotFound    = "PRODUCT_NOT_FOUND"
	ReasonVariantNotFound    = "VARIANT_NOT_FOUND"
	ReasonInsufficientStock  = "INSUFFICIENT_STOCK"
	ReasonOrderLimitExceeded = "ORDER_LIMIT_EXCEEDED"
)

// DefaultMaxOrder caps the per-order quantity when neither the size nor
// the product sets its own limit.
const DefaultMaxOrder = 10

// StockLine identifies one variant quantity in a reservation. Color and
// Size are matched case-insensitively; both empty means the product has
// no variants and stock is tracked at the product level.
type StockLine struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Availability is the current state of one variant's stock. MaxOrder is
// the size-level cap; ProductMaxOrder the product-level one.
type Availability struct {
	ProductID       string `json:"product_id"`
	Color           string `json:"color"`
	Size            string `json:"size"`
	Stock           int    `json:"stock"`
	MaxOrder        int    `json:"max_order"`
	ProductMaxOrder int    `json:"product_max_order"`
	ProductActive   bool   `json:"product_active"`
}

// EffectiveMaxOrder returns the per-order cap. A size-level cap wins,
// then the product-level cap, then the default.
func (a *Availability) EffectiveMaxOrder() int {
	if a.MaxOrder > 0 {
		return a.MaxOrder
	}
	if a.ProductMaxOrder > 0 {
		return a.ProductMaxOrder
	}
	return DefaultMaxOrder
}

// StockAdjustment tops up one variant's stock.
type StockAdjustment struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}
