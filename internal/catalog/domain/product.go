package domain

import (
	"strings"
	"time"
)

// DefaultMaxOrder is the per-order quantity cap applied when a size does
// not specify its own.
const DefaultMaxOrder = 10

// Product represents a catalog product. Prices are stored in minor
// currency units (paise).
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OurPrice    int64     `json:"our_price"`
	Discount    float64   `json:"discount"`
	Colors      []Color   `json:"colors"`
	Stock       int       `json:"stock"`
	Sold        int       `json:"sold"`
	MaxOrder    int       `json:"max_order"`
	IsActive    bool      `json:"is_active"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Color is a product color variant holding its own image set and sizes.
type Color struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Hex    string   `json:"hex"`
	Images []string `json:"images"`
	Sizes  []Size   `json:"sizes"`
}

// Size is the stock-keeping unit of a product: a (color, size) pair.
type Size struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Stock    int    `json:"stock"`
	MaxOrder int    `json:"max_order"`
}

// MRP returns the list price implied by the selling price and discount
// percentage. A discount of 20 on an OurPrice of 800 yields an MRP of
// 1000. Zero or out-of-range discounts return OurPrice unchanged.
func (p *Product) MRP() int64 {
	if p.Discount <= 0 || p.Discount >= 100 {
		return p.OurPrice
	}
	return int64(float64(p.OurPrice) / (1 - p.Discount/100))
}

// HasVariants reports whether the product tracks stock per color and size
// rather than in the top-level Stock counter.
func (p *Product) HasVariants() bool {
	return len(p.Colors) > 0
}

// FindColor returns the color with the given name, matched
// case-insensitively.
func (p *Product) FindColor(name string) (*Color, bool) {
	for i := range p.Colors {
		if strings.EqualFold(p.Colors[i].Name, name) {
			return &p.Colors[i], true
		}
	}
	return nil, false
}

// FindSize returns the size with the given label, matched
// case-insensitively.
func (c *Color) FindSize(label string) (*Size, bool) {
	for i := range c.Sizes {
		if strings.EqualFold(c.Sizes[i].Label, label) {
			return &c.Sizes[i], true
		}
	}
	return nil, false
}

// EffectiveMaxOrder returns the per-order quantity cap for the size,
// falling back to DefaultMaxOrder when unset.
func (s *Size) EffectiveMaxOrder() int {
	if s.MaxOrder > 0 {
		return s.MaxOrder
	}
	return DefaultMaxOrder
}

// EffectiveMaxOrder returns the product-level per-order quantity cap,
// falling back to DefaultMaxOrder when unset. Sizes that set their own
// cap take precedence over it.
func (p *Product) EffectiveMaxOrder() int {
	if p.MaxOrder > 0 {
		return p.MaxOrder
	}
	return DefaultMaxOrder
}

// TotalStock sums size-level stock across all colors. For products
// without variants it returns the top-level Stock counter.
func (p *Product) TotalStock() int {
	if !p.HasVariants() {
		return p.Stock
	}
	total := 0
	for i := range p.Colors {
		for j := range p.Colors[i].Sizes {
			total += p.Colors[i].Sizes[j].Stock
		}
	}
	return total
}

// RecomputeStock refreshes the denormalized top-level Stock counter from
// the size-level rows. No-op for products without variants.
func (p *Product) RecomputeStock() {
	if p.HasVariants() {
		p.Stock = p.TotalStock()
	}
}
