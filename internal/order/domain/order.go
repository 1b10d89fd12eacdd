package domain

import (
	"time"

	inventory "github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
)

// Order is a placed order with its line items and shipping address.
// Amounts are in minor currency units.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Email          string      `json:"email,omitempty"`
	Items          []OrderItem `json:"items"`
	Status         Status      `json:"status"`
	Subtotal       int64       `json:"subtotal"`
	CouponCode     string      `json:"coupon_code,omitempty"`
	CouponDiscount int64       `json:"coupon_discount,omitempty"`
	OfferID        string      `json:"offer_id,omitempty"`
	OfferDiscount  int64       `json:"offer_discount,omitempty"`
	Total          int64       `json:"total"`
	PaymentID      string      `json:"payment_id,omitempty"`
	Address        Address     `json:"address"`
	StockAllocated bool        `json:"stock_allocated"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order. Product details are denormalized at
// order time so later catalog edits do not rewrite history.
type OrderItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal is the item's price times quantity.
func (it *OrderItem) LineTotal() int64 {
	return it.UnitPrice * int64(it.Quantity)
}

// Address is the shipping destination for an order.
type Address struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Pincode string `json:"pincode"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// StockLines converts the order's items into inventory reservation lines.
func (o *Order) StockLines() []inventory.StockLine {
	lines := make([]inventory.StockLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, inventory.StockLine{
			ProductID: it.ProductID,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  it.Quantity,
		})
	}
	return lines
}

// RecomputeTotals derives the subtotal and total from items and
// discounts. The total never goes below zero.
func (o *Order) RecomputeTotals() {
	var subtotal int64
	for i := range o.Items {
		subtotal += o.Items[i].LineTotal()
	}
	o.Subtotal = subtotal

	total := subtotal - o.CouponDiscount - o.OfferDiscount
	if total < 0 {
		total = 0
	}
	o.Total = total
}
