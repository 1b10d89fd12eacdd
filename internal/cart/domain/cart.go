package domain

import (
	"strings"
	"time"
)

// Cart is a user's shopping cart. Carts live in Redis and expire after a
// period of inactivity.
type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is one cart line. Product details are snapshotted when the item
// is added; prices are refreshed at checkout.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal sums the cart's line totals.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// Find returns the index of the line matching the variant, or -1.
// Color and size match case-insensitively.
func (c *Cart) Find(productID, color, size string) int {
	for i, it := range c.Items {
		if it.ProductID == productID &&
			strings.EqualFold(it.Color, color) &&
			strings.EqualFold(it.Size, size) {
			return i
		}
	}
	return -1
}

// Upsert adds quantity to an existing line or appends a new one.
func (c *Cart) Upsert(item Item) {
	if i := c.Find(item.ProductID, item.Color, item.Size); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		c.Items[i].UnitPrice = item.UnitPrice
		return
	}
	c.Items = append(c.Items, item)
}

// Remove drops the line matching the variant. Removing a missing line is
// a no-op.
func (c *Cart) Remove(productID, color, size string) {
	if i := c.Find(productID, color, size); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}
