package domain

import (
	"sort"
	"time"
)

// Offer is a storewide category promotion applied automatically at
// checkout, as opposed to a coupon the user enters. Amounts are in minor
// currency units.
type Offer struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Categories         []string   `json:"categories"`
	DiscountPercentage float64    `json:"discount_percentage"`
	MaxDiscountAmount  int64      `json:"max_discount_amount,omitempty"`
	StartsAt           *time.Time `json:"starts_at,omitempty"`
	EndsAt             *time.Time `json:"ends_at,omitempty"`
	IsActive           bool       `json:"is_active"`
	Priority           int        `json:"priority"`
	IsScheduled        bool       `json:"is_scheduled"`
	Schedule           *Schedule  `json:"schedule,omitempty"`
	AppliedCount       int        `json:"applied_count"`
	TotalSavings       int64      `json:"total_savings"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// LiveAt reports whether the offer is active, inside its date window and,
// when scheduled, inside one of its weekly windows.
func (o *Offer) LiveAt(t time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.StartsAt != nil && t.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && t.After(*o.EndsAt) {
		return false
	}
	if o.IsScheduled && o.Schedule != nil && !o.Schedule.Contains(t) {
		return false
	}
	return true
}

// MatchesCategory reports whether the offer covers the given category.
// An empty category list covers the whole catalog.
func (o *Offer) MatchesCategory(category string) bool {
	if len(o.Categories) == 0 {
		return true
	}
	return containsFold(o.Categories, category)
}

// Discount computes the offer's discount against the given subtotal,
// honoring the cap when set.
func (o *Offer) Discount(subtotal int64) int64 {
	discount := int64(float64(subtotal) * o.DiscountPercentage / 100)
	if o.MaxDiscountAmount > 0 && discount > o.MaxDiscountAmount {
		discount = o.MaxDiscountAmount
	}
	return discount
}

// RankedOffer pairs an offer with the discount it would grant the cart.
type RankedOffer struct {
	Offer    *Offer `json:"offer"`
	Discount int64  `json:"discount"`
}

// RankOffers returns every live offer that grants a discount on the
// cart, best first: priority desc, then computed discount desc.
func RankOffers(offers []Offer, items []CartItem, now time.Time) []RankedOffer {
	var ranked []RankedOffer

	for i := range offers {
		o := &offers[i]
		if !o.LiveAt(now) {
			continue
		}

		var subtotal int64
		for _, it := range items {
			if o.MatchesCategory(it.Category) {
				subtotal += it.UnitPrice * int64(it.Quantity)
			}
		}
		if subtotal == 0 {
			continue
		}

		discount := o.Discount(subtotal)
		if discount <= 0 {
			continue
		}

		ranked = append(ranked, RankedOffer{Offer: o, Discount: discount})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Offer.Priority != ranked[j].Offer.Priority {
			return ranked[i].Offer.Priority > ranked[j].Offer.Priority
		}
		return ranked[i].Discount > ranked[j].Discount
	})

	return ranked
}

// BestOffer picks the winning offer for a cart. Returns nil when nothing
// applies.
func BestOffer(offers []Offer, items []CartItem, now time.Time) (*Offer, int64) {
	ranked := RankOffers(offers, items, now)
	if len(ranked) == 0 {
		return nil, 0
	}
	return ranked[0].Offer, ranked[0].Discount
}
