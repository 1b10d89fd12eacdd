package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferLiveAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	o := &Offer{IsActive: true, StartsAt: &before, EndsAt: &after}
	assert.True(t, o.LiveAt(now))

	o.IsActive = false
	assert.False(t, o.LiveAt(now))

	o.IsActive = true
	o.StartsAt = &after
	assert.False(t, o.LiveAt(now))

	o.StartsAt = nil
	o.EndsAt = &before
	assert.False(t, o.LiveAt(now))
}

func TestOfferLiveAt_Schedule(t *testing.T) {
	// 2025-06-15 is a Sunday.
	sundayNoon := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mondayNoon := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	o := &Offer{
		IsActive:    true,
		IsScheduled: true,
		Schedule: &Schedule{
			DaysOfWeek: []string{"saturday", "sunday"},
			TimeSlots:  []TimeSlot{{Start: "10:00", End: "18:00"}},
		},
	}

	assert.True(t, o.LiveAt(sundayNoon))
	assert.False(t, o.LiveAt(mondayNoon))
	assert.False(t, o.LiveAt(time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC)))
}

func TestOfferDiscountCap(t *testing.T) {
	o := &Offer{DiscountPercentage: 25, MaxDiscountAmount: 10000}

	assert.Equal(t, int64(10000), o.Discount(100000))
	assert.Equal(t, int64(5000), o.Discount(20000))
}

func TestBestOffer(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	items := []CartItem{
		{ProductID: "p1", Category: "tshirts", UnitPrice: 50000, Quantity: 1},
		{ProductID: "p2", Category: "shoes", UnitPrice: 80000, Quantity: 1},
	}

	offers := []Offer{
		{ID: "low", IsActive: true, Categories: []string{"tshirts"}, DiscountPercentage: 10, Priority: 1},
		{ID: "high", IsActive: true, Categories: []string{"shoes"}, DiscountPercentage: 5, Priority: 5},
		{ID: "dead", IsActive: false, DiscountPercentage: 50, Priority: 10},
	}

	best, discount := BestOffer(offers, items, now)
	require.NotNil(t, best)

	// Higher priority wins over the bigger discount.
	assert.Equal(t, "high", best.ID)
	assert.Equal(t, int64(4000), discount)
}

func TestBestOffer_DiscountBreaksTie(t *testing.T) {
	now := time.Now()

	items := []CartItem{
		{ProductID: "p1", Category: "tshirts", UnitPrice: 100000, Quantity: 1},
	}

	offers := []Offer{
		{ID: "small", IsActive: true, DiscountPercentage: 5, Priority: 3},
		{ID: "big", IsActive: true, DiscountPercentage: 15, Priority: 3},
	}

	best, discount := BestOffer(offers, items, now)
	require.NotNil(t, best)
	assert.Equal(t, "big", best.ID)
	assert.Equal(t, int64(15000), discount)
}

func TestBestOffer_ScheduledOfferOutsideWindowLoses(t *testing.T) {
	mondayNoon := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	items := []CartItem{{ProductID: "p1", Category: "tshirts", UnitPrice: 100000, Quantity: 1}}
	offers := []Offer{
		{ID: "weekend", IsActive: true, DiscountPercentage: 20, Priority: 9,
			IsScheduled: true, Schedule: &Schedule{DaysOfWeek: []string{"saturday", "sunday"}}},
		{ID: "always", IsActive: true, DiscountPercentage: 10, Priority: 1},
	}

	best, discount := BestOffer(offers, items, mondayNoon)
	require.NotNil(t, best)
	assert.Equal(t, "always", best.ID)
	assert.Equal(t, int64(10000), discount)
}

func TestRankOffers(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	items := []CartItem{{ProductID: "p1", Category: "tshirts", UnitPrice: 100000, Quantity: 1}}
	offers := []Offer{
		{ID: "small", IsActive: true, DiscountPercentage: 5, Priority: 1},
		{ID: "big", IsActive: true, DiscountPercentage: 15, Priority: 5},
		{ID: "dead", IsActive: false, DiscountPercentage: 50, Priority: 10},
	}

	ranked := RankOffers(offers, items, now)
	require.Len(t, ranked, 2)
	assert.Equal(t, "big", ranked[0].Offer.ID)
	assert.Equal(t, int64(15000), ranked[0].Discount)
	assert.Equal(t, "small", ranked[1].Offer.ID)
	assert.Equal(t, int64(5000), ranked[1].Discount)
}

func TestBestOffer_NoMatch(t *testing.T) {
	items := []CartItem{{ProductID: "p1", Category: "tshirts", UnitPrice: 50000, Quantity: 1}}
	offers := []Offer{
		{ID: "o1", IsActive: true, Categories: []string{"shoes"}, DiscountPercentage: 10},
	}

	best, discount := BestOffer(offers, items, time.Now())
	assert.Nil(t, best)
	assert.Zero(t, discount)
}

func TestBestOffer_EmptyCategoriesCoverCatalog(t *testing.T) {
	items := []CartItem{{ProductID: "p1", Category: "anything", UnitPrice: 40000, Quantity: 2}}
	offers := []Offer{{ID: "store", IsActive: true, DiscountPercentage: 10}}

	best, discount := BestOffer(offers, items, time.Now())
	require.NotNil(t, best)
	assert.Equal(t, int64(8000), discount)
}
