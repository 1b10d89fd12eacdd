package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPaid, StatusConfirmed, true},
		{StatusPaid, StatusShipped, true}, // forward skip
		{StatusPaid, StatusDelivered, true},
		{StatusConfirmed, StatusPacked, true},
		{StatusPacked, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusConfirmed, StatusShipped, true}, // forward skip
		{StatusShipped, StatusDelivered, true},

		{StatusConfirmed, StatusPaid, false}, // backward
		{StatusShipped, StatusPaid, false},
		{StatusProcessing, StatusPacked, false},
		{StatusDelivered, StatusShipped, false},

		{StatusPaid, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusRefunded, true},

		{StatusDelivered, StatusCancelled, false}, // terminal
		{StatusCancelled, StatusRefunded, false},
		{StatusRefunded, StatusPaid, false},

		{StatusPaid, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("shipped")
	assert.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("bogus")
	assert.Error(t, err)
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestRecomputeTotals(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{UnitPrice: 50000, Quantity: 2},
			{UnitPrice: 30000, Quantity: 1},
		},
		CouponDiscount: 10000,
		OfferDiscount:  5000,
	}

	o.RecomputeTotals()
	assert.Equal(t, int64(130000), o.Subtotal)
	assert.Equal(t, int64(115000), o.Total)

	// Discounts never push the total negative.
	o.CouponDiscount = 200000
	o.RecomputeTotals()
	assert.Equal(t, int64(0), o.Total)
}
