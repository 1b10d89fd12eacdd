package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
)

type fakeSender struct {
	sent []Message
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func testOrder(status domain.Status) *domain.Order {
	return &domain.Order{
		ID:     "a1b2c3d4-0000-0000-0000-000000000000",
		UserID: "u1",
		Email:  "u1@example.com",
		Status: status,
		Total:  129900,
		Address: domain.Address{
			Name:    "Priya",
			Mobile:  "9876543210",
			Line1:   "14 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
	}
}

func TestNotifyOrderStatus(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "")

	err := n.NotifyOrderStatus(context.Background(), testOrder(domain.StatusShipped))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "u1@example.com", msg.To)
	assert.Contains(t, msg.Subject, "on its way")
	assert.Contains(t, msg.Body, "560001")
}

func TestNotifyOrderStatus_NoTemplateForProcessing(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "")

	err := n.NotifyOrderStatus(context.Background(), testOrder(domain.StatusProcessing))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotifyOrderStatus_NoEmailSkipped(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "")

	o := testOrder(domain.StatusShipped)
	o.Email = ""

	err := n.NotifyOrderStatus(context.Background(), o)
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotifyOrderPlaced(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "shop@kokoru.in")

	o := testOrder(domain.StatusPaid)
	o.Items = []domain.OrderItem{
		{ProductID: "p1", Name: "Oversized Tee", Color: "Red", Size: "M", UnitPrice: 64950, Quantity: 2},
	}

	err := n.NotifyOrderPlaced(context.Background(), o)
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	customer := sender.sent[0]
	assert.Equal(t, "u1@example.com", customer.To)
	assert.Contains(t, customer.Subject, "placed")
	assert.Contains(t, customer.Body, "2x Oversized Tee")

	admin := sender.sent[1]
	assert.Equal(t, "shop@kokoru.in", admin.To)
	assert.Contains(t, admin.Subject, "New order")
	assert.Contains(t, admin.Body, "9876543210")
}

func TestNotifyOrderPlaced_NoAdminConfigured(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "")

	err := n.NotifyOrderPlaced(context.Background(), testOrder(domain.StatusPaid))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "u1@example.com", sender.sent[0].To)
}

func TestRenderStatusEmail(t *testing.T) {
	tests := []struct {
		status  domain.Status
		subject string
	}{
		{domain.StatusPaid, "confirmed"},
		{domain.StatusShipped, "on its way"},
		{domain.StatusDelivered, "delivered"},
		{domain.StatusCancelled, "cancelled"},
		{domain.StatusRefunded, "refunded"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			subject, body, ok := renderStatusEmail(testOrder(tt.status))
			require.True(t, ok)
			assert.Contains(t, subject, tt.subject)
			assert.Contains(t, body, "Priya")
		})
	}
}

func TestRupees(t *testing.T) {
	assert.Equal(t, "₹1299.00", rupees(129900))
	assert.Equal(t, "₹0.50", rupees(50))
}
