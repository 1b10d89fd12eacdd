// Package notification sends transactional email to customers on order
// lifecycle changes.
package notification

import (
	"context"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
)

// Message is one email to send.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a message through some channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier builds order emails and hands them to a Sender. It satisfies
// the order service's StatusNotifier and the checkout orchestrator's
// PlacedNotifier.
type Notifier struct {
	sender     Sender
	adminEmail string
}

// NewNotifier creates a notifier. adminEmail may be empty, in which case
// the shop receives no new-order mail.
func NewNotifier(sender Sender, adminEmail string) *Notifier {
	return &Notifier{sender: sender, adminEmail: adminEmail}
}

// NotifyOrderPlaced emails the customer their confirmation and the shop
// a new-order alert. Either message is skipped when its address is
// missing.
func (n *Notifier) NotifyOrderPlaced(ctx context.Context, o *domain.Order) error {
	if o.Email != "" {
		subject, body := renderOrderPlacedEmail(o)
		if err := n.sender.Send(ctx, Message{To: o.Email, Subject: subject, Body: body}); err != nil {
			return err
		}
	}

	if n.adminEmail != "" {
		subject, body := renderNewOrderAlert(o)
		if err := n.sender.Send(ctx, Message{To: n.adminEmail, Subject: subject, Body: body}); err != nil {
			return err
		}
	}

	return nil
}

// NotifyOrderStatus emails the customer about the order's new status.
// The contact address is the one captured at checkout; orders without
// one, and statuses without a template, are silently skipped.
func (n *Notifier) NotifyOrderStatus(ctx context.Context, o *domain.Order) error {
	if o.Email == "" {
		return nil
	}

	subject, body, ok := renderStatusEmail(o)
	if !ok {
		return nil
	}

	return n.sender.Send(ctx, Message{
		To:      o.Email,
		Subject: subject,
		Body:    body,
	})
}
