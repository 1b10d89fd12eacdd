package notification

import (
	"fmt"
	"strings"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
)

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return strings.ToUpper(id[:i])
	}
	return strings.ToUpper(id)
}

func rupees(minor int64) string {
	return fmt.Sprintf("₹%d.%02d", minor/100, minor%100)
}

// renderOrderPlacedEmail builds the customer's confirmation mail, sent
// right after checkout succeeds.
func renderOrderPlacedEmail(o *domain.Order) (subject, body string) {
	ref := shortID(o.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order! We've received your payment of %s.\n\n",
		o.Address.Name, rupees(o.Total))
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %dx %s (%s, %s)\n", item.Quantity, item.Name, item.Color, item.Size)
	}
	b.WriteString("\nWe'll let you know as soon as it ships.\n")

	return fmt.Sprintf("Order %s placed", ref), b.String()
}

// renderNewOrderAlert builds the mail sent to the shop inbox.
func renderNewOrderAlert(o *domain.Order) (subject, body string) {
	ref := shortID(o.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "New order %s for %s from %s (%s).\n\nItems:\n",
		ref, rupees(o.Total), o.Address.Name, o.Address.Mobile)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %dx %s (%s, %s)\n", item.Quantity, item.Name, item.Color, item.Size)
	}
	fmt.Fprintf(&b, "\nShip to:\n%s\n%s\n%s, %s %s\n",
		o.Address.Line1, o.Address.Line2,
		o.Address.City, o.Address.State, o.Address.Pincode)

	return fmt.Sprintf("New order %s (%s)", ref, rupees(o.Total)), b.String()
}

// renderStatusEmail builds the subject and body for an order status
// change. ok is false for statuses that do not notify the customer.
func renderStatusEmail(o *domain.Order) (subject, body string, ok bool) {
	ref := shortID(o.ID)

	switch o.Status {
	case domain.StatusPaid:
		subject = fmt.Sprintf("Order %s confirmed", ref)
		body = fmt.Sprintf(
			"Hi %s,\n\nThanks for your order! We've received your payment of %s. "+
				"We'll let you know as soon as it ships.\n",
			o.Address.Name, rupees(o.Total))
	case domain.StatusShipped:
		subject = fmt.Sprintf("Order %s is on its way", ref)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour order has shipped to:\n\n%s\n%s\n%s, %s %s\n",
			o.Address.Name, o.Address.Line1, o.Address.Line2,
			o.Address.City, o.Address.State, o.Address.Pincode)
	case domain.StatusDelivered:
		subject = fmt.Sprintf("Order %s delivered", ref)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour order has been delivered. We hope you love it!\n",
			o.Address.Name)
	case domain.StatusCancelled:
		subject = fmt.Sprintf("Order %s cancelled", ref)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour order has been cancelled. If you paid online, "+
				"your refund of %s will be processed within 5-7 business days.\n",
			o.Address.Name, rupees(o.Total))
	case domain.StatusRefunded:
		subject = fmt.Sprintf("Order %s refunded", ref)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour refund of %s has been processed.\n",
			o.Address.Name, rupees(o.Total))
	default:
		return "", "", false
	}

	return subject, body, true
}
