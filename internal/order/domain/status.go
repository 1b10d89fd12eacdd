package domain

import "fmt"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPaid       Status = "paid"
	StatusConfirmed  Status = "confirmed"
	StatusPacked     Status = "packed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// fulfillment ranks the forward path. Transitions may skip ahead but
// never move backward.
var fulfillment = map[Status]int{
	StatusPaid:       0,
	StatusConfirmed:  1,
	StatusPacked:     2,
	StatusProcessing: 3,
	StatusShipped:    4,
	StatusDelivered:  5,
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPaid, StatusConfirmed, StatusPacked, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether an order in state s may move to next.
// Forward moves along the fulfillment path may skip intermediate states.
// Cancellation and refund are reachable from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled || next == StatusRefunded {
		return true
	}

	from, ok := fulfillment[s]
	if !ok {
		return false
	}
	to, ok := fulfillment[next]
	if !ok {
		return false
	}
	return to > from
}
