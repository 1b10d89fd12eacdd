package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	inventory "github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/order/event"
	"github.com/kokoruadmin/kokoru-backend/internal/order/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// StockAllocator reserves and releases inventory for an order.
type StockAllocator interface {
	Reserve(ctx context.Context, orderID string, lines []inventory.StockLine) error
	Release(ctx context.Context, orderID string, lines []inventory.StockLine) error
}

// StatusNotifier tells the customer about an order status change.
type StatusNotifier interface {
	NotifyOrderStatus(ctx context.Context, o *domain.Order) error
}

// OrderService implements the order lifecycle.
type OrderService struct {
	repo     repository.OrderRepository
	stock    StockAllocator
	notifier StatusNotifier
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service. notifier may be nil when
// status notifications are disabled.
func NewOrderService(repo repository.OrderRepository, stock StockAllocator, notifier StatusNotifier, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		stock:    stock,
		notifier: notifier,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrder persists a new order. The caller supplies items, discounts
// and address; totals are recomputed here. Stock is not allocated until
// the order ships.
func (s *OrderService) CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if len(o.Items) == 0 {
		return nil, apperrors.InvalidInput("order needs at least one item")
	}
	if o.UserID == "" {
		return nil, apperrors.InvalidInput("order needs a user")
	}

	now := s.now().UTC()
	o.ID = uuid.NewString()
	// Orders come into existence once payment is verified.
	if o.Status == "" {
		o.Status = domain.StatusPaid
	}
	o.StockAllocated = false
	o.CreatedAt = now
	o.UpdatedAt = now
	for i := range o.Items {
		if o.Items[i].Quantity <= 0 {
			return nil, apperrors.InvalidInput("item quantity must be positive")
		}
		o.Items[i].ID = uuid.NewString()
	}
	o.RecomputeTotals()

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, o); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", o.ID),
		slog.String("user_id", o.UserID),
		slog.Int64("total", o.Total),
	)

	return o, nil
}

// GetOrder retrieves an order. Non-admin callers only see their own.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string, isAdmin bool) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.UserID != userID {
		return nil, apperrors.Forbidden("order belongs to another user")
	}

	return o, nil
}

// ListOrders returns orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus moves an order to a new lifecycle state. Shipping reserves
// stock first and rolls the reservation back if the status write fails.
// Cancelling or refunding an order holding stock returns it to the shelf.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next domain.Status) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, apperrors.Conflict("INVALID_TRANSITION",
			fmt.Sprintf("cannot move order from %s to %s", o.Status, next))
	}

	prev := o.Status
	allocated := o.StockAllocated

	if next == domain.StatusShipped && !o.StockAllocated {
		if err := s.stock.Reserve(ctx, o.ID, o.StockLines()); err != nil {
			return nil, err
		}
		allocated = true

		if err := s.repo.UpdateStatus(ctx, o.ID, next, allocated); err != nil {
			// Hand the stock back; the order keeps its current status.
			if relErr := s.stock.Release(ctx, o.ID, o.StockLines()); relErr != nil {
				s.logger.ErrorContext(ctx, "failed to release stock after status write failure",
					slog.String("order_id", o.ID),
					slog.String("error", relErr.Error()),
				)
			}
			return nil, fmt.Errorf("update order status: %w", err)
		}
	} else {
		releasing := (next == domain.StatusCancelled || next == domain.StatusRefunded) && o.StockAllocated

		if releasing {
			// Return the stock before the order goes terminal; a failed
			// release leaves the order untouched and retryable.
			if err := s.stock.Release(ctx, o.ID, o.StockLines()); err != nil {
				return nil, fmt.Errorf("release stock: %w", err)
			}
			allocated = false
		}

		if err := s.repo.UpdateStatus(ctx, o.ID, next, allocated); err != nil {
			if releasing {
				// Take the stock back off the shelf; the order keeps its
				// current status.
				if resErr := s.stock.Reserve(ctx, o.ID, o.StockLines()); resErr != nil {
					s.logger.ErrorContext(ctx, "failed to re-reserve stock after status write failure",
						slog.String("order_id", o.ID),
						slog.String("error", resErr.Error()),
					)
				}
			}
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}

	o.Status = next
	o.StockAllocated = allocated
	o.UpdatedAt = s.now().UTC()

	if err := s.producer.PublishStatusChanged(ctx, o, prev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOrderStatus(ctx, o); err != nil {
			s.logger.ErrorContext(ctx, "failed to notify order status change",
				slog.String("order_id", o.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", o.ID),
		slog.String("from", string(prev)),
		slog.String("to", string(next)),
	)

	return o, nil
}

// DeleteOrder removes an order. Allocated stock is NOT returned: a
// deletion is an administrative erasure, not a cancellation, and the
// units already left the shelf.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", id))

	return nil
}
