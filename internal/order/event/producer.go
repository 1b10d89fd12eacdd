package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kokoruadmin/kokoru-backend/internal/order/domain"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
)

// Kafka topic constants for order domain events.
const (
	TopicOrderCreated       = "kokoru.order.created"
	TopicOrderStatusChanged = "kokoru.order.status_changed"
)

const AggregateTypeOrder = "order"

const SourceOrder = "order"

// OrderEventData is the payload for order.created events.
type OrderEventData struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Status     domain.Status `json:"status"`
	Total      int64         `json:"total"`
	ItemCount  int           `json:"item_count"`
	CouponCode string        `json:"coupon_code,omitempty"`
}

// StatusChangedData is the payload for order.status_changed events.
type StatusChangedData struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	From   domain.Status `json:"from"`
	To     domain.Status `json:"to"`
}

// Producer publishes order domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for orders.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	data := OrderEventData{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total,
		ItemCount:  len(o.Items),
		CouponCode: o.CouponCode,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, o.ID, AggregateTypeOrder, SourceOrder, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", o.ID),
	)

	return nil
}

// PublishStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishStatusChanged(ctx context.Context, o *domain.Order, from domain.Status) error {
	data := StatusChangedData{
		ID:     o.ID,
		UserID: o.UserID,
		From:   from,
		To:     o.Status,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, o.ID, AggregateTypeOrder, SourceOrder, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", o.ID),
		slog.String("from", string(from)),
		slog.String("to", string(o.Status)),
	)

	return nil
}
