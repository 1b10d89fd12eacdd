package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
)

// Kafka topic constants for inventory domain events.
const (
	TopicStockReserved  = "kokoru.stock.reserved"
	TopicStockReleased  = "kokoru.stock.released"
	TopicStockRestocked = "kokoru.stock.restocked"
)

const AggregateTypeStock = "stock"

const SourceInventory = "inventory"

// StockEventData is the payload for stock movement events.
type StockEventData struct {
	OrderID string             `json:"order_id,omitempty"`
	Lines   []domain.StockLine `json:"lines"`
}

// Producer publishes inventory domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for inventory.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, key string, data StockEventData) error {
	event, err := pkgkafka.NewEvent(topic, key, AggregateTypeStock, SourceInventory, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published stock event",
		slog.String("topic", topic),
		slog.String("order_id", data.OrderID),
		slog.Int("lines", len(data.Lines)),
	)

	return nil
}

// PublishStockReserved publishes a stock.reserved event.
func (p *Producer) PublishStockReserved(ctx context.Context, orderID string, lines []domain.StockLine) error {
	return p.publish(ctx, TopicStockReserved, orderID, StockEventData{OrderID: orderID, Lines: lines})
}

// PublishStockReleased publishes a stock.released event.
func (p *Producer) PublishStockReleased(ctx context.Context, orderID string, lines []domain.StockLine) error {
	return p.publish(ctx, TopicStockReleased, orderID, StockEventData{OrderID: orderID, Lines: lines})
}

// PublishStockRestocked publishes a stock.restocked event.
func (p *Producer) PublishStockRestocked(ctx context.Context, lines []domain.StockLine) error {
	key := ""
	if len(lines) > 0 {
		key = lines[0].ProductID
	}
	return p.publish(ctx, TopicStockRestocked, key, StockEventData{Lines: lines})
}
