package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	pkgkafka "github.com/kokoruadmin/kokoru-backend/pkg/kafka"
)

// Kafka topic constants for promotion domain events.
const (
	TopicCouponCreated = "kokoru.coupon.created"
	TopicCouponApplied = "kokoru.coupon.applied"
	TopicOfferApplied  = "kokoru.offer.applied"
)

const (
	AggregateTypeCoupon = "coupon"
	AggregateTypeOffer  = "offer"
)

const SourcePromotion = "promotion"

// CouponEventData is the payload for coupon.created events.
type CouponEventData struct {
	ID       string            `json:"id"`
	Code     string            `json:"code"`
	Type     domain.CouponType `json:"type"`
	IsActive bool              `json:"is_active"`
}

// CouponAppliedData is the payload for coupon.applied events.
type CouponAppliedData struct {
	CouponID       string `json:"coupon_id"`
	Code           string `json:"code"`
	UserID         string `json:"user_id"`
	OrderID        string `json:"order_id"`
	DiscountAmount int64  `json:"discount_amount"`
}

// OfferAppliedData is the payload for offer.applied events.
type OfferAppliedData struct {
	OfferID        string `json:"offer_id"`
	Title          string `json:"title"`
	OrderID        string `json:"order_id"`
	DiscountAmount int64  `json:"discount_amount"`
}

// Producer publishes promotion domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for promotions.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCouponCreated publishes a coupon.created event.
func (p *Producer) PublishCouponCreated(ctx context.Context, c *domain.Coupon) error {
	data := CouponEventData{
		ID:       c.ID,
		Code:     c.Code,
		Type:     c.Type,
		IsActive: c.IsActive,
	}

	event, err := pkgkafka.NewEvent(TopicCouponCreated, c.ID, AggregateTypeCoupon, SourcePromotion, data)
	if err != nil {
		return fmt.Errorf("create coupon.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponCreated, event); err != nil {
		return fmt.Errorf("publish coupon.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.created event",
		slog.String("coupon_id", c.ID),
		slog.String("code", c.Code),
	)

	return nil
}

// PublishCouponApplied publishes a coupon.applied event.
func (p *Producer) PublishCouponApplied(ctx context.Context, c *domain.Coupon, usage *domain.CouponUsage) error {
	data := CouponAppliedData{
		CouponID:       c.ID,
		Code:           c.Code,
		UserID:         usage.UserID,
		OrderID:        usage.OrderID,
		DiscountAmount: usage.DiscountAmount,
	}

	event, err := pkgkafka.NewEvent(TopicCouponApplied, c.ID, AggregateTypeCoupon, SourcePromotion, data)
	if err != nil {
		return fmt.Errorf("create coupon.applied event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponApplied, event); err != nil {
		return fmt.Errorf("publish coupon.applied event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.applied event",
		slog.String("coupon_id", c.ID),
		slog.String("order_id", usage.OrderID),
	)

	return nil
}

// PublishOfferApplied publishes an offer.applied event.
func (p *Producer) PublishOfferApplied(ctx context.Context, o *domain.Offer, orderID string, discount int64) error {
	data := OfferAppliedData{
		OfferID:        o.ID,
		Title:          o.Title,
		OrderID:        orderID,
		DiscountAmount: discount,
	}

	event, err := pkgkafka.NewEvent(TopicOfferApplied, o.ID, AggregateTypeOffer, SourcePromotion, data)
	if err != nil {
		return fmt.Errorf("create offer.applied event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOfferApplied, event); err != nil {
		return fmt.Errorf("publish offer.applied event: %w", err)
	}

	p.logger.DebugContext(ctx, "published offer.applied event",
		slog.String("offer_id", o.ID),
		slog.String("order_id", orderID),
	)

	return nil
}
