package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/event"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// OfferService implements the business logic for storewide offers.
type OfferService struct {
	repo     repository.OfferRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewOfferService creates a new offer service.
func NewOfferService(repo repository.OfferRepository, producer *event.Producer, logger *slog.Logger) *OfferService {
	return &OfferService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOfferInput holds the parameters for creating an offer.
type CreateOfferInput struct {
	Title              string
	Description        string
	Categories         []string
	DiscountPercentage float64
	MaxDiscountAmount  int64
	StartsAt           *time.Time
	EndsAt             *time.Time
	IsActive           bool
	Priority           int
	IsScheduled        bool
	Schedule           *domain.Schedule
}

// UpdateOfferInput holds the parameters for updating an offer. Nil fields
// are left unchanged.
type UpdateOfferInput struct {
	Title              *string
	Description        *string
	Categories         []string
	DiscountPercentage *float64
	MaxDiscountAmount  *int64
	StartsAt           *time.Time
	EndsAt             *time.Time
	IsActive           *bool
	Priority           *int
	IsScheduled        *bool
	Schedule           *domain.Schedule
}

// OfferResult is the outcome of picking the best offer for a cart. Ranked
// carries every passing offer, best first, so clients can show the
// runners-up.
type OfferResult struct {
	Offer    *domain.Offer        `json:"offer"`
	Discount int64                `json:"discount"`
	Ranked   []domain.RankedOffer `json:"ranked"`
}

// CreateOffer creates a new offer.
func (s *OfferService) CreateOffer(ctx context.Context, input *CreateOfferInput) (*domain.Offer, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("offer title is required")
	}
	if input.DiscountPercentage <= 0 || input.DiscountPercentage > 100 {
		return nil, apperrors.InvalidInput("discount percentage must be between 0 and 100")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, apperrors.InvalidInput("offer end must be after its start")
	}
	if input.Schedule != nil {
		if err := input.Schedule.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	offer := &domain.Offer{
		ID:                 uuid.NewString(),
		Title:              input.Title,
		Description:        input.Description,
		Categories:         input.Categories,
		DiscountPercentage: input.DiscountPercentage,
		MaxDiscountAmount:  input.MaxDiscountAmount,
		StartsAt:           input.StartsAt,
		EndsAt:             input.EndsAt,
		IsActive:           input.IsActive,
		Priority:           input.Priority,
		IsScheduled:        input.IsScheduled,
		Schedule:           input.Schedule,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	s.logger.InfoContext(ctx, "offer created",
		slog.String("offer_id", offer.ID),
		slog.String("title", offer.Title),
	)

	return offer, nil
}

// GetOffer retrieves an offer by ID.
func (s *OfferService) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	return s.repo.GetByID(ctx, id)
}

// ListOffers returns offers matching the filter.
func (s *OfferService) ListOffers(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, int, error) {
	return s.repo.List(ctx, filter)
}

// LiveOffers returns the offers currently running, highest priority
// first. This feeds the storefront carousel. The repository filters on
// the date window; scheduled offers are additionally gated on their
// weekly windows here.
func (s *OfferService) LiveOffers(ctx context.Context) ([]domain.Offer, error) {
	offers, err := s.repo.ListLive(ctx, s.now())
	if err != nil {
		return nil, err
	}

	now := s.now()
	live := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.LiveAt(now) {
			live = append(live, o)
		}
	}
	return live, nil
}

// UpdateOffer applies a partial update to an offer.
func (s *OfferService) UpdateOffer(ctx context.Context, id string, input *UpdateOfferInput) (*domain.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		offer.Title = *input.Title
	}
	if input.Description != nil {
		offer.Description = *input.Description
	}
	if input.Categories != nil {
		offer.Categories = input.Categories
	}
	if input.DiscountPercentage != nil {
		if *input.DiscountPercentage <= 0 || *input.DiscountPercentage > 100 {
			return nil, apperrors.InvalidInput("discount percentage must be between 0 and 100")
		}
		offer.DiscountPercentage = *input.DiscountPercentage
	}
	if input.MaxDiscountAmount != nil {
		offer.MaxDiscountAmount = *input.MaxDiscountAmount
	}
	if input.StartsAt != nil {
		offer.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		offer.EndsAt = input.EndsAt
	}
	if input.IsActive != nil {
		offer.IsActive = *input.IsActive
	}
	if input.Priority != nil {
		offer.Priority = *input.Priority
	}
	if input.IsScheduled != nil {
		offer.IsScheduled = *input.IsScheduled
	}
	if input.Schedule != nil {
		if err := input.Schedule.Validate(); err != nil {
			return nil, err
		}
		offer.Schedule = input.Schedule
	}

	if offer.StartsAt != nil && offer.EndsAt != nil && offer.EndsAt.Before(*offer.StartsAt) {
		return nil, apperrors.InvalidInput("offer end must be after its start")
	}

	offer.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	s.logger.InfoContext(ctx, "offer updated", slog.String("offer_id", offer.ID))

	return offer, nil
}

// DeleteOffer removes an offer.
func (s *OfferService) DeleteOffer(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "offer deleted", slog.String("offer_id", id))

	return nil
}

// BestOffer picks the winning live offer for a cart. A nil result means
// no offer applies.
func (s *OfferService) BestOffer(ctx context.Context, items []domain.CartItem) (*OfferResult, error) {
	offers, err := s.repo.ListLive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list live offers: %w", err)
	}

	ranked := domain.RankOffers(offers, items, s.now())
	if len(ranked) == 0 {
		return nil, nil
	}

	return &OfferResult{Offer: ranked[0].Offer, Discount: ranked[0].Discount, Ranked: ranked}, nil
}

// RecordApplication marks an offer as applied to an order and updates its
// running stats.
func (s *OfferService) RecordApplication(ctx context.Context, offer *domain.Offer, orderID string, discount int64) error {
	if err := s.repo.RecordApplication(ctx, offer.ID, discount); err != nil {
		return err
	}

	if err := s.producer.PublishOfferApplied(ctx, offer, orderID, discount); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.applied event",
			slog.String("offer_id", offer.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "offer applied",
		slog.String("offer_id", offer.ID),
		slog.String("order_id", orderID),
		slog.Int64("discount", discount),
	)

	return nil
}
