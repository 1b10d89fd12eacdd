package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/inventory/event"
	"github.com/kokoruadmin/kokoru-backend/internal/inventory/repository"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

// StockService implements the business logic for stock allocation.
type StockService struct {
	repo     repository.StockRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewStockService creates a new stock service.
func NewStockService(repo repository.StockRepository, producer *event.Producer, logger *slog.Logger) *StockService {
	return &StockService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CheckAvailability reports whether every line could currently be
// reserved, without reserving anything. The answer is advisory; only
// Reserve allocates.
func (s *StockService) CheckAvailability(ctx context.Context, lines []domain.StockLine) ([]domain.Availability, error) {
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("at least one line is required")
	}

	out := make([]domain.Availability, 0, len(lines))
	for _, line := range lines {
		av, err := s.repo.GetAvailability(ctx, line)
		if err != nil {
			return nil, err
		}
		out = append(out, *av)
	}

	return out, nil
}

// EnsureAvailable fails when any line could not currently be reserved,
// applying the same per-line rules as Reserve without allocating. A
// later Reserve can still fail if stock moves in between.
func (s *StockService) EnsureAvailable(ctx context.Context, lines []domain.StockLine) error {
	if len(lines) == 0 {
		return apperrors.InvalidInput("at least one line is required")
	}

	for _, line := range lines {
		av, err := s.repo.GetAvailability(ctx, line)
		if err != nil {
			return err
		}
		if !av.ProductActive {
			return apperrors.Conflict(domain.ReasonProductNotFound,
				fmt.Sprintf("product %s is not available", line.ProductID))
		}
		if line.Quantity <= 0 || line.Quantity > av.EffectiveMaxOrder() {
			return apperrors.Conflict(domain.ReasonOrderLimitExceeded,
				fmt.Sprintf("quantity %d exceeds the per-order limit for product %s", line.Quantity, line.ProductID))
		}
		if av.Stock < line.Quantity {
			return apperrors.Conflict(domain.ReasonInsufficientStock,
				fmt.Sprintf("product %s %s/%s has %d in stock", line.ProductID, line.Color, line.Size, av.Stock))
		}
	}

	return nil
}

// Reserve allocates stock for an order. All lines succeed or none do.
func (s *StockService) Reserve(ctx context.Context, orderID string, lines []domain.StockLine) error {
	if len(lines) == 0 {
		return apperrors.InvalidInput("at least one line is required")
	}

	if err := s.repo.Reserve(ctx, lines); err != nil {
		return err
	}

	if err := s.producer.PublishStockReserved(ctx, orderID, lines); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock.reserved event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "stock reserved",
		slog.String("order_id", orderID),
		slog.Int("lines", len(lines)),
	)

	return nil
}

// Release returns previously reserved stock to the shelf.
func (s *StockService) Release(ctx context.Context, orderID string, lines []domain.StockLine) error {
	if len(lines) == 0 {
		return nil
	}

	if err := s.repo.Release(ctx, lines); err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	if err := s.producer.PublishStockReleased(ctx, orderID, lines); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock.released event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "stock released",
		slog.String("order_id", orderID),
		slog.Int("lines", len(lines)),
	)

	return nil
}

// Restock tops up stock for the given variants.
func (s *StockService) Restock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	if len(adjustments) == 0 {
		return apperrors.InvalidInput("at least one adjustment is required")
	}

	if err := s.repo.Restock(ctx, adjustments); err != nil {
		return err
	}

	lines := make([]domain.StockLine, 0, len(adjustments))
	for _, adj := range adjustments {
		lines = append(lines, domain.StockLine{
			ProductID: adj.ProductID,
			Color:     adj.Color,
			Size:      adj.Size,
			Quantity:  adj.Quantity,
		})
	}

	if err := s.producer.PublishStockRestocked(ctx, lines); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock.restocked event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "stock restocked", slog.Int("lines", len(lines)))

	return nil
}
