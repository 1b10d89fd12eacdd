package repository

import (
	"context"

	"github.com/kokoruadmin/kokoru-backend/internal/inventory/domain"
)

// StockRepository defines stock allocation operations. Reserve and
// Release act on whole reservations atomically.
type StockRepository interface {
	// GetAvailability reports the current stock state for one variant.
	GetAvailability(ctx context.Context, line domain.StockLine) (*domain.Availability, error)

	// Reserve decrements stock for every line in one transaction. If any
	// line cannot be satisfied nothing is decremented.
	Reserve(ctx context.Context, lines []domain.StockLine) error

	// Release returns previously reserved stock. Lines whose variant no
	// longer exists are skipped.
	Release(ctx context.Context, lines []domain.StockLine) error

	// Restock tops up stock for the given variants in one transaction.
	Restock(ctx context.Context, adjustments []domain.StockAdjustment) error
}
