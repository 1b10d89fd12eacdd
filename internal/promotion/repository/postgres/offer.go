package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kokoruadmin/kokoru-backend/internal/promotion/domain"
	"github.com/kokoruadmin/kokoru-backend/internal/promotion/repository"
	"github.com/kokoruadmin/kokoru-backend/pkg/database"
	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

const offerColumns = "id, title, description, categories, discount_percentage, max_discount_amount, starts_at, ends_at, is_active, priority, is_scheduled, schedule, applied_count, total_savings, created_at, updated_at"

// OfferRepository implements repository.OfferRepository using PostgreSQL.
type OfferRepository struct {
	pool database.DBTX
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool database.DBTX) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// Create inserts a new offer.
func (r *OfferRepository) Create(ctx context.Context, o *domain.Offer) error {
	scheduleJSON, err := marshalSchedule(o.Schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO offers (id, title, description, categories, discount_percentage, max_discount_amount, starts_at, ends_at, is_active, priority, is_scheduled, schedule, applied_count, total_savings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.Title,
		o.Description,
		o.Categories,
		o.DiscountPercentage,
		o.MaxDiscountAmount,
		o.StartsAt,
		o.EndsAt,
		o.IsActive,
		o.Priority,
		o.IsScheduled,
		scheduleJSON,
		o.AppliedCount,
		o.TotalSavings,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}

	return nil
}

// GetByID retrieves an offer by its ID.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)

	o, err := scanOffer(r.pool.QueryRow(ctx, query, id), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("offer", id)
		}
		return nil, fmt.Errorf("scan offer: %w", err)
	}
	return o, nil
}

// List returns offers matching the filter with the total count, highest
// priority first.
func (r *OfferRepository) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total
		FROM offers
		%s
		ORDER BY priority DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, offerColumns, where, argIndex, argIndex+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var (
		offers []domain.Offer
		total  int
	)
	for rows.Next() {
		o, err := scanOffer(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate offers: %w", err)
	}

	return offers, total, nil
}

// ListLive returns active offers whose date window contains now.
func (r *OfferRepository) ListLive(ctx context.Context, now time.Time) ([]domain.Offer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offers
		WHERE is_active
		  AND (starts_at IS NULL OR starts_at <= $1)
		  AND (ends_at IS NULL OR ends_at >= $1)
		ORDER BY priority DESC`, offerColumns)

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list live offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}

	return offers, nil
}

// Update rewrites the offer row. The applied count and savings total only
// move through RecordApplication.
func (r *OfferRepository) Update(ctx context.Context, o *domain.Offer) error {
	scheduleJSON, err := marshalSchedule(o.Schedule)
	if err != nil {
		return err
	}

	query := `
		UPDATE offers SET
			title = $2,
			description = $3,
			categories = $4,
			discount_percentage = $5,
			max_discount_amount = $6,
			starts_at = $7,
			ends_at = $8,
			is_active = $9,
			priority = $10,
			is_scheduled = $11,
			schedule = $12,
			updated_at = $13
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		o.ID,
		o.Title,
		o.Description,
		o.Categories,
		o.DiscountPercentage,
		o.MaxDiscountAmount,
		o.StartsAt,
		o.EndsAt,
		o.IsActive,
		o.Priority,
		o.IsScheduled,
		scheduleJSON,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("offer", o.ID)
	}

	return nil
}

// Delete removes an offer.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("offer", id)
	}
	return nil
}

// RecordApplication bumps the offer's application stats.
func (r *OfferRepository) RecordApplication(ctx context.Context, offerID string, savings int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE offers
		SET applied_count = applied_count + 1, total_savings = total_savings + $2, updated_at = now()
		WHERE id = $1`,
		offerID, savings,
	)
	if err != nil {
		return fmt.Errorf("record offer application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("offer", offerID)
	}
	return nil
}

func scanOffer(row pgx.Row, total *int) (*domain.Offer, error) {
	var (
		o            domain.Offer
		scheduleJSON []byte
	)

	dest := []any{
		&o.ID,
		&o.Title,
		&o.Description,
		&o.Categories,
		&o.DiscountPercentage,
		&o.MaxDiscountAmount,
		&o.StartsAt,
		&o.EndsAt,
		&o.IsActive,
		&o.Priority,
		&o.IsScheduled,
		&scheduleJSON,
		&o.AppliedCount,
		&o.TotalSavings,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if len(scheduleJSON) > 0 {
		o.Schedule = &domain.Schedule{}
		if err := json.Unmarshal(scheduleJSON, o.Schedule); err != nil {
			return nil, fmt.Errorf("decode offer schedule: %w", err)
		}
	}

	return &o, nil
}
