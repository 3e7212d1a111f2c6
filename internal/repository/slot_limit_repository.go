package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchialin/clinicline/internal/model"
)

type SlotLimitRepository struct {
	pool *pgxpool.Pool
}

func NewSlotLimitRepository(pool *pgxpool.Pool) *SlotLimitRepository {
	return &SlotLimitRepository{pool: pool}
}

const slotLimitColumns = "id, tenant_id, date, time_slot, max_bookings, current_bookings, created_at, updated_at"

// Get returns the cap for one slot, nil when no cap is configured.
func (r *SlotLimitRepository) Get(ctx context.Context, tenantID int64, date, timeSlot string) (*model.SlotLimit, error) {
	query := `
		SELECT ` + slotLimitColumns + `
		FROM slot_limits
		WHERE tenant_id = $1 AND date = $2 AND time_slot = $3
	`

	var limit model.SlotLimit
	err := r.pool.QueryRow(ctx, query, tenantID, date, timeSlot).Scan(
		&limit.ID,
		&limit.TenantID,
		&limit.Date,
		&limit.TimeSlot,
		&limit.MaxBookings,
		&limit.CurrentBookings,
		&limit.CreatedAt,
		&limit.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot limit: %w", err)
	}

	return &limit, nil
}

// Upsert creates the cap or updates max_bookings of an existing one.
// current_bookings is never touched here; existing bookings survive a cap
// change.
func (r *SlotLimitRepository) Upsert(ctx context.Context, limit *model.SlotLimit) error {
	query := `
		INSERT INTO slot_limits (tenant_id, date, time_slot, max_bookings, current_bookings)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (tenant_id, date, time_slot)
		DO UPDATE SET max_bookings = EXCLUDED.max_bookings, updated_at = now()
		RETURNING id, current_bookings, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		limit.TenantID,
		limit.Date,
		limit.TimeSlot,
		limit.MaxBookings,
	).Scan(&limit.ID, &limit.CurrentBookings, &limit.CreatedAt, &limit.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert slot limit: %w", err)
	}

	return nil
}

// Delete removes the cap; the slot becomes uncapped again. Reports false
// when no cap existed.
func (r *SlotLimitRepository) Delete(ctx context.Context, tenantID int64, date, timeSlot string) (bool, error) {
	query := `DELETE FROM slot_limits WHERE tenant_id = $1 AND date = $2 AND time_slot = $3`

	result, err := r.pool.Exec(ctx, query, tenantID, date, timeSlot)
	if err != nil {
		return false, fmt.Errorf("delete slot limit: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByDate returns all caps of one day.
func (r *SlotLimitRepository) GetByDate(ctx context.Context, tenantID int64, date string) ([]*model.SlotLimit, error) {
	query := `
		SELECT ` + slotLimitColumns + `
		FROM slot_limits
		WHERE tenant_id = $1 AND date = $2
		ORDER BY time_slot ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("get slot limits by date: %w", err)
	}
	defer rows.Close()

	return scanSlotLimits(rows)
}

// GetByDateRange returns all caps between from and to inclusive.
func (r *SlotLimitRepository) GetByDateRange(ctx context.Context, tenantID int64, from, to string) ([]*model.SlotLimit, error) {
	query := `
		SELECT ` + slotLimitColumns + `
		FROM slot_limits
		WHERE tenant_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, time_slot ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get slot limits by range: %w", err)
	}
	defer rows.Close()

	return scanSlotLimits(rows)
}

// Increment takes one unit of capacity, but only while the slot is below its
// cap. Reports false when the slot was already full; the conditional update
// is what serializes concurrent bookings.
func (r *SlotLimitRepository) Increment(ctx context.Context, tenantID int64, date, timeSlot string) (bool, error) {
	query := `
		UPDATE slot_limits
		SET current_bookings = current_bookings + 1, updated_at = now()
		WHERE tenant_id = $1 AND date = $2 AND time_slot = $3
		  AND current_bookings < max_bookings
	`

	result, err := r.pool.Exec(ctx, query, tenantID, date, timeSlot)
	if err != nil {
		return false, fmt.Errorf("increment slot bookings: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Decrement gives one unit of capacity back, flooring at zero.
func (r *SlotLimitRepository) Decrement(ctx context.Context, tenantID int64, date, timeSlot string) error {
	query := `
		UPDATE slot_limits
		SET current_bookings = GREATEST(current_bookings - 1, 0), updated_at = now()
		WHERE tenant_id = $1 AND date = $2 AND time_slot = $3
	`

	if _, err := r.pool.Exec(ctx, query, tenantID, date, timeSlot); err != nil {
		return fmt.Errorf("decrement slot bookings: %w", err)
	}

	return nil
}

func scanSlotLimits(rows pgx.Rows) ([]*model.SlotLimit, error) {
	var limits []*model.SlotLimit
	for rows.Next() {
		var limit model.SlotLimit
		err := rows.Scan(
			&limit.ID,
			&limit.TenantID,
			&limit.Date,
			&limit.TimeSlot,
			&limit.MaxBookings,
			&limit.CurrentBookings,
			&limit.CreatedAt,
			&limit.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot limit: %w", err)
		}
		limits = append(limits, &limit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot limits: %w", err)
	}

	return limits, nil
}
