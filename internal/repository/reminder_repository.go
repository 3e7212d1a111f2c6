package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchialin/clinicline/internal/model"
)

type ReminderRepository struct {
	pool *pgxpool.Pool
}

func NewReminderRepository(pool *pgxpool.Pool) *ReminderRepository {
	return &ReminderRepository{pool: pool}
}

// WasSent checks whether a reminder of this kind already went out for the
// appointment, so the sweep never double-notifies.
func (r *ReminderRepository) WasSent(ctx context.Context, appointmentID int64, kind model.ReminderKind) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM appointment_reminders
			WHERE appointment_id = $1 AND kind = $2 AND sent = true
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, appointmentID, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reminder sent: %w", err)
	}

	return exists, nil
}

// Record stores the latest push attempt, successful or not. A retry after a
// failed attempt overwrites the earlier row, so a later delivery can flip
// sent to true under the (appointment_id, kind) unique constraint.
func (r *ReminderRepository) Record(ctx context.Context, reminder *model.AppointmentReminder) error {
	query := `
		INSERT INTO appointment_reminders (tenant_id, appointment_id, kind, sent, error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (appointment_id, kind)
		DO UPDATE SET sent = EXCLUDED.sent, error = EXCLUDED.error
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		reminder.TenantID,
		reminder.AppointmentID,
		reminder.Kind,
		reminder.Sent,
		reminder.Error,
	).Scan(&reminder.ID, &reminder.CreatedAt)

	if err != nil {
		return fmt.Errorf("record reminder: %w", err)
	}

	return nil
}
