package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchialin/clinicline/internal/model"
)

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `id, tenant_id, customer_name, customer_phone, line_user_id,
		appointment_date, appointment_time, status, notes, created_at, updated_at`

// Create inserts an appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments
			(tenant_id, customer_name, customer_phone, line_user_id, appointment_date, appointment_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		appt.TenantID,
		appt.CustomerName,
		appt.CustomerPhone,
		appt.LineUserID,
		appt.AppointmentDate,
		appt.AppointmentTime,
		appt.Status,
		appt.Notes,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID returns an appointment scoped to one tenant, nil when absent.
func (r *AppointmentRepository) GetByID(ctx context.Context, tenantID, id int64) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1 AND tenant_id = $2
	`

	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	return appt, nil
}

// ListByDate returns all non-cancelled appointments of one day.
func (r *AppointmentRepository) ListByDate(ctx context.Context, tenantID int64, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1 AND appointment_date = $2 AND status != $3
		ORDER BY appointment_time ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, date, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appointments, nil
}

// UpdateStatus sets a new status unconditionally.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tenantID, id int64, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
	`

	result, err := r.pool.Exec(ctx, query, status, id, tenantID)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

// UpdateStatusIf transitions status only from an expected prior state.
// Reports false when the appointment was not in that state.
func (r *AppointmentRepository) UpdateStatusIf(ctx context.Context, tenantID, id int64, from, to model.AppointmentStatus) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, to, id, tenantID, from)
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListConfirmedBetween returns confirmed appointments across all tenants
// whose start falls inside [from, to). Used by the reminder sweep.
func (r *AppointmentRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = $1
		  AND (appointment_date || ' ' || appointment_time)::timestamp >= $2
		  AND (appointment_date || ' ' || appointment_time)::timestamp < $3
		ORDER BY appointment_date ASC, appointment_time ASC
	`

	rows, err := r.pool.Query(ctx, query, model.AppointmentStatusConfirmed, from, to)
	if err != nil {
		return nil, fmt.Errorf("list confirmed appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appointments, nil
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.TenantID,
		&appt.CustomerName,
		&appt.CustomerPhone,
		&appt.LineUserID,
		&appt.AppointmentDate,
		&appt.AppointmentTime,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}
