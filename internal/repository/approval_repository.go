package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchialin/clinicline/internal/model"
)

type ApprovalRepository struct {
	pool *pgxpool.Pool
}

func NewApprovalRepository(pool *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{pool: pool}
}

const approvalColumns = `id, tenant_id, appointment_id, kind, status, reviewed_by, reviewed_at, reason,
		original_date, original_time, requested_date, requested_time, created_at, updated_at`

// Create inserts a pending request.
func (r *ApprovalRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests
			(tenant_id, appointment_id, kind, status, original_date, original_time, requested_date, requested_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		req.TenantID,
		req.AppointmentID,
		req.Kind,
		req.Status,
		req.OriginalDate,
		req.OriginalTime,
		req.RequestedDate,
		req.RequestedTime,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}

	return nil
}

// GetByID returns a request scoped to one tenant, nil when absent.
func (r *ApprovalRepository) GetByID(ctx context.Context, tenantID, id int64) (*model.ApprovalRequest, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE id = $1 AND tenant_id = $2
	`

	req, err := scanApproval(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get approval request: %w", err)
	}

	return req, nil
}

// ListPending returns the tenant's pending requests, oldest first so staff
// review in arrival order.
func (r *ApprovalRepository) ListPending(ctx context.Context, tenantID int64) ([]*model.ApprovalRequest, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, model.ApprovalStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.ApprovalRequest
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// MarkReviewed moves a request out of pending. The WHERE status = 'pending'
// guard makes the transition a compare-and-swap: a request already reviewed
// by somebody else yields zero affected rows and false is reported.
func (r *ApprovalRepository) MarkReviewed(ctx context.Context, tenantID, id, reviewerID int64, status model.ApprovalStatus, reason string) (bool, error) {
	query := `
		UPDATE approval_requests
		SET status = $1, reviewed_by = $2, reviewed_at = $3, reason = $4, updated_at = $3
		WHERE id = $5 AND tenant_id = $6 AND status = $7
	`

	result, err := r.pool.Exec(ctx, query, status, reviewerID, time.Now(), reason, id, tenantID, model.ApprovalStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark request reviewed: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ApproveReschedule approves a reschedule request and rewrites the referenced
// appointment's date and time in the same transaction, so the approval is
// never persisted without the appointment change.
func (r *ApprovalRepository) ApproveReschedule(ctx context.Context, tenantID, id, reviewerID int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE approval_requests
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4 AND tenant_id = $5 AND status = $6
		RETURNING appointment_id, requested_date, requested_time
	`

	var appointmentID int64
	var requestedDate, requestedTime string
	err = tx.QueryRow(
		ctx, query,
		model.ApprovalStatusApproved, reviewerID, time.Now(),
		id, tenantID, model.ApprovalStatusPending,
	).Scan(&appointmentID, &requestedDate, &requestedTime)

	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("approve reschedule request: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE appointments
		SET appointment_date = $1, appointment_time = $2, updated_at = now()
		WHERE id = $3 AND tenant_id = $4
	`, requestedDate, requestedTime, appointmentID, tenantID)
	if err != nil {
		return false, fmt.Errorf("reschedule appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, fmt.Errorf("appointment not found for reschedule")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

func scanApproval(row pgx.Row) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := row.Scan(
		&req.ID,
		&req.TenantID,
		&req.AppointmentID,
		&req.Kind,
		&req.Status,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.Reason,
		&req.OriginalDate,
		&req.OriginalTime,
		&req.RequestedDate,
		&req.RequestedTime,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
