package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/model"
)

// ApprovalService runs the pending -> approved/rejected workflow shared by
// appointment approvals and reschedule approvals. The transition itself is a
// conditional update in the store; a request that left pending concurrently
// surfaces as ErrInvalidState, never as a silent overwrite.
type ApprovalService struct {
	approvals    ApprovalStore
	appointments AppointmentStore
	logger       *zap.Logger
}

func NewApprovalService(approvals ApprovalStore, appointments AppointmentStore, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{
		approvals:    approvals,
		appointments: appointments,
		logger:       logger,
	}
}

// CreateAppointmentApproval enqueues a new booking for staff review.
func (s *ApprovalService) CreateAppointmentApproval(ctx context.Context, tenantID, appointmentID int64) (*model.ApprovalRequest, error) {
	req := &model.ApprovalRequest{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		Kind:          model.ApprovalKindAppointment,
		Status:        model.ApprovalStatusPending,
	}

	if err := s.approvals.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: create approval: %v", ErrUpstream, err)
	}

	s.logger.Info("Appointment approval created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("request_id", req.ID),
	)

	return req, nil
}

// CreateReschedule enqueues a customer's reschedule request: the appointment
// keeps its original date/time until a reviewer approves.
func (s *ApprovalService) CreateReschedule(ctx context.Context, tenantID, appointmentID int64, newDate, newTime string) (*model.ApprovalRequest, error) {
	if err := validateSlotKey(newDate, newTime); err != nil {
		return nil, err
	}

	appt, err := s.appointments.GetByID(ctx, tenantID, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: get appointment: %v", ErrUpstream, err)
	}
	if appt == nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, appointmentID)
	}
	if !appt.IsActive() {
		return nil, fmt.Errorf("%w: appointment %d is cancelled", ErrInvalidState, appointmentID)
	}

	req := &model.ApprovalRequest{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		Kind:          model.ApprovalKindReschedule,
		Status:        model.ApprovalStatusPending,
		OriginalDate:  appt.AppointmentDate,
		OriginalTime:  appt.AppointmentTime,
		RequestedDate: newDate,
		RequestedTime: newTime,
	}

	if err := s.approvals.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: create reschedule request: %v", ErrUpstream, err)
	}

	s.logger.Info("Reschedule request created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("appointment_id", appointmentID),
		zap.String("requested_date", newDate),
		zap.String("requested_time", newTime),
	)

	return req, nil
}

// ListPending returns the tenant's open requests in FIFO review order.
func (s *ApprovalService) ListPending(ctx context.Context, tenantID int64) ([]*model.ApprovalRequest, error) {
	requests, err := s.approvals.ListPending(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending: %v", ErrUpstream, err)
	}
	return requests, nil
}

// Approve transitions a pending request to approved. Approving a reschedule
// request also commits the new date/time onto the appointment, all or
// nothing.
func (s *ApprovalService) Approve(ctx context.Context, tenantID, id, reviewerID int64) error {
	req, err := s.getPending(ctx, tenantID, id)
	if err != nil {
		return err
	}

	var transitioned bool
	switch req.Kind {
	case model.ApprovalKindReschedule:
		transitioned, err = s.approvals.ApproveReschedule(ctx, tenantID, id, reviewerID)
	default:
		transitioned, err = s.approvals.MarkReviewed(ctx, tenantID, id, reviewerID, model.ApprovalStatusApproved, "")
		if err == nil && transitioned {
			// Confirm the appointment the approval was gating; a booking that
			// already left pending (e.g. cancelled meanwhile) stays untouched.
			if _, err := s.appointments.UpdateStatusIf(ctx, tenantID, req.AppointmentID,
				model.AppointmentStatusPending, model.AppointmentStatusConfirmed); err != nil {
				return fmt.Errorf("%w: confirm appointment: %v", ErrUpstream, err)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("%w: approve request: %v", ErrUpstream, err)
	}
	if !transitioned {
		return fmt.Errorf("%w: request %d is not pending", ErrInvalidState, id)
	}

	s.logger.Info("Approval request approved",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("request_id", id),
		zap.Int64("reviewer_id", reviewerID),
		zap.String("kind", string(req.Kind)),
	)

	return nil
}

// Reject transitions a pending request to rejected. A non-empty reason is
// required; the underlying appointment is left unchanged.
func (s *ApprovalService) Reject(ctx context.Context, tenantID, id, reviewerID int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason must not be empty", ErrValidation)
	}

	req, err := s.getPending(ctx, tenantID, id)
	if err != nil {
		return err
	}

	transitioned, err := s.approvals.MarkReviewed(ctx, tenantID, id, reviewerID, model.ApprovalStatusRejected, reason)
	if err != nil {
		return fmt.Errorf("%w: reject request: %v", ErrUpstream, err)
	}
	if !transitioned {
		return fmt.Errorf("%w: request %d is not pending", ErrInvalidState, id)
	}

	s.logger.Info("Approval request rejected",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("request_id", id),
		zap.Int64("reviewer_id", reviewerID),
		zap.String("kind", string(req.Kind)),
		zap.String("reason", reason),
	)

	return nil
}

func (s *ApprovalService) getPending(ctx context.Context, tenantID, id int64) (*model.ApprovalRequest, error) {
	req, err := s.approvals.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get request: %v", ErrUpstream, err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, id)
	}
	if !req.IsPending() {
		return nil, fmt.Errorf("%w: request %d is %s", ErrInvalidState, id, req.Status)
	}
	return req, nil
}
