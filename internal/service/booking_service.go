package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/model"
)

// BookingService handles customer-facing booking submissions: capacity
// reservation first, then the appointment write, then the optional approval
// row and the LINE confirmation push.
type BookingService struct {
	appointments AppointmentStore
	slots        *SlotService
	approvals    *ApprovalService
	tenants      TenantStore
	notifier     Notifier
	logger       *zap.Logger
}

func NewBookingService(
	appointments AppointmentStore,
	slots *SlotService,
	approvals *ApprovalService,
	tenants TenantStore,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		appointments: appointments,
		slots:        slots,
		approvals:    approvals,
		tenants:      tenants,
		notifier:     notifier,
		logger:       logger,
	}
}

// SubmitBookingInput is a customer's booking request from the LIFF surface.
type SubmitBookingInput struct {
	TenantID   int64
	Date       string
	TimeSlot   string
	Name       string
	Phone      string
	LineUserID string
	Notes      string
}

// SubmitBooking books a slot. The capacity unit is reserved before any other
// write; a full slot rejects the booking with nothing persisted.
func (s *BookingService) SubmitBooking(ctx context.Context, in SubmitBookingInput) (*model.Appointment, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: 姓名不能為空", ErrValidation)
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, fmt.Errorf("%w: 電話不能為空", ErrValidation)
	}
	if err := validateSlotKey(in.Date, in.TimeSlot); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetByID(ctx, in.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: get tenant: %v", ErrUpstream, err)
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant %d", ErrNotFound, in.TenantID)
	}

	if err := s.slots.Reserve(ctx, in.TenantID, in.Date, in.TimeSlot); err != nil {
		return nil, err
	}

	status := model.AppointmentStatusConfirmed
	if tenant.RequiresApproval {
		status = model.AppointmentStatusPending
	}

	appt := &model.Appointment{
		TenantID:        in.TenantID,
		CustomerName:    in.Name,
		CustomerPhone:   in.Phone,
		LineUserID:      in.LineUserID,
		AppointmentDate: in.Date,
		AppointmentTime: in.TimeSlot,
		Status:          status,
		Notes:           in.Notes,
	}

	if err := s.appointments.Create(ctx, appt); err != nil {
		// Give the capacity unit back; the booking never materialized.
		if relErr := s.slots.Release(ctx, in.TenantID, in.Date, in.TimeSlot); relErr != nil {
			s.logger.Error("Failed to release slot after booking failure", zap.Error(relErr))
		}
		return nil, fmt.Errorf("%w: create appointment: %v", ErrUpstream, err)
	}

	if status == model.AppointmentStatusPending {
		if _, err := s.approvals.CreateAppointmentApproval(ctx, in.TenantID, appt.ID); err != nil {
			// Without an approval request the pending appointment could
			// never be reviewed. Roll the booking back so it does not hold
			// capacity forever.
			if stErr := s.appointments.UpdateStatus(ctx, in.TenantID, appt.ID, model.AppointmentStatusCancelled); stErr != nil {
				s.logger.Error("Failed to cancel appointment after approval failure", zap.Error(stErr))
			}
			if relErr := s.slots.Release(ctx, in.TenantID, in.Date, in.TimeSlot); relErr != nil {
				s.logger.Error("Failed to release slot after approval failure", zap.Error(relErr))
			}
			return nil, err
		}
	}

	s.logger.Info("Booking submitted",
		zap.Int64("tenant_id", in.TenantID),
		zap.Int64("appointment_id", appt.ID),
		zap.String("date", in.Date),
		zap.String("time", in.TimeSlot),
		zap.String("status", string(status)),
	)

	s.pushConfirmation(ctx, tenant, appt)

	return appt, nil
}

// CancelAppointment cancels an active appointment and releases its slot.
func (s *BookingService) CancelAppointment(ctx context.Context, tenantID, id int64) error {
	appt, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: get appointment: %v", ErrUpstream, err)
	}
	if appt == nil {
		return fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	}
	if !appt.IsActive() {
		return fmt.Errorf("%w: appointment %d already cancelled", ErrInvalidState, id)
	}

	if err := s.appointments.UpdateStatus(ctx, tenantID, id, model.AppointmentStatusCancelled); err != nil {
		return fmt.Errorf("%w: cancel appointment: %v", ErrUpstream, err)
	}

	if err := s.slots.Release(ctx, tenantID, appt.AppointmentDate, appt.AppointmentTime); err != nil {
		return err
	}

	s.logger.Info("Appointment cancelled",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("appointment_id", id),
	)

	return nil
}

// ConfirmPayment moves an appointment waiting on payment to confirmed. Driven
// by the validated payment webhook; a repeated confirmation is a state error,
// not a duplicate booking.
func (s *BookingService) ConfirmPayment(ctx context.Context, tenantID, id int64) error {
	appt, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: get appointment: %v", ErrUpstream, err)
	}
	if appt == nil {
		return fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	}

	confirmed, err := s.appointments.UpdateStatusIf(ctx, tenantID, id,
		model.AppointmentStatusPendingPayment, model.AppointmentStatusConfirmed)
	if err != nil {
		return fmt.Errorf("%w: confirm appointment: %v", ErrUpstream, err)
	}
	if !confirmed {
		return fmt.Errorf("%w: appointment %d is not awaiting payment", ErrInvalidState, id)
	}

	s.logger.Info("Payment confirmed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("appointment_id", id),
	)

	return nil
}

// GetAppointment returns a tenant-scoped appointment.
func (s *BookingService) GetAppointment(ctx context.Context, tenantID, id int64) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get appointment: %v", ErrUpstream, err)
	}
	if appt == nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	}
	return appt, nil
}

// pushConfirmation notifies the customer over LINE. Fire-and-forget:
// delivery failures are logged, never retried, and never fail the booking.
func (s *BookingService) pushConfirmation(ctx context.Context, tenant *model.Tenant, appt *model.Appointment) {
	if s.notifier == nil || appt.LineUserID == "" {
		return
	}

	var text string
	if appt.Status == model.AppointmentStatusPending {
		text = fmt.Sprintf("%s 您好，已收到您 %s %s 的預約申請，待 %s 確認後將再通知您。",
			appt.CustomerName, appt.AppointmentDate, appt.AppointmentTime, tenant.Name)
	} else {
		text = fmt.Sprintf("%s 您好，您已成功預約 %s %s，%s 期待您的光臨。",
			appt.CustomerName, appt.AppointmentDate, appt.AppointmentTime, tenant.Name)
	}

	if err := s.notifier.PushText(ctx, tenant.ID, appt.LineUserID, text); err != nil {
		s.logger.Warn("Failed to push booking confirmation",
			zap.Int64("appointment_id", appt.ID),
			zap.Error(err),
		)
	}
}
