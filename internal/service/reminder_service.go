package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/model"
	"github.com/yuchialin/clinicline/internal/notify"
)

type ReminderStore interface {
	WasSent(ctx context.Context, appointmentID int64, kind model.ReminderKind) (bool, error)
	Record(ctx context.Context, reminder *model.AppointmentReminder) error
}

// FlexNotifier pushes a flex card; the reminder sweep is its only consumer.
type FlexNotifier interface {
	PushFlex(ctx context.Context, tenantID int64, to, altText string, contents json.RawMessage) error
}

// ReminderService sends the 24h and 2h appointment reminders over LINE and
// records every attempt so an appointment is never reminded twice for the
// same window.
type ReminderService struct {
	appointments AppointmentStore
	reminders    ReminderStore
	tenants      TenantStore
	notifier     FlexNotifier
	logger       *zap.Logger
}

func NewReminderService(
	appointments AppointmentStore,
	reminders ReminderStore,
	tenants TenantStore,
	notifier FlexNotifier,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		appointments: appointments,
		reminders:    reminders,
		tenants:      tenants,
		notifier:     notifier,
		logger:       logger,
	}
}

// SendDueReminders sweeps both reminder windows once. The day-ahead window
// starts where the imminent one ends, so an appointment within two hours only
// gets the urgent card.
func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) error {
	if err := s.sweep(ctx, now, model.ReminderKind24h, 2*time.Hour, 24*time.Hour); err != nil {
		return err
	}
	return s.sweep(ctx, now, model.ReminderKind2h, 0, 2*time.Hour)
}

func (s *ReminderService) sweep(ctx context.Context, now time.Time, kind model.ReminderKind, from, to time.Duration) error {
	appointments, err := s.appointments.ListConfirmedBetween(ctx, now.Add(from), now.Add(to))
	if err != nil {
		return fmt.Errorf("%w: list due appointments: %v", ErrUpstream, err)
	}

	for _, appt := range appointments {
		if appt.LineUserID == "" {
			continue
		}

		sent, err := s.reminders.WasSent(ctx, appt.ID, kind)
		if err != nil {
			return fmt.Errorf("%w: check reminder: %v", ErrUpstream, err)
		}
		if sent {
			continue
		}

		s.send(ctx, appt, kind)
	}

	return nil
}

func (s *ReminderService) send(ctx context.Context, appt *model.Appointment, kind model.ReminderKind) {
	card := notify.ReminderCard{
		CustomerName:    appt.CustomerName,
		AppointmentDate: appt.AppointmentDate,
		AppointmentTime: appt.AppointmentTime,
		Kind:            kind,
	}
	if tenant, err := s.tenants.GetByID(ctx, appt.TenantID); err == nil && tenant != nil {
		card.ClinicName = tenant.Name
		card.ClinicAddress = tenant.Address
	}

	altText, contents := notify.BuildReminderFlex(card)
	pushErr := s.notifier.PushFlex(ctx, appt.TenantID, appt.LineUserID, altText, contents)

	record := &model.AppointmentReminder{
		TenantID:      appt.TenantID,
		AppointmentID: appt.ID,
		Kind:          kind,
		Sent:          pushErr == nil,
	}
	if pushErr != nil {
		record.Error = pushErr.Error()
		s.logger.Warn("Failed to push reminder",
			zap.Int64("appointment_id", appt.ID),
			zap.String("kind", string(kind)),
			zap.Error(pushErr),
		)
	}

	if err := s.reminders.Record(ctx, record); err != nil {
		s.logger.Error("Failed to record reminder attempt",
			zap.Int64("appointment_id", appt.ID),
			zap.Error(err),
		)
		return
	}

	if pushErr == nil {
		s.logger.Info("Reminder sent",
			zap.Int64("tenant_id", appt.TenantID),
			zap.Int64("appointment_id", appt.ID),
			zap.String("kind", string(kind)),
		)
	}
}
