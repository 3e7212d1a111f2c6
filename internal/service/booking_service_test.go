package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/config"
	"github.com/yuchialin/clinicline/internal/model"
)

type bookingFixture struct {
	svc          *BookingService
	slots        *fakeSlotLimitStore
	appointments *fakeAppointmentStore
	approvals    *fakeApprovalStore
	tenants      *fakeTenantStore
	notifier     *fakeNotifier
}

func newBookingFixture(requiresApproval bool) *bookingFixture {
	limits := newFakeSlotLimitStore()
	appointments := newFakeAppointmentStore()
	approvals := newFakeApprovalStore(appointments)
	tenants := &fakeTenantStore{tenants: map[int64]*model.Tenant{
		1: {ID: 1, Name: "美麗診所", RequiresApproval: requiresApproval},
	}}
	notifier := &fakeNotifier{}

	logger := zap.NewNop()
	slotSvc := NewSlotService(limits, appointments, config.SlotPolicyUnlimited, 5, logger)
	approvalSvc := NewApprovalService(approvals, appointments, logger)
	svc := NewBookingService(appointments, slotSvc, approvalSvc, tenants, notifier, logger)

	return &bookingFixture{
		svc:          svc,
		slots:        limits,
		appointments: appointments,
		approvals:    approvals,
		tenants:      tenants,
		notifier:     notifier,
	}
}

func validInput() SubmitBookingInput {
	return SubmitBookingInput{
		TenantID:   1,
		Date:       "2026-09-10",
		TimeSlot:   "10:00",
		Name:       "王小明",
		Phone:      "0912345678",
		LineUserID: "U1234",
	}
}

func TestSubmitBookingConfirmsDirectly(t *testing.T) {
	f := newBookingFixture(false)

	appt, err := f.svc.SubmitBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}
	if appt.Status != model.AppointmentStatusConfirmed {
		t.Errorf("status = %s, want confirmed", appt.Status)
	}
	if len(f.approvals.requests) != 0 {
		t.Error("approval row created for a tenant without approval flow")
	}
	if len(f.notifier.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(f.notifier.pushes))
	}
	if !strings.Contains(f.notifier.pushes[0].text, "成功預約") {
		t.Errorf("confirmation text = %q", f.notifier.pushes[0].text)
	}
}

func TestSubmitBookingWithApprovalFlow(t *testing.T) {
	f := newBookingFixture(true)

	appt, err := f.svc.SubmitBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}
	if appt.Status != model.AppointmentStatusPending {
		t.Errorf("status = %s, want pending", appt.Status)
	}
	if len(f.approvals.requests) != 1 {
		t.Fatalf("approval requests = %d, want 1", len(f.approvals.requests))
	}
	for _, req := range f.approvals.requests {
		if req.Kind != model.ApprovalKindAppointment || req.AppointmentID != appt.ID {
			t.Errorf("approval request = %+v", req)
		}
	}
	if !strings.Contains(f.notifier.pushes[0].text, "預約申請") {
		t.Errorf("pending text = %q", f.notifier.pushes[0].text)
	}
}

func TestSubmitBookingValidation(t *testing.T) {
	f := newBookingFixture(false)

	tests := []struct {
		name   string
		mutate func(*SubmitBookingInput)
	}{
		{"empty name", func(in *SubmitBookingInput) { in.Name = "  " }},
		{"empty phone", func(in *SubmitBookingInput) { in.Phone = "" }},
		{"bad date", func(in *SubmitBookingInput) { in.Date = "next tuesday" }},
		{"bad time", func(in *SubmitBookingInput) { in.TimeSlot = "morning" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := f.svc.SubmitBooking(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
	if len(f.appointments.appointments) != 0 {
		t.Error("appointments persisted despite validation failures")
	}
}

func TestSubmitBookingUnknownTenant(t *testing.T) {
	f := newBookingFixture(false)
	in := validInput()
	in.TenantID = 99

	_, err := f.svc.SubmitBooking(context.Background(), in)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSubmitBookingFullSlot(t *testing.T) {
	f := newBookingFixture(false)
	ctx := context.Background()

	f.slots.Upsert(ctx, &model.SlotLimit{TenantID: 1, Date: "2026-09-10", TimeSlot: "10:00", MaxBookings: 1})

	if _, err := f.svc.SubmitBooking(ctx, validInput()); err != nil {
		t.Fatalf("first SubmitBooking: %v", err)
	}

	_, err := f.svc.SubmitBooking(ctx, validInput())
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("error = %v, want ErrCapacityExceeded", err)
	}
	if len(f.appointments.appointments) != 1 {
		t.Errorf("appointments = %d, want 1", len(f.appointments.appointments))
	}
}

func TestSubmitBookingReleasesSlotOnCreateFailure(t *testing.T) {
	f := newBookingFixture(false)
	ctx := context.Background()

	f.slots.Upsert(ctx, &model.SlotLimit{TenantID: 1, Date: "2026-09-10", TimeSlot: "10:00", MaxBookings: 1})
	f.appointments.createErr = errStore

	_, err := f.svc.SubmitBooking(ctx, validInput())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}

	row, _ := f.slots.Get(ctx, 1, "2026-09-10", "10:00")
	if row.CurrentBookings != 0 {
		t.Errorf("current bookings = %d, want 0 (released)", row.CurrentBookings)
	}
}

func TestSubmitBookingRollsBackWhenApprovalCreationFails(t *testing.T) {
	f := newBookingFixture(true)
	ctx := context.Background()

	f.slots.Upsert(ctx, &model.SlotLimit{TenantID: 1, Date: "2026-09-10", TimeSlot: "10:00", MaxBookings: 1})
	f.approvals.err = errStore

	_, err := f.svc.SubmitBooking(ctx, validInput())
	if err == nil {
		t.Fatal("SubmitBooking succeeded without an approval request")
	}

	row, _ := f.slots.Get(ctx, 1, "2026-09-10", "10:00")
	if row.CurrentBookings != 0 {
		t.Errorf("current bookings = %d, want 0 (released)", row.CurrentBookings)
	}
	for _, appt := range f.appointments.appointments {
		if appt.Status == model.AppointmentStatusPending {
			t.Errorf("appointment %d left pending with no approval request", appt.ID)
		}
	}
}

func TestSubmitBookingSurvivesPushFailure(t *testing.T) {
	f := newBookingFixture(false)
	f.notifier.err = errStore

	appt, err := f.svc.SubmitBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}
	if appt.Status != model.AppointmentStatusConfirmed {
		t.Errorf("status = %s, want confirmed despite push failure", appt.Status)
	}
}

func TestCancelAppointmentReleasesSlot(t *testing.T) {
	f := newBookingFixture(false)
	ctx := context.Background()

	f.slots.Upsert(ctx, &model.SlotLimit{TenantID: 1, Date: "2026-09-10", TimeSlot: "10:00", MaxBookings: 1})
	appt, err := f.svc.SubmitBooking(ctx, validInput())
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}

	if err := f.svc.CancelAppointment(ctx, 1, appt.ID); err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}

	if got := f.appointments.appointments[appt.ID].Status; got != model.AppointmentStatusCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
	row, _ := f.slots.Get(ctx, 1, "2026-09-10", "10:00")
	if row.CurrentBookings != 0 {
		t.Errorf("current bookings = %d, want 0", row.CurrentBookings)
	}

	err = f.svc.CancelAppointment(ctx, 1, appt.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("repeated cancel error = %v, want ErrInvalidState", err)
	}
}

func TestConfirmPayment(t *testing.T) {
	f := newBookingFixture(false)
	ctx := context.Background()

	appt := &model.Appointment{
		TenantID:        1,
		CustomerName:    "王小明",
		CustomerPhone:   "0912345678",
		AppointmentDate: "2026-09-10",
		AppointmentTime: "10:00",
		Status:          model.AppointmentStatusPendingPayment,
	}
	f.appointments.Create(ctx, appt)

	if err := f.svc.ConfirmPayment(ctx, 1, appt.ID); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if got := f.appointments.appointments[appt.ID].Status; got != model.AppointmentStatusConfirmed {
		t.Errorf("status = %s, want confirmed", got)
	}

	err := f.svc.ConfirmPayment(ctx, 1, appt.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("repeated confirm error = %v, want ErrInvalidState", err)
	}
}
