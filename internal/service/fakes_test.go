package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/yuchialin/clinicline/internal/model"
	"github.com/yuchialin/clinicline/internal/repository"
)

// In-memory store fakes backing the service tests.

type fakeRuleStore struct {
	rules  []model.ComplianceRule
	nextID int64
	err    error
}

func (f *fakeRuleStore) ListForScan(_ context.Context, tenantID int64) ([]model.ComplianceRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ComplianceRule
	for _, r := range f.rules {
		if r.TenantID == nil || *r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleStore) List(_ context.Context, tenantID int64, severity *model.Severity) ([]model.ComplianceRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ComplianceRule
	for _, r := range f.rules {
		if r.TenantID != nil && *r.TenantID != tenantID {
			continue
		}
		if severity != nil && r.Severity != *severity {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRuleStore) Create(_ context.Context, rule *model.ComplianceRule) error {
	if f.err != nil {
		return f.err
	}
	for _, r := range f.rules {
		if r.Keyword == rule.Keyword && sameTenant(r.TenantID, rule.TenantID) {
			return repository.ErrDuplicateKeyword
		}
	}
	f.nextID++
	rule.ID = f.nextID
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRuleStore) Update(_ context.Context, rule *model.ComplianceRule) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for i, r := range f.rules {
		if r.ID == rule.ID && sameTenant(r.TenantID, rule.TenantID) {
			f.rules[i] = *rule
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRuleStore) Delete(_ context.Context, tenantID, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for i, r := range f.rules {
		if r.ID == id && r.TenantID != nil && *r.TenantID == tenantID {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func sameTenant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeSlotLimitStore struct {
	limits map[string]*model.SlotLimit
	err    error
}

func newFakeSlotLimitStore() *fakeSlotLimitStore {
	return &fakeSlotLimitStore{limits: make(map[string]*model.SlotLimit)}
}

func (f *fakeSlotLimitStore) key(tenantID int64, date, timeSlot string) string {
	return date + "|" + timeSlot + "|" + strconv.FormatInt(tenantID, 10)
}

func (f *fakeSlotLimitStore) Get(_ context.Context, tenantID int64, date, timeSlot string) (*model.SlotLimit, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.limits[f.key(tenantID, date, timeSlot)]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeSlotLimitStore) Upsert(_ context.Context, limit *model.SlotLimit) error {
	if f.err != nil {
		return f.err
	}
	k := f.key(limit.TenantID, limit.Date, limit.TimeSlot)
	if existing, ok := f.limits[k]; ok {
		existing.MaxBookings = limit.MaxBookings
		limit.CurrentBookings = existing.CurrentBookings
		return nil
	}
	cp := *limit
	f.limits[k] = &cp
	return nil
}

func (f *fakeSlotLimitStore) Delete(_ context.Context, tenantID int64, date, timeSlot string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	k := f.key(tenantID, date, timeSlot)
	if _, ok := f.limits[k]; !ok {
		return false, nil
	}
	delete(f.limits, k)
	return true, nil
}

func (f *fakeSlotLimitStore) GetByDate(_ context.Context, tenantID int64, date string) ([]*model.SlotLimit, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.SlotLimit
	for _, l := range f.limits {
		if l.TenantID == tenantID && l.Date == date {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeSlot < out[j].TimeSlot })
	return out, nil
}

func (f *fakeSlotLimitStore) GetByDateRange(_ context.Context, tenantID int64, from, to string) ([]*model.SlotLimit, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.SlotLimit
	for _, l := range f.limits {
		if l.TenantID == tenantID && l.Date >= from && l.Date <= to {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out, nil
}

func (f *fakeSlotLimitStore) Increment(_ context.Context, tenantID int64, date, timeSlot string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	l, ok := f.limits[f.key(tenantID, date, timeSlot)]
	if !ok || l.CurrentBookings >= l.MaxBookings {
		return false, nil
	}
	l.CurrentBookings++
	return true, nil
}

func (f *fakeSlotLimitStore) Decrement(_ context.Context, tenantID int64, date, timeSlot string) error {
	if f.err != nil {
		return f.err
	}
	if l, ok := f.limits[f.key(tenantID, date, timeSlot)]; ok && l.CurrentBookings > 0 {
		l.CurrentBookings--
	}
	return nil
}

type fakeAppointmentStore struct {
	appointments map[int64]*model.Appointment
	nextID       int64
	createErr    error
	err          error
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appointments: make(map[int64]*model.Appointment)}
}

func (f *fakeAppointmentStore) Create(_ context.Context, appt *model.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	appt.ID = f.nextID
	appt.CreatedAt = time.Now()
	cp := *appt
	f.appointments[appt.ID] = &cp
	return nil
}

func (f *fakeAppointmentStore) GetByID(_ context.Context, tenantID, id int64) (*model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.appointments[id]
	if !ok || a.TenantID != tenantID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentStore) ListByDate(_ context.Context, tenantID int64, date string) ([]*model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.TenantID == tenantID && a.AppointmentDate == date && a.Status != model.AppointmentStatusCancelled {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) UpdateStatus(_ context.Context, tenantID, id int64, status model.AppointmentStatus) error {
	if f.err != nil {
		return f.err
	}
	if a, ok := f.appointments[id]; ok && a.TenantID == tenantID {
		a.Status = status
	}
	return nil
}

func (f *fakeAppointmentStore) UpdateStatusIf(_ context.Context, tenantID, id int64, from, to model.AppointmentStatus) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	a, ok := f.appointments[id]
	if !ok || a.TenantID != tenantID || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (f *fakeAppointmentStore) ListConfirmedBetween(_ context.Context, from, to time.Time) ([]*model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.Status != model.AppointmentStatusConfirmed {
			continue
		}
		at, err := time.ParseInLocation("2006-01-02 15:04", a.AppointmentDate+" "+a.AppointmentTime, time.Local)
		if err != nil {
			continue
		}
		if !at.Before(from) && !at.After(to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeApprovalStore struct {
	requests     map[int64]*model.ApprovalRequest
	appointments *fakeAppointmentStore
	nextID       int64
	err          error
}

func newFakeApprovalStore(appointments *fakeAppointmentStore) *fakeApprovalStore {
	return &fakeApprovalStore{requests: make(map[int64]*model.ApprovalRequest), appointments: appointments}
}

func (f *fakeApprovalStore) Create(_ context.Context, req *model.ApprovalRequest) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	req.ID = f.nextID
	req.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Millisecond)
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeApprovalStore) GetByID(_ context.Context, tenantID, id int64) (*model.ApprovalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.requests[id]
	if !ok || r.TenantID != tenantID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeApprovalStore) ListPending(_ context.Context, tenantID int64) ([]*model.ApprovalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.ApprovalRequest
	for _, r := range f.requests {
		if r.TenantID == tenantID && r.Status == model.ApprovalStatusPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeApprovalStore) MarkReviewed(_ context.Context, tenantID, id, reviewerID int64, status model.ApprovalStatus, reason string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	r, ok := f.requests[id]
	if !ok || r.TenantID != tenantID || r.Status != model.ApprovalStatusPending {
		return false, nil
	}
	now := time.Now()
	r.Status = status
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &now
	r.Reason = reason
	return true, nil
}

func (f *fakeApprovalStore) ApproveReschedule(ctx context.Context, tenantID, id, reviewerID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	r, ok := f.requests[id]
	if !ok || r.TenantID != tenantID || r.Status != model.ApprovalStatusPending {
		return false, nil
	}
	now := time.Now()
	r.Status = model.ApprovalStatusApproved
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &now
	if a, ok := f.appointments.appointments[r.AppointmentID]; ok {
		a.AppointmentDate = r.RequestedDate
		a.AppointmentTime = r.RequestedTime
	}
	return true, nil
}

type fakeTenantStore struct {
	tenants map[int64]*model.Tenant
	err     error
}

func (f *fakeTenantStore) GetByID(_ context.Context, id int64) (*model.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

type pushedMessage struct {
	tenantID int64
	to       string
	text     string
}

type fakeNotifier struct {
	pushes []pushedMessage
	err    error
}

func (f *fakeNotifier) PushText(_ context.Context, tenantID int64, to, text string) error {
	if f.err != nil {
		return f.err
	}
	f.pushes = append(f.pushes, pushedMessage{tenantID: tenantID, to: to, text: text})
	return nil
}

type flexPush struct {
	tenantID int64
	to       string
	altText  string
}

type fakeFlexNotifier struct {
	pushes []flexPush
	err    error
}

func (f *fakeFlexNotifier) PushFlex(_ context.Context, tenantID int64, to, altText string, _ json.RawMessage) error {
	if f.err != nil {
		return f.err
	}
	f.pushes = append(f.pushes, flexPush{tenantID: tenantID, to: to, altText: altText})
	return nil
}

// fakeReminderStore mirrors the real table: one row per (appointment, kind)
// upserted on conflict, and WasSent only counts a row whose push succeeded.
type fakeReminderStore struct {
	rows    map[string]*model.AppointmentReminder
	records []*model.AppointmentReminder
	err     error
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{rows: make(map[string]*model.AppointmentReminder)}
}

func reminderKey(appointmentID int64, kind model.ReminderKind) string {
	return strconv.FormatInt(appointmentID, 10) + "/" + string(kind)
}

func (f *fakeReminderStore) WasSent(_ context.Context, appointmentID int64, kind model.ReminderKind) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	row, ok := f.rows[reminderKey(appointmentID, kind)]
	return ok && row.Sent, nil
}

func (f *fakeReminderStore) Record(_ context.Context, reminder *model.AppointmentReminder) error {
	if f.err != nil {
		return f.err
	}
	f.rows[reminderKey(reminder.AppointmentID, reminder.Kind)] = reminder
	f.records = append(f.records, reminder)
	return nil
}

var errStore = errors.New("store unavailable")
