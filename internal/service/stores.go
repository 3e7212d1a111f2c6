package service

import (
	"context"
	"time"

	"github.com/yuchialin/clinicline/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type RuleStore interface {
	ListForScan(ctx context.Context, tenantID int64) ([]model.ComplianceRule, error)
	List(ctx context.Context, tenantID int64, severity *model.Severity) ([]model.ComplianceRule, error)
	Create(ctx context.Context, rule *model.ComplianceRule) error
	Update(ctx context.Context, rule *model.ComplianceRule) (bool, error)
	Delete(ctx context.Context, tenantID, id int64) (bool, error)
}

type SlotLimitStore interface {
	Get(ctx context.Context, tenantID int64, date, timeSlot string) (*model.SlotLimit, error)
	Upsert(ctx context.Context, limit *model.SlotLimit) error
	Delete(ctx context.Context, tenantID int64, date, timeSlot string) (bool, error)
	GetByDate(ctx context.Context, tenantID int64, date string) ([]*model.SlotLimit, error)
	GetByDateRange(ctx context.Context, tenantID int64, from, to string) ([]*model.SlotLimit, error)
	Increment(ctx context.Context, tenantID int64, date, timeSlot string) (bool, error)
	Decrement(ctx context.Context, tenantID int64, date, timeSlot string) error
}

type ApprovalStore interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	GetByID(ctx context.Context, tenantID, id int64) (*model.ApprovalRequest, error)
	ListPending(ctx context.Context, tenantID int64) ([]*model.ApprovalRequest, error)
	MarkReviewed(ctx context.Context, tenantID, id, reviewerID int64, status model.ApprovalStatus, reason string) (bool, error)
	ApproveReschedule(ctx context.Context, tenantID, id, reviewerID int64) (bool, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, tenantID, id int64) (*model.Appointment, error)
	ListByDate(ctx context.Context, tenantID int64, date string) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, status model.AppointmentStatus) error
	UpdateStatusIf(ctx context.Context, tenantID, id int64, from, to model.AppointmentStatus) (bool, error)
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

type TenantStore interface {
	GetByID(ctx context.Context, id int64) (*model.Tenant, error)
}

// Notifier pushes messages to customers over the bot-messaging channel.
// Delivery is fire-and-forget from the services' perspective.
type Notifier interface {
	PushText(ctx context.Context, tenantID int64, to, text string) error
}
