package model

import "time"

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type ApprovalKind string

const (
	ApprovalKindAppointment ApprovalKind = "appointment"
	ApprovalKindReschedule  ApprovalKind = "reschedule"
)

// ApprovalRequest is a human-review item gating an appointment creation or
// reschedule. Reschedule requests additionally carry the requested date/time
// next to the originally booked ones.
type ApprovalRequest struct {
	ID            int64          `json:"id"`
	TenantID      int64          `json:"tenant_id"`
	AppointmentID int64          `json:"appointment_id"`
	Kind          ApprovalKind   `json:"kind"`
	Status        ApprovalStatus `json:"status"`
	ReviewedBy    *int64         `json:"reviewed_by"`
	ReviewedAt    *time.Time     `json:"reviewed_at"`
	Reason        string         `json:"reason"`

	OriginalDate  string `json:"original_date,omitempty"`
	OriginalTime  string `json:"original_time,omitempty"`
	RequestedDate string `json:"requested_date,omitempty"`
	RequestedTime string `json:"requested_time,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// IsPending checks if the request is still awaiting review
func (r *ApprovalRequest) IsPending() bool {
	return r.Status == ApprovalStatusPending
}

// IsTerminal checks if the request reached a final state
func (r *ApprovalRequest) IsTerminal() bool {
	return r.Status == ApprovalStatusApproved || r.Status == ApprovalStatusRejected
}
