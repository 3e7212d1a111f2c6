package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending        AppointmentStatus = "pending"
	AppointmentStatusPendingPayment AppointmentStatus = "pending_payment"
	AppointmentStatusConfirmed      AppointmentStatus = "confirmed"
	AppointmentStatusCompleted      AppointmentStatus = "completed"
	AppointmentStatusCancelled      AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID              int64             `json:"id"`
	TenantID        int64             `json:"tenant_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	LineUserID      string            `json:"line_user_id"`
	AppointmentDate string            `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string            `json:"appointment_time"` // HH:MM
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}

type ReminderKind string

const (
	ReminderKind24h ReminderKind = "24h"
	ReminderKind2h  ReminderKind = "2h"
)

// AppointmentReminder records one reminder push attempt.
type AppointmentReminder struct {
	ID            int64        `json:"id"`
	TenantID      int64        `json:"tenant_id"`
	AppointmentID int64        `json:"appointment_id"`
	Kind          ReminderKind `json:"kind"`
	Sent          bool         `json:"sent"`
	Error         string       `json:"error"`
	CreatedAt     time.Time    `json:"created_at"`
}
