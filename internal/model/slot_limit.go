package model

import "time"

// SlotLimit caps confirmed bookings for one (tenant, date, time) slot.
type SlotLimit struct {
	ID              int64     `json:"id"`
	TenantID        int64     `json:"tenant_id"`
	Date            string    `json:"date"`      // YYYY-MM-DD
	TimeSlot        string    `json:"time_slot"` // HH:MM
	MaxBookings     int       `json:"max_bookings"`
	CurrentBookings int       `json:"current_bookings"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsFull reports whether the slot has no remaining capacity.
func (s *SlotLimit) IsFull() bool {
	return s.CurrentBookings >= s.MaxBookings
}

// Remaining returns the number of bookings the slot can still take.
func (s *SlotLimit) Remaining() int {
	if s.IsFull() {
		return 0
	}
	return s.MaxBookings - s.CurrentBookings
}

// SlotAvailability is one entry of a day's availability overview.
type SlotAvailability struct {
	Time        string `json:"time"`
	Available   int    `json:"available"`
	IsAvailable bool   `json:"is_available"`
}
