package service

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/config"
	"github.com/yuchialin/clinicline/internal/model"
)

// Default bookable times when a tenant has not configured its own grid,
// hourly from opening to last intake.
var DefaultTimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00",
	"13:00", "14:00", "15:00", "16:00", "17:00",
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Decision is the outcome of a capacity check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// SlotService enforces per-slot booking capacity.
type SlotService struct {
	limits       SlotLimitStore
	appointments AppointmentStore
	policy       config.SlotPolicy
	defaultCap   int
	logger       *zap.Logger
}

func NewSlotService(
	limits SlotLimitStore,
	appointments AppointmentStore,
	policy config.SlotPolicy,
	defaultCap int,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		limits:       limits,
		appointments: appointments,
		policy:       policy,
		defaultCap:   defaultCap,
		logger:       logger,
	}
}

// CanBook reports whether the slot can take one more booking. A slot without
// a configured cap follows the tenant default policy: unlimited, or the
// default cap measured against that day's appointments.
func (s *SlotService) CanBook(ctx context.Context, tenantID int64, date, timeSlot string) (Decision, error) {
	if err := validateSlotKey(date, timeSlot); err != nil {
		return Decision{}, err
	}

	limit, err := s.limits.Get(ctx, tenantID, date, timeSlot)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: get slot limit: %v", ErrUpstream, err)
	}

	if limit == nil {
		if s.policy == config.SlotPolicyUnlimited {
			return Decision{Allowed: true}, nil
		}
		booked, err := s.countBooked(ctx, tenantID, date, timeSlot)
		if err != nil {
			return Decision{}, err
		}
		if booked >= s.defaultCap {
			return Decision{Allowed: false, Reason: "此時段已額滿"}, nil
		}
		return Decision{Allowed: true}, nil
	}

	if limit.IsFull() {
		return Decision{Allowed: false, Reason: "此時段已額滿"}, nil
	}
	return Decision{Allowed: true}, nil
}

// SetLimit upserts the cap for one slot. Lowering the cap below the current
// count never cancels existing bookings; it only blocks new ones.
func (s *SlotService) SetLimit(ctx context.Context, tenantID int64, date, timeSlot string, maxCapacity int) (*model.SlotLimit, error) {
	if err := validateSlotKey(date, timeSlot); err != nil {
		return nil, err
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("%w: max capacity must be positive, got %d", ErrValidation, maxCapacity)
	}

	limit := &model.SlotLimit{
		TenantID:    tenantID,
		Date:        date,
		TimeSlot:    timeSlot,
		MaxBookings: maxCapacity,
	}
	if err := s.limits.Upsert(ctx, limit); err != nil {
		return nil, fmt.Errorf("%w: upsert slot limit: %v", ErrUpstream, err)
	}

	s.logger.Info("Slot limit set",
		zap.Int64("tenant_id", tenantID),
		zap.String("date", date),
		zap.String("time", timeSlot),
		zap.Int("max_bookings", maxCapacity),
	)

	return limit, nil
}

// DeleteLimit removes the cap; existing bookings are unaffected.
func (s *SlotService) DeleteLimit(ctx context.Context, tenantID int64, date, timeSlot string) error {
	if err := validateSlotKey(date, timeSlot); err != nil {
		return err
	}

	deleted, err := s.limits.Delete(ctx, tenantID, date, timeSlot)
	if err != nil {
		return fmt.Errorf("%w: delete slot limit: %v", ErrUpstream, err)
	}
	if !deleted {
		return fmt.Errorf("%w: slot limit %s %s", ErrNotFound, date, timeSlot)
	}

	s.logger.Info("Slot limit deleted",
		zap.Int64("tenant_id", tenantID),
		zap.String("date", date),
		zap.String("time", timeSlot),
	)

	return nil
}

// ListByDate returns the configured caps of one day.
func (s *SlotService) ListByDate(ctx context.Context, tenantID int64, date string) ([]*model.SlotLimit, error) {
	if !datePattern.MatchString(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, date)
	}

	limits, err := s.limits.GetByDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: list slot limits: %v", ErrUpstream, err)
	}
	return limits, nil
}

// ListByRange returns the configured caps between from and to inclusive.
func (s *SlotService) ListByRange(ctx context.Context, tenantID int64, from, to string) ([]*model.SlotLimit, error) {
	if !datePattern.MatchString(from) || !datePattern.MatchString(to) {
		return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", ErrValidation)
	}
	if from > to {
		return nil, fmt.Errorf("%w: range start %s after end %s", ErrValidation, from, to)
	}

	limits, err := s.limits.GetByDateRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: list slot limits: %v", ErrUpstream, err)
	}
	return limits, nil
}

// Reserve takes one unit of capacity for a confirmed booking. The increment
// only succeeds while the slot is below its cap, so no write ever pushes the
// count past the maximum. Slots without a cap reserve nothing under the
// unlimited policy.
func (s *SlotService) Reserve(ctx context.Context, tenantID int64, date, timeSlot string) error {
	if err := validateSlotKey(date, timeSlot); err != nil {
		return err
	}

	limit, err := s.limits.Get(ctx, tenantID, date, timeSlot)
	if err != nil {
		return fmt.Errorf("%w: get slot limit: %v", ErrUpstream, err)
	}

	if limit == nil {
		if s.policy == config.SlotPolicyUnlimited {
			return nil
		}
		// Synthesize the default cap so the conditional increment below has a
		// row to race against.
		if _, err := s.SetLimit(ctx, tenantID, date, timeSlot, s.defaultCap); err != nil {
			return err
		}
	}

	taken, err := s.limits.Increment(ctx, tenantID, date, timeSlot)
	if err != nil {
		return fmt.Errorf("%w: reserve slot: %v", ErrUpstream, err)
	}
	if !taken {
		return fmt.Errorf("%w: %s %s", ErrCapacityExceeded, date, timeSlot)
	}

	return nil
}

// Release gives back one unit of capacity after a cancellation.
func (s *SlotService) Release(ctx context.Context, tenantID int64, date, timeSlot string) error {
	if err := validateSlotKey(date, timeSlot); err != nil {
		return err
	}

	if err := s.limits.Decrement(ctx, tenantID, date, timeSlot); err != nil {
		return fmt.Errorf("%w: release slot: %v", ErrUpstream, err)
	}
	return nil
}

// GetDayAvailability returns the remaining capacity of every default slot of
// one day, counting that day's active appointments against the configured or
// default cap.
func (s *SlotService) GetDayAvailability(ctx context.Context, tenantID int64, date string) ([]model.SlotAvailability, error) {
	if !datePattern.MatchString(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, date)
	}

	limits, err := s.limits.GetByDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: get slot limits: %v", ErrUpstream, err)
	}
	appointments, err := s.appointments.ListByDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: list appointments: %v", ErrUpstream, err)
	}

	capsByTime := make(map[string]int, len(limits))
	for _, l := range limits {
		capsByTime[l.TimeSlot] = l.MaxBookings
	}
	bookedByTime := make(map[string]int, len(appointments))
	for _, a := range appointments {
		bookedByTime[a.AppointmentTime]++
	}

	availability := make([]model.SlotAvailability, 0, len(DefaultTimeSlots))
	for _, slot := range DefaultTimeSlots {
		maxCap, ok := capsByTime[slot]
		if !ok {
			maxCap = s.defaultCap
		}
		remaining := maxCap - bookedByTime[slot]
		if remaining < 0 {
			remaining = 0
		}
		availability = append(availability, model.SlotAvailability{
			Time:        slot,
			Available:   remaining,
			IsAvailable: remaining > 0,
		})
	}

	return availability, nil
}

func (s *SlotService) countBooked(ctx context.Context, tenantID int64, date, timeSlot string) (int, error) {
	appointments, err := s.appointments.ListByDate(ctx, tenantID, date)
	if err != nil {
		return 0, fmt.Errorf("%w: list appointments: %v", ErrUpstream, err)
	}
	count := 0
	for _, a := range appointments {
		if a.AppointmentTime == timeSlot {
			count++
		}
	}
	return count, nil
}

func validateSlotKey(date, timeSlot string) error {
	if !datePattern.MatchString(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, date)
	}
	if !timePattern.MatchString(timeSlot) {
		return fmt.Errorf("%w: time must be HH:MM, got %q", ErrValidation, timeSlot)
	}
	return nil
}
