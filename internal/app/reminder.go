package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/service"
)

// ReminderScheduler drives the periodic reminder sweep.
type ReminderScheduler struct {
	reminderService *service.ReminderService
	interval        time.Duration
	logger          *zap.Logger
	stopChan        chan struct{}
}

func NewReminderScheduler(reminderService *service.ReminderService, interval time.Duration, logger *zap.Logger) *ReminderScheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ReminderScheduler{
		reminderService: reminderService,
		interval:        interval,
		logger:          logger,
		stopChan:        make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting reminder scheduler", zap.Duration("interval", s.interval))

	go s.run(ctx)
}

// Stop shuts the loop down.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler")
	close(s.stopChan)
}

func (s *ReminderScheduler) run(ctx context.Context) {
	// First sweep right away so a restart never misses a window
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder sweep stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder sweep cancelled")
			return
		}
	}
}

func (s *ReminderScheduler) sweep(ctx context.Context) {
	if err := s.reminderService.SendDueReminders(ctx, time.Now()); err != nil {
		s.logger.Error("Reminder sweep failed", zap.Error(err))
	}
}
