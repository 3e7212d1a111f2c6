package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/app"
	"github.com/yuchialin/clinicline/internal/compliance"
	"github.com/yuchialin/clinicline/internal/config"
	"github.com/yuchialin/clinicline/internal/controller"
	"github.com/yuchialin/clinicline/internal/controller/handlers"
	"github.com/yuchialin/clinicline/internal/notify"
	"github.com/yuchialin/clinicline/internal/report"
	"github.com/yuchialin/clinicline/internal/repository"
	"github.com/yuchialin/clinicline/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting clinicline server",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Repositories
	ruleRepo := repository.NewRuleRepository(pool)
	slotLimitRepo := repository.NewSlotLimitRepository(pool)
	approvalRepo := repository.NewApprovalRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	tenantRepo := repository.NewTenantRepository(pool)
	reminderRepo := repository.NewReminderRepository(pool)

	// LINE client; tenants with their own channel override the system one
	lineClient := notify.NewLineClient(cfg.LineChannelAccessToken, tenantRepo, logger)

	// Services
	scanner := compliance.Scanner{CaseInsensitive: cfg.ComplianceCaseInsensitive}
	complianceService := service.NewComplianceService(ruleRepo, scanner, logger)
	slotService := service.NewSlotService(slotLimitRepo, appointmentRepo,
		cfg.DefaultSlotPolicy, cfg.DefaultSlotCapacity, logger)
	approvalService := service.NewApprovalService(approvalRepo, appointmentRepo, logger)
	bookingService := service.NewBookingService(appointmentRepo, slotService,
		approvalService, tenantRepo, lineClient, logger)
	reminderService := service.NewReminderService(appointmentRepo, reminderRepo,
		tenantRepo, lineClient, logger)

	// HTTP surface
	renderer := report.NewRenderer(cfg.ReportFontPath)
	router := controller.NewRouter(controller.Deps{
		Compliance: handlers.NewComplianceHandler(complianceService, logger),
		Slots:      handlers.NewSlotHandler(slotService, logger),
		Approvals:  handlers.NewApprovalHandler(approvalService, logger),
		Bookings:   handlers.NewBookingHandler(bookingService, logger),
		Webhooks:   handlers.NewWebhookHandler(cfg.LineChannelSecret, approvalService, bookingService, logger),
		Report: handlers.NewReportHandler(slotService, renderer,
			cfg.DefaultSlotPolicy, cfg.DefaultSlotCapacity, logger),
	}, cfg.Environment, logger)

	reminderScheduler := app.NewReminderScheduler(reminderService, 10*time.Minute, logger)
	reminderScheduler.Start(ctx)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	logger.Info("Server started", zap.String("addr", cfg.HTTPAddr))

	<-ctx.Done()
	logger.Info("Shutting down")

	reminderScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
