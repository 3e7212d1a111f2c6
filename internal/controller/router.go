// Package controller wires the HTTP surface: routing, request logging and
// the handler layer on top of the services.
package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/controller/handlers"
)

// Router registration input. Every handler is required except the report
// handler, which is skipped when nil.
type Deps struct {
	Compliance *handlers.ComplianceHandler
	Slots      *handlers.SlotHandler
	Approvals  *handlers.ApprovalHandler
	Bookings   *handlers.BookingHandler
	Webhooks   *handlers.WebhookHandler
	Report     *handlers.ReportHandler
}

// NewRouter builds the gin engine with logging and request-id middleware and
// all API routes registered.
func NewRouter(deps Deps, environment string, logger *zap.Logger) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		compliance := api.Group("/compliance")
		{
			compliance.POST("/check", deps.Compliance.CheckContent)
			compliance.POST("/preview", deps.Compliance.Preview)
			compliance.GET("/keywords", deps.Compliance.ListKeywords)
			compliance.POST("/keywords", deps.Compliance.CreateKeyword)
			compliance.PATCH("/keywords/:id", deps.Compliance.UpdateKeyword)
			compliance.DELETE("/keywords/:id", deps.Compliance.DeleteKeyword)
		}

		slots := api.Group("/slots")
		{
			slots.GET("/can-book", deps.Slots.CanBook)
			slots.PUT("/limits", deps.Slots.SetLimit)
			slots.DELETE("/limits", deps.Slots.DeleteLimit)
			slots.GET("/limits", deps.Slots.ListLimits)
			slots.GET("/availability", deps.Slots.Availability)
			if deps.Report != nil {
				slots.GET("/week-image", deps.Report.WeekImage)
			}
		}

		approvals := api.Group("/approvals")
		{
			approvals.GET("/pending", deps.Approvals.ListPending)
			approvals.POST("/reschedule", deps.Approvals.CreateReschedule)
			approvals.POST("/:id/approve", deps.Approvals.Approve)
			approvals.POST("/:id/reject", deps.Approvals.Reject)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", deps.Bookings.Submit)
			bookings.GET("/:id", deps.Bookings.Get)
			bookings.POST("/:id/cancel", deps.Bookings.Cancel)
		}
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/line", deps.Webhooks.Line)
		webhooks.POST("/payment/confirm", deps.Webhooks.PaymentConfirm)
	}

	return router
}

// requestID tags every request with a UUID, echoed back in X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one line per completed request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		if c.Writer.Status() >= 500 {
			logger.Error("HTTP request", fields...)
		} else {
			logger.Info("HTTP request", fields...)
		}
	}
}
