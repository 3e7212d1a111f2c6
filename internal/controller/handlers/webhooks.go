package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/service"
)

// WebhookHandler receives LINE platform callbacks and payment provider
// confirmations. LINE requests are authenticated by X-Line-Signature against
// the system channel secret; an invalid signature is dropped with 403 and
// never reaches the services.
type WebhookHandler struct {
	channelSecret string
	approvals     *service.ApprovalService
	bookings      *service.BookingService
	logger        *zap.Logger
}

func NewWebhookHandler(channelSecret string, approvals *service.ApprovalService, bookings *service.BookingService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		approvals:     approvals,
		bookings:      bookings,
		logger:        logger,
	}
}

// Line handles POST /webhooks/line. LINE retries on non-2xx, so event-level
// failures are logged and acknowledged rather than surfaced.
func (h *WebhookHandler) Line(c *gin.Context) {
	callback, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Rejected LINE webhook with bad signature")
			c.JSON(http.StatusForbidden, response{Code: codeForbidden, Message: "invalid signature"})
			return
		}
		respondBadRequest(c, "invalid webhook body")
		return
	}

	for _, event := range callback.Events {
		postback, ok := event.(webhook.PostbackEvent)
		if !ok {
			h.logger.Debug("Ignoring LINE event", zap.String("type", event.GetType()))
			continue
		}
		if postback.Postback == nil {
			continue
		}
		if err := h.handlePostback(c, postback.Postback.Data); err != nil {
			h.logger.Warn("Postback handling failed",
				zap.String("data", postback.Postback.Data),
				zap.Error(err),
			)
		}
	}

	respondOK(c, nil)
}

// handlePostback routes approval decisions made from the flex review card.
// Postback data is query-encoded: action=approve|reject, request_id,
// tenant_id, reviewer_id and an optional reason.
func (h *WebhookHandler) handlePostback(c *gin.Context, data string) error {
	values, err := url.ParseQuery(data)
	if err != nil {
		return err
	}

	tenantID, err := strconv.ParseInt(values.Get("tenant_id"), 10, 64)
	if err != nil {
		return err
	}
	requestID, err := strconv.ParseInt(values.Get("request_id"), 10, 64)
	if err != nil {
		return err
	}
	reviewerID, err := strconv.ParseInt(values.Get("reviewer_id"), 10, 64)
	if err != nil {
		return err
	}

	ctx := c.Request.Context()
	switch values.Get("action") {
	case "approve":
		return h.approvals.Approve(ctx, tenantID, requestID, reviewerID)
	case "reject":
		reason := values.Get("reason")
		if reason == "" {
			reason = "由 LINE 審核拒絕"
		}
		return h.approvals.Reject(ctx, tenantID, requestID, reviewerID, reason)
	default:
		return nil
	}
}

// PaymentConfirm handles POST /webhooks/payment/confirm from the payment
// provider after a successful charge.
func (h *WebhookHandler) PaymentConfirm(c *gin.Context) {
	var req struct {
		TenantID      int64  `json:"tenant_id" binding:"required"`
		AppointmentID int64  `json:"appointment_id" binding:"required"`
		TransactionID string `json:"transaction_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.bookings.ConfirmPayment(c.Request.Context(), req.TenantID, req.AppointmentID); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Payment webhook processed",
		zap.Int64("tenant_id", req.TenantID),
		zap.Int64("appointment_id", req.AppointmentID),
		zap.String("transaction_id", req.TransactionID),
	)

	respondOK(c, nil)
}
