package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/service"
)

type ApprovalHandler struct {
	approvals *service.ApprovalService
	logger    *zap.Logger
}

func NewApprovalHandler(approvals *service.ApprovalService, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals, logger: logger}
}

// ListPending handles GET /api/v1/approvals/pending
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	requests, err := h.approvals.ListPending(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, requests)
}

// Approve handles POST /api/v1/approvals/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid request id")
		return
	}

	var req struct {
		TenantID   int64 `json:"tenant_id" binding:"required"`
		ReviewedBy int64 `json:"reviewed_by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.approvals.Approve(c.Request.Context(), req.TenantID, id, req.ReviewedBy); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

// Reject handles POST /api/v1/approvals/:id/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid request id")
		return
	}

	var req struct {
		TenantID   int64  `json:"tenant_id" binding:"required"`
		ReviewedBy int64  `json:"reviewed_by" binding:"required"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.approvals.Reject(c.Request.Context(), req.TenantID, id, req.ReviewedBy, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

// CreateReschedule handles POST /api/v1/approvals/reschedule
func (h *ApprovalHandler) CreateReschedule(c *gin.Context) {
	var req struct {
		TenantID      int64  `json:"tenant_id" binding:"required"`
		AppointmentID int64  `json:"appointment_id" binding:"required"`
		NewDate       string `json:"new_date" binding:"required"`
		NewTime       string `json:"new_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	request, err := h.approvals.CreateReschedule(c.Request.Context(), req.TenantID, req.AppointmentID, req.NewDate, req.NewTime)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, request)
}
