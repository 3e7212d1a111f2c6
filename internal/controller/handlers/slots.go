package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/service"
)

type SlotHandler struct {
	slots  *service.SlotService
	logger *zap.Logger
}

func NewSlotHandler(slots *service.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{slots: slots, logger: logger}
}

// CanBook handles GET /api/v1/slots/can-book
func (h *SlotHandler) CanBook(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	decision, err := h.slots.CanBook(c.Request.Context(), tenantID, c.Query("date"), c.Query("time"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, decision)
}

// SetLimit handles PUT /api/v1/slots/limits
func (h *SlotHandler) SetLimit(c *gin.Context) {
	var req struct {
		TenantID    int64  `json:"tenant_id" binding:"required"`
		Date        string `json:"date" binding:"required"`
		Time        string `json:"time" binding:"required"`
		MaxCapacity int    `json:"max_capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	limit, err := h.slots.SetLimit(c.Request.Context(), req.TenantID, req.Date, req.Time, req.MaxCapacity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, limit)
}

// DeleteLimit handles DELETE /api/v1/slots/limits
func (h *SlotHandler) DeleteLimit(c *gin.Context) {
	var req struct {
		TenantID int64  `json:"tenant_id" binding:"required"`
		Date     string `json:"date" binding:"required"`
		Time     string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.slots.DeleteLimit(c.Request.Context(), req.TenantID, req.Date, req.Time); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

// ListLimits handles GET /api/v1/slots/limits; with from/to it returns the
// whole range, with date a single day.
func (h *SlotHandler) ListLimits(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		limits, err := h.slots.ListByRange(c.Request.Context(), tenantID, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, limits)
		return
	}

	limits, err := h.slots.ListByDate(c.Request.Context(), tenantID, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, limits)
}

// Availability handles GET /api/v1/slots/availability
func (h *SlotHandler) Availability(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	availability, err := h.slots.GetDayAvailability(c.Request.Context(), tenantID, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, availability)
}
