package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings *service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// Submit handles POST /api/v1/bookings
func (h *BookingHandler) Submit(c *gin.Context) {
	var req struct {
		TenantID   int64  `json:"tenant_id" binding:"required"`
		Date       string `json:"date" binding:"required"`
		TimeSlot   string `json:"time_slot" binding:"required"`
		Name       string `json:"name" binding:"required"`
		Phone      string `json:"phone" binding:"required"`
		LineUserID string `json:"line_user_id"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	appt, err := h.bookings.SubmitBooking(c.Request.Context(), service.SubmitBookingInput{
		TenantID:   req.TenantID,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Name:       req.Name,
		Phone:      req.Phone,
		LineUserID: req.LineUserID,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, appt)
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid appointment id")
		return
	}

	appt, err := h.bookings.GetAppointment(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, appt)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid appointment id")
		return
	}

	var req struct {
		TenantID int64 `json:"tenant_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.bookings.CancelAppointment(c.Request.Context(), req.TenantID, id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}
