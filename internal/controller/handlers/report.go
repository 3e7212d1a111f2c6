package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/config"
	"github.com/yuchialin/clinicline/internal/report"
	"github.com/yuchialin/clinicline/internal/service"
)

// ReportHandler serves the weekly capacity grid as a PNG.
type ReportHandler struct {
	slots      *service.SlotService
	renderer   *report.Renderer
	policy     config.SlotPolicy
	defaultCap int
	logger     *zap.Logger
}

func NewReportHandler(slots *service.SlotService, renderer *report.Renderer, policy config.SlotPolicy, defaultCap int, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		slots:      slots,
		renderer:   renderer,
		policy:     policy,
		defaultCap: defaultCap,
		logger:     logger,
	}
}

// WeekImage handles GET /api/v1/slots/week-image. The optional week_start
// query (YYYY-MM-DD) picks the week; any day of the week works, the renderer
// snaps to Monday. Defaults to the current week.
func (h *ReportHandler) WeekImage(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	weekStart := time.Now()
	if raw := c.Query("week_start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondBadRequest(c, "week_start must be YYYY-MM-DD")
			return
		}
		weekStart = parsed
	}

	monday := weekStart.AddDate(0, 0, -mondayOffset(weekStart))
	from := monday.Format("2006-01-02")
	to := monday.AddDate(0, 0, 6).Format("2006-01-02")

	limits, err := h.slots.ListByRange(c.Request.Context(), tenantID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	png, err := h.renderer.RenderWeek(report.WeekInput{
		WeekStart:  monday,
		TimeSlots:  service.DefaultTimeSlots,
		Limits:     limits,
		Unlimited:  h.policy == config.SlotPolicyUnlimited,
		DefaultCap: h.defaultCap,
	})
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Error(err))
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func mondayOffset(t time.Time) int {
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return offset
}
