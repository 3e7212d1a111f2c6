package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/model"
	"github.com/yuchialin/clinicline/internal/service"
)

type ComplianceHandler struct {
	compliance *service.ComplianceService
	logger     *zap.Logger
}

func NewComplianceHandler(compliance *service.ComplianceService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance, logger: logger}
}

// CheckContent handles POST /api/v1/compliance/check
func (h *ComplianceHandler) CheckContent(c *gin.Context) {
	var req struct {
		TenantID int64  `json:"tenant_id" binding:"required"`
		Content  string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.compliance.CheckContent(c.Request.Context(), req.TenantID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

// Preview handles POST /api/v1/compliance/preview: the scan result together
// with the highlight segments a renderer needs.
func (h *ComplianceHandler) Preview(c *gin.Context) {
	var req struct {
		TenantID int64  `json:"tenant_id" binding:"required"`
		Content  string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	segments, result, err := h.compliance.Highlight(c.Request.Context(), req.TenantID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"result": result, "segments": segments})
}

// ListKeywords handles GET /api/v1/compliance/keywords
func (h *ComplianceHandler) ListKeywords(c *gin.Context) {
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	var severity *model.Severity
	if raw := c.Query("severity"); raw != "" {
		s := model.Severity(raw)
		severity = &s
	}

	rules, err := h.compliance.ListKeywords(c.Request.Context(), tenantID, severity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, rules)
}

// CreateKeyword handles POST /api/v1/compliance/keywords
func (h *ComplianceHandler) CreateKeyword(c *gin.Context) {
	var req struct {
		TenantID            int64   `json:"tenant_id" binding:"required"`
		Keyword             string  `json:"keyword" binding:"required"`
		Severity            string  `json:"severity" binding:"required,oneof=warning blocked"`
		RegulationReference *string `json:"regulation_reference"`
		Description         *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	rule := &model.ComplianceRule{
		Keyword:             req.Keyword,
		Severity:            model.Severity(req.Severity),
		RegulationReference: req.RegulationReference,
		Description:         req.Description,
	}
	if err := h.compliance.CreateKeyword(c.Request.Context(), req.TenantID, rule); err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, rule)
}

// UpdateKeyword handles PATCH /api/v1/compliance/keywords/:id
func (h *ComplianceHandler) UpdateKeyword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid keyword id")
		return
	}

	var req struct {
		TenantID            int64   `json:"tenant_id" binding:"required"`
		Keyword             string  `json:"keyword" binding:"required"`
		Severity            string  `json:"severity" binding:"required,oneof=warning blocked"`
		RegulationReference *string `json:"regulation_reference"`
		Description         *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	rule := &model.ComplianceRule{
		ID:                  id,
		Keyword:             req.Keyword,
		Severity:            model.Severity(req.Severity),
		RegulationReference: req.RegulationReference,
		Description:         req.Description,
	}
	if err := h.compliance.UpdateKeyword(c.Request.Context(), req.TenantID, rule); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, rule)
}

// DeleteKeyword handles DELETE /api/v1/compliance/keywords/:id
func (h *ComplianceHandler) DeleteKeyword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid keyword id")
		return
	}
	tenantID, ok := tenantIDQuery(c)
	if !ok {
		return
	}

	if err := h.compliance.DeleteKeyword(c.Request.Context(), tenantID, id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

// tenantIDQuery reads the mandatory tenant_id query parameter. Every read
// endpoint is tenant-scoped; a missing id is rejected, never defaulted.
func tenantIDQuery(c *gin.Context) (int64, bool) {
	raw := c.Query("tenant_id")
	if raw == "" {
		respondBadRequest(c, "tenant_id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		respondBadRequest(c, "tenant_id must be a positive integer")
		return 0, false
	}
	return id, true
}
