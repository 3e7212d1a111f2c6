package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/compliance"
	"github.com/yuchialin/clinicline/internal/model"
	"github.com/yuchialin/clinicline/internal/repository"
)

// ComplianceService runs scans against the tenant's keyword rules and owns
// the keyword CRUD.
type ComplianceService struct {
	rules   RuleStore
	scanner compliance.Scanner
	logger  *zap.Logger
}

func NewComplianceService(rules RuleStore, scanner compliance.Scanner, logger *zap.Logger) *ComplianceService {
	return &ComplianceService{
		rules:   rules,
		scanner: scanner,
		logger:  logger,
	}
}

// CheckContent scans text against the tenant's rules plus the global ones.
func (s *ComplianceService) CheckContent(ctx context.Context, tenantID int64, text string) (model.CheckResult, error) {
	rules, err := s.rules.ListForScan(ctx, tenantID)
	if err != nil {
		return model.CheckResult{}, fmt.Errorf("%w: load rules: %v", ErrUpstream, err)
	}

	result := s.scanner.Check(text, rules)

	if !result.IsCompliant {
		s.logger.Info("Content check found violations",
			zap.Int64("tenant_id", tenantID),
			zap.Int("violations", len(result.Violations)),
			zap.Bool("has_blocked", result.HasBlocked),
		)
	}

	return result, nil
}

// Highlight returns the segment list a renderer needs to show the scanned
// text with violations marked.
func (s *ComplianceService) Highlight(ctx context.Context, tenantID int64, text string) ([]compliance.Segment, model.CheckResult, error) {
	result, err := s.CheckContent(ctx, tenantID, text)
	if err != nil {
		return nil, model.CheckResult{}, err
	}
	return compliance.Highlight(text, result.Violations), result, nil
}

// ListKeywords returns the rules visible to the tenant, optionally filtered
// by severity.
func (s *ComplianceService) ListKeywords(ctx context.Context, tenantID int64, severity *model.Severity) ([]model.ComplianceRule, error) {
	if severity != nil && *severity != model.SeverityWarning && *severity != model.SeverityBlocked {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, *severity)
	}

	rules, err := s.rules.List(ctx, tenantID, severity)
	if err != nil {
		return nil, fmt.Errorf("%w: list keywords: %v", ErrUpstream, err)
	}
	return rules, nil
}

// CreateKeyword adds a keyword for the tenant.
func (s *ComplianceService) CreateKeyword(ctx context.Context, tenantID int64, rule *model.ComplianceRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	rule.TenantID = &tenantID

	if err := s.rules.Create(ctx, rule); err != nil {
		if errors.Is(err, repository.ErrDuplicateKeyword) {
			return fmt.Errorf("%w: 警示詞「%s」已存在", ErrValidation, rule.Keyword)
		}
		return fmt.Errorf("%w: create keyword: %v", ErrUpstream, err)
	}

	s.logger.Info("Compliance keyword created",
		zap.Int64("tenant_id", tenantID),
		zap.String("keyword", rule.Keyword),
		zap.String("severity", string(rule.Severity)),
	)

	return nil
}

// UpdateKeyword rewrites a tenant-owned keyword.
func (s *ComplianceService) UpdateKeyword(ctx context.Context, tenantID int64, rule *model.ComplianceRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	rule.TenantID = &tenantID

	updated, err := s.rules.Update(ctx, rule)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKeyword) {
			return fmt.Errorf("%w: 警示詞「%s」已存在", ErrValidation, rule.Keyword)
		}
		return fmt.Errorf("%w: update keyword: %v", ErrUpstream, err)
	}
	if !updated {
		return fmt.Errorf("%w: keyword %d", ErrNotFound, rule.ID)
	}

	return nil
}

// DeleteKeyword removes a tenant-owned keyword.
func (s *ComplianceService) DeleteKeyword(ctx context.Context, tenantID, id int64) error {
	deleted, err := s.rules.Delete(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: delete keyword: %v", ErrUpstream, err)
	}
	if !deleted {
		return fmt.Errorf("%w: keyword %d", ErrNotFound, id)
	}

	s.logger.Info("Compliance keyword deleted",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("keyword_id", id),
	)

	return nil
}

func validateRule(rule *model.ComplianceRule) error {
	if strings.TrimSpace(rule.Keyword) == "" {
		return fmt.Errorf("%w: keyword must not be empty", ErrValidation)
	}
	if rule.Severity != model.SeverityWarning && rule.Severity != model.SeverityBlocked {
		return fmt.Errorf("%w: unknown severity %q", ErrValidation, rule.Severity)
	}
	return nil
}
