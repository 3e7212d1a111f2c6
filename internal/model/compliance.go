package model

import "time"

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityBlocked Severity = "blocked"
)

// ComplianceRule is a regulated keyword configured per tenant.
// A rule with TenantID == nil applies to every tenant.
type ComplianceRule struct {
	ID                  int64     `json:"id"`
	TenantID            *int64    `json:"tenant_id"`
	Keyword             string    `json:"keyword"`
	Severity            Severity  `json:"severity"`
	RegulationReference *string   `json:"regulation_reference"`
	Description         *string   `json:"description"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Position is a matched span, rune offsets, end-exclusive.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Violation groups every occurrence of one matched keyword.
type Violation struct {
	Keyword             string     `json:"keyword"`
	Severity            Severity   `json:"severity"`
	Positions           []Position `json:"positions"`
	RegulationReference *string    `json:"regulation_reference"`
	Description         *string    `json:"description"`
}

// CheckResult is the outcome of scanning one text against the rule set.
// Derived entirely from the input, never persisted.
type CheckResult struct {
	IsCompliant bool        `json:"is_compliant"`
	HasWarnings bool        `json:"has_warnings"`
	HasBlocked  bool        `json:"has_blocked"`
	Violations  []Violation `json:"violations"`
	Summary     string      `json:"summary"`
}
