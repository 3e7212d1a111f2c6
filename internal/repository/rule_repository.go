package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchialin/clinicline/internal/model"
)

// ErrDuplicateKeyword is returned when a keyword already exists for the tenant.
var ErrDuplicateKeyword = errors.New("keyword already exists")

type RuleRepository struct {
	pool *pgxpool.Pool
}

func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = "id, tenant_id, keyword, severity, regulation_reference, description, created_at, updated_at"

// ListForScan returns the rules a scan for this tenant must apply: the
// tenant's own keywords plus the global ones (tenant_id IS NULL).
func (r *RuleRepository) ListForScan(ctx context.Context, tenantID int64) ([]model.ComplianceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM compliance_keywords
		WHERE tenant_id = $1 OR tenant_id IS NULL
		ORDER BY severity ASC, keyword ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list rules for scan: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// List returns the tenant's keywords, optionally filtered by severity.
func (r *RuleRepository) List(ctx context.Context, tenantID int64, severity *model.Severity) ([]model.ComplianceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM compliance_keywords
		WHERE (tenant_id = $1 OR tenant_id IS NULL)
		  AND ($2::text IS NULL OR severity = $2)
		ORDER BY severity ASC, keyword ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, severity)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// Create inserts a keyword for the tenant.
func (r *RuleRepository) Create(ctx context.Context, rule *model.ComplianceRule) error {
	query := `
		INSERT INTO compliance_keywords (tenant_id, keyword, severity, regulation_reference, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		rule.TenantID,
		rule.Keyword,
		rule.Severity,
		rule.RegulationReference,
		rule.Description,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateKeyword
		}
		return fmt.Errorf("create rule: %w", err)
	}

	return nil
}

// Update rewrites a tenant-owned keyword. Global rules cannot be edited
// through a tenant-scoped call. Reports false when the rule does not exist
// for this tenant.
func (r *RuleRepository) Update(ctx context.Context, rule *model.ComplianceRule) (bool, error) {
	query := `
		UPDATE compliance_keywords
		SET keyword = $1, severity = $2, regulation_reference = $3, description = $4, updated_at = now()
		WHERE id = $5 AND tenant_id = $6
	`

	result, err := r.pool.Exec(
		ctx, query,
		rule.Keyword,
		rule.Severity,
		rule.RegulationReference,
		rule.Description,
		rule.ID,
		rule.TenantID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, ErrDuplicateKeyword
		}
		return false, fmt.Errorf("update rule: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes a tenant-owned keyword. Reports false when the rule does
// not exist for this tenant.
func (r *RuleRepository) Delete(ctx context.Context, tenantID, id int64) (bool, error) {
	query := `DELETE FROM compliance_keywords WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func scanRules(rows pgx.Rows) ([]model.ComplianceRule, error) {
	var rules []model.ComplianceRule
	for rows.Next() {
		var rule model.ComplianceRule
		err := rows.Scan(
			&rule.ID,
			&rule.TenantID,
			&rule.Keyword,
			&rule.Severity,
			&rule.RegulationReference,
			&rule.Description,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return rules, nil
}
