package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchialin/clinicline/internal/model"
)

type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// GetByID returns a tenant, nil when absent.
func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*model.Tenant, error) {
	query := `
		SELECT id, name, address, requires_approval, created_at
		FROM tenants
		WHERE id = $1
	`

	var tenant model.Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Address,
		&tenant.RequiresApproval,
		&tenant.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	return &tenant, nil
}

// GetLineConfig returns the tenant's own LINE channel credentials, nil when
// the tenant uses the system channel.
func (r *TenantRepository) GetLineConfig(ctx context.Context, tenantID int64) (*model.TenantLineConfig, error) {
	query := `
		SELECT tenant_id, channel_id, channel_secret, channel_access_token, bot_basic_id
		FROM tenant_line_configs
		WHERE tenant_id = $1
	`

	var cfg model.TenantLineConfig
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&cfg.TenantID,
		&cfg.ChannelID,
		&cfg.ChannelSecret,
		&cfg.ChannelAccessToken,
		&cfg.BotBasicID,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant line config: %w", err)
	}

	return &cfg, nil
}
