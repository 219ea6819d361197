package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const tenantColumns = `id, name, slug, phone, is_active, logo_url, primary_color,
        has_delivery, delivery_price, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, t *model.Tenant, w *model.Wallet) error {
	ex := postgres.Executor(ctx, r.DB)

	query := `
        INSERT INTO tenants (
            id, name, slug, phone, is_active, logo_url, primary_color,
            has_delivery, delivery_price, created_at, updated_at
        )
        VALUES (
            :id, :name, :slug, :phone, :is_active, :logo_url, :primary_color,
            :has_delivery, :delivery_price, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ex, query, t); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.ErrSlugTaken.Wrap(err)
		}
		return fmt.Errorf("failed to insert tenant: %w", err)
	}

	walletQuery := `
        INSERT INTO wallets (id, tenant_id, balance, plan, updated_at)
        VALUES (:id, :tenant_id, :balance, :plan, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, ex, walletQuery, w); err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
}

// FindByIDForUpdate must run inside a transaction; the row stays locked until it ends.
func (r *PGRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Tenant, error) {
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) get(ctx context.Context, query string, arg string) (*model.Tenant, error) {
	var t model.Tenant
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &t, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE tenants SET is_active = $1, updated_at = NOW() WHERE id = $2`
	_, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, query, active, id)
	return err
}

func (r *PGRepository) Count(ctx context.Context) (int, int, error) {
	var res struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	query := `SELECT count(*) AS total, count(*) FILTER (WHERE is_active) AS active FROM tenants`
	if err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &res, query); err != nil {
		return 0, 0, err
	}
	return res.Total, res.Active, nil
}
