package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByTenant(ctx context.Context, tenantID string) (*model.Wallet, error) {
	return r.get(ctx, `SELECT id, tenant_id, balance, plan, updated_at FROM wallets WHERE tenant_id = $1`, tenantID)
}

func (r *PGRepository) FindByTenantForUpdate(ctx context.Context, tenantID string) (*model.Wallet, error) {
	return r.get(ctx, `SELECT id, tenant_id, balance, plan, updated_at FROM wallets WHERE tenant_id = $1 FOR UPDATE`, tenantID)
}

func (r *PGRepository) get(ctx context.Context, query, tenantID string) (*model.Wallet, error) {
	var w model.Wallet
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &w, query, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *PGRepository) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("wallet %s vanished during update", walletID)
	}
	return nil
}

func (r *PGRepository) InsertTransaction(ctx context.Context, tx *model.WalletTransaction) error {
	query := `
        INSERT INTO wallet_transactions (
            id, wallet_id, tenant_id, amount, previous_balance, new_balance, reason, created_at
        )
        VALUES (
            :id, :wallet_id, :tenant_id, :amount, :previous_balance, :new_balance, :reason, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, tx); err != nil {
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.WalletTransaction, int, error) {
	ex := postgres.Executor(ctx, r.DB)

	conditions := []string{}
	args := map[string]interface{}{}
	if f.TenantID != "" {
		conditions = append(conditions, "tenant_id = :tenant_id")
		args["tenant_id"] = f.TenantID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := ex.BindNamed("SELECT count(*) FROM wallet_transactions"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, ex, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, wallet_id, tenant_id, amount, previous_balance, new_balance, reason, created_at
        FROM wallet_transactions` + whereClause + " ORDER BY created_at DESC, id"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	query, listArgs, err := ex.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	txs := []model.WalletTransaction{}
	if err := sqlx.SelectContext(ctx, ex, &txs, query, listArgs...); err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (r *PGRepository) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &total, `SELECT COALESCE(SUM(balance), 0) FROM wallets`)
	return total, err
}
