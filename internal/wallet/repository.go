package wallet

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/shopspring/decimal"
)

type Repository interface {
	FindByTenant(ctx context.Context, tenantID string) (*model.Wallet, error)
	FindByTenantForUpdate(ctx context.Context, tenantID string) (*model.Wallet, error)
	UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) error

	// Ledger
	InsertTransaction(ctx context.Context, tx *model.WalletTransaction) error
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.WalletTransaction, int, error)
	SumBalances(ctx context.Context) (decimal.Decimal, error)
}
