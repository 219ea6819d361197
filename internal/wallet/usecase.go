package wallet

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/shopspring/decimal"
)

type UseCase interface {
	// LockBalance reads the wallet under a row lock held until the surrounding
	// transaction ends. It must be called from inside Transactor.WithinTx.
	LockBalance(ctx context.Context, tenantID string) (*model.Wallet, error)
	ApplyDelta(ctx context.Context, input *dto.ApplyDeltaInput) (*dto.DeltaResult, error)
	GetWallet(ctx context.Context, tenantID string) (*model.Wallet, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.WalletTransaction, int, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}
