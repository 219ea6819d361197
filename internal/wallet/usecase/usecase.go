package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/storage"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type walletUseCase struct {
	tx      storage.Transactor
	repo    wallet.Repository
	tenants tenant.Repository
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewWalletUseCase(tx storage.Transactor, repo wallet.Repository, tenants tenant.Repository, log logger.ZapLogger) wallet.UseCase {
	return &walletUseCase{
		tx:      tx,
		repo:    repo,
		tenants: tenants,
		logger:  log,
		now:     time.Now,
	}
}

func (uc *walletUseCase) LockBalance(ctx context.Context, tenantID string) (*model.Wallet, error) {
	w, err := uc.repo.FindByTenantForUpdate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperror.ErrWalletNotFound
	}
	return w, nil
}

// ApplyDelta moves the balance by input.Amount, appends the ledger row and
// suspends or reactivates the tenant when the balance crosses zero. It joins
// the caller's transaction when there is one.
func (uc *walletUseCase) ApplyDelta(ctx context.Context, input *dto.ApplyDeltaInput) (*dto.DeltaResult, error) {
	if input.Amount.IsZero() {
		return nil, apperror.ErrInvalidAmount
	}

	var result *dto.DeltaResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := uc.LockBalance(ctx, input.TenantID)
		if err != nil {
			return err
		}

		previous := w.Balance
		next := previous.Add(input.Amount)

		if err := uc.repo.UpdateBalance(ctx, w.ID, next); err != nil {
			return err
		}

		entry := &model.WalletTransaction{
			ID:              uuid.New().String(),
			WalletID:        w.ID,
			TenantID:        input.TenantID,
			Amount:          input.Amount,
			PreviousBalance: previous,
			NewBalance:      next,
			Reason:          input.Reason,
			CreatedAt:       uc.now(),
		}
		if err := uc.repo.InsertTransaction(ctx, entry); err != nil {
			return err
		}

		active, err := uc.syncTenantState(ctx, input.TenantID, next)
		if err != nil {
			return err
		}

		result = &dto.DeltaResult{
			TransactionID:   entry.ID,
			PreviousBalance: previous,
			NewBalance:      next,
			TenantActive:    active,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("wallet delta applied",
		zap.String("tenant_id", input.TenantID),
		zap.String("amount", input.Amount.String()),
		zap.String("new_balance", result.NewBalance.String()),
	)
	return result, nil
}

// syncTenantState suspends a tenant whose balance reached zero and reactivates
// a suspended one once credit is back.
func (uc *walletUseCase) syncTenantState(ctx context.Context, tenantID string, balance decimal.Decimal) (bool, error) {
	t, err := uc.tenants.FindByIDForUpdate(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, apperror.ErrTenantNotFound
	}

	positive := balance.IsPositive()
	switch {
	case !positive && t.IsActive:
		uc.logger.Info("suspending tenant, credits exhausted", zap.String("tenant_id", tenantID))
		return false, uc.tenants.SetActive(ctx, tenantID, false)
	case positive && !t.IsActive:
		uc.logger.Info("reactivating tenant, credits restored", zap.String("tenant_id", tenantID))
		return true, uc.tenants.SetActive(ctx, tenantID, true)
	}
	return t.IsActive, nil
}

func (uc *walletUseCase) GetWallet(ctx context.Context, tenantID string) (*model.Wallet, error) {
	w, err := uc.repo.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperror.ErrWalletNotFound
	}
	return w, nil
}

func (uc *walletUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.WalletTransaction, int, error) {
	return uc.repo.ListTransactions(ctx, filters)
}

func (uc *walletUseCase) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	return uc.repo.SumBalances(ctx)
}
