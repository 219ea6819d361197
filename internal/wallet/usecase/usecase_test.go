package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/storage/memory"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, balance int64, active bool) (*memory.Store, wallet.UseCase, string) {
	t.Helper()
	store := memory.NewStore()
	tenantID := uuid.New().String()
	require.NoError(t, store.Tenants().Create(context.Background(),
		&model.Tenant{BaseModel: model.BaseModel{ID: tenantID}, Name: "Barber X", Slug: "barber-x", IsActive: active},
		&model.Wallet{ID: uuid.New().String(), TenantID: tenantID, Balance: decimal.NewFromInt(balance), Plan: "basic"},
	))
	uc := NewWalletUseCase(store, store.Wallets(), store.Tenants(), logger.NewNop())
	return store, uc, tenantID
}

func tenantActive(t *testing.T, store *memory.Store, id string) bool {
	t.Helper()
	tn, err := store.Tenants().FindByID(context.Background(), id)
	require.NoError(t, err)
	return tn.IsActive
}

func TestApplyDelta_ConsumeLastCreditSuspends(t *testing.T) {
	store, uc, tenantID := setup(t, 1, true)

	res, err := uc.ApplyDelta(context.Background(), &dto.ApplyDeltaInput{
		TenantID: tenantID, Amount: decimal.NewFromInt(-1), Reason: "Order ABCD1234 - Ana",
	})
	require.NoError(t, err)

	assert.True(t, res.PreviousBalance.Equal(decimal.NewFromInt(1)))
	assert.True(t, res.NewBalance.IsZero())
	assert.False(t, res.TenantActive)
	assert.False(t, tenantActive(t, store, tenantID))
}

func TestApplyDelta_TopUpReactivates(t *testing.T) {
	store, uc, tenantID := setup(t, 0, false)

	res, err := uc.ApplyDelta(context.Background(), &dto.ApplyDeltaInput{
		TenantID: tenantID, Amount: decimal.NewFromInt(5), Reason: "manual top-up",
	})
	require.NoError(t, err)

	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.TenantActive)
	assert.True(t, tenantActive(t, store, tenantID))
}

func TestApplyDelta_NegativeBalanceStaysSuspended(t *testing.T) {
	store, uc, tenantID := setup(t, -2, false)

	res, err := uc.ApplyDelta(context.Background(), &dto.ApplyDeltaInput{TenantID: tenantID, Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.IsZero())
	assert.False(t, tenantActive(t, store, tenantID))
}

func TestApplyDelta_LedgerMatchesBalance(t *testing.T) {
	_, uc, tenantID := setup(t, 0, false)
	ctx := context.Background()

	for _, amount := range []int64{10, -1, -1, 3, -4} {
		_, err := uc.ApplyDelta(ctx, &dto.ApplyDeltaInput{TenantID: tenantID, Amount: decimal.NewFromInt(amount)})
		require.NoError(t, err)
	}

	w, err := uc.GetWallet(ctx, tenantID)
	require.NoError(t, err)

	txs, total, err := uc.ListTransactions(ctx, &dto.TransactionFilters{TenantID: tenantID})
	require.NoError(t, err)
	require.Equal(t, 5, total)

	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
		assert.True(t, tx.PreviousBalance.Add(tx.Amount).Equal(tx.NewBalance))
	}
	assert.True(t, sum.Equal(w.Balance), "balance %s != ledger sum %s", w.Balance, sum)
	assert.True(t, txs[0].NewBalance.Equal(w.Balance), "newest ledger row carries the committed balance")
}

func TestApplyDelta_Validation(t *testing.T) {
	_, uc, tenantID := setup(t, 1, true)

	_, err := uc.ApplyDelta(context.Background(), &dto.ApplyDeltaInput{TenantID: tenantID, Amount: decimal.Zero})
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = uc.ApplyDelta(context.Background(), &dto.ApplyDeltaInput{TenantID: uuid.New().String(), Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrWalletNotFound)
}

func TestApplyDelta_LedgerFailureRollsBack(t *testing.T) {
	store, uc, tenantID := setup(t, 1, true)
	store.FailNext("wallet_transactions.insert", errors.New("disk full"))

	_, err := uc.ApplyDelta(context.Background(), &dto.ApplyDeltaInput{TenantID: tenantID, Amount: decimal.NewFromInt(-1)})
	require.Error(t, err)

	w, err := uc.GetWallet(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(1)))
	assert.True(t, tenantActive(t, store, tenantID))
}

func TestApplyDelta_ConcurrentDeltasAreSerialized(t *testing.T) {
	_, uc, tenantID := setup(t, 3, true)
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := uc.ApplyDelta(ctx, &dto.ApplyDeltaInput{TenantID: tenantID, Amount: decimal.NewFromInt(-1)})
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out")
		}
	}

	w, err := uc.GetWallet(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(-7)))

	_, total, err := uc.ListTransactions(ctx, &dto.TransactionFilters{TenantID: tenantID})
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}
