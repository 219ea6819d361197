package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/storage/memory"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant/dto"
	walletdto "github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	walletuc "github.com/fekuna/omnipos-storefront-service/internal/wallet/usecase"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup() (*memory.Store, tenant.UseCase) {
	store := memory.NewStore()
	log := logger.NewNop()
	wallet := walletuc.NewWalletUseCase(store, store.Wallets(), store.Tenants(), log)
	return store, NewTenantUseCase(store, store.Tenants(), wallet, log)
}

func TestCreateTenant_WithInitialCredits(t *testing.T) {
	store, uc := setup()
	ctx := context.Background()

	tn, err := uc.CreateTenant(ctx, &dto.CreateTenantInput{
		Name:           "Barber X",
		Slug:           "Barber-X",
		Phone:          "5512345678",
		InitialCredits: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "barber-x", tn.Slug)
	assert.True(t, tn.IsActive)

	w, err := store.Wallets().FindByTenant(ctx, tn.ID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "basic", w.Plan)

	txs, _, err := store.Wallets().ListTransactions(ctx, &walletdto.TransactionFilters{TenantID: tn.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Initial credits", txs[0].Reason)
}

func TestCreateTenant_WithoutCreditsStartsSuspended(t *testing.T) {
	_, uc := setup()

	tn, err := uc.CreateTenant(context.Background(), &dto.CreateTenantInput{Name: "Taqueria", Slug: "taqueria"})
	require.NoError(t, err)
	assert.False(t, tn.IsActive)

	_, err = uc.GetPublicProfile(context.Background(), "taqueria")
	assert.ErrorIs(t, err, apperror.ErrTenantNotFound)
}

func TestCreateTenant_Validation(t *testing.T) {
	_, uc := setup()
	ctx := context.Background()

	_, err := uc.CreateTenant(ctx, &dto.CreateTenantInput{Name: "X", Slug: "no spaces"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = uc.CreateTenant(ctx, &dto.CreateTenantInput{Name: "", Slug: "ok"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = uc.CreateTenant(ctx, &dto.CreateTenantInput{Name: "A", Slug: "dup"})
	require.NoError(t, err)
	_, err = uc.CreateTenant(ctx, &dto.CreateTenantInput{Name: "B", Slug: "dup"})
	assert.ErrorIs(t, err, apperror.ErrSlugTaken)
}

func TestToggleActiveAndStats(t *testing.T) {
	_, uc := setup()
	ctx := context.Background()

	tn, err := uc.CreateTenant(ctx, &dto.CreateTenantInput{Name: "Cafe", Slug: "cafe", InitialCredits: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = uc.CreateTenant(ctx, &dto.CreateTenantInput{Name: "Deli", Slug: "deli"})
	require.NoError(t, err)

	toggled, err := uc.ToggleActive(ctx, tn.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	stats, err := uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Active)

	_, err = uc.ToggleActive(ctx, "nope")
	assert.ErrorIs(t, err, apperror.ErrTenantNotFound)
}
