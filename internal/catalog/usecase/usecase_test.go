package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/storage/memory"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantID = "0b5d8a3c-77aa-4f1e-9a53-000000000042"

func setup(t *testing.T, withCache bool) (*memory.Store, catalog.UseCase) {
	t.Helper()
	store := memory.NewStore()
	var rc *cache.RedisClient
	if withCache {
		mr := miniredis.RunT(t)
		rc = cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	}
	return store, NewCatalogUseCase(store, store.Catalog(), rc, time.Minute, logger.NewNop())
}

func burgerInput() *dto.CreateItemInput {
	return &dto.CreateItemInput{
		TenantID: tenantID,
		Name:     " Burger ",
		Price:    decimal.RequireFromString("10.499"),
		Stock:    8,
		Variants: []dto.OptionInput{{Name: "Large", Price: decimal.NewFromInt(12), Stock: 4}},
		Extras:   []dto.OptionInput{{Name: "Cheese", Price: decimal.NewFromInt(2), Stock: 6}},
	}
}

func TestCreateAndGetItem(t *testing.T) {
	_, uc := setup(t, false)
	ctx := context.Background()

	item, err := uc.CreateItem(ctx, burgerInput())
	require.NoError(t, err)
	assert.Equal(t, "Burger", item.Name)
	assert.Equal(t, "10.5", item.Price.String())

	got, err := uc.GetItem(ctx, tenantID, item.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	require.Len(t, got.Extras, 1)
	assert.Equal(t, 4, got.Variants[0].Stock)

	_, err = uc.GetItem(ctx, uuid.New().String(), item.ID)
	assert.ErrorIs(t, err, apperror.ErrItemNotFound, "items are scoped to their tenant")

	_, err = uc.GetItem(ctx, tenantID, "nope")
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)
}

func TestCreateItem_ServiceHasNoStock(t *testing.T) {
	_, uc := setup(t, false)

	item, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{
		TenantID: tenantID, Name: "Haircut", Price: decimal.NewFromInt(20), IsService: true, Stock: 50,
	})
	require.NoError(t, err)
	assert.Zero(t, item.Stock)
	assert.False(t, item.IsPhysical())
}

func TestCreateItem_Validation(t *testing.T) {
	_, uc := setup(t, false)

	cases := []struct {
		name   string
		mutate func(*dto.CreateItemInput)
		want   error
	}{
		{"blank name", func(in *dto.CreateItemInput) { in.Name = "  " }, apperror.ErrInvalidInput},
		{"negative price", func(in *dto.CreateItemInput) { in.Price = decimal.NewFromInt(-1) }, apperror.ErrInvalidAmount},
		{"negative stock", func(in *dto.CreateItemInput) { in.Stock = -1 }, apperror.ErrInvalidQuantity},
		{"comma in extra", func(in *dto.CreateItemInput) { in.Extras[0].Name = "Cheese, extra" }, apperror.ErrInvalidInput},
		{"duplicate variant", func(in *dto.CreateItemInput) {
			in.Variants = append(in.Variants, dto.OptionInput{Name: "Large"})
		}, apperror.ErrInvalidInput},
		{"negative option stock", func(in *dto.CreateItemInput) { in.Variants[0].Stock = -2 }, apperror.ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := burgerInput()
			tc.mutate(in)
			_, err := uc.CreateItem(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateItem_KeepsOptionIDs(t *testing.T) {
	_, uc := setup(t, false)
	ctx := context.Background()

	item, err := uc.CreateItem(ctx, burgerInput())
	require.NoError(t, err)
	largeID := item.Variants[0].ID

	in := burgerInput()
	in.Variants = append(in.Variants, dto.OptionInput{Name: "Small", Price: decimal.NewFromInt(8), Stock: 3})
	in.Extras = nil
	updated, err := uc.UpdateItem(ctx, &dto.UpdateItemInput{ID: item.ID, CreateItemInput: *in})
	require.NoError(t, err)

	require.Len(t, updated.Variants, 2)
	assert.Equal(t, largeID, updated.Variants[0].ID)
	assert.Empty(t, updated.Extras)

	got, err := uc.GetItem(ctx, tenantID, item.ID)
	require.NoError(t, err)
	assert.Len(t, got.Variants, 2)
	assert.Empty(t, got.Extras)

	_, err = uc.UpdateItem(ctx, &dto.UpdateItemInput{ID: uuid.New().String(), CreateItemInput: *in})
	assert.ErrorIs(t, err, apperror.ErrItemNotFound)
}

func TestDeleteItem(t *testing.T) {
	_, uc := setup(t, false)
	ctx := context.Background()

	item, err := uc.CreateItem(ctx, burgerInput())
	require.NoError(t, err)

	require.NoError(t, uc.DeleteItem(ctx, tenantID, item.ID))
	assert.ErrorIs(t, uc.DeleteItem(ctx, tenantID, item.ID), apperror.ErrItemNotFound)
}

func TestListItems_Filters(t *testing.T) {
	_, uc := setup(t, false)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, burgerInput())
	require.NoError(t, err)
	_, err = uc.CreateItem(ctx, &dto.CreateItemInput{TenantID: tenantID, Name: "Haircut", Price: decimal.NewFromInt(20), IsService: true})
	require.NoError(t, err)

	services := true
	items, total, err := uc.ListItems(ctx, &dto.ItemFilters{TenantID: tenantID, IsService: &services})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Haircut", items[0].Name)

	items, total, err = uc.ListItems(ctx, &dto.ItemFilters{TenantID: tenantID, SearchQuery: "burg"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Burger", items[0].Name)
}

func TestListPublicItems_CachedUntilInvalidated(t *testing.T) {
	store, uc := setup(t, true)
	ctx := context.Background()

	seed := func(name string) {
		require.NoError(t, store.Catalog().Create(ctx, &model.Item{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: time.Now()},
			TenantID:  tenantID,
			Name:      name,
			Price:     decimal.NewFromInt(2),
			Stock:     3,
		}))
	}
	seed("Burger")

	_, count, err := uc.ListPublicItems(ctx, tenantID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// written behind the use case's back, so the cached page is stale
	seed("Soda")
	_, count, err = uc.ListPublicItems(ctx, tenantID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	uc.InvalidateCache(ctx, tenantID)
	_, count, err = uc.ListPublicItems(ctx, tenantID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = uc.CreateItem(ctx, &dto.CreateItemInput{TenantID: tenantID, Name: "Fries", Price: decimal.NewFromInt(4), Stock: 1})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, count, err := uc.ListPublicItems(ctx, tenantID, 1, 20)
		return err == nil && count == 3
	}, time.Second, 10*time.Millisecond)
}
