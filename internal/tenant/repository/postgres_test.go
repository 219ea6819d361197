package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres/postgrestest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenant(slug string) (*model.Tenant, *model.Wallet) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	t := &model.Tenant{
		BaseModel:     model.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		Name:          "Shop " + slug,
		Slug:          slug,
		Phone:         "5512345678",
		HasDelivery:   true,
		DeliveryPrice: decimal.NewFromInt(30),
	}
	w := &model.Wallet{ID: uuid.NewString(), TenantID: t.ID, Balance: decimal.Zero, Plan: "basic", UpdatedAt: now}
	return t, w
}

func TestPGRepository(t *testing.T) {
	db := postgrestest.Start(t)
	repo := NewPGRepository(db)
	tx := postgres.NewTxManager(db, time.Second)
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenant, wallet := newTenant("tacos-el-guero")
		require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, tenant, wallet)
		}))

		bySlug, err := repo.FindBySlug(ctx, "tacos-el-guero")
		require.NoError(t, err)
		require.NotNil(t, bySlug)
		assert.Equal(t, tenant.ID, bySlug.ID)
		assert.True(t, bySlug.DeliveryPrice.Equal(decimal.NewFromInt(30)))
		assert.False(t, bySlug.IsActive)

		byID, err := repo.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, "tacos-el-guero", byID.Slug)
	})

	t.Run("missing tenant is nil", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		got, err := repo.FindBySlug(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		first, fw := newTenant("dup")
		require.NoError(t, repo.Create(ctx, first, fw))

		second, sw := newTenant("dup")
		err := repo.Create(ctx, second, sw)
		assert.ErrorIs(t, err, apperror.ErrSlugTaken)
	})

	t.Run("set active and count", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		a, aw := newTenant("a")
		b, bw := newTenant("b")
		require.NoError(t, repo.Create(ctx, a, aw))
		require.NoError(t, repo.Create(ctx, b, bw))

		require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
			locked, err := repo.FindByIDForUpdate(ctx, a.ID)
			if err != nil {
				return err
			}
			return repo.SetActive(ctx, locked.ID, true)
		}))

		total, active, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, 1, active)
	})

	t.Run("rollback discards tenant and wallet", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenant, wallet := newTenant("ghost")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, tenant, wallet); err != nil {
				return err
			}
			return apperror.ErrInternal
		})
		require.Error(t, err)

		got, err := repo.FindBySlug(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
