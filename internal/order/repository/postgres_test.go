package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	tenantrepo "github.com/fekuna/omnipos-storefront-service/internal/tenant/repository"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres/postgrestest"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, db *sqlx.DB) string {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.NewString()
	tenant := &model.Tenant{
		BaseModel: model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Name:      "Barber",
		Slug:      "barber-" + id[:8],
	}
	w := &model.Wallet{ID: uuid.NewString(), TenantID: id, Plan: "basic", UpdatedAt: now}
	require.NoError(t, tenantrepo.NewPGRepository(db).Create(context.Background(), tenant, w))
	return id
}

func newOrder(tenantID string, createdAt time.Time, appointment *time.Time) *model.Order {
	id := uuid.NewString()
	large := "Large"
	return &model.Order{
		BaseModel:     model.BaseModel{ID: id, CreatedAt: createdAt, UpdatedAt: createdAt},
		TenantID:      tenantID,
		CustomerName:  "Ana",
		AppointmentAt: appointment,
		TotalAmount:   decimal.NewFromInt(34),
		DeliveryType:  model.DeliveryPickup,
		DeliveryCost:  decimal.Zero,
		Status:        model.OrderStatusPending,
		Items: []model.OrderItem{
			{
				ID: uuid.NewString(), OrderID: id, ItemID: uuid.NewString(), ItemName: "Fries",
				Quantity: 1, UnitPrice: decimal.NewFromInt(4), ExtrasPrice: decimal.Zero,
				LineTotal: decimal.NewFromInt(4), Position: 1,
			},
			{
				ID: uuid.NewString(), OrderID: id, ItemID: uuid.NewString(), ItemName: "Burger",
				VariantName: &large, Quantity: 2, UnitPrice: decimal.NewFromInt(15), ExtrasPrice: decimal.Zero,
				LineTotal: decimal.NewFromInt(30), Position: 0,
			},
		},
	}
}

func TestPGRepository(t *testing.T) {
	db := postgrestest.Start(t)
	repo := NewPGRepository(db)
	tx := postgres.NewTxManager(db, time.Second)
	ctx := context.Background()

	t.Run("create and find keeps line order", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)
		o := newOrder(tenantID, time.Now().UTC(), nil)
		require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, o)
		}))

		got, err := repo.FindByID(ctx, tenantID, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(34)))
		require.Len(t, got.Items, 2)
		assert.Equal(t, "Burger", got.Items[0].ItemName)
		require.NotNil(t, got.Items[0].VariantName)
		assert.Equal(t, "Large", *got.Items[0].VariantName)
		assert.Nil(t, got.AppointmentAt)

		missing, err := repo.FindByID(ctx, uuid.NewString(), o.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("find all filters by status", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)
		base := time.Now().UTC().Add(-time.Hour)
		first := newOrder(tenantID, base, nil)
		second := newOrder(tenantID, base.Add(time.Minute), nil)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		ok, err := repo.UpdateStatus(ctx, tenantID, first.ID, model.OrderStatusPending, model.OrderStatusCompleted)
		require.NoError(t, err)
		assert.True(t, ok)

		all, err := repo.FindAll(ctx, &dto.OrderFilters{TenantID: tenantID})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
		assert.Len(t, all[1].Items, 2)

		done, err := repo.FindAll(ctx, &dto.OrderFilters{TenantID: tenantID, Status: model.OrderStatusCompleted})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, first.ID, done[0].ID)
	})

	t.Run("status change is conditional", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)
		o := newOrder(tenantID, time.Now().UTC(), nil)
		require.NoError(t, repo.Create(ctx, o))

		ok, err := repo.UpdateStatus(ctx, tenantID, o.ID, model.OrderStatusPending, model.OrderStatusCancelled)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.UpdateStatus(ctx, tenantID, o.ID, model.OrderStatusPending, model.OrderStatusCompleted)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("appointments skip cancelled and out of window", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)
		day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		at := func(h int) *time.Time {
			v := day.Add(time.Duration(h) * time.Hour)
			return &v
		}
		now := time.Now().UTC()
		booked := newOrder(tenantID, now, at(15))
		cancelled := newOrder(tenantID, now, at(11))
		tomorrow := newOrder(tenantID, now, at(33))
		for _, o := range []*model.Order{booked, cancelled, tomorrow, newOrder(tenantID, now, nil)} {
			require.NoError(t, repo.Create(ctx, o))
		}
		_, err := repo.UpdateStatus(ctx, tenantID, cancelled.ID, model.OrderStatusPending, model.OrderStatusCancelled)
		require.NoError(t, err)

		times, err := repo.ListAppointments(ctx, &dto.AppointmentWindow{TenantID: tenantID, From: day, To: day.Add(24 * time.Hour)})
		require.NoError(t, err)
		require.Len(t, times, 1)
		assert.True(t, times[0].Equal(*at(15)))

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})
}
