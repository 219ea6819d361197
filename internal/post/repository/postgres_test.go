package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	tenantrepo "github.com/fekuna/omnipos-storefront-service/internal/tenant/repository"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres/postgrestest"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
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

func newPost(tenantID, content string, createdAt time.Time) *model.Post {
	return &model.Post{ID: uuid.NewString(), TenantID: tenantID, Content: content, CreatedAt: createdAt}
}

func TestPGRepository_Posts(t *testing.T) {
	db := postgrestest.Start(t)
	repo := NewPGRepository(db)
	txm := postgres.NewTxManager(db, time.Second)
	ctx := context.Background()

	t.Run("feed counts likes per client", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)
		base := time.Now().UTC().Truncate(time.Second)

		older := newPost(tenantID, "older", base.Add(-time.Hour))
		image := "https://cdn.example.com/a.jpg"
		newer := newPost(tenantID, "newer", base)
		newer.ImageURL = &image
		require.NoError(t, repo.Create(ctx, older))
		require.NoError(t, repo.Create(ctx, newer))

		for _, client := range []string{"10.0.0.1", "10.0.0.2"} {
			liked, err := repo.ToggleLike(ctx, newer.ID, client)
			require.NoError(t, err)
			assert.True(t, liked)
		}
		liked, err := repo.ToggleLike(ctx, newer.ID, "10.0.0.2")
		require.NoError(t, err)
		assert.False(t, liked)

		feed, err := repo.Feed(ctx, tenantID, "10.0.0.1")
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, newer.ID, feed[0].ID)
		assert.Equal(t, 1, feed[0].LikesCount)
		assert.True(t, feed[0].IsLiked)
		require.NotNil(t, feed[0].ImageURL)
		assert.Equal(t, image, *feed[0].ImageURL)
		assert.Equal(t, older.ID, feed[1].ID)
		assert.Zero(t, feed[1].LikesCount)
		assert.False(t, feed[1].IsLiked)
	})

	t.Run("delete is tenant scoped and drops likes", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)
		other := seedTenant(t, db)
		p := newPost(tenantID, "hello", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, p))
		_, err := repo.ToggleLike(ctx, p.ID, "10.0.0.1")
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, other, p.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		deleted, err := repo.Delete(ctx, other, p.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = repo.Delete(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		var likes int
		require.NoError(t, db.Get(&likes, `SELECT COUNT(*) FROM post_likes`))
		assert.Zero(t, likes)
	})

	t.Run("create rolls back with the transaction", func(t *testing.T) {
		postgrestest.Truncate(t, db)
		tenantID := seedTenant(t, db)

		err := txm.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, newPost(tenantID, "draft", time.Now().UTC())); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		posts, err := repo.FindByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}
