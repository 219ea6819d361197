package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/post"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var _ post.Repository = (*PGRepository)(nil)

const postColumns = `id, tenant_id, content, image_url, created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
        INSERT INTO posts (id, tenant_id, content, image_url, created_at)
        VALUES (:id, :tenant_id, :content, :image_url, :created_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, p); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Post, error) {
	var p model.Post
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &p,
		`SELECT `+postColumns+` FROM posts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindByTenant(ctx context.Context, tenantID string) ([]model.Post, error) {
	posts := []model.Post{}
	err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &posts,
		`SELECT `+postColumns+` FROM posts WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	return posts, err
}

func (r *PGRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM posts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) Feed(ctx context.Context, tenantID, clientID string) ([]model.FeedPost, error) {
	query := `
        SELECT p.id, p.tenant_id, p.content, p.image_url, p.created_at,
               COUNT(l.id) AS likes_count,
               COALESCE(BOOL_OR(l.client_identifier = $2), FALSE) AS is_liked
        FROM posts p
        LEFT JOIN post_likes l ON l.post_id = p.id
        WHERE p.tenant_id = $1
        GROUP BY p.id
        ORDER BY p.created_at DESC
    `
	feed := []model.FeedPost{}
	if err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &feed, query, tenantID, clientID); err != nil {
		return nil, err
	}
	return feed, nil
}

// ToggleLike relies on the (post_id, client_identifier) unique key, so two
// concurrent likes from the same client store one row.
func (r *PGRepository) ToggleLike(ctx context.Context, postID, clientID string) (bool, error) {
	ex := postgres.Executor(ctx, r.DB)

	res, err := ex.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND client_identifier = $2`, postID, clientID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}

	_, err = ex.ExecContext(ctx, `
        INSERT INTO post_likes (id, post_id, client_identifier, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (post_id, client_identifier) DO NOTHING
    `, uuid.New().String(), postID, clientID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	return true, nil
}
