package post

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, p *model.Post) error
	FindByID(ctx context.Context, tenantID, id string) (*model.Post, error)
	FindByTenant(ctx context.Context, tenantID string) ([]model.Post, error)
	Delete(ctx context.Context, tenantID, id string) (bool, error)

	// Feed lists the tenant's posts newest first, with like counts and
	// whether clientID already liked each one.
	Feed(ctx context.Context, tenantID, clientID string) ([]model.FeedPost, error)
	// ToggleLike removes the like when present and adds it otherwise.
	// It reports whether the post ends up liked.
	ToggleLike(ctx context.Context, postID, clientID string) (bool, error)
}
