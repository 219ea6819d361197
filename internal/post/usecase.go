package post

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/post/dto"
)

type UseCase interface {
	CreatePost(ctx context.Context, input *dto.CreatePostInput) (*dto.CreatePostResult, error)
	ListMyPosts(ctx context.Context, tenantID string) ([]model.Post, error)
	DeletePost(ctx context.Context, tenantID, id string) error
	GetFeed(ctx context.Context, slug, clientID string) ([]model.FeedPost, error)
	ToggleLike(ctx context.Context, input *dto.ToggleLikeInput) (*dto.ToggleLikeResult, error)
}
