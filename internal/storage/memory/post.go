package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/post"
	"github.com/google/uuid"
)

var _ post.Repository = (*PostRepository)(nil)

type PostRepository struct {
	s *Store
}

func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	return r.s.write(ctx, "posts.create", func(d *state) error {
		d.posts[p.ID] = *p
		return nil
	})
}

func (r *PostRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Post, error) {
	var found *model.Post
	err := r.s.read("posts.find", func(d *state) error {
		if p, ok := d.posts[id]; ok && p.TenantID == tenantID {
			found = &p
		}
		return nil
	})
	return found, err
}

func (r *PostRepository) FindByTenant(ctx context.Context, tenantID string) ([]model.Post, error) {
	out := []model.Post{}
	err := r.s.read("posts.list", func(d *state) error {
		for _, p := range d.posts {
			if p.TenantID == tenantID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *PostRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	var deleted bool
	err := r.s.write(ctx, "posts.delete", func(d *state) error {
		p, ok := d.posts[id]
		if !ok || p.TenantID != tenantID {
			return nil
		}
		delete(d.posts, id)
		for k := range d.likes {
			if k.postID == id {
				delete(d.likes, k)
			}
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (r *PostRepository) Feed(ctx context.Context, tenantID, clientID string) ([]model.FeedPost, error) {
	out := []model.FeedPost{}
	err := r.s.read("posts.feed", func(d *state) error {
		counts := map[string]int{}
		for k := range d.likes {
			counts[k.postID]++
		}
		for _, p := range d.posts {
			if p.TenantID != tenantID {
				continue
			}
			_, liked := d.likes[likeKey{postID: p.ID, clientID: clientID}]
			out = append(out, model.FeedPost{Post: p, LikesCount: counts[p.ID], IsLiked: liked})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *PostRepository) ToggleLike(ctx context.Context, postID, clientID string) (bool, error) {
	var liked bool
	err := r.s.write(ctx, "posts.toggle_like", func(d *state) error {
		k := likeKey{postID: postID, clientID: clientID}
		if _, ok := d.likes[k]; ok {
			delete(d.likes, k)
			return nil
		}
		d.likes[k] = model.PostLike{
			ID:               uuid.New().String(),
			PostID:           postID,
			ClientIdentifier: clientID,
			CreatedAt:        time.Now(),
		}
		liked = true
		return nil
	})
	return liked, err
}
