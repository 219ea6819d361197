package model

import "time"

// Post is a tenant's publication on its public feed. Publishing costs credits.
type Post struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Content   string    `db:"content" json:"content"`
	ImageURL  *string   `db:"image_url" json:"image_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedPost is a post as seen by one visitor of the storefront.
type FeedPost struct {
	Post
	LikesCount int  `db:"likes_count" json:"likes_count"`
	IsLiked    bool `db:"is_liked" json:"is_liked"`
}

// PostLike is unique per post and client identifier.
type PostLike struct {
	ID               string    `db:"id" json:"id"`
	PostID           string    `db:"post_id" json:"post_id"`
	ClientIdentifier string    `db:"client_identifier" json:"client_identifier"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
