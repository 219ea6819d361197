package dto

import (
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreatePostInput struct {
	TenantID string `json:"-"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

type CreatePostResult struct {
	model.Post
	WalletBalance decimal.Decimal `json:"wallet_balance"`
}

type ToggleLikeInput struct {
	Slug     string
	PostID   string
	ClientID string
}

const (
	ActionLiked   = "liked"
	ActionUnliked = "unliked"
)

type ToggleLikeResult struct {
	Action string `json:"action"`
}
