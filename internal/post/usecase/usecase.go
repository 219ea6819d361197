package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/post"
	"github.com/fekuna/omnipos-storefront-service/internal/post/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/storage"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	walletdto "github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	CreditsPerPost   decimal.Decimal
	MaxContentLength int
}

func DefaultConfig() Config {
	return Config{CreditsPerPost: decimal.NewFromInt(1), MaxContentLength: 2000}
}

type postUseCase struct {
	tx      storage.Transactor
	repo    post.Repository
	tenants tenant.Repository
	wallet  wallet.UseCase
	cfg     Config
	logger  logger.ZapLogger
}

func NewPostUseCase(tx storage.Transactor, repo post.Repository, tenants tenant.Repository, wallet wallet.UseCase, cfg Config, log logger.ZapLogger) post.UseCase {
	return &postUseCase{
		tx:      tx,
		repo:    repo,
		tenants: tenants,
		wallet:  wallet,
		cfg:     cfg,
		logger:  log,
	}
}

// CreatePost publishes to the tenant feed and charges CreditsPerPost in the
// same transaction. A wallet at or below zero cannot publish.
func (uc *postUseCase) CreatePost(ctx context.Context, input *dto.CreatePostInput) (*dto.CreatePostResult, error) {
	p, err := uc.newPost(input)
	if err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := uc.wallet.LockBalance(ctx, input.TenantID)
		if err != nil {
			return err
		}
		if !w.Balance.IsPositive() {
			return apperror.ErrInsufficientCredit
		}
		if err := uc.repo.Create(ctx, p); err != nil {
			return err
		}
		res, err := uc.wallet.ApplyDelta(ctx, &walletdto.ApplyDeltaInput{
			TenantID: input.TenantID,
			Amount:   uc.cfg.CreditsPerPost.Neg(),
			Reason:   "Post " + strings.ToUpper(p.ID[:8]),
		})
		if err != nil {
			return err
		}
		balance = res.NewBalance
		return nil
	})
	if err != nil {
		return nil, uc.classify(err)
	}

	uc.logger.Info("post published",
		zap.String("tenant_id", p.TenantID),
		zap.String("post_id", p.ID),
		zap.String("wallet_balance", balance.String()),
	)
	return &dto.CreatePostResult{Post: *p, WalletBalance: balance}, nil
}

func (uc *postUseCase) newPost(input *dto.CreatePostInput) (*model.Post, error) {
	content := strings.TrimSpace(input.Content)
	imageURL := strings.TrimSpace(input.ImageURL)
	if content == "" && imageURL == "" {
		return nil, apperror.ErrInvalidInput.WithMessage("a post needs content or an image")
	}
	if uc.cfg.MaxContentLength > 0 && utf8.RuneCountInString(content) > uc.cfg.MaxContentLength {
		return nil, apperror.ErrInvalidInput.WithMessage(fmt.Sprintf("content exceeds %d characters", uc.cfg.MaxContentLength))
	}

	p := &model.Post{
		ID:        uuid.New().String(),
		TenantID:  input.TenantID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if imageURL != "" {
		u, err := url.Parse(imageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperror.ErrInvalidInput.WithMessage("image_url must be an absolute http(s) URL")
		}
		p.ImageURL = &imageURL
	}
	return p, nil
}

func (uc *postUseCase) ListMyPosts(ctx context.Context, tenantID string) ([]model.Post, error) {
	return uc.repo.FindByTenant(ctx, tenantID)
}

func (uc *postUseCase) DeletePost(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.ErrPostNotFound
	}
	deleted, err := uc.repo.Delete(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrPostNotFound
	}
	uc.logger.Info("post deleted", zap.String("tenant_id", tenantID), zap.String("post_id", id))
	return nil
}

// GetFeed is the public feed. Suspended tenants are hidden like their storefront.
func (uc *postUseCase) GetFeed(ctx context.Context, slug, clientID string) ([]model.FeedPost, error) {
	t, err := uc.activeTenant(ctx, slug)
	if err != nil {
		return nil, err
	}
	return uc.repo.Feed(ctx, t.ID, clientID)
}

func (uc *postUseCase) ToggleLike(ctx context.Context, input *dto.ToggleLikeInput) (*dto.ToggleLikeResult, error) {
	if input.ClientID == "" {
		return nil, apperror.ErrInvalidInput.WithMessage("client identifier missing")
	}
	if _, err := uuid.Parse(input.PostID); err != nil {
		return nil, apperror.ErrPostNotFound
	}
	t, err := uc.activeTenant(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	var liked bool
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.repo.FindByID(ctx, t.ID, input.PostID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.ErrPostNotFound
		}
		liked, err = uc.repo.ToggleLike(ctx, p.ID, input.ClientID)
		return err
	})
	if err != nil {
		return nil, uc.classify(err)
	}

	if liked {
		return &dto.ToggleLikeResult{Action: dto.ActionLiked}, nil
	}
	return &dto.ToggleLikeResult{Action: dto.ActionUnliked}, nil
}

func (uc *postUseCase) activeTenant(ctx context.Context, slug string) (*model.Tenant, error) {
	t, err := uc.tenants.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsActive {
		return nil, apperror.ErrTenantNotFound
	}
	return t, nil
}

func (uc *postUseCase) classify(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, postgres.ErrContention) {
		return apperror.ErrContention.Wrap(err)
	}
	uc.logger.Error("post operation failed", zap.Error(err))
	return apperror.ErrInternal.Wrap(err)
}
