package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/storage"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	walletdto "github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type tenantUseCase struct {
	tx     storage.Transactor
	repo   tenant.Repository
	wallet wallet.UseCase
	logger logger.ZapLogger
}

func NewTenantUseCase(tx storage.Transactor, repo tenant.Repository, wallet wallet.UseCase, log logger.ZapLogger) tenant.UseCase {
	return &tenantUseCase{
		tx:     tx,
		repo:   repo,
		wallet: wallet,
		logger: log,
	}
}

// CreateTenant onboards a business. It starts suspended with an empty wallet;
// initial credits go through the ledger so the history explains the balance.
func (uc *tenantUseCase) CreateTenant(ctx context.Context, input *dto.CreateTenantInput) (*model.Tenant, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if name == "" {
		return nil, apperror.ErrInvalidInput.WithMessage("name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperror.ErrInvalidInput.WithMessage("slug must be lowercase letters, digits and dashes")
	}
	if input.DeliveryPrice.IsNegative() || input.InitialCredits.IsNegative() {
		return nil, apperror.ErrInvalidAmount.WithMessage("amounts must not be negative")
	}

	existing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrSlugTaken
	}

	now := time.Now()
	t := &model.Tenant{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:          name,
		Slug:          slug,
		Phone:         strings.TrimSpace(input.Phone),
		IsActive:      false,
		LogoURL:       optional(input.LogoURL),
		PrimaryColor:  optional(input.PrimaryColor),
		HasDelivery:   input.HasDelivery,
		DeliveryPrice: input.DeliveryPrice,
	}
	plan := input.Plan
	if plan == "" {
		plan = "basic"
	}
	w := &model.Wallet{
		ID:        uuid.New().String(),
		TenantID:  t.ID,
		Plan:      plan,
		UpdatedAt: now,
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, t, w); err != nil {
			return err
		}
		if input.InitialCredits.IsZero() {
			return nil
		}
		res, err := uc.wallet.ApplyDelta(ctx, &walletdto.ApplyDeltaInput{
			TenantID: t.ID,
			Amount:   input.InitialCredits,
			Reason:   "Initial credits",
		})
		if err != nil {
			return err
		}
		t.IsActive = res.TenantActive
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("tenant created", zap.String("tenant_id", t.ID), zap.String("slug", t.Slug))
	return t, nil
}

func (uc *tenantUseCase) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.ErrTenantNotFound
	}
	t, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperror.ErrTenantNotFound
	}
	return t, nil
}

// GetPublicProfile hides suspended tenants from the storefront.
func (uc *tenantUseCase) GetPublicProfile(ctx context.Context, slug string) (*model.Tenant, error) {
	t, err := uc.repo.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsActive {
		return nil, apperror.ErrTenantNotFound
	}
	return t, nil
}

func (uc *tenantUseCase) ToggleActive(ctx context.Context, id string) (*model.Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.ErrTenantNotFound
	}

	var t *model.Tenant
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = uc.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return apperror.ErrTenantNotFound
		}
		t.IsActive = !t.IsActive
		return uc.repo.SetActive(ctx, id, t.IsActive)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("tenant toggled", zap.String("tenant_id", id), zap.Bool("is_active", t.IsActive))
	return t, nil
}

func (uc *tenantUseCase) Stats(ctx context.Context) (*dto.TenantStats, error) {
	total, active, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TenantStats{Total: total, Active: active}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
