package tenant

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant/dto"
)

type UseCase interface {
	CreateTenant(ctx context.Context, input *dto.CreateTenantInput) (*model.Tenant, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	GetPublicProfile(ctx context.Context, slug string) (*model.Tenant, error)
	ToggleActive(ctx context.Context, id string) (*model.Tenant, error)
	Stats(ctx context.Context) (*dto.TenantStats, error)
}
