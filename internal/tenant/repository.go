package tenant

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	// Create inserts the tenant together with its (empty) wallet.
	Create(ctx context.Context, t *model.Tenant, w *model.Wallet) error
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	FindByIDForUpdate(ctx context.Context, id string) (*model.Tenant, error)
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (total int, active int, err error)
}
