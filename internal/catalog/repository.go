package catalog

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-storefront-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

// ErrStockGuard is returned by the Decrement methods when the guarded update
// matched no row, i.e. the pool holds less than the requested quantity.
var ErrStockGuard = errors.New("catalog: stock guard rejected decrement")

type Repository interface {
	// Items with their variants and extras
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, tenantID, id string) (*model.Item, error)
	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, tenantID, id string) (bool, error)

	// Row locks, only meaningful inside a transaction. LockItems locks in id
	// order so concurrent carts never wait on each other in a cycle.
	LockItems(ctx context.Context, tenantID string, ids []string) error
	LockItem(ctx context.Context, tenantID, id string) (*model.Item, error)
	LockVariant(ctx context.Context, itemID, name string) (*model.ItemVariant, error)
	LockExtras(ctx context.Context, itemID string, names []string) ([]model.ItemExtra, error)

	// Guarded decrements return the remaining stock.
	DecrementItemStock(ctx context.Context, itemID string, qty float64) (float64, error)
	DecrementVariantStock(ctx context.Context, variantID string, qty int) (int, error)
	DecrementExtraStock(ctx context.Context, extraID string, qty int) (int, error)

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
