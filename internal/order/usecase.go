package order

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
)

type UseCase interface {
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*dto.Receipt, error)
	UpdateStatus(ctx context.Context, tenantID, orderID, status string) (*model.Order, error)
	ListOrders(ctx context.Context, tenantID, status string) ([]model.Order, error)
	GetOrder(ctx context.Context, tenantID, orderID string) (*model.Order, error)
	GetAvailability(ctx context.Context, slug, date string) ([]string, error)
	Count(ctx context.Context) (int, error)
}
