package order

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
)

type Repository interface {
	// Create inserts the header and every line of o.Items.
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, tenantID, id string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, error)
	// UpdateStatus changes the status only while it still equals from.
	UpdateStatus(ctx context.Context, tenantID, id string, from, to model.OrderStatus) (bool, error)
	// ListAppointments returns appointment times of non-cancelled orders in [from, to).
	ListAppointments(ctx context.Context, window *dto.AppointmentWindow) ([]time.Time, error)
	Count(ctx context.Context) (int, error)
}

// IdempotencyStore remembers receipts per Idempotency-Key.
type IdempotencyStore interface {
	// Claim reserves key. It returns the stored receipt for a completed
	// request, or claimed=false while another request holds the key.
	Claim(ctx context.Context, key string) (receipt *dto.Receipt, claimed bool, err error)
	Save(ctx context.Context, key string, receipt *dto.Receipt) error
	Release(ctx context.Context, key string) error
}

// Notifier receives NEW_ORDER events after commit. Notify must not block.
type Notifier interface {
	Notify(event model.OrderEvent)
}

// CacheInvalidator drops cached storefront pages whose stock just changed.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, tenantID string)
}
