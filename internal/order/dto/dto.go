package dto

import (
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/shopspring/decimal"
)

// Receipt is what the storefront shows the customer after checkout.
type Receipt struct {
	OrderID       string             `json:"order_id"` // short reference, first 8 chars upper-cased
	ID            string             `json:"id"`
	Total         decimal.Decimal    `json:"total"`
	BusinessPhone string             `json:"business_phone"`
	Appointment   *string            `json:"appointment,omitempty"`
	Summary       string             `json:"summary"`
	DeliveryType  model.DeliveryType `json:"delivery_type"`
}

type OrderFilters struct {
	TenantID string
	Status   model.OrderStatus // empty means any
}

type AppointmentWindow struct {
	TenantID string
	From     time.Time
	To       time.Time
}
