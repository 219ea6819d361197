package model

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus accepts only the closed set of statuses, case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return st, true
	default:
		return "", false
	}
}

// Priority is the dashboard sort key: pending first, then completed, then
// cancelled, anything else last.
func (s OrderStatus) Priority() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusCompleted:
		return 1
	case OrderStatusCancelled:
		return 2
	default:
		return 3
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryDelivery DeliveryType = "delivery"
)

func ParseDeliveryType(s string) (DeliveryType, bool) {
	switch dt := DeliveryType(strings.ToLower(strings.TrimSpace(s))); dt {
	case "", DeliveryPickup:
		return DeliveryPickup, true
	case DeliveryDelivery:
		return dt, true
	default:
		return "", false
	}
}

type Order struct {
	BaseModel
	TenantID      string          `db:"tenant_id" json:"tenant_id"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	Address       *string         `db:"address" json:"address"`
	AppointmentAt *time.Time      `db:"appointment_at" json:"appointment_at"`
	Notes         *string         `db:"notes" json:"notes"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	DeliveryType  DeliveryType    `db:"delivery_type" json:"delivery_type"`
	DeliveryCost  decimal.Decimal `db:"delivery_cost" json:"delivery_cost"`
	Status        OrderStatus     `db:"status" json:"status"`
	Items         []OrderItem     `db:"-" json:"items"`
}

// OrderItem is a snapshot of a cart line at the moment of sale.
type OrderItem struct {
	ID            string          `db:"id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	ItemID        string          `db:"item_id" json:"item_id"`
	ItemName      string          `db:"item_name" json:"item_name"`
	VariantName   *string         `db:"variant_name" json:"variant_name"`
	ExtrasSummary *string         `db:"extras_summary" json:"extras_summary"`
	Quantity      float64         `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	ExtrasPrice   decimal.Decimal `db:"extras_price" json:"extras_price"`
	LineTotal     decimal.Decimal `db:"line_total" json:"line_total"`
	Position      int             `db:"position" json:"position"`
}

// SortOrdersByPriority orders by status priority, newest first within a status.
func SortOrdersByPriority(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		pi, pj := orders[i].Status.Priority(), orders[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
