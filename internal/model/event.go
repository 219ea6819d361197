package model

import "github.com/shopspring/decimal"

const EventNewOrder = "NEW_ORDER"

// OrderEvent is pushed to every live dashboard connection of TenantID.
type OrderEvent struct {
	Event         string          `json:"event"`
	TenantID      string          `json:"-"`
	OrderID       string          `json:"order_id"`
	Customer      string          `json:"customer"`
	Total         decimal.Decimal `json:"total"`
	DeliveryType  DeliveryType    `json:"delivery_type"`
	ItemsCount    int             `json:"items_count"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
}
