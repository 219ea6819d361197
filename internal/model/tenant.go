package model

import "github.com/shopspring/decimal"

type Tenant struct {
	BaseModel
	Name          string          `db:"name" json:"name"`
	Slug          string          `db:"slug" json:"slug"`
	Phone         string          `db:"phone" json:"phone"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	LogoURL       *string         `db:"logo_url" json:"logo_url"`
	PrimaryColor  *string         `db:"primary_color" json:"primary_color"`
	HasDelivery   bool            `db:"has_delivery" json:"has_delivery"`
	DeliveryPrice decimal.Decimal `db:"delivery_price" json:"delivery_price"`
}
