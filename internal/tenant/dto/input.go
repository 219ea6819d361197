package dto

import "github.com/shopspring/decimal"

type CreateTenantInput struct {
	Name           string
	Slug           string
	Phone          string
	LogoURL        string
	PrimaryColor   string
	HasDelivery    bool
	DeliveryPrice  decimal.Decimal
	Plan           string
	InitialCredits decimal.Decimal
}
