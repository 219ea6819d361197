package dto

import "github.com/shopspring/decimal"

type OptionInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type CreateItemInput struct {
	TenantID    string          `json:"-"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsService   bool            `json:"is_service"`
	Stock       float64         `json:"stock"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Variants    []OptionInput   `json:"variants"`
	Extras      []OptionInput   `json:"extras"`
}

type UpdateItemInput struct {
	ID string `json:"-"`
	CreateItemInput
}
