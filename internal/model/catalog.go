package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	BaseModel
	TenantID    string          `db:"tenant_id" json:"tenant_id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	IsService   bool            `db:"is_service" json:"is_service"`
	Stock       float64         `db:"stock" json:"stock"` // fractional units allowed (kg, litres)
	Description *string         `db:"description" json:"description"`
	ImageURL    *string         `db:"image_url" json:"image_url"`
	Variants    []ItemVariant   `db:"-" json:"variants"`
	Extras      []ItemExtra     `db:"-" json:"extras"`
}

// IsPhysical reports whether the item takes part in stock checks.
func (i *Item) IsPhysical() bool {
	return !i.IsService
}

type ItemVariant struct {
	ID        string          `db:"id" json:"id"`
	ItemID    string          `db:"item_id" json:"item_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	SortOrder int             `db:"sort_order" json:"sort_order"`
}

type ItemExtra struct {
	ID        string          `db:"id" json:"id"`
	ItemID    string          `db:"item_id" json:"item_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	SortOrder int             `db:"sort_order" json:"sort_order"`
}

type StockPool string

const (
	PoolItem    StockPool = "item"
	PoolVariant StockPool = "variant"
	PoolExtra   StockPool = "extra"
)

type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	ItemID         string    `db:"item_id" json:"item_id"`
	Pool           StockPool `db:"pool" json:"pool"`
	PoolID         string    `db:"pool_id" json:"pool_id"`
	QuantityChange float64   `db:"quantity_change" json:"quantity_change"`
	QuantityBefore float64   `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  float64   `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
