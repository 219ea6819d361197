package dto

import "github.com/shopspring/decimal"

type DeltaResult struct {
	TransactionID   string          `json:"transaction_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	TenantActive    bool            `json:"tenant_active"`
}

type TransactionFilters struct {
	TenantID string // empty lists every tenant
	Page     int
	PageSize int
}
