package dto

import "github.com/shopspring/decimal"

// ApplyDeltaInput is a signed balance change: negative for consumption,
// positive for top-ups.
type ApplyDeltaInput struct {
	TenantID string
	Amount   decimal.Decimal
	Reason   string
}
