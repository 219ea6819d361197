package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID        string          `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Plan      string          `db:"plan" json:"plan"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// WalletTransaction is one append-only ledger row. NewBalance always equals
// PreviousBalance + Amount.
type WalletTransaction struct {
	ID              string          `db:"id" json:"id"`
	WalletID        string          `db:"wallet_id" json:"wallet_id"`
	TenantID        string          `db:"tenant_id" json:"tenant_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PreviousBalance decimal.Decimal `db:"previous_balance" json:"previous_balance"`
	NewBalance      decimal.Decimal `db:"new_balance" json:"new_balance"`
	Reason          string          `db:"reason" json:"reason"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
