package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/shopspring/decimal"
)

var _ wallet.Repository = (*WalletRepository)(nil)

type WalletRepository struct {
	s *Store
}

func (r *WalletRepository) FindByTenant(ctx context.Context, tenantID string) (*model.Wallet, error) {
	return r.find("wallets.find", tenantID)
}

func (r *WalletRepository) FindByTenantForUpdate(ctx context.Context, tenantID string) (*model.Wallet, error) {
	return r.find("wallets.lock", tenantID)
}

func (r *WalletRepository) find(op, tenantID string) (*model.Wallet, error) {
	var found *model.Wallet
	err := r.s.read(op, func(d *state) error {
		if w, ok := d.wallets[tenantID]; ok {
			found = &w
		}
		return nil
	})
	return found, err
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) error {
	return r.s.write(ctx, "wallets.update_balance", func(d *state) error {
		for tenantID, w := range d.wallets {
			if w.ID == walletID {
				w.Balance = balance
				w.UpdatedAt = time.Now()
				d.wallets[tenantID] = w
				return nil
			}
		}
		return fmt.Errorf("wallet %s vanished during update", walletID)
	})
}

func (r *WalletRepository) InsertTransaction(ctx context.Context, tx *model.WalletTransaction) error {
	return r.s.write(ctx, "wallet_transactions.insert", func(d *state) error {
		d.ledger = append(d.ledger, *tx)
		return nil
	})
}

func (r *WalletRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.WalletTransaction, int, error) {
	var out []model.WalletTransaction
	err := r.s.read("wallet_transactions.list", func(d *state) error {
		for _, tx := range d.ledger {
			if f.TenantID == "" || tx.TenantID == f.TenantID {
				out = append(out, tx)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	// newest first; insertion order breaks ties
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	return paginate(out, f.Page, f.PageSize), total, nil
}

func (r *WalletRepository) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.s.read("wallets.sum", func(d *state) error {
		for _, w := range d.wallets {
			sum = sum.Add(w.Balance)
		}
		return nil
	})
	return sum, err
}

func paginate[T any](rows []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return rows
	}
	start := (max(page, 1) - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+pageSize, len(rows))
	return rows[start:end]
}
