// Package pricing turns a cart line into a priced order line, checking and
// consuming stock from the item, variant and extra pools on the way.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStore is the part of catalog.Repository the resolver needs. Every call
// is expected to run inside the order transaction.
type StockStore interface {
	LockItem(ctx context.Context, tenantID, id string) (*model.Item, error)
	LockVariant(ctx context.Context, itemID, name string) (*model.ItemVariant, error)
	LockExtras(ctx context.Context, itemID string, names []string) ([]model.ItemExtra, error)
	DecrementItemStock(ctx context.Context, itemID string, qty float64) (float64, error)
	DecrementVariantStock(ctx context.Context, variantID string, qty int) (int, error)
	DecrementExtraStock(ctx context.Context, extraID string, qty int) (int, error)
	LogMovement(ctx context.Context, movement *model.StockMovement) error
}

// ExtrasPolicy decides what happens to requested extras the item does not offer.
type ExtrasPolicy int

const (
	// DropUnknownExtras ignores unmatched extras names; the line is priced
	// with the extras that did match.
	DropUnknownExtras ExtrasPolicy = iota
	// RejectUnknownExtras fails the line with ErrInvalidInput.
	RejectUnknownExtras
)

type CartLine struct {
	ItemID      string
	Quantity    float64
	VariantName string
	Extras      string // comma separated names, e.g. "Cheese, Bacon"
}

type ResolvedLine struct {
	Item    model.OrderItem
	Summary string // "2x Burger [Large] (+Cheese)"
}

type Resolver struct {
	store  StockStore
	policy ExtrasPolicy
	now    func() time.Time
}

func NewResolver(store StockStore, policy ExtrasPolicy) *Resolver {
	return &Resolver{store: store, policy: policy, now: time.Now}
}

// Resolve prices one cart line for orderID and consumes its stock. A failure
// leaves earlier decrements in place; the caller's transaction rolls them back.
func (r *Resolver) Resolve(ctx context.Context, tenantID, orderID string, line CartLine) (*ResolvedLine, error) {
	qty := line.Quantity
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
		return nil, apperror.ErrInvalidQuantity
	}
	if _, err := uuid.Parse(line.ItemID); err != nil {
		return nil, apperror.ErrItemNotFound
	}

	item, err := r.store.LockItem(ctx, tenantID, line.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.ErrItemNotFound
	}

	unitPrice := item.Price
	label := item.Name
	var variantName *string

	if name := strings.TrimSpace(line.VariantName); name != "" {
		variant, err := r.store.LockVariant(ctx, item.ID, name)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, apperror.ErrVariantUnavailable.WithMessage(
				fmt.Sprintf("variant %q is not available for %s", name, item.Name))
		}
		unitPrice = variant.Price
		label = fmt.Sprintf("%s [%s]", item.Name, variant.Name)
		variantName = &variant.Name

		if item.IsPhysical() {
			units, err := wholeUnits(qty)
			if err != nil {
				return nil, err
			}
			// both pools track the same physical unit
			if variant.Stock < units {
				return nil, insufficient(label)
			}
			if item.Stock < qty {
				return nil, insufficient(item.Name)
			}
			if err := r.takeVariant(ctx, tenantID, orderID, item, variant, units, label); err != nil {
				return nil, err
			}
			if err := r.takeItem(ctx, tenantID, orderID, item, qty); err != nil {
				return nil, err
			}
		}
	} else if item.IsPhysical() {
		if item.Stock < qty {
			return nil, insufficient(item.Name)
		}
		if err := r.takeItem(ctx, tenantID, orderID, item, qty); err != nil {
			return nil, err
		}
	}

	extrasPrice := decimal.Zero
	var extrasSummary *string
	if names := ParseExtras(line.Extras); len(names) > 0 {
		found, err := r.store.LockExtras(ctx, item.ID, names)
		if err != nil {
			return nil, err
		}
		byName := make(map[string]model.ItemExtra, len(found))
		for _, e := range found {
			byName[e.Name] = e
		}

		matched := make([]string, 0, len(names))
		for _, name := range names {
			extra, ok := byName[name]
			if !ok {
				if r.policy == RejectUnknownExtras {
					return nil, apperror.ErrInvalidInput.WithMessage(
						fmt.Sprintf("extra %q is not available for %s", name, item.Name))
				}
				continue
			}
			if item.IsPhysical() {
				units, err := wholeUnits(qty)
				if err != nil {
					return nil, err
				}
				if extra.Stock < units {
					return nil, insufficient(fmt.Sprintf("%s (+%s)", item.Name, extra.Name))
				}
				if err := r.takeExtra(ctx, tenantID, orderID, item, &extra, units); err != nil {
					return nil, err
				}
			}
			extrasPrice = extrasPrice.Add(extra.Price)
			matched = append(matched, extra.Name)
		}
		if len(matched) > 0 {
			s := strings.Join(matched, ", ")
			extrasSummary = &s
		}
	}

	unitTotal := unitPrice.Add(extrasPrice)
	lineTotal := unitTotal.Mul(decimal.NewFromFloat(qty)).Round(2)

	summary := fmt.Sprintf("%sx %s", FormatQuantity(qty), label)
	if extrasSummary != nil {
		summary += fmt.Sprintf(" (+%s)", *extrasSummary)
	}

	return &ResolvedLine{
		Item: model.OrderItem{
			ID:            uuid.New().String(),
			OrderID:       orderID,
			ItemID:        item.ID,
			ItemName:      item.Name,
			VariantName:   variantName,
			ExtrasSummary: extrasSummary,
			Quantity:      qty,
			UnitPrice:     unitPrice,
			ExtrasPrice:   extrasPrice,
			LineTotal:     lineTotal,
		},
		Summary: summary,
	}, nil
}

func (r *Resolver) takeItem(ctx context.Context, tenantID, orderID string, item *model.Item, qty float64) error {
	remaining, err := r.store.DecrementItemStock(ctx, item.ID, qty)
	if err != nil {
		return guard(err, item.Name)
	}
	item.Stock = remaining
	return r.log(ctx, tenantID, orderID, item.ID, model.PoolItem, item.ID, qty, remaining)
}

func (r *Resolver) takeVariant(ctx context.Context, tenantID, orderID string, item *model.Item, v *model.ItemVariant, units int, label string) error {
	remaining, err := r.store.DecrementVariantStock(ctx, v.ID, units)
	if err != nil {
		return guard(err, label)
	}
	v.Stock = remaining
	return r.log(ctx, tenantID, orderID, item.ID, model.PoolVariant, v.ID, float64(units), float64(remaining))
}

func (r *Resolver) takeExtra(ctx context.Context, tenantID, orderID string, item *model.Item, e *model.ItemExtra, units int) error {
	remaining, err := r.store.DecrementExtraStock(ctx, e.ID, units)
	if err != nil {
		return guard(err, fmt.Sprintf("%s (+%s)", item.Name, e.Name))
	}
	e.Stock = remaining
	return r.log(ctx, tenantID, orderID, item.ID, model.PoolExtra, e.ID, float64(units), float64(remaining))
}

func (r *Resolver) log(ctx context.Context, tenantID, orderID, itemID string, pool model.StockPool, poolID string, qty, remaining float64) error {
	refType := "order"
	refID := orderID
	return r.store.LogMovement(ctx, &model.StockMovement{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		ItemID:         itemID,
		Pool:           pool,
		PoolID:         poolID,
		QuantityChange: -qty,
		QuantityBefore: remaining + qty,
		QuantityAfter:  remaining,
		ReferenceType:  &refType,
		ReferenceID:    &refID,
		CreatedAt:      r.now(),
	})
}

func guard(err error, label string) error {
	if errors.Is(err, catalog.ErrStockGuard) {
		return insufficient(label)
	}
	return err
}

func insufficient(label string) error {
	return apperror.ErrInsufficientStock.WithMessage("insufficient stock for " + label)
}

// wholeUnits rejects fractional quantities for the integer variant and extra pools.
func wholeUnits(qty float64) (int, error) {
	if qty != math.Trunc(qty) || qty > math.MaxInt32 {
		return 0, apperror.ErrInvalidQuantity.WithMessage("variants and extras are sold in whole units")
	}
	return int(qty), nil
}

// ParseExtras splits a comma separated extras string, trimming blanks and
// dropping duplicates while keeping the requested order.
func ParseExtras(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// FormatQuantity renders 2 as "2" and 1.5 as "1.5".
func FormatQuantity(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}
