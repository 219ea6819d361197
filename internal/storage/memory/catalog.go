package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

type CatalogRepository struct {
	s *Store
}

func (r *CatalogRepository) Create(ctx context.Context, item *model.Item) error {
	return r.s.write(ctx, "items.create", func(d *state) error {
		d.items[item.ID] = cloneItem(*item)
		return nil
	})
}

func (r *CatalogRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Item, error) {
	var found *model.Item
	err := r.s.read("items.find", func(d *state) error {
		if it, ok := d.items[id]; ok && it.TenantID == tenantID {
			it = cloneItem(it)
			found = &it
		}
		return nil
	})
	return found, err
}

func (r *CatalogRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	var out []model.Item
	err := r.s.read("items.list", func(d *state) error {
		for _, it := range d.items {
			if it.TenantID != f.TenantID {
				continue
			}
			if f.IsService != nil && it.IsService != *f.IsService {
				continue
			}
			if f.SearchQuery != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.SearchQuery)) {
				continue
			}
			out = append(out, cloneItem(it))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := len(out)
	return paginate(out, f.Page, f.PageSize), total, nil
}

func (r *CatalogRepository) Update(ctx context.Context, item *model.Item) error {
	return r.s.write(ctx, "items.update", func(d *state) error {
		existing, ok := d.items[item.ID]
		if !ok || existing.TenantID != item.TenantID {
			return nil
		}
		d.items[item.ID] = cloneItem(*item)
		return nil
	})
}

func (r *CatalogRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	var deleted bool
	err := r.s.write(ctx, "items.delete", func(d *state) error {
		if it, ok := d.items[id]; ok && it.TenantID == tenantID {
			delete(d.items, id)
			deleted = true
		}
		return nil
	})
	return deleted, err
}

// Locks are implicit: transactions are serialized by the store.
func (r *CatalogRepository) LockItems(ctx context.Context, tenantID string, ids []string) error {
	return r.s.read("items.lock_all", func(d *state) error { return nil })
}

func (r *CatalogRepository) LockItem(ctx context.Context, tenantID, id string) (*model.Item, error) {
	var found *model.Item
	err := r.s.read("items.lock", func(d *state) error {
		if it, ok := d.items[id]; ok && it.TenantID == tenantID {
			it = cloneItem(it)
			found = &it
		}
		return nil
	})
	return found, err
}

func (r *CatalogRepository) LockVariant(ctx context.Context, itemID, name string) (*model.ItemVariant, error) {
	var found *model.ItemVariant
	err := r.s.read("item_variants.lock", func(d *state) error {
		for _, v := range d.items[itemID].Variants {
			if v.Name == name {
				v := v
				found = &v
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *CatalogRepository) LockExtras(ctx context.Context, itemID string, names []string) ([]model.ItemExtra, error) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []model.ItemExtra
	err := r.s.read("item_extras.lock", func(d *state) error {
		for _, e := range d.items[itemID].Extras {
			if _, ok := want[e.Name]; ok {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepository) DecrementItemStock(ctx context.Context, itemID string, qty float64) (float64, error) {
	var remaining float64
	err := r.s.write(ctx, "items.decrement", func(d *state) error {
		it, ok := d.items[itemID]
		if !ok || it.Stock < qty {
			return catalog.ErrStockGuard
		}
		it.Stock -= qty
		d.items[itemID] = it
		remaining = it.Stock
		return nil
	})
	return remaining, err
}

func (r *CatalogRepository) DecrementVariantStock(ctx context.Context, variantID string, qty int) (int, error) {
	var remaining int
	err := r.s.write(ctx, "item_variants.decrement", func(d *state) error {
		for id, it := range d.items {
			for i, v := range it.Variants {
				if v.ID != variantID {
					continue
				}
				if v.Stock < qty {
					return catalog.ErrStockGuard
				}
				it = cloneItem(it)
				it.Variants[i].Stock -= qty
				d.items[id] = it
				remaining = it.Variants[i].Stock
				return nil
			}
		}
		return catalog.ErrStockGuard
	})
	return remaining, err
}

func (r *CatalogRepository) DecrementExtraStock(ctx context.Context, extraID string, qty int) (int, error) {
	var remaining int
	err := r.s.write(ctx, "item_extras.decrement", func(d *state) error {
		for id, it := range d.items {
			for i, e := range it.Extras {
				if e.ID != extraID {
					continue
				}
				if e.Stock < qty {
					return catalog.ErrStockGuard
				}
				it = cloneItem(it)
				it.Extras[i].Stock -= qty
				d.items[id] = it
				remaining = it.Extras[i].Stock
				return nil
			}
		}
		return catalog.ErrStockGuard
	})
	return remaining, err
}

func (r *CatalogRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	return r.s.write(ctx, "stock_movements.insert", func(d *state) error {
		d.movements = append(d.movements, *m)
		return nil
	})
}

func (r *CatalogRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var out []model.StockMovement
	err := r.s.read("stock_movements.list", func(d *state) error {
		for i := len(d.movements) - 1; i >= 0; i-- {
			m := d.movements[i]
			if m.TenantID != f.TenantID || (f.ItemID != "" && m.ItemID != f.ItemID) {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	total := len(out)
	return paginate(out, f.Page, f.PageSize), total, nil
}
