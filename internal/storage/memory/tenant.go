package memory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
)

var _ tenant.Repository = (*TenantRepository)(nil)

type TenantRepository struct {
	s *Store
}

func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant, w *model.Wallet) error {
	return r.s.write(ctx, "tenants.create", func(d *state) error {
		for _, existing := range d.tenants {
			if existing.Slug == t.Slug {
				return apperror.ErrSlugTaken
			}
		}
		d.tenants[t.ID] = *t
		d.wallets[t.ID] = *w
		return nil
	})
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	return r.find("tenants.find", func(t model.Tenant) bool { return t.ID == id })
}

func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	return r.find("tenants.find", func(t model.Tenant) bool { return t.Slug == slug })
}

func (r *TenantRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Tenant, error) {
	return r.find("tenants.lock", func(t model.Tenant) bool { return t.ID == id })
}

func (r *TenantRepository) find(op string, match func(model.Tenant) bool) (*model.Tenant, error) {
	var found *model.Tenant
	err := r.s.read(op, func(d *state) error {
		for _, t := range d.tenants {
			if match(t) {
				t := t
				found = &t
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *TenantRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.s.write(ctx, "tenants.set_active", func(d *state) error {
		t, ok := d.tenants[id]
		if !ok {
			return nil
		}
		t.IsActive = active
		t.UpdatedAt = time.Now()
		d.tenants[id] = t
		return nil
	})
}

func (r *TenantRepository) Count(ctx context.Context) (int, int, error) {
	var total, active int
	err := r.s.read("tenants.count", func(d *state) error {
		for _, t := range d.tenants {
			total++
			if t.IsActive {
				active++
			}
		}
		return nil
	})
	return total, active, err
}
