package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
)

var _ order.Repository = (*OrderRepository)(nil)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.s.write(ctx, "orders.create", func(d *state) error {
		cp := *o
		cp.Items = append([]model.OrderItem(nil), o.Items...)
		d.orders[o.ID] = cp
		return nil
	})
}

func (r *OrderRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Order, error) {
	var found *model.Order
	err := r.s.read("orders.find", func(d *state) error {
		if o, ok := d.orders[id]; ok && o.TenantID == tenantID {
			o.Items = append([]model.OrderItem{}, o.Items...)
			found = &o
		}
		return nil
	})
	return found, err
}

func (r *OrderRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, error) {
	out := []model.Order{}
	err := r.s.read("orders.list", func(d *state) error {
		for _, o := range d.orders {
			if o.TenantID != f.TenantID || (f.Status != "" && o.Status != f.Status) {
				continue
			}
			o.Items = append([]model.OrderItem{}, o.Items...)
			out = append(out, o)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tenantID, id string, from, to model.OrderStatus) (bool, error) {
	var updated bool
	err := r.s.write(ctx, "orders.update_status", func(d *state) error {
		o, ok := d.orders[id]
		if !ok || o.TenantID != tenantID || o.Status != from {
			return nil
		}
		o.Status = to
		o.UpdatedAt = time.Now()
		d.orders[id] = o
		updated = true
		return nil
	})
	return updated, err
}

func (r *OrderRepository) ListAppointments(ctx context.Context, w *dto.AppointmentWindow) ([]time.Time, error) {
	var out []time.Time
	err := r.s.read("orders.appointments", func(d *state) error {
		for _, o := range d.orders {
			if o.TenantID != w.TenantID || o.AppointmentAt == nil || o.Status == model.OrderStatusCancelled {
				continue
			}
			at := *o.AppointmentAt
			if !at.Before(w.From) && at.Before(w.To) {
				out = append(out, at)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, err
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.read("orders.count", func(d *state) error {
		n = len(d.orders)
		return nil
	})
	return n, err
}
