package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, tenant_id, customer_name, address, appointment_at, notes, total_amount,
        delivery_type, delivery_cost, status, created_at, updated_at`

const orderItemColumns = `id, order_id, item_id, item_name, variant_name, extras_summary, quantity,
        unit_price, extras_price, line_total, position`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	ex := postgres.Executor(ctx, r.DB)

	query := `
        INSERT INTO orders (
            id, tenant_id, customer_name, address, appointment_at, notes, total_amount,
            delivery_type, delivery_cost, status, created_at, updated_at
        )
        VALUES (
            :id, :tenant_id, :customer_name, :address, :appointment_at, :notes, :total_amount,
            :delivery_type, :delivery_cost, :status, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ex, query, o); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	lineQuery := `
        INSERT INTO order_items (
            id, order_id, item_id, item_name, variant_name, extras_summary, quantity,
            unit_price, extras_price, line_total, position
        )
        VALUES (
            :id, :order_id, :item_id, :item_name, :variant_name, :extras_summary, :quantity,
            :unit_price, :extras_price, :line_total, :position
        )
    `
	for i := range o.Items {
		if _, err := sqlx.NamedExecContext(ctx, ex, lineQuery, &o.Items[i]); err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Order, error) {
	ex := postgres.Executor(ctx, r.DB)

	var o model.Order
	err := sqlx.GetContext(ctx, ex, &o, `SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	orders := []model.Order{o}
	if err := r.loadItems(ctx, ex, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, error) {
	ex := postgres.Executor(ctx, r.DB)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1`
	args := []interface{}{f.TenantID}
	if f.Status != "" {
		query += ` AND status = $2`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC`

	orders := []model.Order{}
	if err := sqlx.SelectContext(ctx, ex, &orders, query, args...); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, ex, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PGRepository) loadItems(ctx context.Context, ex sqlx.ExtContext, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	query, args, err := sqlx.In(`SELECT `+orderItemColumns+` FROM order_items WHERE order_id IN (?) ORDER BY position`, ids)
	if err != nil {
		return err
	}
	var lines []model.OrderItem
	if err := sqlx.SelectContext(ctx, ex, &lines, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	for _, l := range lines {
		i := index[l.OrderID]
		orders[i].Items = append(orders[i].Items, l)
	}
	return nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tenantID, id string, from, to model.OrderStatus) (bool, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `
        UPDATE orders SET status = $1, updated_at = NOW()
        WHERE tenant_id = $2 AND id = $3 AND status = $4
    `, to, tenantID, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) ListAppointments(ctx context.Context, w *dto.AppointmentWindow) ([]time.Time, error) {
	var times []time.Time
	err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &times, `
        SELECT appointment_at FROM orders
        WHERE tenant_id = $1
          AND appointment_at >= $2 AND appointment_at < $3
          AND status <> 'cancelled'
        ORDER BY appointment_at
    `, w.TenantID, w.From, w.To)
	return times, err
}

func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &n, `SELECT count(*) FROM orders`)
	return n, err
}
