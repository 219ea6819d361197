package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, tenant_id, name, price, is_service, stock, description, image_url, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Create expects to run inside a transaction so the item and its options land together.
func (r *PGRepository) Create(ctx context.Context, item *model.Item) error {
	ex := postgres.Executor(ctx, r.DB)

	query := `
        INSERT INTO items (
            id, tenant_id, name, price, is_service, stock, description, image_url, created_at, updated_at
        )
        VALUES (
            :id, :tenant_id, :name, :price, :is_service, :stock, :description, :image_url, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ex, query, item); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return r.saveOptions(ctx, ex, item)
}

func (r *PGRepository) saveOptions(ctx context.Context, ex sqlx.ExtContext, item *model.Item) error {
	variantQuery := `
        INSERT INTO item_variants (id, item_id, name, price, stock, sort_order)
        VALUES (:id, :item_id, :name, :price, :stock, :sort_order)
        ON CONFLICT (item_id, name) DO UPDATE SET
            price = EXCLUDED.price,
            stock = EXCLUDED.stock,
            sort_order = EXCLUDED.sort_order
    `
	variantNames := make([]string, 0, len(item.Variants))
	for i := range item.Variants {
		if _, err := sqlx.NamedExecContext(ctx, ex, variantQuery, &item.Variants[i]); err != nil {
			return fmt.Errorf("failed to save variant %q: %w", item.Variants[i].Name, err)
		}
		variantNames = append(variantNames, item.Variants[i].Name)
	}
	if _, err := ex.ExecContext(ctx,
		`DELETE FROM item_variants WHERE item_id = $1 AND name <> ALL($2::text[])`, item.ID, variantNames); err != nil {
		return fmt.Errorf("failed to prune variants: %w", err)
	}

	extraQuery := `
        INSERT INTO item_extras (id, item_id, name, price, stock, sort_order)
        VALUES (:id, :item_id, :name, :price, :stock, :sort_order)
        ON CONFLICT (item_id, name) DO UPDATE SET
            price = EXCLUDED.price,
            stock = EXCLUDED.stock,
            sort_order = EXCLUDED.sort_order
    `
	extraNames := make([]string, 0, len(item.Extras))
	for i := range item.Extras {
		if _, err := sqlx.NamedExecContext(ctx, ex, extraQuery, &item.Extras[i]); err != nil {
			return fmt.Errorf("failed to save extra %q: %w", item.Extras[i].Name, err)
		}
		extraNames = append(extraNames, item.Extras[i].Name)
	}
	if _, err := ex.ExecContext(ctx,
		`DELETE FROM item_extras WHERE item_id = $1 AND name <> ALL($2::text[])`, item.ID, extraNames); err != nil {
		return fmt.Errorf("failed to prune extras: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Item, error) {
	return r.getItem(ctx, `SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *PGRepository) getItem(ctx context.Context, query, tenantID, id string) (*model.Item, error) {
	ex := postgres.Executor(ctx, r.DB)

	var item model.Item
	err := sqlx.GetContext(ctx, ex, &item, query, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items := []model.Item{item}
	if err := r.loadOptions(ctx, ex, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	ex := postgres.Executor(ctx, r.DB)

	conditions := []string{"tenant_id = :tenant_id"}
	args := map[string]interface{}{"tenant_id": f.TenantID}

	if f.IsService != nil {
		conditions = append(conditions, "is_service = :is_service")
		args["is_service"] = *f.IsService
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR description ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	// Count
	var count int
	countQuery, countArgs, err := ex.BindNamed("SELECT count(*) FROM items"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, ex, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	// List
	query := "SELECT " + itemColumns + " FROM items" + whereClause + " ORDER BY created_at DESC, id"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}
	query, listArgs, err := ex.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}

	items := []model.Item{}
	if err := sqlx.SelectContext(ctx, ex, &items, query, listArgs...); err != nil {
		return nil, 0, err
	}
	if err := r.loadOptions(ctx, ex, items); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

// loadOptions fills Variants and Extras for items with one query per table.
func (r *PGRepository) loadOptions(ctx context.Context, ex sqlx.ExtContext, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].Variants = []model.ItemVariant{}
		items[i].Extras = []model.ItemExtra{}
	}

	query, args, err := sqlx.In(`
        SELECT id, item_id, name, price, stock, sort_order FROM item_variants
        WHERE item_id IN (?) ORDER BY sort_order, name
    `, ids)
	if err != nil {
		return err
	}
	var variants []model.ItemVariant
	if err := sqlx.SelectContext(ctx, ex, &variants, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}
	for _, v := range variants {
		i := index[v.ItemID]
		items[i].Variants = append(items[i].Variants, v)
	}

	query, args, err = sqlx.In(`
        SELECT id, item_id, name, price, stock, sort_order FROM item_extras
        WHERE item_id IN (?) ORDER BY sort_order, name
    `, ids)
	if err != nil {
		return err
	}
	var extras []model.ItemExtra
	if err := sqlx.SelectContext(ctx, ex, &extras, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load extras: %w", err)
	}
	for _, e := range extras {
		i := index[e.ItemID]
		items[i].Extras = append(items[i].Extras, e)
	}
	return nil
}

// Update rewrites the item row and reconciles variants and extras by name.
func (r *PGRepository) Update(ctx context.Context, item *model.Item) error {
	ex := postgres.Executor(ctx, r.DB)

	query := `
        UPDATE items
        SET name = :name,
            price = :price,
            is_service = :is_service,
            stock = :stock,
            description = :description,
            image_url = :image_url,
            updated_at = :updated_at
        WHERE id = :id AND tenant_id = :tenant_id
    `
	if _, err := sqlx.NamedExecContext(ctx, ex, query, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return r.saveOptions(ctx, ex, item)
}

func (r *PGRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) LockItems(ctx context.Context, tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	query, args, err := sqlx.In(`
        SELECT id FROM items
        WHERE tenant_id = ? AND id IN (?)
        ORDER BY id
        FOR UPDATE
    `, tenantID, sorted)
	if err != nil {
		return err
	}
	ex := postgres.Executor(ctx, r.DB)
	var locked []string
	return sqlx.SelectContext(ctx, ex, &locked, ex.Rebind(query), args...)
}

func (r *PGRepository) LockItem(ctx context.Context, tenantID, id string) (*model.Item, error) {
	var item model.Item
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &item,
		`SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) LockVariant(ctx context.Context, itemID, name string) (*model.ItemVariant, error) {
	var v model.ItemVariant
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &v, `
        SELECT id, item_id, name, price, stock, sort_order FROM item_variants
        WHERE item_id = $1 AND name = $2
        FOR UPDATE
    `, itemID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGRepository) LockExtras(ctx context.Context, itemID string, names []string) ([]model.ItemExtra, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
        SELECT id, item_id, name, price, stock, sort_order FROM item_extras
        WHERE item_id = ? AND name IN (?)
        ORDER BY id
        FOR UPDATE
    `, itemID, names)
	if err != nil {
		return nil, err
	}
	ex := postgres.Executor(ctx, r.DB)
	var extras []model.ItemExtra
	if err := sqlx.SelectContext(ctx, ex, &extras, ex.Rebind(query), args...); err != nil {
		return nil, err
	}
	return extras, nil
}

func (r *PGRepository) DecrementItemStock(ctx context.Context, itemID string, qty float64) (float64, error) {
	var remaining float64
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &remaining, `
        UPDATE items SET stock = stock - $1, updated_at = NOW()
        WHERE id = $2 AND stock >= $1
        RETURNING stock
    `, qty, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, catalog.ErrStockGuard
	}
	return remaining, err
}

func (r *PGRepository) DecrementVariantStock(ctx context.Context, variantID string, qty int) (int, error) {
	return r.decrementOption(ctx, "item_variants", variantID, qty)
}

func (r *PGRepository) DecrementExtraStock(ctx context.Context, extraID string, qty int) (int, error) {
	return r.decrementOption(ctx, "item_extras", extraID, qty)
}

func (r *PGRepository) decrementOption(ctx context.Context, table, id string, qty int) (int, error) {
	var remaining int
	query := fmt.Sprintf(`UPDATE %s SET stock = stock - $1 WHERE id = $2 AND stock >= $1 RETURNING stock`, table)
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &remaining, query, qty, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, catalog.ErrStockGuard
	}
	return remaining, err
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, tenant_id, item_id, pool, pool_id,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, created_at
        )
        VALUES (
            :id, :tenant_id, :item_id, :pool, :pool_id,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	ex := postgres.Executor(ctx, r.DB)

	conditions := []string{"tenant_id = :tenant_id"}
	args := map[string]interface{}{"tenant_id": f.TenantID}
	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := ex.BindNamed("SELECT count(*) FROM stock_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, ex, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, tenant_id, item_id, pool, pool_id, quantity_change, quantity_before,
        quantity_after, reference_type, reference_id, created_at
        FROM stock_movements` + whereClause + " ORDER BY created_at DESC, id"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}
	query, listArgs, err := ex.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}

	movements := []model.StockMovement{}
	err = sqlx.SelectContext(ctx, ex, &movements, query, listArgs...)
	return movements, count, err
}
