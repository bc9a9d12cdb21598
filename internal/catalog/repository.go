package catalog

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads catalog items from PostgreSQL.
type Repository interface {
	GetByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]Item, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]Item, error)
	List(ctx context.Context, storeID uuid.UUID, filters ListFilters) ([]Item, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, store_id, sku, name, unit, quantity_on_hand, is_active, created_at, updated_at`

// GetByIDs returns only items that belong to the given store. Requested ids
// from other stores are silently absent from the result.
func (r *repository) GetByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE store_id = $1 AND id = ANY($2)`, storeID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListByStore returns every active item of a store, ordered by SKU.
func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE store_id = $1 AND is_active ORDER BY sku ASC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *repository) List(ctx context.Context, storeID uuid.UUID, filters ListFilters) ([]Item, int, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE store_id = $1`
	countQuery := `SELECT COUNT(*) FROM catalog_items WHERE store_id = $1`
	args := []interface{}{storeID}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (sku ILIKE $` + strconv.Itoa(len(args)) + ` OR name ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		cond := ` AND is_active = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query += ` ORDER BY sku ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanItems(rows pgxRows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.StoreID, &it.SKU, &it.Name, &it.Unit, &it.QuantityOnHand, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
