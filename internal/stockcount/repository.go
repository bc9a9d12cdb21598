package stockcount

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindOne(ctx context.Context, storeID, id uuid.UUID) (*Record, error)
	List(ctx context.Context, storeID uuid.UUID, req ListRequest) ([]Summary, int, error)
}

// TxRepository exposes the write operations that compose one atomic unit.
type TxRepository interface {
	InsertRecord(ctx context.Context, rec Record) error
	ItemKeys(ctx context.Context, recordID uuid.UUID) ([]uuid.UUID, error)
	UpsertItem(ctx context.Context, item Item) error
	DeleteItemsByKeys(ctx context.Context, recordID uuid.UUID, keys []uuid.UUID) error
	UpdateHeader(ctx context.Context, recordID uuid.UUID, status Status) error
	SetVerified(ctx context.Context, recordID uuid.UUID, at time.Time) error
	DeleteItems(ctx context.Context, recordID uuid.UUID) error
	DeleteRecord(ctx context.Context, recordID uuid.UUID) error
}

// ListRequest filters and orders a stock count listing.
type ListRequest struct {
	Status  *Status
	Search  string
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
	SortBy  string
	SortDir string
}

// Summary is a listing row: header fields plus joined display data.
type Summary struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	StoreID         uuid.UUID  `json:"store_id"`
	Status          Status     `json:"status"`
	PerformedBy     uuid.UUID  `json:"performed_by"`
	PerformedByName string     `json:"performed_by_name"`
	ItemCount       int        `json:"item_count"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ErrRecordNotFound is the repository-level miss; the service maps it onto
// the shared taxonomy.
var ErrRecordNotFound = errors.New("stockcount: record not found")

// Repository persists stock counts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction. Any
// error rolls the whole unit back; a half-applied item set never commits.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindOne fetches header plus items, scoped to the store. A record owned by
// another store is indistinguishable from a missing one.
func (r *Repository) FindOne(ctx context.Context, storeID, id uuid.UUID) (*Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `SELECT id, code, store_id, status, performed_by, verified_at, created_at, updated_at
FROM stock_counts WHERE id = $1 AND store_id = $2`, id, storeID).
		Scan(&rec.ID, &rec.Code, &rec.StoreID, &rec.Status, &rec.PerformedBy, &rec.VerifiedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT i.id, i.stock_count_id, i.catalog_item_id, c.sku, c.name, c.unit, i.expected_quantity, i.actual_quantity, i.notes
FROM stock_count_items i
JOIN catalog_items c ON c.id = i.catalog_item_id
WHERE i.stock_count_id = $1
ORDER BY c.sku ASC`, rec.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.RecordID, &item.CatalogItemID, &item.SKU, &item.Name, &item.Unit, &item.ExpectedQuantity, &item.ActualQuantity, &item.Notes); err != nil {
			return nil, err
		}
		rec.Items = append(rec.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns a filtered page of summaries. Sorting by the performer's
// display name needs the users join, so the query is built dynamically.
func (r *Repository) List(ctx context.Context, storeID uuid.UUID, req ListRequest) ([]Summary, int, error) {
	base := sq.Select().
		From("stock_counts sc").
		Join("users u ON u.id = sc.performed_by").
		Where(sq.Eq{"sc.store_id": storeID}).
		PlaceholderFormat(sq.Dollar)

	if req.Status != nil {
		base = base.Where(sq.Eq{"sc.status": *req.Status})
	}
	if req.Search != "" {
		base = base.Where("sc.code ILIKE ?", "%"+req.Search+"%")
	}
	if !req.From.IsZero() {
		base = base.Where(sq.GtOrEq{"sc.created_at": req.From})
	}
	if !req.To.IsZero() {
		base = base.Where(sq.LtOrEq{"sc.created_at": req.To})
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("stockcount: build count query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	listSQL, listArgs, err := base.Columns(
		"sc.id", "sc.code", "sc.store_id", "sc.status", "sc.performed_by",
		"u.full_name AS performed_by_name",
		"(SELECT COUNT(*) FROM stock_count_items i WHERE i.stock_count_id = sc.id) AS item_count",
		"sc.verified_at", "sc.created_at", "sc.updated_at",
	).
		OrderBy(sortClause(req.SortBy, req.SortDir)).
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("stockcount: build list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Code, &s.StoreID, &s.Status, &s.PerformedBy, &s.PerformedByName, &s.ItemCount, &s.VerifiedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

var sortColumns = map[string]string{
	"code":              "sc.code",
	"status":            "sc.status",
	"created_at":        "sc.created_at",
	"updated_at":        "sc.updated_at",
	"performed_by_name": "u.full_name",
}

func sortClause(sortBy, sortDir string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "sc.created_at"
	}
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	return column + " " + dir
}

func (r *txRepo) InsertRecord(ctx context.Context, rec Record) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_counts (id, code, store_id, status, performed_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`, rec.ID, rec.Code, rec.StoreID, string(rec.Status), rec.PerformedBy)
	return err
}

func (r *txRepo) ItemKeys(ctx context.Context, recordID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.tx.Query(ctx, `SELECT catalog_item_id FROM stock_count_items WHERE stock_count_id = $1`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []uuid.UUID
	for rows.Next() {
		var key uuid.UUID
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *txRepo) UpsertItem(ctx context.Context, item Item) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_count_items (id, stock_count_id, catalog_item_id, expected_quantity, actual_quantity, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (stock_count_id, catalog_item_id) DO UPDATE
SET expected_quantity = EXCLUDED.expected_quantity,
    actual_quantity = EXCLUDED.actual_quantity,
    notes = EXCLUDED.notes,
    updated_at = NOW()`,
		item.ID, item.RecordID, item.CatalogItemID, item.ExpectedQuantity, item.ActualQuantity, item.Notes)
	return err
}

func (r *txRepo) DeleteItemsByKeys(ctx context.Context, recordID uuid.UUID, keys []uuid.UUID) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `DELETE FROM stock_count_items WHERE stock_count_id = $1 AND catalog_item_id = ANY($2)`, recordID, keys)
	return err
}

func (r *txRepo) UpdateHeader(ctx context.Context, recordID uuid.UUID, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_counts SET status = $2, updated_at = NOW() WHERE id = $1`, recordID, string(status))
	return err
}

func (r *txRepo) SetVerified(ctx context.Context, recordID uuid.UUID, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_counts SET status = $2, verified_at = $3, updated_at = NOW() WHERE id = $1`,
		recordID, string(StatusVerified), at)
	return err
}

func (r *txRepo) DeleteItems(ctx context.Context, recordID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM stock_count_items WHERE stock_count_id = $1`, recordID)
	return err
}

func (r *txRepo) DeleteRecord(ctx context.Context, recordID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM stock_counts WHERE id = $1`, recordID)
	return err
}

// Counters is the PostgreSQL-backed CounterStore. Increments run outside the
// caller's transaction: an aborted create leaves a gap in the sequence,
// which is acceptable, instead of holding a row lock for the whole create.
type Counters struct {
	pool *pgxpool.Pool
}

// NewCounters constructs Counters.
func NewCounters(pool *pgxpool.Pool) *Counters {
	return &Counters{pool: pool}
}

// Increment atomically bumps and returns the counter for a prefix. The
// upsert takes a row lock, so concurrent callers serialize and each observes
// a distinct value.
func (c *Counters) Increment(ctx context.Context, prefix string) (int64, error) {
	var value int64
	err := c.pool.QueryRow(ctx, `INSERT INTO document_counters (prefix, last_value) VALUES ($1, 1)
ON CONFLICT (prefix) DO UPDATE SET last_value = document_counters.last_value + 1
RETURNING last_value`, prefix).Scan(&value)
	return value, err
}

// Current reads the last issued value without consuming one.
func (c *Counters) Current(ctx context.Context, prefix string) (int64, error) {
	var value int64
	err := c.pool.QueryRow(ctx, `SELECT last_value FROM document_counters WHERE prefix = $1`, prefix).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return value, nil
}

// Cleanup drops counters whose prefix is not the current day, keeping the
// table from growing one row per day forever.
func (c *Counters) Cleanup(ctx context.Context, today string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM document_counters WHERE prefix <> $1`, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsCodeCollision reports whether err is the unique violation raised when
// two writers race to the same document code.
func IsCodeCollision(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "stock_counts_code_key"
	}
	return false
}
