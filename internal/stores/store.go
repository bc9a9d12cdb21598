// Package stores resolves tenant stores for request scoping.
package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gerai-erp/gerai/internal/shared"
)

// Store is a tenant in the back office.
type Store struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// Repository reads stores from PostgreSQL.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Store, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Store, error) {
	var s Store
	err := r.pool.QueryRow(ctx, `SELECT id, name, is_active FROM stores WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, shared.ErrNotFound
		}
		return Store{}, err
	}
	return s, nil
}

// Resolver validates tenant ids on the request hot path. Lookups are cached
// in Redis with a short TTL; a cache failure falls back to the database.
type Resolver struct {
	repo  Repository
	redis *redis.Client
	ttl   time.Duration
}

// NewResolver constructs Resolver.
func NewResolver(repo Repository, client *redis.Client, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{repo: repo, redis: client, ttl: ttl}
}

// Resolve returns the store for id, or shared.ErrNotFound when it does not
// exist or has been deactivated.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (Store, error) {
	key := cacheKey(id)
	if r.redis != nil {
		if raw, err := r.redis.Get(ctx, key).Bytes(); err == nil {
			var s Store
			if err := json.Unmarshal(raw, &s); err == nil {
				if !s.IsActive {
					return Store{}, shared.ErrNotFound
				}
				return s, nil
			}
		}
	}

	s, err := r.repo.Get(ctx, id)
	if err != nil {
		return Store{}, err
	}
	if r.redis != nil {
		if raw, err := json.Marshal(s); err == nil {
			_ = r.redis.Set(ctx, key, raw, r.ttl).Err()
		}
	}
	if !s.IsActive {
		return Store{}, shared.ErrNotFound
	}
	return s, nil
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("stores:%s", id)
}
