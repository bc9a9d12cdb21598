package stores

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai/internal/shared"
)

type fakeRepo struct {
	stores map[uuid.UUID]Store
	calls  int
}

func (r *fakeRepo) Get(ctx context.Context, id uuid.UUID) (Store, error) {
	r.calls++
	s, ok := r.stores[id]
	if !ok {
		return Store{}, shared.ErrNotFound
	}
	return s, nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestResolverCachesLookups(t *testing.T) {
	active := Store{ID: uuid.New(), Name: "Toko Sumber Rejeki", IsActive: true}
	repo := &fakeRepo{stores: map[uuid.UUID]Store{active.ID: active}}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute)

	got, err := resolver.Resolve(context.Background(), active.ID)
	require.NoError(t, err)
	require.Equal(t, active, got)
	require.Equal(t, 1, repo.calls)

	got, err = resolver.Resolve(context.Background(), active.ID)
	require.NoError(t, err)
	require.Equal(t, active, got)
	require.Equal(t, 1, repo.calls, "second lookup should hit the cache")
}

func TestResolverRejectsInactive(t *testing.T) {
	inactive := Store{ID: uuid.New(), Name: "Closed", IsActive: false}
	repo := &fakeRepo{stores: map[uuid.UUID]Store{inactive.ID: inactive}}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute)

	_, err := resolver.Resolve(context.Background(), inactive.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// The cached entry must also resolve to not found.
	_, err = resolver.Resolve(context.Background(), inactive.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolverUnknownStore(t *testing.T) {
	repo := &fakeRepo{stores: map[uuid.UUID]Store{}}
	resolver := NewResolver(repo, newTestRedis(t), time.Minute)

	_, err := resolver.Resolve(context.Background(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolverWorksWithoutRedis(t *testing.T) {
	active := Store{ID: uuid.New(), Name: "No Cache", IsActive: true}
	repo := &fakeRepo{stores: map[uuid.UUID]Store{active.ID: active}}
	resolver := NewResolver(repo, nil, time.Minute)

	got, err := resolver.Resolve(context.Background(), active.ID)
	require.NoError(t, err)
	require.Equal(t, active, got)
}
