package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai/internal/shared"
	"github.com/gerai-erp/gerai/internal/stores"
)

type staticStoreRepo struct {
	stores map[uuid.UUID]stores.Store
}

func (r *staticStoreRepo) Get(ctx context.Context, id uuid.UUID) (stores.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return stores.Store{}, shared.ErrNotFound
	}
	return s, nil
}

func newTenantHandler(t *testing.T, active stores.Store) http.Handler {
	t.Helper()
	resolver := stores.NewResolver(&staticStoreRepo{stores: map[uuid.UUID]stores.Store{active.ID: active}}, nil, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var captured http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := shared.StoreFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, active.ID, storeID)
		_, ok = shared.ActorFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})
	return TenantScope(resolver, logger)(captured)
}

func TestTenantScopeResolvesHeaders(t *testing.T) {
	active := stores.Store{ID: uuid.New(), Name: "Toko Maju", IsActive: true}
	handler := newTenantHandler(t, active)

	req := httptest.NewRequest(http.MethodGet, "/stock-counts", nil)
	req.Header.Set(HeaderStoreID, active.ID.String())
	req.Header.Set(HeaderUserID, uuid.NewString())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantScopeMissingHeaders(t *testing.T) {
	active := stores.Store{ID: uuid.New(), IsActive: true}
	handler := newTenantHandler(t, active)

	req := httptest.NewRequest(http.MethodGet, "/stock-counts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/stock-counts", nil)
	req.Header.Set(HeaderStoreID, active.ID.String())
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantScopeUnknownStore(t *testing.T) {
	active := stores.Store{ID: uuid.New(), IsActive: true}
	handler := newTenantHandler(t, active)

	req := httptest.NewRequest(http.MethodGet, "/stock-counts", nil)
	req.Header.Set(HeaderStoreID, uuid.NewString())
	req.Header.Set(HeaderUserID, uuid.NewString())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantScopeInactiveStore(t *testing.T) {
	inactive := stores.Store{ID: uuid.New(), IsActive: false}
	resolver := stores.NewResolver(&staticStoreRepo{stores: map[uuid.UUID]stores.Store{inactive.ID: inactive}}, nil, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := TenantScope(resolver, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/stock-counts", nil)
	req.Header.Set(HeaderStoreID, inactive.ID.String())
	req.Header.Set(HeaderUserID, uuid.NewString())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
