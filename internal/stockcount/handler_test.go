package stockcount

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai/internal/shared"
)

func newTestRouter(f *fixture) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.service)
	r := chi.NewRouter()
	r.Route("/stock-counts", handler.MountRoutes)
	return r
}

func scopedRequest(f *fixture, method, target string, body []byte) *http.Request {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := shared.ContextWithStore(req.Context(), f.storeID)
	ctx = shared.ContextWithActor(ctx, f.userID)
	return req.WithContext(ctx)
}

func TestHandlerCreate(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	body := fmt.Sprintf(`{"items":[{"catalog_item_id":%q,"actual_quantity":8}]}`, f.itemA.ID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodPost, "/stock-counts", []byte(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp recordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "STO-20260831-0001", resp.Code)
	require.Equal(t, StatusDraft, resp.Status)
	require.Len(t, resp.Items, 1)
	require.InDelta(t, -2, resp.Items[0].VarianceQuantity, 0.0001)
}

func TestHandlerCreateValidation(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	cases := []struct {
		name string
		body string
	}{
		{"empty items", `{"items":[]}`},
		{"negative quantity", fmt.Sprintf(`{"items":[{"catalog_item_id":%q,"actual_quantity":-1}]}`, f.itemA.ID)},
		{"malformed id", `{"items":[{"catalog_item_id":"nope","actual_quantity":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, scopedRequest(f, http.MethodPost, "/stock-counts", []byte(tc.body)))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlerShowPreview(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodGet, "/stock-counts/new", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["preview"])
	require.NotContains(t, resp, "id")
	require.Len(t, resp["items"], 3)
}

func TestHandlerShowRecord(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	created := f.create(t, false, ItemInput{CatalogItemID: f.itemA.ID, ActualQuantity: 3})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodGet, "/stock-counts/"+created.ID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp recordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, created.ID, resp.ID)
}

func TestHandlerShowMissing(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodGet, "/stock-counts/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodGet, "/stock-counts/gibberish", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerVerifyThenUpdateConflicts(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	created := f.create(t, true, ItemInput{CatalogItemID: f.itemA.ID, ActualQuantity: 3})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodPost, "/stock-counts/"+created.ID.String()+"/verify", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := fmt.Sprintf(`{"items":[{"catalog_item_id":%q,"actual_quantity":4}]}`, f.itemA.ID)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodPut, "/stock-counts/"+created.ID.String(), []byte(body)))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodDelete, "/stock-counts/"+created.ID.String(), nil))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRemove(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	created := f.create(t, false, ItemInput{CatalogItemID: f.itemA.ID, ActualQuantity: 3})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodDelete, "/stock-counts/"+created.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlerList(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	f.create(t, false, ItemInput{CatalogItemID: f.itemA.ID, ActualQuantity: 1})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodGet, "/stock-counts?page=1&per_page=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.StockCounts, 1)
	require.Equal(t, 1, resp.Pagination.Total)
}

func TestHandlerListRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scopedRequest(f, http.MethodGet, "/stock-counts?status=cancelled", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRequiresScope(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/stock-counts", nil)
	req = req.WithContext(context.Background())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
