package stockcount

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gerai-erp/gerai/internal/platform/httpx"
	"github.com/gerai-erp/gerai/internal/shared"
)

// Handler wires stock count HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs stock count handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock count routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{ref}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/verify", h.verify)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	storeID, ok := shared.StoreFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Missing Store", "store header not resolved")
		return
	}

	q := r.URL.Query()
	req := ListRequest{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if v := q.Get("status"); v != "" {
		status := Status(v)
		if !status.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+v)
			return
		}
		req.Status = &status
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	summaries, pagination, err := h.service.FindAll(r.Context(), storeID, req)
	if err != nil {
		h.logger.Error("list stock counts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{StockCounts: summaries, Pagination: pagination})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	storeID, userID, ok := requestScope(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items, err := req.toInputs()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	rec, err := h.service.Create(r.Context(), CreateInput{
		StoreID:     storeID,
		PerformedBy: userID,
		Items:       items,
		PublishNow:  req.PublishNow,
	})
	if err != nil {
		h.logger.Error("create stock count", slog.Any("error", err), slog.String("store_id", storeID.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	storeID, userID, ok := requestScope(w, r)
	if !ok {
		return
	}

	result, err := h.service.FindOne(r.Context(), storeID, userID, chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if result.Preview != nil {
		httpx.JSON(w, http.StatusOK, toPreviewResponse(result.Preview))
		return
	}
	httpx.JSON(w, http.StatusOK, toRecordResponse(result.Record))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	storeID, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, ErrInvalidID)
		return
	}

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items, err := req.toInputs()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	rec, err := h.service.Update(r.Context(), UpdateInput{
		StoreID:    storeID,
		RecordID:   id,
		Items:      items,
		PublishNow: req.PublishNow,
	})
	if err != nil {
		h.logger.Error("update stock count", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	storeID, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, ErrInvalidID)
		return
	}

	if err := h.service.Remove(r.Context(), storeID, id); err != nil {
		h.logger.Error("remove stock count", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	storeID, _, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, ErrInvalidID)
		return
	}

	rec, err := h.service.Verify(r.Context(), storeID, id)
	if err != nil {
		h.logger.Error("verify stock count", slog.Any("error", err), slog.String("id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRecordResponse(rec))
}

func requestScope(w http.ResponseWriter, r *http.Request) (storeID, userID uuid.UUID, ok bool) {
	storeID, ok = shared.StoreFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Missing Store", "store header not resolved")
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok = shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Missing Actor", "user header not resolved")
		return uuid.Nil, uuid.Nil, false
	}
	return storeID, userID, true
}
