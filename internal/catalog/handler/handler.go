package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{
		uc:     uc,
		logger: log,
	}
}

// Routes are mounted under /api/v1/items behind tenant auth.
func (h *CatalogHandler) Routes(r chi.Router) {
	r.Get("/", h.ListItems)
	r.Post("/", h.CreateItem)
	r.Get("/{id}", h.GetItem)
	r.Put("/{id}", h.UpdateItem)
	r.Delete("/{id}", h.DeleteItem)
	r.Get("/{id}/movements", h.ListMovements)
}

func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	input.TenantID = auth.GetTenantID(r.Context())

	item, err := h.uc.CreateItem(r.Context(), &input)
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, item)
}

func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.uc.GetItem(r.Context(), auth.GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	filters := &dto.ItemFilters{
		TenantID:    auth.GetTenantID(r.Context()),
		SearchQuery: r.URL.Query().Get("search"),
		Page:        httpx.QueryInt(r, "page", 1),
		PageSize:    httpx.QueryInt(r, "page_size", 20),
	}
	if raw := r.URL.Query().Get("is_service"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filters.IsService = &v
		}
	}

	items, total, err := h.uc.ListItems(r.Context(), filters)
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"items": items, "total": total})
}

func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var input dto.UpdateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	input.ID = chi.URLParam(r, "id")
	input.TenantID = auth.GetTenantID(r.Context())

	item, err := h.uc.UpdateItem(r.Context(), &input)
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteItem(r.Context(), auth.GetTenantID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements, total, err := h.uc.ListMovements(r.Context(), &dto.MovementFilters{
		TenantID: auth.GetTenantID(r.Context()),
		ItemID:   chi.URLParam(r, "id"),
		Page:     httpx.QueryInt(r, "page", 1),
		PageSize: httpx.QueryInt(r, "page_size", 50),
	})
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"movements": movements, "total": total})
}
