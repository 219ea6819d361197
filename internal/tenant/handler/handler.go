package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// StorefrontHandler serves the public page of a business: profile and menu.
type StorefrontHandler struct {
	tenants tenant.UseCase
	catalog catalog.UseCase
	logger  logger.ZapLogger
}

func NewStorefrontHandler(tenants tenant.UseCase, catalog catalog.UseCase, log logger.ZapLogger) *StorefrontHandler {
	return &StorefrontHandler{
		tenants: tenants,
		catalog: catalog,
		logger:  log,
	}
}

type storefrontResponse struct {
	Business *model.Tenant `json:"business"`
	Items    []model.Item  `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
}

// GetStorefront handles GET /api/v1/public/{slug}.
func (h *StorefrontHandler) GetStorefront(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenants.GetPublicProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}

	page := httpx.QueryInt(r, "page", 1)
	items, total, err := h.catalog.ListPublicItems(r.Context(), t.ID, page, httpx.QueryInt(r, "page_size", 50))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	httpx.RespondJSON(w, http.StatusOK, storefrontResponse{
		Business: t,
		Items:    items,
		Total:    total,
		Page:     page,
	})
}
