package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type WalletHandler struct {
	uc     wallet.UseCase
	logger logger.ZapLogger
}

func NewWalletHandler(uc wallet.UseCase, log logger.ZapLogger) *WalletHandler {
	return &WalletHandler{uc: uc, logger: log}
}

// Routes are mounted under /api/v1/wallet behind tenant auth.
func (h *WalletHandler) Routes(r chi.Router) {
	r.Get("/", h.GetWallet)
	r.Get("/transactions", h.ListTransactions)
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wl, err := h.uc.GetWallet(r.Context(), auth.GetTenantID(r.Context()))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, wl)
}

func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, total, err := h.uc.ListTransactions(r.Context(), &dto.TransactionFilters{
		TenantID: auth.GetTenantID(r.Context()),
		Page:     httpx.QueryInt(r, "page", 1),
		PageSize: httpx.QueryInt(r, "page_size", 20),
	})
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs, "total": total})
}
