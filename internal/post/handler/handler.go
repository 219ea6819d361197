package handler

import (
	"net"
	"net/http"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	"github.com/fekuna/omnipos-storefront-service/internal/post"
	"github.com/fekuna/omnipos-storefront-service/internal/post/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	uc     post.UseCase
	logger logger.ZapLogger
}

func NewPostHandler(uc post.UseCase, log logger.ZapLogger) *PostHandler {
	return &PostHandler{
		uc:     uc,
		logger: log,
	}
}

// PublicRoutes are mounted under /api/v1/public/{slug}.
func (h *PostHandler) PublicRoutes(r chi.Router) {
	r.Get("/feed", h.GetFeed)
	r.Post("/posts/{id}/like", h.ToggleLike)
}

// OwnerRoutes are mounted under /api/v1/posts behind tenant auth.
func (h *PostHandler) OwnerRoutes(r chi.Router) {
	r.Get("/", h.ListMyPosts)
	r.Post("/", h.CreatePost)
	r.Delete("/{id}", h.DeletePost)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input dto.CreatePostInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	input.TenantID = auth.GetTenantID(r.Context())

	res, err := h.uc.CreatePost(r.Context(), &input)
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, res)
}

func (h *PostHandler) ListMyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.uc.ListMyPosts(r.Context(), auth.GetTenantID(r.Context()))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeletePost(r.Context(), auth.GetTenantID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.uc.GetFeed(r.Context(), chi.URLParam(r, "slug"), clientID(r))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"posts": feed})
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.ToggleLike(r.Context(), &dto.ToggleLikeInput{
		Slug:     chi.URLParam(r, "slug"),
		PostID:   chi.URLParam(r, "id"),
		ClientID: clientID(r),
	})
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, res)
}

// clientID identifies an anonymous visitor by address. The router runs
// chi's RealIP first, so proxies are accounted for.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
