// Package server assembles the HTTP surface: public storefront, owner
// dashboard API, the dashboard websocket and operational endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	cataloghandler "github.com/fekuna/omnipos-storefront-service/internal/catalog/handler"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	notificationhandler "github.com/fekuna/omnipos-storefront-service/internal/notification/handler"
	orderhandler "github.com/fekuna/omnipos-storefront-service/internal/order/handler"
	posthandler "github.com/fekuna/omnipos-storefront-service/internal/post/handler"
	tenanthandler "github.com/fekuna/omnipos-storefront-service/internal/tenant/handler"
	wallethandler "github.com/fekuna/omnipos-storefront-service/internal/wallet/handler"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Storefront *tenanthandler.StorefrontHandler
	Orders     *orderhandler.OrderHandler
	Catalog    *cataloghandler.CatalogHandler
	Wallet     *wallethandler.WalletHandler
	Posts      *posthandler.PostHandler
	WS         *notificationhandler.WSHandler
}

type Config struct {
	Addr           string
	RequestTimeout time.Duration
}

// NewRouter wires every route. m may be nil, which disables /metrics.
func NewRouter(cfg Config, h Handlers, m *metrics.ServerMetrics, log logger.ZapLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(auth.Middleware)
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// long-lived, so outside the request timeout
	r.Get("/ws/{tenant_id}", h.WS.Serve)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Route("/public/{slug}", func(r chi.Router) {
			r.Get("/", h.Storefront.GetStorefront)
			h.Orders.PublicRoutes(r)
			h.Posts.PublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireTenant)
			r.Route("/orders", h.Orders.OwnerRoutes)
			r.Route("/items", h.Catalog.Routes)
			r.Route("/wallet", h.Wallet.Routes)
			r.Route("/posts", h.Posts.OwnerRoutes)
		})
	})

	return r
}

// NewHTTPServer wraps the router with OpenTelemetry instrumentation.
func NewHTTPServer(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(handler, "storefront-http"),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// RequireTenant rejects owner API calls that reached us without a tenant identity.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetTenantID(r.Context()) == "" {
			httpx.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
