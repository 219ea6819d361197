package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests             *prometheus.CounterVec
	LatencyMS            *prometheus.HistogramVec
	OrdersPlaced         *prometheus.CounterVec
	WSConnections        prometheus.Gauge
	NotificationsDropped prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewServerMetrics registers the collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func NewServerMetrics(service string, reg *prometheus.Registry) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipos",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "omnipos",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipos",
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Order placement attempts by outcome.",
	}, []string{"outcome"})
	conns := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "omnipos",
		Subsystem: service,
		Name:      "ws_connections",
		Help:      "Live dashboard websocket connections.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "omnipos",
		Subsystem: service,
		Name:      "notifications_dropped_total",
		Help:      "Order notifications dropped because the dispatch queue was full.",
	})

	reg.MustRegister(requests, latency, orders, conns, dropped)
	return &ServerMetrics{
		Requests:             requests,
		LatencyMS:            latency,
		OrdersPlaced:         orders,
		WSConnections:        conns,
		NotificationsDropped: dropped,
		gatherer:             reg,
	}
}

// Middleware records request count and latency labelled by the chi route pattern.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
