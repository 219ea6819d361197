package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	"github.com/fekuna/omnipos-storefront-service/internal/notification"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Config struct {
	// AllowedOrigins empty means any origin.
	AllowedOrigins []string
	// Connections tracks live sockets. Optional.
	Connections prometheus.Gauge
}

type WSHandler struct {
	hub      *notification.Hub
	upgrader websocket.Upgrader
	conns    prometheus.Gauge
	logger   logger.ZapLogger
}

func NewWSHandler(hub *notification.Hub, cfg Config, log logger.ZapLogger) *WSHandler {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		conns:  cfg.Connections,
		logger: log,
	}
}

// Serve handles GET /ws/{tenant_id}. The caller must be authenticated as that tenant.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	caller := auth.GetTenantID(r.Context())
	if caller == "" {
		httpx.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant identity")
		return
	}
	if caller != tenantID {
		httpx.RespondError(w, http.StatusForbidden, "FORBIDDEN", "cannot subscribe to another tenant")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Warn("websocket upgrade failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return
	}

	conn := newConn(ws)
	if h.conns != nil {
		h.conns.Inc()
	}
	h.hub.Register(tenantID, conn)
	h.logger.Debug("dashboard connected", zap.String("tenant_id", tenantID))

	defer func() {
		if h.conns != nil {
			h.conns.Dec()
		}
		h.hub.Unregister(tenantID, conn)
		conn.Close()
		h.logger.Debug("dashboard disconnected", zap.String("tenant_id", tenantID))
	}()

	go conn.pingLoop()
	conn.readLoop()
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws, done: make(chan struct{})}
}

func (c *conn) Send(ctx context.Context, msg []byte) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(deadline)
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

func (c *conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// readLoop discards client frames; it exists to process pongs and notice
// the peer going away.
func (c *conn) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.Close()
				return
			}
		}
	}
}
