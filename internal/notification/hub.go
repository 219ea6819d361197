// Package notification fans NEW_ORDER events out to the live dashboards of a tenant.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"go.uber.org/zap"
)

// Conn is one live dashboard connection.
type Conn interface {
	Send(ctx context.Context, msg []byte) error
	Close()
}

// Hub is the registry of live connections per tenant. Delivery is
// at-most-once; nothing is persisted for disconnected dashboards.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[Conn]struct{}

	sendTimeout time.Duration
	logger      logger.ZapLogger
}

func NewHub(sendTimeout time.Duration, log logger.ZapLogger) *Hub {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Hub{
		conns:       make(map[string]map[Conn]struct{}),
		sendTimeout: sendTimeout,
		logger:      log,
	}
}

func (h *Hub) Register(tenantID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[tenantID]
	if !ok {
		set = make(map[Conn]struct{})
		h.conns[tenantID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes c; the tenant entry goes away with its last connection.
func (h *Hub) Unregister(tenantID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[tenantID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, tenantID)
	}
}

func (h *Hub) Count(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[tenantID])
}

func (h *Hub) Tenants() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends msg to every connection of tenantID and returns how many
// accepted it. A failing connection is logged and skipped.
func (h *Hub) Broadcast(ctx context.Context, tenantID string, msg []byte) int {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns[tenantID]))
	for c := range h.conns[tenantID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()

			if err := c.Send(sendCtx, msg); err != nil {
				h.logger.Warn("dashboard send failed", zap.String("tenant_id", tenantID), zap.Error(err))
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return delivered
}
