package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventCreditsAdjusted = "CreditsAdjusted"

	dedupeTTL = 7 * 24 * time.Hour
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Deduper remembers processed event ids.
type Deduper interface {
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// WalletListener applies credit adjustments published by the billing tool.
type WalletListener struct {
	consumer MessageReader
	uc       wallet.UseCase
	dedupe   Deduper
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewWalletListener(consumer MessageReader, uc wallet.UseCase, dedupe Deduper, logger logger.ZapLogger) *WalletListener {
	return &WalletListener{
		consumer: consumer,
		uc:       uc,
		dedupe:   dedupe,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *WalletListener) Start(ctx context.Context) {
	l.logger.Info("Starting Wallet Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Wallet Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type CreditsAdjustedEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   CreditsPayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type CreditsPayload struct {
	TenantID string          `json:"tenant_id"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

func (l *WalletListener) processMessage(ctx context.Context, value []byte) {
	var event CreditsAdjustedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventCreditsAdjusted {
		return
	}
	if event.EventID == "" {
		l.logger.Warn("Dropping credits event without event_id", zap.String("tenant_id", event.Payload.TenantID))
		return
	}

	key := "wallet:evt:" + event.EventID
	if l.dedupe != nil {
		seen, err := l.dedupe.Seen(ctx, key, dedupeTTL)
		if err != nil {
			// at-least-once is preferable to losing a top-up
			l.logger.Warn("Dedupe store unavailable", zap.String("event_id", event.EventID), zap.Error(err))
		} else if seen {
			l.logger.Debug("Skipping duplicate credits event", zap.String("event_id", event.EventID))
			return
		}
	}

	reason := event.Payload.Reason
	if reason == "" {
		reason = "Credits adjustment"
	}

	res, err := l.uc.ApplyDelta(ctx, &dto.ApplyDeltaInput{
		TenantID: event.Payload.TenantID,
		Amount:   event.Payload.Amount,
		Reason:   reason,
	})
	if err != nil {
		l.logger.Error("Failed to apply credits event",
			zap.String("event_id", event.EventID),
			zap.String("tenant_id", event.Payload.TenantID),
			zap.Error(err),
		)
		if l.dedupe != nil && retryable(err) {
			if delErr := l.dedupe.Delete(ctx, key); delErr != nil {
				l.logger.Warn("Failed to forget event", zap.String("event_id", event.EventID), zap.Error(delErr))
			}
		}
		return
	}

	l.logger.Info("Applied credits event",
		zap.String("event_id", event.EventID),
		zap.String("tenant_id", event.Payload.TenantID),
		zap.String("new_balance", res.NewBalance.String()),
		zap.Bool("tenant_active", res.TenantActive),
	)
}

// retryable reports whether a redelivery of the event could succeed.
func retryable(err error) bool {
	appErr, ok := apperror.As(err)
	if !ok {
		return true
	}
	return appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindContention
}
