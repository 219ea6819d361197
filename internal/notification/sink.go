package notification

import (
	"context"
	"encoding/json"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

// HubSink pushes the event to the tenant's open dashboards.
type HubSink struct {
	hub *Hub
}

func NewHubSink(hub *Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Deliver(ctx context.Context, event model.OrderEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.hub.Broadcast(ctx, event.TenantID, msg)
	return nil
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, payload interface{}) error
}

// EventOrderPlaced is the event_type downstream consumers of the orders topic match on.
const EventOrderPlaced = "OrderPlaced"

// brokerEvent carries the tenant, which the dashboard payload leaves out.
type brokerEvent struct {
	EventType string `json:"event_type"`
	TenantID  string `json:"tenant_id"`
	model.OrderEvent
}

// BrokerSink publishes the event for downstream consumers, keyed by order id.
type BrokerSink struct {
	publisher Publisher
}

func NewBrokerSink(p Publisher) *BrokerSink {
	return &BrokerSink{publisher: p}
}

func (s *BrokerSink) Name() string { return "kafka" }

func (s *BrokerSink) Deliver(ctx context.Context, event model.OrderEvent) error {
	return s.publisher.PublishJSON(ctx, event.OrderID, brokerEvent{
		EventType:  EventOrderPlaced,
		TenantID:   event.TenantID,
		OrderEvent: event,
	})
}
