package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderSubmitted = "OrderSubmitted"
	EventOrderPaid      = "OrderPaid"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCanceled  = "OrderCanceled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// OrderEventPayload is shared by every lifecycle event; fields that do not apply stay empty.
type OrderEventPayload struct {
	OrderID        string          `json:"order_id"`
	CustomerID     string          `json:"customer_id"`
	SellerID       string          `json:"seller_id"`
	Status         Status          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Reason         string          `json:"reason,omitempty"`
}

// Event pairs an envelope with the topic it is published on.
type Event struct {
	Topic    string
	Envelope Envelope
}

// NewOrderEvent builds a v1 envelope for o, correlated by order id.
func NewOrderEvent(eventType, producer string, o Order, extra func(*OrderEventPayload)) (Event, error) {
	p := OrderEventPayload{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		SellerID:   o.SellerID,
		Status:     o.Status,
		Amount:     o.AmountDue(),
	}
	if extra != nil {
		extra(&p)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	topic, ok := TopicFor(eventType)
	if !ok {
		return Event{}, fmt.Errorf("no topic for event %s", eventType)
	}
	return Event{
		Topic: topic,
		Envelope: Envelope{
			EventID:       uuid.NewString(),
			EventType:     eventType,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      producer,
			CorrelationID: o.ID,
			Payload:       raw,
		},
	}, nil
}
