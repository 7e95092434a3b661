// Package notify turns order lifecycle events into user notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/metrics"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Deduper remembers which events were already handled.
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Handler struct {
	Store   orders.Store
	Dedup   Deduper
	Metrics *metrics.OrderMetrics // optional
	Log     *zap.Logger
}

// Handle is a kafka.Handler. It returns nil for duplicates and for events it does not
// understand so they are committed; storage failures are returned for redelivery.
func (h *Handler) Handle(ctx context.Context, m kafka.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		h.log().Warn("notify_bad_envelope", zap.String("topic", m.Topic), zap.Error(err))
		h.count("invalid")
		return nil
	}
	p, err := kafkax.UnwrapPayload[orders.OrderEventPayload](env.Payload)
	if err != nil {
		h.log().Warn("notify_bad_payload", zap.String("event_id", env.EventID), zap.Error(err))
		h.count("invalid")
		return nil
	}
	notes := Messages(env.EventType, p)
	if len(notes) == 0 {
		h.count("ignored")
		return nil
	}

	first, err := h.Dedup.Claim(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		h.count("duplicate")
		return nil
	}

	now := time.Now().UTC()
	err = h.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		for userID, msg := range notes {
			if err := tx.InsertNotification(ctx, orders.Notification{
				ID: uuid.NewString(), UserID: userID, Message: msg, CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if rerr := h.Dedup.Release(ctx, env.EventID); rerr != nil {
			h.log().Error("notify_release_failed", zap.String("event_id", env.EventID), zap.Error(rerr))
		}
		h.count("error")
		return fmt.Errorf("store notifications for %s: %w", env.EventID, err)
	}
	h.count("stored")
	h.log().Info("notified", zap.String("event_type", env.EventType), zap.String("order_id", p.OrderID), zap.Int("recipients", len(notes)))
	return nil
}

// Messages returns the notification text per recipient for one lifecycle event.
func Messages(eventType string, p orders.OrderEventPayload) map[string]string {
	short := p.OrderID
	if len(short) > 8 {
		short = short[:8]
	}
	amount := p.Amount.StringFixed(2)
	out := map[string]string{}
	switch eventType {
	case orders.EventOrderSubmitted:
		out[p.CustomerID] = fmt.Sprintf("Order %s placed. Amount due: %s.", short, amount)
	case orders.EventOrderPaid:
		out[p.CustomerID] = fmt.Sprintf("Payment received for order %s. Tracking number: %s.", short, p.TrackingNumber)
		out[p.SellerID] = fmt.Sprintf("New paid order %s (%s) is ready to ship.", short, amount)
	case orders.EventOrderShipped:
		out[p.CustomerID] = fmt.Sprintf("Order %s has shipped. Tracking number: %s.", short, p.TrackingNumber)
	case orders.EventOrderDelivered:
		out[p.CustomerID] = fmt.Sprintf("Order %s was delivered. Leave a review!", short)
	case orders.EventOrderCanceled:
		out[p.CustomerID] = fmt.Sprintf("Order %s was canceled: %s.", short, p.Reason)
		out[p.SellerID] = fmt.Sprintf("Order %s was canceled.", short)
	}
	delete(out, "")
	return out
}

// Inbox lists a user's notifications newer than since.
func Inbox(ctx context.Context, store orders.Store, userID string, since time.Time) ([]orders.Notification, error) {
	var out []orders.Notification
	err := store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		out, err = tx.ListNotifications(ctx, userID, since)
		return err
	})
	return out, err
}

func (h *Handler) count(result string) {
	if h.Metrics != nil {
		h.Metrics.Notifications.WithLabelValues(result).Inc()
	}
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
