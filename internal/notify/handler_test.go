package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/metrics"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/shoptest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDedup struct {
	mu       sync.Mutex
	seen     map[string]bool
	released []string
}

func newMemDedup() *memDedup { return &memDedup{seen: map[string]bool{}} }

func (d *memDedup) Claim(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memDedup) Release(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	d.released = append(d.released, id)
	return nil
}

func message(t *testing.T, eventType string, o orders.Order, extra func(*orders.OrderEventPayload)) kafka.Message {
	t.Helper()
	ev, err := orders.NewOrderEvent(eventType, "test", o, extra)
	require.NoError(t, err)
	b, err := json.Marshal(ev.Envelope)
	require.NoError(t, err)
	return kafka.Message{Topic: ev.Topic, Key: orders.PartitionKey(o.ID), Value: b}
}

func TestHandleWritesCustomerAndSellerNotifications(t *testing.T) {
	db := shoptest.NewStore(t)
	customer, _ := shoptest.Customer(t, db)
	seller, _ := shoptest.Seller(t, db)
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	h := &Handler{Store: db, Dedup: newMemDedup(), Metrics: m}

	o := orders.Order{ID: "0123456789abcdef", CustomerID: customer.ID, SellerID: seller.ID, Status: orders.StatusPaid, Total: shoptest.Money("100")}
	msg := message(t, orders.EventOrderPaid, o, func(p *orders.OrderEventPayload) { p.TrackingNumber = "TRK-ABC" })
	require.NoError(t, h.Handle(context.Background(), msg))

	inbox, err := Inbox(context.Background(), db, customer.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Payment received for order 01234567. Tracking number: TRK-ABC.", inbox[0].Message)
	assert.False(t, inbox[0].Read)

	sellerInbox, err := Inbox(context.Background(), db, seller.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, sellerInbox, 1)
	assert.Contains(t, sellerInbox[0].Message, "100.00")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("stored")))
}

func TestHandleSkipsDuplicates(t *testing.T) {
	db := shoptest.NewStore(t)
	customer, _ := shoptest.Customer(t, db)
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	h := &Handler{Store: db, Dedup: newMemDedup(), Metrics: m}

	msg := message(t, orders.EventOrderShipped, orders.Order{ID: "order-1", CustomerID: customer.ID}, nil)
	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))

	inbox, err := Inbox(context.Background(), db, customer.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("duplicate")))
}

func TestHandleReleasesClaimOnStoreFailure(t *testing.T) {
	db := shoptest.NewStore(t)
	dedup := newMemDedup()
	h := &Handler{Store: db, Dedup: dedup}

	// the recipient does not exist, so the insert violates the foreign key.
	msg := message(t, orders.EventOrderDelivered, orders.Order{ID: "order-2", CustomerID: "ghost"}, nil)
	require.Error(t, h.Handle(context.Background(), msg))
	require.Len(t, dedup.released, 1)

	// redelivery is processed again instead of being dropped as a duplicate.
	claimed, err := dedup.Claim(context.Background(), dedup.released[0])
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestHandleCommitsUnreadableMessages(t *testing.T) {
	db := shoptest.NewStore(t)
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	h := &Handler{Store: db, Dedup: newMemDedup(), Metrics: m}

	require.NoError(t, h.Handle(context.Background(), kafka.Message{Topic: orders.TopicOrderPaid, Value: []byte("{")}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("invalid")))
}

func TestMessages(t *testing.T) {
	p := orders.OrderEventPayload{OrderID: "abcdefgh-1234", CustomerID: "c", SellerID: "s", Amount: shoptest.Money("12.5"), Reason: "changed my mind"}

	tests := []struct {
		eventType string
		want      map[string]string
	}{
		{orders.EventOrderSubmitted, map[string]string{"c": "Order abcdefgh placed. Amount due: 12.50."}},
		{orders.EventOrderDelivered, map[string]string{"c": "Order abcdefgh was delivered. Leave a review!"}},
		{orders.EventOrderCanceled, map[string]string{
			"c": "Order abcdefgh was canceled: changed my mind.",
			"s": "Order abcdefgh was canceled.",
		}},
		{"SomethingElse", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, Messages(tt.eventType, p))
		})
	}
}

func TestMessagesDropsMissingRecipients(t *testing.T) {
	got := Messages(orders.EventOrderPaid, orders.OrderEventPayload{OrderID: "x", CustomerID: "c"})
	assert.Len(t, got, 1)
	assert.Contains(t, got, "c")
}
