package kafka

import (
	"encoding/json"
	"testing"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeAndPayload(t *testing.T) {
	ev, err := orders.NewOrderEvent(orders.EventOrderCanceled, "test", orders.Order{ID: "o-1", CustomerID: "c-1", Status: orders.StatusCanceled},
		func(p *orders.OrderEventPayload) { p.Reason = "out of stock" })
	require.NoError(t, err)
	raw, err := json.Marshal(ev.Envelope)
	require.NoError(t, err)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.Envelope.EventID, env.EventID)
	assert.Equal(t, "o-1", env.CorrelationID)

	p, err := UnwrapPayload[orders.OrderEventPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "c-1", p.CustomerID)
	assert.Equal(t, "out of stock", p.Reason)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte("nope"))
	require.Error(t, err)
	_, err = DecodeEnvelope([]byte(`{"payload":{}}`))
	require.Error(t, err)
}

func TestEventHeaders(t *testing.T) {
	m := kafka.Message{Headers: EventHeaders(orders.EventOrderPaid, 1)}
	assert.Equal(t, orders.EventOrderPaid, HeaderValue(m, "x-event-type"))
	assert.Equal(t, "1", HeaderValue(m, "x-event-version"))
	assert.Empty(t, HeaderValue(m, "missing"))
}
