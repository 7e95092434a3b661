package redisx

import "time"

const (
	// Idempotent checkout: idem:checkout:{order_id}:{idempotency_key} -> response JSON
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Order status cache: order_status:{order_id} -> order JSON with items, as served by GET /orders/{id}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

// pendingMarker holds an idempotency slot while the first request is still running.
const pendingMarker = "__pending__"
