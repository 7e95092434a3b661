package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Idempotency remembers the response of a checkout per (order, Idempotency-Key).
type Idempotency struct {
	R redis.Cmdable
}

// Claim reserves the key. When the key is already taken it returns the stored response,
// which is empty while the first request is still in flight.
func (i Idempotency) Claim(ctx context.Context, orderID, key string) (claimed bool, stored []byte, err error) {
	k := fmt.Sprintf(KeyIdemCheckout, orderID, key)
	ok, err := i.R.SetNX(ctx, k, pendingMarker, TTLIdempotency).Result()
	if err != nil || ok {
		return ok, nil, err
	}
	v, err := i.R.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return i.Claim(ctx, orderID, key)
	}
	if err != nil {
		return false, nil, err
	}
	if string(v) == pendingMarker {
		return false, nil, nil
	}
	return false, v, nil
}

// Complete stores the response of a claimed key.
func (i Idempotency) Complete(ctx context.Context, orderID, key string, response []byte) error {
	return i.R.Set(ctx, fmt.Sprintf(KeyIdemCheckout, orderID, key), response, TTLIdempotency).Err()
}

// Release frees a claimed key so the request can be retried.
func (i Idempotency) Release(ctx context.Context, orderID, key string) error {
	return i.R.Del(ctx, fmt.Sprintf(KeyIdemCheckout, orderID, key)).Err()
}

// StatusCache is a read-through cache of order status documents.
type StatusCache struct {
	R redis.Cmdable
}

func (c StatusCache) Get(ctx context.Context, orderID string) ([]byte, bool) {
	b, err := c.R.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (c StatusCache) Set(ctx context.Context, orderID string, doc []byte) error {
	return c.R.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), doc, TTLStatusCache).Err()
}

func (c StatusCache) Invalidate(ctx context.Context, orderID string) error {
	return c.R.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}

// Dedup marks consumed events per service.
type Dedup struct {
	R       redis.Cmdable
	Service string
}

// Claim returns true the first time eventID is seen.
func (d Dedup) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.R.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), 1, TTLDedup).Result()
}

func (d Dedup) Release(ctx context.Context, eventID string) error {
	return d.R.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID)).Err()
}
