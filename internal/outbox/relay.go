package outbox

import (
	"context"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/metrics"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafka.Header) error
}

// Relay copies unsent outbox rows to Kafka in id order. Delivery is at-least-once:
// a crash between publish and MarkSent republishes the row, and consumers dedup by event id.
type Relay struct {
	Repo     Repo
	Pub      Publisher
	Interval time.Duration
	Batch    int
	Metrics  *metrics.OrderMetrics // optional
	Log      *zap.Logger
}

// Run polls until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		n, err := r.Flush(ctx)
		if err != nil && ctx.Err() == nil {
			r.log().Warn("relay_flush_failed", zap.Error(err))
		}
		// a full batch means there is probably more waiting.
		if err == nil && n == r.batch() {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Flush publishes one batch and returns how many rows were marked sent. It stops at the
// first failure so later events of the same order never overtake earlier ones.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	recs, err := r.Repo.FetchPending(ctx, r.batch())
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}
	sent := 0
	for _, rec := range recs {
		env, err := kafkax.DecodeEnvelope(rec.Payload)
		if err != nil {
			return sent, fmt.Errorf("outbox %d: %w", rec.ID, err)
		}
		if err := r.Pub.Publish(ctx, rec.Topic, orders.PartitionKey(rec.Key), rec.Payload,
			kafkax.EventHeaders(env.EventType, env.EventVersion)...); err != nil {
			return sent, fmt.Errorf("publish outbox %d: %w", rec.ID, err)
		}
		if err := r.Repo.MarkSent(ctx, rec.ID); err != nil {
			return sent, fmt.Errorf("mark outbox %d sent: %w", rec.ID, err)
		}
		sent++
		if r.Metrics != nil {
			r.Metrics.RelayPublished.WithLabelValues(rec.Topic).Inc()
		}
	}
	if sent > 0 {
		r.log().Debug("relay_flushed", zap.Int("sent", sent))
	}
	return sent, nil
}

func (r *Relay) batch() int {
	if r.Batch <= 0 {
		return 100
	}
	return r.Batch
}

func (r *Relay) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
