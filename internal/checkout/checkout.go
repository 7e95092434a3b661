// Package checkout runs the order lifecycle transitions that move money, stock and
// shipments. Each operation is a single transaction on the injected store.
package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/metrics"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "shop.checkout"

type Orchestrator struct {
	Store   orders.Store
	Ledger  *inventory.Ledger
	Metrics *metrics.OrderMetrics // optional
	Service string

	tracer trace.Tracer
}

func New(store orders.Store, ledger *inventory.Ledger, m *metrics.OrderMetrics, service string) *Orchestrator {
	return &Orchestrator{Store: store, Ledger: ledger, Metrics: m, Service: service, tracer: otel.Tracer(tracerName)}
}

type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type CheckoutInput struct {
	OrderID string
	// Payment, when set, is recorded as completed inside the checkout transaction.
	Payment *PaymentInput
}

type Result struct {
	Order    orders.Order    `json:"order"`
	Shipment orders.Shipment `json:"shipment"`
	Payment  *orders.Payment `json:"payment,omitempty"`
}

// Checkout settles a pending order: optional payment, payment coverage, stock
// decrement, pending → paid, a preparing shipment and an OrderPaid event, all or nothing.
func (c *Orchestrator) Checkout(ctx context.Context, in CheckoutInput) (res Result, err error) {
	ctx, span := c.start(ctx, "checkout", in.OrderID)
	begin := time.Now()
	defer func() {
		c.finish(ctx, span, "checkout", in.OrderID, begin, err)
		if c.Metrics != nil {
			c.Metrics.Checkouts.WithLabelValues(orders.Kind(err)).Inc()
			c.Metrics.CheckoutDuration.Observe(time.Since(begin).Seconds())
		}
	}()

	if in.Payment != nil && !in.Payment.Amount.IsPositive() {
		return Result{}, orders.ErrInvalidAmount
	}

	err = c.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, in.OrderID, true)
		if err != nil {
			return err
		}
		if o.Status != orders.StatusPending {
			return &orders.InvalidStateError{Current: o.Status, Expected: []orders.Status{orders.StatusPending}}
		}

		if in.Payment != nil {
			p, err := insertPayment(ctx, tx, o.ID, *in.Payment)
			if err != nil {
				return err
			}
			res.Payment = &p
		}

		payments, err := tx.ListPayments(ctx, o.ID)
		if err != nil {
			return err
		}
		paid, due := orders.CompletedSum(payments), o.AmountDue()
		if paid.LessThan(due) {
			return &orders.PaymentIncompleteError{Paid: paid, Required: due}
		}

		if err := c.Ledger.DecrementForOrder(ctx, tx, o.ID); err != nil {
			return err
		}

		if err := orders.Transition(&o, orders.StatusPaid); err != nil {
			return err
		}
		now := time.Now().UTC()
		o.UpdatedAt = now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}

		sh := orders.Shipment{
			ID:             uuid.NewString(),
			OrderID:        o.ID,
			TrackingNumber: NewTrackingNumber(),
			Status:         orders.ShipmentPreparing,
			CreatedAt:      now,
		}
		if err := tx.InsertShipment(ctx, sh); err != nil {
			return err
		}

		ev, err := orders.NewOrderEvent(orders.EventOrderPaid, c.Service, o, func(p *orders.OrderEventPayload) {
			p.TrackingNumber = sh.TrackingNumber
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}

		res.Order, res.Shipment = o, sh
		return nil
	})
	if err != nil {
		return Result{}, orders.Abort("checkout", err)
	}
	return res, nil
}

// RecordPayment stores a completed payment against a pending order without settling it.
func (c *Orchestrator) RecordPayment(ctx context.Context, orderID string, in PaymentInput) (orders.Payment, error) {
	if !in.Amount.IsPositive() {
		return orders.Payment{}, orders.ErrInvalidAmount
	}
	var p orders.Payment
	err := c.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if o.Status != orders.StatusPending {
			return &orders.InvalidStateError{Current: o.Status, Expected: []orders.Status{orders.StatusPending}}
		}
		p, err = insertPayment(ctx, tx, o.ID, in)
		return err
	})
	if err != nil {
		return orders.Payment{}, orders.Abort("record payment", err)
	}
	logging.FromContext(ctx).Info("payment_recorded",
		zap.String("order_id", orderID), zap.String("amount", p.Amount.StringFixed(2)), zap.String("txn", p.TransactionID))
	return p, nil
}

func insertPayment(ctx context.Context, tx orders.Tx, orderID string, in PaymentInput) (orders.Payment, error) {
	method := in.Method
	if method == "" {
		method = "card"
	}
	p := orders.Payment{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		Amount:        in.Amount,
		Method:        method,
		Status:        orders.PaymentCompleted,
		TransactionID: "TXN-" + uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
	}
	return p, tx.InsertPayment(ctx, p)
}

// NewTrackingNumber returns TRK- followed by 12 upper-case hex digits.
func NewTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRK-" + strings.ToUpper(raw[:12])
}

func (c *Orchestrator) start(ctx context.Context, op, orderID string) (context.Context, trace.Span) {
	tracer := c.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, "order."+op, trace.WithAttributes(attribute.String("order.id", orderID)))
}

func (c *Orchestrator) finish(ctx context.Context, span trace.Span, op, orderID string, begin time.Time, err error) {
	outcome := orders.Kind(err)
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	fields := []zap.Field{
		zap.String("order_id", orderID),
		zap.String("outcome", outcome),
		zap.Duration("latency", time.Since(begin)),
	}
	log := logging.FromContext(ctx)
	switch {
	case err == nil:
		log.Info(op+"_done", fields...)
	case orders.IsDomain(err):
		log.Warn(op+"_done", append(fields, zap.Error(err))...)
	default:
		log.Error(op+"_done", append(fields, zap.Error(err))...)
	}
}
