package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
)

// Cancel moves a pending or paid order to canceled. A paid order gets its stock back,
// a refund of the amount due and a failed shipment. A pending order keeps its stock
// untouched and is refunded whatever completed payments it has collected so far.
func (c *Orchestrator) Cancel(ctx context.Context, orderID, reason string) (o orders.Order, err error) {
	ctx, span := c.start(ctx, "cancel", orderID)
	begin := time.Now()
	defer func() {
		c.finish(ctx, span, "cancel", orderID, begin, err)
		if c.Metrics != nil {
			c.Metrics.Cancels.WithLabelValues(orders.Kind(err)).Inc()
		}
	}()

	err = c.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = tx.GetOrder(ctx, orderID, true); err != nil {
			return err
		}
		wasPaid := o.Status == orders.StatusPaid
		if err := orders.Transition(&o, orders.StatusCanceled); err != nil {
			return err
		}

		if wasPaid {
			if err := c.Ledger.RestoreForOrder(ctx, tx, o.ID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if o.Notes != "" {
			o.Notes += "\n"
		}
		o.Notes += "Canceled: " + reason
		o.UpdatedAt = now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}

		refund := o.AmountDue()
		if !wasPaid {
			// stand-alone payments may already have been taken for a pending order.
			ps, err := tx.ListPayments(ctx, o.ID)
			if err != nil {
				return err
			}
			refund = orders.CompletedSum(ps)
		}
		if refund.IsPositive() {
			if err := tx.InsertPayment(ctx, orders.Payment{
				ID:            uuid.NewString(),
				OrderID:       o.ID,
				Amount:        refund.Neg(),
				Method:        "refund",
				Status:        orders.PaymentCompleted,
				TransactionID: "REFUND-" + uuid.NewString(),
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}

		sh, err := tx.GetShipment(ctx, o.ID)
		switch {
		case errors.Is(err, orders.ErrNotFound):
		case err != nil:
			return err
		default:
			sh.Status = orders.ShipmentFailed
			if err := tx.UpdateShipment(ctx, sh); err != nil {
				return err
			}
		}

		ev, err := orders.NewOrderEvent(orders.EventOrderCanceled, c.Service, o, func(p *orders.OrderEventPayload) {
			p.Reason = reason
		})
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return orders.Order{}, orders.Abort("cancel", err)
	}
	return o, nil
}
