package checkout

import (
	"context"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"go.uber.org/zap"
)

// Ship hands a paid order to the carrier. A non-empty trackingNumber replaces the one
// assigned at checkout.
func (c *Orchestrator) Ship(ctx context.Context, orderID, trackingNumber string) (orders.Shipment, error) {
	sh, err := c.advance(ctx, orderID, orders.StatusShipped, orders.EventOrderShipped, func(sh *orders.Shipment, now time.Time) {
		if trackingNumber != "" {
			sh.TrackingNumber = trackingNumber
		}
		sh.Status = orders.ShipmentInTransit
		sh.ShippedAt = &now
	})
	if err != nil {
		return orders.Shipment{}, orders.Abort("ship", err)
	}
	logging.FromContext(ctx).Info("order_shipped", zap.String("order_id", orderID), zap.String("tracking", sh.TrackingNumber))
	return sh, nil
}

func (c *Orchestrator) Deliver(ctx context.Context, orderID string) (orders.Shipment, error) {
	sh, err := c.advance(ctx, orderID, orders.StatusDelivered, orders.EventOrderDelivered, func(sh *orders.Shipment, now time.Time) {
		sh.Status = orders.ShipmentDelivered
		sh.DeliveredAt = &now
	})
	if err != nil {
		return orders.Shipment{}, orders.Abort("deliver", err)
	}
	logging.FromContext(ctx).Info("order_delivered", zap.String("order_id", orderID))
	return sh, nil
}

// advance moves the order to `to`, applies mutate to its shipment and appends eventType.
func (c *Orchestrator) advance(ctx context.Context, orderID string, to orders.Status, eventType string,
	mutate func(sh *orders.Shipment, now time.Time)) (orders.Shipment, error) {
	var sh orders.Shipment
	err := c.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if err := orders.Transition(&o, to); err != nil {
			return err
		}
		now := time.Now().UTC()
		o.UpdatedAt = now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}

		if sh, err = tx.GetShipment(ctx, o.ID); err != nil {
			return err
		}
		mutate(&sh, now)
		if err := tx.UpdateShipment(ctx, sh); err != nil {
			return err
		}

		ev, err := orders.NewOrderEvent(eventType, c.Service, o, func(p *orders.OrderEventPayload) {
			p.TrackingNumber = sh.TrackingNumber
		})
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, ev)
	})
	return sh, err
}
