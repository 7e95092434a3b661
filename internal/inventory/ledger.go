// Package inventory is the only place stock quantities move for order-driven reasons.
package inventory

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"go.uber.org/zap"
)

type Ledger struct {
	Store orders.Store
}

func NewLedger(store orders.Store) *Ledger { return &Ledger{Store: store} }

// DecrementForOrder takes every line quantity of the order out of stock inside tx.
// All products are locked in ascending id order before any comparison; the first
// shortfall aborts with *orders.InsufficientStockError and nothing is written.
func (l *Ledger) DecrementForOrder(ctx context.Context, tx orders.Tx, orderID string) error {
	items, err := tx.ListItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list items of %s: %w", orderID, err)
	}
	need := requiredByProduct(items)

	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	locked, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}

	// check everything before touching anything.
	for _, id := range sortedKeys(need) {
		if p := locked[id]; p.Stock < need[id] {
			return &orders.InsufficientStockError{ProductID: id, Available: p.Stock, Required: need[id]}
		}
	}
	for _, id := range sortedKeys(need) {
		if err := tx.AddStock(ctx, id, -need[id]); err != nil {
			return fmt.Errorf("decrement %s: %w", id, err)
		}
	}
	logging.FromContext(ctx).Debug("stock_decremented", zap.String("order_id", orderID), zap.Int("products", len(need)))
	return nil
}

// RestoreForOrder puts every line quantity back. It does not remember earlier calls;
// the order state machine guarantees it runs at most once per order.
func (l *Ledger) RestoreForOrder(ctx context.Context, tx orders.Tx, orderID string) error {
	items, err := tx.ListItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list items of %s: %w", orderID, err)
	}
	need := requiredByProduct(items)
	ids := sortedKeys(need)
	if _, err := tx.LockProducts(ctx, ids); err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	for _, id := range ids {
		if err := tx.AddStock(ctx, id, need[id]); err != nil {
			return fmt.Errorf("restore %s: %w", id, err)
		}
	}
	logging.FromContext(ctx).Debug("stock_restored", zap.String("order_id", orderID), zap.Int("products", len(need)))
	return nil
}

// Restock adds a positive quantity to one product in its own transaction and returns
// the new stock level.
func (l *Ledger) Restock(ctx context.Context, productID string, addQty int) (int, error) {
	if addQty <= 0 {
		return 0, orders.ErrInvalidQuantity
	}
	var stock int
	err := l.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		if _, err := tx.LockProducts(ctx, []string{productID}); err != nil {
			return err
		}
		if err := tx.AddStock(ctx, productID, addQty); err != nil {
			return err
		}
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	})
	if err != nil {
		return 0, orders.Abort("restock", err)
	}
	return stock, nil
}

// StockOf reads the current stock of a product.
func (l *Ledger) StockOf(ctx context.Context, productID string) (int, error) {
	var stock int
	err := l.Store.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		p, err := tx.GetProduct(ctx, productID)
		stock = p.Stock
		return err
	})
	return stock, err
}

func requiredByProduct(items []orders.OrderItem) map[string]int {
	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	return need
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
