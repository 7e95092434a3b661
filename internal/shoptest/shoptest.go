// Package shoptest provides a migrated SQLite store and fixture builders for tests.
package shoptest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/sqlstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewStore opens a fresh SQLite database under t.TempDir and applies the schema.
func NewStore(t testing.TB) *sqlstore.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func Money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustTx(t testing.TB, store orders.Store, fn func(ctx context.Context, tx orders.Tx) error) {
	t.Helper()
	require.NoError(t, store.InTx(context.Background(), fn))
}

// Customer creates a customer with one address.
func Customer(t testing.TB, store orders.Store) (orders.User, orders.Address) {
	t.Helper()
	u := orders.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		Name:         "customer",
		Role:         orders.RoleCustomer,
		PasswordHash: []byte("x"),
		CreatedAt:    time.Now().UTC(),
	}
	a := orders.Address{ID: uuid.NewString(), UserID: u.ID, Line: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error {
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		return tx.InsertAddress(ctx, a)
	})
	return u, a
}

// Seller creates a seller together with its catalog.
func Seller(t testing.TB, store orders.Store) (orders.User, orders.Catalog) {
	t.Helper()
	u := orders.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		Name:         "seller",
		Role:         orders.RoleSeller,
		PasswordHash: []byte("x"),
		CreatedAt:    time.Now().UTC(),
	}
	c := orders.Catalog{ID: uuid.NewString(), SellerID: u.ID, Name: "catalog"}
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error {
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		return tx.InsertCatalog(ctx, c)
	})
	return u, c
}

func Product(t testing.TB, store orders.Store, catalog orders.Catalog, price string, stock int) orders.Product {
	t.Helper()
	p := orders.Product{
		ID:        uuid.NewString(),
		CatalogID: catalog.ID,
		SellerID:  catalog.SellerID,
		Name:      "product",
		Price:     Money(price),
		Stock:     stock,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error { return tx.InsertProduct(ctx, p) })
	return p
}

// Line describes one order item for Order.
type Line struct {
	Product  orders.Product
	Quantity int
}

// Order writes an order in the given status with its items and a consistent total.
func Order(t testing.TB, store orders.Store, customer orders.User, addr orders.Address, status orders.Status, lines ...Line) orders.Order {
	t.Helper()
	now := time.Now().UTC()
	o := orders.Order{
		ID:                uuid.NewString(),
		CustomerID:        customer.ID,
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	items := make([]orders.OrderItem, 0, len(lines))
	for _, l := range lines {
		o.SellerID = l.Product.SellerID
		it := orders.OrderItem{ID: uuid.NewString(), OrderID: o.ID, ProductID: l.Product.ID, UnitPrice: l.Product.Price}
		require.NoError(t, it.SetQuantity(l.Quantity))
		items = append(items, it)
	}
	o.Recompute(items)
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error {
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.InsertItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	return o
}

// Pay records a completed payment.
func Pay(t testing.TB, store orders.Store, orderID, amount string) orders.Payment {
	t.Helper()
	p := orders.Payment{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		Amount:        Money(amount),
		Method:        "card",
		Status:        orders.PaymentCompleted,
		TransactionID: "TXN-" + uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
	}
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error { return tx.InsertPayment(ctx, p) })
	return p
}

func Stock(t testing.TB, store orders.Store, productID string) int {
	t.Helper()
	var stock int
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error {
		p, err := tx.GetProduct(ctx, productID)
		stock = p.Stock
		return err
	})
	return stock
}

func LoadOrder(t testing.TB, store orders.Store, orderID string) orders.Order {
	t.Helper()
	var o orders.Order
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error {
		var err error
		if o, err = tx.GetOrder(ctx, orderID, false); err != nil {
			return err
		}
		o.Items, err = tx.ListItems(ctx, orderID)
		return err
	})
	return o
}

func Payments(t testing.TB, store orders.Store, orderID string) []orders.Payment {
	t.Helper()
	var ps []orders.Payment
	mustTx(t, store, func(ctx context.Context, tx orders.Tx) error {
		var err error
		ps, err = tx.ListPayments(ctx, orderID)
		return err
	})
	return ps
}

// Topics lists the outbox topics written for an order, oldest first.
func Topics(t testing.TB, db *sqlstore.DB, orderID string) []string {
	t.Helper()
	var topics []string
	require.NoError(t, db.SelectContext(context.Background(), &topics,
		db.Rebind(`SELECT topic FROM outbox WHERE key = ? ORDER BY id`), orderID))
	return topics
}

func Shipment(t testing.TB, store orders.Store, orderID string) (orders.Shipment, error) {
	t.Helper()
	var sh orders.Shipment
	err := store.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
		var err error
		sh, err = tx.GetShipment(ctx, orderID)
		return err
	})
	return sh, err
}
