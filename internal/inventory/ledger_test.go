package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/shoptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementForOrderAllOrNothing(t *testing.T) {
	store := shoptest.NewStore(t)
	ledger := NewLedger(store)
	cust, addr := shoptest.Customer(t, store)
	_, cat := shoptest.Seller(t, store)
	plenty := shoptest.Product(t, store, cat, "10.00", 5)
	short := shoptest.Product(t, store, cat, "4.00", 3)
	o := shoptest.Order(t, store, cust, addr, orders.StatusPending,
		shoptest.Line{Product: plenty, Quantity: 2},
		shoptest.Line{Product: short, Quantity: 4},
	)

	err := store.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
		return ledger.DecrementForOrder(ctx, tx, o.ID)
	})

	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, orders.InsufficientStockError{ProductID: short.ID, Available: 3, Required: 4}, *stockErr)
	assert.Equal(t, 5, shoptest.Stock(t, store, plenty.ID))
	assert.Equal(t, 3, shoptest.Stock(t, store, short.ID))
}

func TestDecrementThenRestoreReturnsToStart(t *testing.T) {
	for _, qty := range []int{1, 2, 7, 10} {
		store := shoptest.NewStore(t)
		ledger := NewLedger(store)
		cust, addr := shoptest.Customer(t, store)
		_, cat := shoptest.Seller(t, store)
		a := shoptest.Product(t, store, cat, "1.50", 10)
		b := shoptest.Product(t, store, cat, "2.00", 20)
		o := shoptest.Order(t, store, cust, addr, orders.StatusPending,
			shoptest.Line{Product: a, Quantity: qty},
			shoptest.Line{Product: b, Quantity: qty * 2},
		)

		require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
			return ledger.DecrementForOrder(ctx, tx, o.ID)
		}))
		assert.Equal(t, 10-qty, shoptest.Stock(t, store, a.ID))
		assert.Equal(t, 20-2*qty, shoptest.Stock(t, store, b.ID))

		require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
			return ledger.RestoreForOrder(ctx, tx, o.ID)
		}))
		assert.Equal(t, 10, shoptest.Stock(t, store, a.ID), "qty %d", qty)
		assert.Equal(t, 20, shoptest.Stock(t, store, b.ID), "qty %d", qty)
	}
}

func TestDecrementExactStockReachesZero(t *testing.T) {
	store := shoptest.NewStore(t)
	ledger := NewLedger(store)
	cust, addr := shoptest.Customer(t, store)
	_, cat := shoptest.Seller(t, store)
	p := shoptest.Product(t, store, cat, "3.00", 2)
	o := shoptest.Order(t, store, cust, addr, orders.StatusPending, shoptest.Line{Product: p, Quantity: 2})

	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
		return ledger.DecrementForOrder(ctx, tx, o.ID)
	}))
	assert.Equal(t, 0, shoptest.Stock(t, store, p.ID))
}

func TestRestock(t *testing.T) {
	store := shoptest.NewStore(t)
	ledger := NewLedger(store)
	_, cat := shoptest.Seller(t, store)
	p := shoptest.Product(t, store, cat, "3.00", 2)

	tests := []struct {
		name    string
		add     int
		want    int
		wantErr error
	}{
		{name: "zero", add: 0, want: 2, wantErr: orders.ErrInvalidQuantity},
		{name: "negative", add: -4, want: 2, wantErr: orders.ErrInvalidQuantity},
		{name: "positive", add: 5, want: 7},
		{name: "again", add: 1, want: 8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ledger.Restock(context.Background(), p.ID, tc.add)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
			assert.Equal(t, tc.want, shoptest.Stock(t, store, p.ID))
		})
	}
}

func TestRestockUnknownProduct(t *testing.T) {
	store := shoptest.NewStore(t)
	_, err := NewLedger(store).Restock(context.Background(), "missing", 3)
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestStockNeverNegative(t *testing.T) {
	store := shoptest.NewStore(t)
	_, cat := shoptest.Seller(t, store)
	p := shoptest.Product(t, store, cat, "3.00", 1)

	err := store.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
		return tx.AddStock(ctx, p.ID, -2)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orders.ErrConflict))
	assert.Equal(t, 1, shoptest.Stock(t, store, p.ID))
}
