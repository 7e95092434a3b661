package sqlstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockProductsQueryPostgres(t *testing.T) {
	query, args, err := lockProductsQuery(Postgres, sortedUnique([]string{"p-3", "p-1", "p-2", "p-1"}))
	require.NoError(t, err)

	assert.Equal(t, []any{"p-1", "p-2", "p-3"}, args)
	assert.Contains(t, query, "p.product_id IN ($1, $2, $3)")
	assert.True(t, strings.HasSuffix(query, " ORDER BY p.product_id FOR UPDATE OF p"), query)
	assert.NotContains(t, query, "?")
}

func TestLockProductsQuerySQLite(t *testing.T) {
	query, args, err := lockProductsQuery(SQLite, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []any{"a", "b"}, args)
	assert.Contains(t, query, "IN (?, ?)")
	assert.True(t, strings.HasSuffix(query, " ORDER BY p.product_id"), query)
	assert.NotContains(t, query, "FOR UPDATE")
}

func TestGetOrderQuery(t *testing.T) {
	tests := []struct {
		dialect   Dialect
		forUpdate bool
		suffix    string
	}{
		{Postgres, true, "WHERE order_id = $1 FOR UPDATE"},
		{Postgres, false, "WHERE order_id = $1"},
		{SQLite, true, "WHERE order_id = ?"},
	}
	for _, tc := range tests {
		t.Run(tc.dialect.String(), func(t *testing.T) {
			q := getOrderQuery(tc.dialect, tc.forUpdate)
			assert.True(t, strings.HasSuffix(q, tc.suffix), q)
		})
	}
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, sortedUnique([]string{"c", "a", "c", "b", "a"}))
	assert.Empty(t, sortedUnique(nil))
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestLockProductsOnSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		if err := tx.InsertUser(ctx, orders.User{ID: "s-1", Email: "s@shop.test", Name: "s", Role: orders.RoleSeller, PasswordHash: []byte("x"), CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.InsertCatalog(ctx, orders.Catalog{ID: "c-1", SellerID: "s-1", Name: "s"}); err != nil {
			return err
		}
		for _, id := range []string{"p-2", "p-1"} {
			if err := tx.InsertProduct(ctx, orders.Product{ID: id, CatalogID: "c-1", Name: id, Price: decimal.NewFromInt(1), Stock: 3, Active: true, CreatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	}))

	err := db.InTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		got, err := tx.LockProducts(ctx, []string{"p-2", "p-1", "p-2"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "s-1", got["p-1"].SellerID)

		_, err = tx.LockProducts(ctx, []string{"p-1", "ghost"})
		assert.ErrorIs(t, err, orders.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}
