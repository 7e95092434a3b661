package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/shoptest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, orders.Store) {
	t.Helper()
	store := shoptest.NewStore(t)
	return NewService(store, inventory.NewLedger(store)), store
}

func TestCreateAndUpdateProduct(t *testing.T) {
	svc, store := newService(t)
	seller, _ := shoptest.Seller(t, store)
	rival, _ := shoptest.Seller(t, store)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, "Books")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Books")
	require.ErrorIs(t, err, orders.ErrConflict)

	_, err = svc.CreateProduct(ctx, seller.ID, ProductInput{Name: "Free", Price: shoptest.Money("-1")})
	require.ErrorIs(t, err, orders.ErrInvalidPrice)
	_, err = svc.CreateProduct(ctx, seller.ID, ProductInput{Name: "Huge", Price: shoptest.Money("1000000.01")})
	require.ErrorIs(t, err, orders.ErrInvalidPrice)
	_, err = svc.CreateProduct(ctx, seller.ID, ProductInput{Name: "Neg", Price: shoptest.Money("1"), Stock: -1})
	require.ErrorIs(t, err, orders.ErrInvalidQuantity)

	p, err := svc.CreateProduct(ctx, seller.ID, ProductInput{Name: "Go in Action", CategoryID: cat.ID, Price: shoptest.Money("39.90"), Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, seller.ID, p.SellerID)

	price := shoptest.Money("29.90")
	off := false
	_, err = svc.UpdateProduct(ctx, rival.ID, p.ID, ProductPatch{Price: &price})
	require.ErrorIs(t, err, orders.ErrForbidden)

	got, err := svc.UpdateProduct(ctx, seller.ID, p.ID, ProductPatch{Price: &price, Active: &off})
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(price))
	assert.False(t, got.Active)
	assert.Equal(t, 4, got.Stock)

	active, err := svc.Products(ctx, orders.ProductFilter{OnlyActive: true})
	require.NoError(t, err)
	assert.Empty(t, active)
	byCategory, err := svc.Products(ctx, orders.ProductFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "29.90", byCategory[0].Price.StringFixed(2))
}

func TestRestockChecksOwnership(t *testing.T) {
	svc, store := newService(t)
	seller, cat := shoptest.Seller(t, store)
	rival, _ := shoptest.Seller(t, store)
	p := shoptest.Product(t, store, cat, "1.00", 2)
	ctx := context.Background()

	_, err := svc.Restock(ctx, rival.ID, p.ID, 5)
	require.ErrorIs(t, err, orders.ErrForbidden)
	_, err = svc.Restock(ctx, seller.ID, p.ID, 0)
	require.ErrorIs(t, err, orders.ErrInvalidQuantity)

	n, err := svc.Restock(ctx, seller.ID, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSaveCoupon(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SaveCoupon(ctx, orders.Coupon{Code: "x", DiscountPercent: 0})
	require.ErrorIs(t, err, orders.ErrInvalidInput)
	_, err = svc.SaveCoupon(ctx, orders.Coupon{Code: " ", DiscountPercent: 10})
	require.ErrorIs(t, err, orders.ErrInvalidInput)

	c, err := svc.SaveCoupon(ctx, orders.Coupon{Code: "spring", DiscountPercent: 15, Active: true, ExpiresAt: time.Now().Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "SPRING", c.Code)

	// saving again replaces the coupon.
	_, err = svc.SaveCoupon(ctx, orders.Coupon{Code: "SPRING", DiscountPercent: 30, Active: false, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
}

func TestReview(t *testing.T) {
	svc, store := newService(t)
	cust, addr := shoptest.Customer(t, store)
	other, _ := shoptest.Customer(t, store)
	_, cat := shoptest.Seller(t, store)
	p := shoptest.Product(t, store, cat, "5.00", 10)
	ctx := context.Background()

	pending := shoptest.Order(t, store, cust, addr, orders.StatusPending, shoptest.Line{Product: p, Quantity: 1})
	pendingItem := shoptest.LoadOrder(t, store, pending.ID).Items[0]
	_, err := svc.Review(ctx, cust.ID, pending.ID, pendingItem.ID, ReviewInput{Rating: 5})
	require.ErrorIs(t, err, orders.ErrReviewNotAllowed)

	shipped := shoptest.Order(t, store, cust, addr, orders.StatusShipped, shoptest.Line{Product: p, Quantity: 2})
	item := shoptest.LoadOrder(t, store, shipped.ID).Items[0]

	_, err = svc.Review(ctx, cust.ID, shipped.ID, item.ID, ReviewInput{Rating: 6})
	require.ErrorIs(t, err, orders.ErrInvalidRating)
	_, err = svc.Review(ctx, other.ID, shipped.ID, item.ID, ReviewInput{Rating: 4})
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	_, err = svc.Review(ctx, cust.ID, shipped.ID, pendingItem.ID, ReviewInput{Rating: 4})
	require.ErrorIs(t, err, orders.ErrNotFound)

	r, err := svc.Review(ctx, cust.ID, shipped.ID, item.ID, ReviewInput{Rating: 4, Comment: " solid "})
	require.NoError(t, err)
	assert.Equal(t, "solid", r.Comment)
	assert.Equal(t, p.ID, r.ProductID)

	_, err = svc.Review(ctx, cust.ID, shipped.ID, item.ID, ReviewInput{Rating: 1})
	require.ErrorIs(t, err, orders.ErrAlreadyReviewed)

	list, err := svc.Reviews(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
}

func TestValidatePrice(t *testing.T) {
	for _, tc := range []struct {
		price string
		ok    bool
	}{
		{"0", true},
		{"0.01", true},
		{"1000000", true},
		{"1000000.01", false},
		{"-0.01", false},
	} {
		err := validatePrice(decimal.RequireFromString(tc.price))
		assert.Equal(t, tc.ok, err == nil, tc.price)
	}
}

func TestUpdateAndDeleteCategory(t *testing.T) {
	svc, store := newService(t)
	seller, _ := shoptest.Seller(t, store)
	ctx := context.Background()

	books, err := svc.CreateCategory(ctx, "Books")
	require.NoError(t, err)
	games, err := svc.CreateCategory(ctx, "Games")
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, games.ID, "Books")
	require.ErrorIs(t, err, orders.ErrConflict)
	_, err = svc.UpdateCategory(ctx, "ghost", "Toys")
	require.ErrorIs(t, err, orders.ErrNotFound)
	_, err = svc.UpdateCategory(ctx, games.ID, " ")
	require.ErrorIs(t, err, orders.ErrInvalidInput)

	renamed, err := svc.UpdateCategory(ctx, games.ID, " Board games ")
	require.NoError(t, err)
	assert.Equal(t, "Board games", renamed.Name)

	_, err = svc.CreateProduct(ctx, seller.ID, ProductInput{Name: "Dune", CategoryID: books.ID, Price: shoptest.Money("9.99"), Stock: 1})
	require.NoError(t, err)
	err = svc.DeleteCategory(ctx, books.ID)
	require.ErrorIs(t, err, orders.ErrInUse)

	require.NoError(t, svc.DeleteCategory(ctx, games.ID))
	require.ErrorIs(t, svc.DeleteCategory(ctx, games.ID), orders.ErrNotFound)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, books.ID, cats[0].ID)
}

func TestWishlist(t *testing.T) {
	svc, store := newService(t)
	cust, _ := shoptest.Customer(t, store)
	seller, cat := shoptest.Seller(t, store)
	mug := shoptest.Product(t, store, cat, "4.00", 3)
	pen := shoptest.Product(t, store, cat, "1.00", 3)
	ctx := context.Background()

	_, err := svc.AddToWishlist(ctx, cust.ID, "ghost")
	require.ErrorIs(t, err, orders.ErrNotFound)

	got, err := svc.AddToWishlist(ctx, cust.ID, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, mug.ID, got.ID)
	_, err = svc.AddToWishlist(ctx, cust.ID, mug.ID)
	require.ErrorIs(t, err, orders.ErrAlreadyWishlisted)

	off := false
	_, err = svc.UpdateProduct(ctx, seller.ID, pen.ID, ProductPatch{Active: &off})
	require.NoError(t, err)
	_, err = svc.AddToWishlist(ctx, cust.ID, pen.ID)
	require.ErrorIs(t, err, orders.ErrNotFound, "inactive products cannot be saved")

	list, err := svc.Wishlist(ctx, cust.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mug.ID, list[0].ID)
	assert.Equal(t, seller.ID, list[0].SellerID)

	require.NoError(t, svc.RemoveFromWishlist(ctx, cust.ID, mug.ID))
	require.ErrorIs(t, svc.RemoveFromWishlist(ctx, cust.ID, mug.ID), orders.ErrNotFound)
	list, err = svc.Wishlist(ctx, cust.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
