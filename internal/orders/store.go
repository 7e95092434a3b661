package orders

import (
	"context"
	"time"
)

// Store hands out transactions. Nothing outside a Tx touches the database, so every
// orchestrator call gets its own transaction scope instead of a shared connection.
type Store interface {
	// InTx runs fn inside one transaction, committing when fn returns nil and rolling
	// back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	ProductTx
	OrderTx
	PaymentTx
	ShipmentTx
	AccountTx
	ReviewTx
	WishlistTx
	NotificationTx

	// AppendEvent stores ev in the outbox as part of this transaction.
	AppendEvent(ctx context.Context, ev Event) error
}

type ProductFilter struct {
	SellerID   string
	CategoryID string
	OnlyActive bool
}

type ProductTx interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	// LockProducts row-locks the given products in ascending id order and returns them
	// keyed by id. Missing ids yield ErrNotFound.
	LockProducts(ctx context.Context, ids []string) (map[string]Product, error)
	// AddStock applies delta to stock_quantity; it fails with ErrConflict instead of
	// letting the counter drop below zero.
	AddStock(ctx context.Context, productID string, delta int) error
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)

	InsertCatalog(ctx context.Context, c Catalog) error
	CatalogOfSeller(ctx context.Context, sellerID string) (Catalog, error)
	InsertCategory(ctx context.Context, c Category) error
	UpdateCategory(ctx context.Context, c Category) error
	// DeleteCategory fails with ErrInUse while products still point at the category.
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]Category, error)
}

type OrderFilter struct {
	CustomerID string
	SellerID   string
	Status     Status
}

type OrderTx interface {
	// GetOrder loads an order; with forUpdate the row stays locked until commit.
	GetOrder(ctx context.Context, id string, forUpdate bool) (Order, error)
	FindOngoingOrder(ctx context.Context, customerID string) (Order, error)
	InsertOrder(ctx context.Context, o Order) error
	UpdateOrder(ctx context.Context, o Order) error
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)

	ListItems(ctx context.Context, orderID string) ([]OrderItem, error)
	GetItem(ctx context.Context, itemID string) (OrderItem, error)
	InsertItem(ctx context.Context, it OrderItem) error
	UpdateItem(ctx context.Context, it OrderItem) error
	DeleteItem(ctx context.Context, itemID string) error

	GetCoupon(ctx context.Context, code string) (Coupon, error)
	UpsertCoupon(ctx context.Context, c Coupon) error
}

type PaymentTx interface {
	InsertPayment(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, orderID string) ([]Payment, error)
}

type ShipmentTx interface {
	GetShipment(ctx context.Context, orderID string) (Shipment, error)
	InsertShipment(ctx context.Context, s Shipment) error
	UpdateShipment(ctx context.Context, s Shipment) error
}

type AccountTx interface {
	InsertUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// ListUsers returns every user, or only those of role when it is set.
	ListUsers(ctx context.Context, role Role) ([]User, error)
	UpdateUser(ctx context.Context, u User) error
	// DeleteUser removes the user with their addresses, wishlist, notifications and
	// catalog. Anyone still referenced by an order, review or product yields ErrInUse.
	DeleteUser(ctx context.Context, id string) error

	InsertAddress(ctx context.Context, a Address) error
	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	GetAddress(ctx context.Context, id string) (Address, error)
	UpdateAddress(ctx context.Context, a Address) error
	// DeleteAddress fails with ErrInUse when an order ships or bills to the address.
	DeleteAddress(ctx context.Context, id string) error
}

type ReviewTx interface {
	InsertReview(ctx context.Context, r Review) error
	ReviewForItem(ctx context.Context, orderItemID string) (Review, error)
	ListReviews(ctx context.Context, productID string) ([]Review, error)
}

type WishlistTx interface {
	// AddWishlist fails with ErrAlreadyWishlisted for a repeated product.
	AddWishlist(ctx context.Context, userID, productID string, at time.Time) error
	RemoveWishlist(ctx context.Context, userID, productID string) error
	ListWishlist(ctx context.Context, userID string) ([]Product, error)
}

type NotificationTx interface {
	InsertNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string, since time.Time) ([]Notification, error)
}
