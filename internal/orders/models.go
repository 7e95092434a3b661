package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `db:"product_id" json:"id"`
	CatalogID   string          `db:"catalog_id" json:"catalog_id"`
	SellerID    string          `db:"seller_id" json:"seller_id"`
	CategoryID  string          `db:"category_id" json:"category_id,omitempty"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock_quantity" json:"stock"`
	Active      bool            `db:"is_active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type Order struct {
	ID                string          `db:"order_id" json:"id"`
	CustomerID        string          `db:"customer_id" json:"customer_id"`
	SellerID          string          `db:"seller_id" json:"seller_id"`
	ShippingAddressID string          `db:"shipping_address_id" json:"shipping_address_id"`
	BillingAddressID  string          `db:"billing_address_id" json:"billing_address_id"`
	Status            Status          `db:"status" json:"status"`
	Total             decimal.Decimal `db:"total_amount" json:"total"`
	CouponCode        string          `db:"coupon_code" json:"coupon_code,omitempty"`
	DiscountPercent   int             `db:"discount_percent" json:"discount_percent,omitempty"`
	Notes             string          `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// AmountDue is the total after the coupon discount, rounded to cents.
func (o Order) AmountDue() decimal.Decimal {
	if o.DiscountPercent <= 0 {
		return o.Total
	}
	keep := decimal.NewFromInt(int64(100 - o.DiscountPercent))
	return o.Total.Mul(keep).Div(decimal.NewFromInt(100)).Round(2)
}

// Recompute sets Total to the sum of the item subtotals.
func (o *Order) Recompute(items []OrderItem) {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	o.Total = total
	o.Items = items
}

type OrderItem struct {
	ID        string          `db:"order_item_id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"price_at_purchase" json:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// SetQuantity updates the quantity and derives the subtotal from the captured unit price.
func (it *OrderItem) SetQuantity(q int) error {
	if q <= 0 {
		return ErrInvalidQuantity
	}
	it.Quantity = q
	it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(q)))
	return nil
}

type Payment struct {
	ID            string          `db:"payment_id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Method        string          `db:"method" json:"method"`
	Status        PaymentStatus   `db:"status" json:"status"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// CompletedSum adds up completed payments, refunds included.
func CompletedSum(ps []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range ps {
		if p.Status == PaymentCompleted {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

type Shipment struct {
	ID             string         `db:"shipment_id" json:"id"`
	OrderID        string         `db:"order_id" json:"order_id"`
	TrackingNumber string         `db:"tracking_number" json:"tracking_number"`
	Status         ShipmentStatus `db:"status" json:"status"`
	ShippedAt      *time.Time     `db:"shipped_date" json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time     `db:"delivery_date" json:"delivered_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

type User struct {
	ID           string    `db:"user_id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Catalog struct {
	ID       string `db:"catalog_id" json:"id"`
	SellerID string `db:"seller_id" json:"seller_id"`
	Name     string `db:"name" json:"name"`
}

type Category struct {
	ID   string `db:"category_id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Address struct {
	ID         string `db:"address_id" json:"id"`
	UserID     string `db:"user_id" json:"user_id"`
	Line       string `db:"line" json:"line"`
	City       string `db:"city" json:"city"`
	PostalCode string `db:"postal_code" json:"postal_code"`
	Country    string `db:"country" json:"country"`
}

type Coupon struct {
	Code            string    `db:"code" json:"code"`
	DiscountPercent int       `db:"discount_percent" json:"discount_percent"`
	Active          bool      `db:"is_active" json:"active"`
	ExpiresAt       time.Time `db:"expiry_date" json:"expires_at"`
}

// Usable reports whether the coupon can be applied at `now`.
func (c Coupon) Usable(now time.Time) bool {
	return c.Active && !now.After(c.ExpiresAt) && c.DiscountPercent > 0 && c.DiscountPercent <= 100
}

type Review struct {
	ID          string    `db:"review_id" json:"id"`
	CustomerID  string    `db:"customer_id" json:"customer_id"`
	ProductID   string    `db:"product_id" json:"product_id"`
	OrderID     string    `db:"order_id" json:"order_id"`
	OrderItemID string    `db:"order_item_id" json:"order_item_id"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID        string    `db:"notification_id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"is_read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
