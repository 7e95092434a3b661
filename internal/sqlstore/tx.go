package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/jmoiron/sqlx"
)

type tx struct {
	tx      *sqlx.Tx
	dialect Dialect
}

var _ orders.Tx = (*tx)(nil)

func (t *tx) q(query string) string { return t.tx.Rebind(query) }

func (t *tx) forUpdate(of string) string { return t.dialect.forUpdate(of) }

// forUpdate is the row-lock suffix; SQLite has none and relies on its single connection.
func (d Dialect) forUpdate(of string) string {
	if d != Postgres {
		return ""
	}
	if of != "" {
		return " FOR UPDATE OF " + of
	}
	return " FOR UPDATE"
}

func (d Dialect) bindType() int {
	if d == Postgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

func (t *tx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, t.q(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- products ----

const productSelect = `SELECT p.product_id, p.catalog_id, c.seller_id, COALESCE(p.category_id, '') AS category_id,
	p.name, p.description, p.price, p.stock_quantity, p.is_active, p.created_at
	FROM products p JOIN catalogs c ON c.catalog_id = p.catalog_id`

func (t *tx) GetProduct(ctx context.Context, id string) (orders.Product, error) {
	var p orders.Product
	err := t.tx.GetContext(ctx, &p, t.q(productSelect+` WHERE p.product_id = ?`), id)
	return p, notFound(err, orders.ErrNotFound)
}

func (t *tx) LockProducts(ctx context.Context, ids []string) (map[string]orders.Product, error) {
	uniq := sortedUnique(ids)
	if len(uniq) == 0 {
		return map[string]orders.Product{}, nil
	}
	query, args, err := lockProductsQuery(t.dialect, uniq)
	if err != nil {
		return nil, err
	}
	var ps []orders.Product
	if err := t.tx.SelectContext(ctx, &ps, query, args...); err != nil {
		return nil, err
	}
	out := make(map[string]orders.Product, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	for _, id := range uniq {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("product %s: %w", id, orders.ErrNotFound)
		}
	}
	return out, nil
}

// lockProductsQuery selects ids in ascending order, which is also the order Postgres
// takes the row locks in. Two checkouts sharing products therefore never deadlock.
func lockProductsQuery(d Dialect, ids []string) (string, []any, error) {
	query, args, err := sqlx.In(productSelect+` WHERE p.product_id IN (?) ORDER BY p.product_id`+d.forUpdate("p"), ids)
	if err != nil {
		return "", nil, err
	}
	return sqlx.Rebind(d.bindType(), query), args, nil
}

func sortedUnique(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (t *tx) AddStock(ctx context.Context, productID string, delta int) error {
	n, err := t.exec(ctx, `UPDATE products SET stock_quantity = stock_quantity + ?
		WHERE product_id = ? AND stock_quantity + ? >= 0`, delta, productID, delta)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := t.GetProduct(ctx, productID); err != nil {
		return err
	}
	return fmt.Errorf("stock of %s would drop below zero: %w", productID, orders.ErrConflict)
}

func (t *tx) InsertProduct(ctx context.Context, p orders.Product) error {
	_, err := t.exec(ctx, `INSERT INTO products
		(product_id, catalog_id, category_id, name, description, price, stock_quantity, is_active, created_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CatalogID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.Active, p.CreatedAt)
	return err
}

// UpdateProduct never writes stock_quantity; stock only moves through AddStock.
func (t *tx) UpdateProduct(ctx context.Context, p orders.Product) error {
	n, err := t.exec(ctx, `UPDATE products SET category_id = NULLIF(?, ''), name = ?, description = ?, price = ?, is_active = ?
		WHERE product_id = ?`, p.CategoryID, p.Name, p.Description, p.Price, p.Active, p.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (t *tx) ListProducts(ctx context.Context, f orders.ProductFilter) ([]orders.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.SellerID != "" {
		where = append(where, "c.seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.OnlyActive {
		where = append(where, "p.is_active = ?")
		args = append(args, true)
	}
	query := productSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.name, p.product_id"

	var out []orders.Product
	err := t.tx.SelectContext(ctx, &out, t.q(query), args...)
	return out, err
}

func (t *tx) InsertCatalog(ctx context.Context, c orders.Catalog) error {
	_, err := t.exec(ctx, `INSERT INTO catalogs (catalog_id, seller_id, name) VALUES (?, ?, ?)`, c.ID, c.SellerID, c.Name)
	return err
}

func (t *tx) CatalogOfSeller(ctx context.Context, sellerID string) (orders.Catalog, error) {
	var c orders.Catalog
	err := t.tx.GetContext(ctx, &c, t.q(`SELECT catalog_id, seller_id, name FROM catalogs WHERE seller_id = ?`), sellerID)
	return c, notFound(err, orders.ErrNotFound)
}

func (t *tx) InsertCategory(ctx context.Context, c orders.Category) error {
	_, err := t.exec(ctx, `INSERT INTO categories (category_id, name) VALUES (?, ?)`, c.ID, c.Name)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", c.Name, orders.ErrConflict)
	}
	return err
}

func (t *tx) UpdateCategory(ctx context.Context, c orders.Category) error {
	n, err := t.exec(ctx, `UPDATE categories SET name = ? WHERE category_id = ?`, c.Name, c.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", c.Name, orders.ErrConflict)
	}
	return affected(n, err)
}

func (t *tx) DeleteCategory(ctx context.Context, id string) error {
	n, err := t.exec(ctx, `DELETE FROM categories WHERE category_id = ?`, id)
	return affected(n, inUse(err, "category "+id))
}

func (t *tx) ListCategories(ctx context.Context) ([]orders.Category, error) {
	var out []orders.Category
	err := t.tx.SelectContext(ctx, &out, `SELECT category_id, name FROM categories ORDER BY name`)
	return out, err
}

// ---- orders ----

const orderSelect = `SELECT order_id, customer_id, seller_id, shipping_address_id, billing_address_id, status,
	total_amount, coupon_code, discount_percent, notes, created_at, updated_at FROM orders`

func (t *tx) GetOrder(ctx context.Context, id string, forUpdate bool) (orders.Order, error) {
	var o orders.Order
	err := t.tx.GetContext(ctx, &o, getOrderQuery(t.dialect, forUpdate), id)
	return o, notFound(err, orders.ErrOrderNotFound)
}

func getOrderQuery(d Dialect, forUpdate bool) string {
	query := orderSelect + ` WHERE order_id = ?`
	if forUpdate {
		query += d.forUpdate("")
	}
	return sqlx.Rebind(d.bindType(), query)
}

func (t *tx) FindOngoingOrder(ctx context.Context, customerID string) (orders.Order, error) {
	var o orders.Order
	err := t.tx.GetContext(ctx, &o, t.q(orderSelect+` WHERE customer_id = ? AND status = ?`+t.forUpdate("")),
		customerID, orders.StatusOngoing)
	return o, notFound(err, orders.ErrNotFound)
}

func (t *tx) InsertOrder(ctx context.Context, o orders.Order) error {
	_, err := t.exec(ctx, `INSERT INTO orders
		(order_id, customer_id, seller_id, shipping_address_id, billing_address_id, status,
		 total_amount, coupon_code, discount_percent, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.SellerID, o.ShippingAddressID, o.BillingAddressID, o.Status,
		o.Total, o.CouponCode, o.DiscountPercent, o.Notes, o.CreatedAt, o.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("customer %s already has an open cart: %w", o.CustomerID, orders.ErrConflict)
	}
	return err
}

func (t *tx) UpdateOrder(ctx context.Context, o orders.Order) error {
	n, err := t.exec(ctx, `UPDATE orders SET seller_id = ?, shipping_address_id = ?, billing_address_id = ?, status = ?,
		total_amount = ?, coupon_code = ?, discount_percent = ?, notes = ?, updated_at = ?
		WHERE order_id = ?`,
		o.SellerID, o.ShippingAddressID, o.BillingAddressID, o.Status, o.Total, o.CouponCode, o.DiscountPercent,
		o.Notes, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.ErrOrderNotFound
	}
	return nil
}

func (t *tx) ListOrders(ctx context.Context, f orders.OrderFilter) ([]orders.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.CustomerID != "" {
		where = append(where, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.SellerID != "" {
		where = append(where, "seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, order_id"

	var out []orders.Order
	err := t.tx.SelectContext(ctx, &out, t.q(query), args...)
	return out, err
}

const itemSelect = `SELECT order_item_id, order_id, product_id, quantity, price_at_purchase, subtotal FROM order_items`

func (t *tx) ListItems(ctx context.Context, orderID string) ([]orders.OrderItem, error) {
	var out []orders.OrderItem
	err := t.tx.SelectContext(ctx, &out, t.q(itemSelect+` WHERE order_id = ? ORDER BY product_id`), orderID)
	return out, err
}

func (t *tx) GetItem(ctx context.Context, itemID string) (orders.OrderItem, error) {
	var it orders.OrderItem
	err := t.tx.GetContext(ctx, &it, t.q(itemSelect+` WHERE order_item_id = ?`), itemID)
	return it, notFound(err, orders.ErrNotFound)
}

func (t *tx) InsertItem(ctx context.Context, it orders.OrderItem) error {
	_, err := t.exec(ctx, `INSERT INTO order_items
		(order_item_id, order_id, product_id, quantity, price_at_purchase, subtotal)
		VALUES (?, ?, ?, ?, ?, ?)`,
		it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal)
	return err
}

// UpdateItem rewrites quantity and subtotal; price_at_purchase is immutable.
func (t *tx) UpdateItem(ctx context.Context, it orders.OrderItem) error {
	n, err := t.exec(ctx, `UPDATE order_items SET quantity = ?, subtotal = ? WHERE order_item_id = ?`,
		it.Quantity, it.Subtotal, it.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, itemID string) error {
	n, err := t.exec(ctx, `DELETE FROM order_items WHERE order_item_id = ?`, itemID)
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (t *tx) GetCoupon(ctx context.Context, code string) (orders.Coupon, error) {
	var c orders.Coupon
	err := t.tx.GetContext(ctx, &c, t.q(`SELECT code, discount_percent, is_active, expiry_date FROM coupons WHERE code = ?`), code)
	return c, notFound(err, orders.ErrInvalidCoupon)
}

func (t *tx) UpsertCoupon(ctx context.Context, c orders.Coupon) error {
	_, err := t.exec(ctx, `INSERT INTO coupons (code, discount_percent, is_active, expiry_date) VALUES (?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET discount_percent = excluded.discount_percent,
			is_active = excluded.is_active, expiry_date = excluded.expiry_date`,
		c.Code, c.DiscountPercent, c.Active, c.ExpiresAt)
	return err
}

// ---- payments & shipments ----

func (t *tx) InsertPayment(ctx context.Context, p orders.Payment) error {
	_, err := t.exec(ctx, `INSERT INTO payments (payment_id, order_id, amount, method, status, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrderID, p.Amount, p.Method, p.Status, p.TransactionID, p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction id %s: %w", p.TransactionID, orders.ErrConflict)
	}
	return err
}

func (t *tx) ListPayments(ctx context.Context, orderID string) ([]orders.Payment, error) {
	var out []orders.Payment
	err := t.tx.SelectContext(ctx, &out, t.q(`SELECT payment_id, order_id, amount, method, status, transaction_id, created_at
		FROM payments WHERE order_id = ? ORDER BY created_at, payment_id`), orderID)
	return out, err
}

const shipmentSelect = `SELECT shipment_id, order_id, tracking_number, status, shipped_date, delivery_date, created_at FROM shipments`

func (t *tx) GetShipment(ctx context.Context, orderID string) (orders.Shipment, error) {
	var s orders.Shipment
	err := t.tx.GetContext(ctx, &s, t.q(shipmentSelect+` WHERE order_id = ?`), orderID)
	return s, notFound(err, orders.ErrNotFound)
}

func (t *tx) InsertShipment(ctx context.Context, s orders.Shipment) error {
	_, err := t.exec(ctx, `INSERT INTO shipments (shipment_id, order_id, tracking_number, status, shipped_date, delivery_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OrderID, s.TrackingNumber, s.Status, s.ShippedAt, s.DeliveredAt, s.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("shipment for order %s: %w", s.OrderID, orders.ErrConflict)
	}
	return err
}

func (t *tx) UpdateShipment(ctx context.Context, s orders.Shipment) error {
	n, err := t.exec(ctx, `UPDATE shipments SET tracking_number = ?, status = ?, shipped_date = ?, delivery_date = ?
		WHERE shipment_id = ?`, s.TrackingNumber, s.Status, s.ShippedAt, s.DeliveredAt, s.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.ErrNotFound
	}
	return nil
}

// ---- accounts ----

const userSelect = `SELECT user_id, email, name, role, password_hash, created_at FROM users`

func (t *tx) InsertUser(ctx context.Context, u orders.User) error {
	_, err := t.exec(ctx, `INSERT INTO users (user_id, email, name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return orders.ErrEmailTaken
	}
	return err
}

func (t *tx) GetUser(ctx context.Context, id string) (orders.User, error) {
	var u orders.User
	err := t.tx.GetContext(ctx, &u, t.q(userSelect+` WHERE user_id = ?`), id)
	return u, notFound(err, orders.ErrNotFound)
}

func (t *tx) GetUserByEmail(ctx context.Context, email string) (orders.User, error) {
	var u orders.User
	err := t.tx.GetContext(ctx, &u, t.q(userSelect+` WHERE email = ?`), email)
	return u, notFound(err, orders.ErrNotFound)
}

func (t *tx) ListUsers(ctx context.Context, role orders.Role) ([]orders.User, error) {
	query, args := userSelect, []any{}
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	var out []orders.User
	err := t.tx.SelectContext(ctx, &out, t.q(query+` ORDER BY name, user_id`), args...)
	return out, err
}

func (t *tx) UpdateUser(ctx context.Context, u orders.User) error {
	n, err := t.exec(ctx, `UPDATE users SET email = ?, name = ?, role = ? WHERE user_id = ?`, u.Email, u.Name, u.Role, u.ID)
	if isUniqueViolation(err) {
		return orders.ErrEmailTaken
	}
	return affected(n, err)
}

func (t *tx) DeleteUser(ctx context.Context, id string) error {
	for _, table := range []string{"wishlists", "notifications", "addresses", "catalogs"} {
		col := "user_id"
		if table == "catalogs" {
			col = "seller_id"
		}
		if _, err := t.exec(ctx, `DELETE FROM `+table+` WHERE `+col+` = ?`, id); err != nil {
			return inUse(err, "user "+id)
		}
	}
	n, err := t.exec(ctx, `DELETE FROM users WHERE user_id = ?`, id)
	return affected(n, inUse(err, "user "+id))
}

func (t *tx) InsertAddress(ctx context.Context, a orders.Address) error {
	_, err := t.exec(ctx, `INSERT INTO addresses (address_id, user_id, line, city, postal_code, country) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Line, a.City, a.PostalCode, a.Country)
	return err
}

const addressSelect = `SELECT address_id, user_id, line, city, postal_code, country FROM addresses`

func (t *tx) ListAddresses(ctx context.Context, userID string) ([]orders.Address, error) {
	var out []orders.Address
	err := t.tx.SelectContext(ctx, &out, t.q(addressSelect+` WHERE user_id = ? ORDER BY address_id`), userID)
	return out, err
}

func (t *tx) GetAddress(ctx context.Context, id string) (orders.Address, error) {
	var a orders.Address
	err := t.tx.GetContext(ctx, &a, t.q(addressSelect+` WHERE address_id = ?`), id)
	return a, notFound(err, orders.ErrNotFound)
}

func (t *tx) UpdateAddress(ctx context.Context, a orders.Address) error {
	n, err := t.exec(ctx, `UPDATE addresses SET line = ?, city = ?, postal_code = ?, country = ?
		WHERE address_id = ? AND user_id = ?`, a.Line, a.City, a.PostalCode, a.Country, a.ID, a.UserID)
	return affected(n, err)
}

func (t *tx) DeleteAddress(ctx context.Context, id string) error {
	n, err := t.exec(ctx, `DELETE FROM addresses WHERE address_id = ?`, id)
	return affected(n, inUse(err, "address "+id))
}

// affected maps "no row touched" to ErrNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.ErrNotFound
	}
	return nil
}

// ---- wishlists ----

func (t *tx) AddWishlist(ctx context.Context, userID, productID string, at time.Time) error {
	_, err := t.exec(ctx, `INSERT INTO wishlists (user_id, product_id, created_at) VALUES (?, ?, ?)`, userID, productID, at)
	if isUniqueViolation(err) {
		return orders.ErrAlreadyWishlisted
	}
	return err
}

func (t *tx) RemoveWishlist(ctx context.Context, userID, productID string) error {
	n, err := t.exec(ctx, `DELETE FROM wishlists WHERE user_id = ? AND product_id = ?`, userID, productID)
	return affected(n, err)
}

func (t *tx) ListWishlist(ctx context.Context, userID string) ([]orders.Product, error) {
	var out []orders.Product
	err := t.tx.SelectContext(ctx, &out, t.q(productSelect+` JOIN wishlists w ON w.product_id = p.product_id
		WHERE w.user_id = ? ORDER BY w.created_at DESC, p.product_id`), userID)
	return out, err
}

// ---- reviews & notifications ----

const reviewSelect = `SELECT review_id, customer_id, product_id, order_id, order_item_id, rating, comment, created_at FROM reviews`

func (t *tx) InsertReview(ctx context.Context, r orders.Review) error {
	_, err := t.exec(ctx, `INSERT INTO reviews (review_id, customer_id, product_id, order_id, order_item_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CustomerID, r.ProductID, r.OrderID, r.OrderItemID, r.Rating, r.Comment, r.CreatedAt)
	if isUniqueViolation(err) {
		return orders.ErrAlreadyReviewed
	}
	return err
}

func (t *tx) ReviewForItem(ctx context.Context, orderItemID string) (orders.Review, error) {
	var r orders.Review
	err := t.tx.GetContext(ctx, &r, t.q(reviewSelect+` WHERE order_item_id = ?`), orderItemID)
	return r, notFound(err, orders.ErrNotFound)
}

func (t *tx) ListReviews(ctx context.Context, productID string) ([]orders.Review, error) {
	var out []orders.Review
	err := t.tx.SelectContext(ctx, &out, t.q(reviewSelect+` WHERE product_id = ? ORDER BY created_at DESC, review_id`), productID)
	return out, err
}

func (t *tx) InsertNotification(ctx context.Context, n orders.Notification) error {
	_, err := t.exec(ctx, `INSERT INTO notifications (notification_id, user_id, message, is_read, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Message, n.Read, n.CreatedAt)
	return err
}

func (t *tx) ListNotifications(ctx context.Context, userID string, since time.Time) ([]orders.Notification, error) {
	var out []orders.Notification
	err := t.tx.SelectContext(ctx, &out, t.q(`SELECT notification_id, user_id, message, is_read, created_at
		FROM notifications WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC, notification_id`),
		userID, since.UTC())
	return out, err
}

// ---- outbox ----

func (t *tx) AppendEvent(ctx context.Context, ev orders.Event) error {
	payload, err := jsonString(ev.Envelope)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, `INSERT INTO outbox (event_id, topic, key, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.Envelope.EventID, ev.Topic, ev.Envelope.CorrelationID, payload, ev.Envelope.OccurredAt)
	if isUniqueViolation(err) {
		return errors.New("outbox: duplicate event id " + ev.Envelope.EventID)
	}
	return err
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode outbox payload: %w", err)
	}
	return string(b), nil
}
