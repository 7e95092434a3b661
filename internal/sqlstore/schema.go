package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// migrations use dialect-neutral type markers that are substituted before execution.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id       TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('customer','seller','admin')),
		password_hash {{bytes}} NOT NULL,
		created_at    {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalogs (
		catalog_id TEXT PRIMARY KEY,
		seller_id  TEXT NOT NULL UNIQUE REFERENCES users(user_id),
		name       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		category_id TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id     TEXT PRIMARY KEY,
		catalog_id     TEXT NOT NULL REFERENCES catalogs(catalog_id),
		category_id    TEXT REFERENCES categories(category_id),
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		price          {{money}} NOT NULL,
		stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_catalog ON products(catalog_id)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		address_id  TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(user_id),
		line        TEXT NOT NULL,
		city        TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		country     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		code             TEXT PRIMARY KEY,
		discount_percent INTEGER NOT NULL CHECK (discount_percent BETWEEN 1 AND 100),
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		expiry_date      {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id            TEXT PRIMARY KEY,
		customer_id         TEXT NOT NULL REFERENCES users(user_id),
		seller_id           TEXT NOT NULL REFERENCES users(user_id),
		shipping_address_id TEXT NOT NULL REFERENCES addresses(address_id),
		billing_address_id  TEXT NOT NULL REFERENCES addresses(address_id),
		status              TEXT NOT NULL CHECK (status IN ('ongoing','pending','paid','shipped','delivered','canceled')),
		total_amount        {{money}} NOT NULL,
		coupon_code         TEXT NOT NULL DEFAULT '',
		discount_percent    INTEGER NOT NULL DEFAULT 0,
		notes               TEXT NOT NULL DEFAULT '',
		created_at          {{ts}} NOT NULL,
		updated_at          {{ts}} NOT NULL
	)`,
	// the cart: at most one ongoing order per customer.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_ongoing ON orders(customer_id) WHERE status = 'ongoing'`,
	`CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_id, status)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_item_id     TEXT PRIMARY KEY,
		order_id          TEXT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		product_id        TEXT NOT NULL REFERENCES products(product_id),
		quantity          INTEGER NOT NULL CHECK (quantity > 0),
		price_at_purchase {{money}} NOT NULL,
		subtotal          {{money}} NOT NULL,
		UNIQUE (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		payment_id     TEXT PRIMARY KEY,
		order_id       TEXT NOT NULL REFERENCES orders(order_id),
		amount         {{money}} NOT NULL,
		method         TEXT NOT NULL,
		status         TEXT NOT NULL CHECK (status IN ('pending','completed','failed')),
		transaction_id TEXT NOT NULL UNIQUE,
		created_at     {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order ON payments(order_id)`,
	`CREATE TABLE IF NOT EXISTS shipments (
		shipment_id     TEXT PRIMARY KEY,
		order_id        TEXT NOT NULL UNIQUE REFERENCES orders(order_id),
		tracking_number TEXT NOT NULL UNIQUE,
		status          TEXT NOT NULL CHECK (status IN ('preparing','in_transit','delivered','failed')),
		shipped_date    {{ts}},
		delivery_date   {{ts}},
		created_at      {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		review_id     TEXT PRIMARY KEY,
		customer_id   TEXT NOT NULL REFERENCES users(user_id),
		product_id    TEXT NOT NULL REFERENCES products(product_id),
		order_id      TEXT NOT NULL REFERENCES orders(order_id),
		order_item_id TEXT NOT NULL UNIQUE REFERENCES order_items(order_item_id),
		rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment       TEXT NOT NULL DEFAULT '',
		created_at    {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wishlists (
		user_id    TEXT NOT NULL REFERENCES users(user_id),
		product_id TEXT NOT NULL REFERENCES products(product_id),
		created_at {{ts}} NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		notification_id TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users(user_id),
		message         TEXT NOT NULL,
		is_read         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id         {{serial}},
		event_id   TEXT NOT NULL UNIQUE,
		topic      TEXT NOT NULL,
		key        TEXT NOT NULL,
		payload    {{json}} NOT NULL,
		created_at {{ts}} NOT NULL,
		sent_at    {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(id) WHERE sent_at IS NULL`,
}

func (d Dialect) replacer() *strings.Replacer {
	if d == SQLite {
		return strings.NewReplacer(
			"{{money}}", "TEXT",
			"{{ts}}", "DATETIME",
			"{{bytes}}", "BLOB",
			"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{json}}", "TEXT",
		)
	}
	return strings.NewReplacer(
		"{{money}}", "NUMERIC(12,2)",
		"{{ts}}", "TIMESTAMPTZ",
		"{{bytes}}", "BYTEA",
		"{{serial}}", "BIGSERIAL PRIMARY KEY",
		"{{json}}", "JSONB",
	)
}

// Migrate creates the schema; it is safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	r := db.dialect.replacer()
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, r.Replace(m)); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
