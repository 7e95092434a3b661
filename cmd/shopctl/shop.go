package main

import (
	"context"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/accounts"
	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/checkout"
	"github.com/ariefcatur/go-shop-orders/internal/config"
	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/sqlstore"
	"github.com/shopspring/decimal"
)

// shop opens the store on first use so --help never touches the database.
type shop struct {
	open func(ctx context.Context) (*sqlstore.DB, error)
	db   *sqlstore.DB
}

func newShop(cfg config.Config) *shop {
	return &shop{open: func(ctx context.Context) (*sqlstore.DB, error) {
		return sqlstore.Open(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.SQLitePath)
	}}
}

func (s *shop) store(ctx context.Context) (*sqlstore.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

func (s *shop) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *shop) orchestrator(ctx context.Context) (*checkout.Orchestrator, error) {
	db, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return checkout.New(db, inventory.NewLedger(db), nil, "shopctl"), nil
}

func (s *shop) Migrate(ctx context.Context) error {
	db, err := s.store(ctx)
	if err != nil {
		return err
	}
	return db.Migrate(ctx)
}

type SeedResult struct {
	Admin    orders.User
	Seller   orders.User
	Customer orders.User
	Products []orders.Product
	Coupon   orders.Coupon
}

var seedProducts = []catalog.ProductInput{
	{Name: "Espresso cup", Price: decimal.RequireFromString("7.50"), Stock: 40},
	{Name: "Pour-over kit", Price: decimal.RequireFromString("34.00"), Stock: 12},
	{Name: "Grinder", Price: decimal.RequireFromString("129.99"), Stock: 5},
}

// Seed migrates and loads one user per role, a small catalog and the WELCOME10 coupon.
func (s *shop) Seed(ctx context.Context, password string) (SeedResult, error) {
	if err := s.Migrate(ctx); err != nil {
		return SeedResult{}, err
	}
	db, _ := s.store(ctx)
	accts := accounts.NewService(db)
	cat := catalog.NewService(db, inventory.NewLedger(db))

	var res SeedResult
	var err error
	if res.Admin, err = accts.Register(ctx, accounts.RegisterInput{Email: "admin@shop.test", Name: "Admin", Password: password, Role: orders.RoleAdmin}); err != nil {
		return res, err
	}
	if res.Seller, err = accts.Register(ctx, accounts.RegisterInput{Email: "seller@shop.test", Name: "Bean Works", Password: password, Role: orders.RoleSeller}); err != nil {
		return res, err
	}
	if res.Customer, err = accts.Register(ctx, accounts.RegisterInput{Email: "customer@shop.test", Name: "Casey", Password: password, Role: orders.RoleCustomer}); err != nil {
		return res, err
	}
	if _, err = accts.AddAddress(ctx, res.Customer.ID, orders.Address{Line: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}); err != nil {
		return res, err
	}
	for _, in := range seedProducts {
		p, err := cat.CreateProduct(ctx, res.Seller.ID, in)
		if err != nil {
			return res, err
		}
		res.Products = append(res.Products, p)
	}
	res.Coupon, err = cat.SaveCoupon(ctx, orders.Coupon{
		Code: "WELCOME10", DiscountPercent: 10, Active: true, ExpiresAt: time.Now().AddDate(1, 0, 0),
	})
	return res, err
}

func (s *shop) CreateAdmin(ctx context.Context, email, name, password string) (orders.User, error) {
	db, err := s.store(ctx)
	if err != nil {
		return orders.User{}, err
	}
	return accounts.NewService(db).Register(ctx, accounts.RegisterInput{Email: email, Name: name, Password: password, Role: orders.RoleAdmin})
}

func (s *shop) Restock(ctx context.Context, productID string, qty int) (int, error) {
	db, err := s.store(ctx)
	if err != nil {
		return 0, err
	}
	return inventory.NewLedger(db).Restock(ctx, productID, qty)
}

func (s *shop) Stock(ctx context.Context, productID string) (int, error) {
	db, err := s.store(ctx)
	if err != nil {
		return 0, err
	}
	return inventory.NewLedger(db).StockOf(ctx, productID)
}

func (s *shop) Ship(ctx context.Context, orderID, trackingNumber string) (orders.Shipment, error) {
	o, err := s.orchestrator(ctx)
	if err != nil {
		return orders.Shipment{}, err
	}
	return o.Ship(ctx, orderID, trackingNumber)
}

func (s *shop) Deliver(ctx context.Context, orderID string) (orders.Shipment, error) {
	o, err := s.orchestrator(ctx)
	if err != nil {
		return orders.Shipment{}, err
	}
	return o.Deliver(ctx, orderID)
}

func (s *shop) Cancel(ctx context.Context, orderID, reason string) (orders.Order, error) {
	o, err := s.orchestrator(ctx)
	if err != nil {
		return orders.Order{}, err
	}
	return o.Cancel(ctx, orderID, reason)
}
