package main

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/urfave/cli/v3"
)

// Applicator is what the commands drive; shop implements it against the configured store.
type Applicator interface {
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, password string) (SeedResult, error)
	CreateAdmin(ctx context.Context, email, name, password string) (orders.User, error)
	Restock(ctx context.Context, productID string, qty int) (int, error)
	Stock(ctx context.Context, productID string) (int, error)
	Ship(ctx context.Context, orderID, trackingNumber string) (orders.Shipment, error)
	Deliver(ctx context.Context, orderID string) (orders.Shipment, error)
	Cancel(ctx context.Context, orderID, reason string) (orders.Order, error)
}

func BuildCLI(app Applicator) *cli.Command {
	productFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "product", Aliases: []string{"p"}, Usage: "product id", Required: true}
	}
	orderFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "order", Aliases: []string{"o"}, Usage: "order id", Required: true}
	}

	migrateCmd := &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := app.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, "schema up to date")
			return nil
		},
	}

	seedCmd := &cli.Command{
		Name:  "seed",
		Usage: "Load demo users, products and a coupon",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Value: "secret1", Usage: "password for every seeded user"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			res, err := app.Seed(ctx, c.String("password"))
			if err != nil {
				return err
			}
			w := c.Root().Writer
			fmt.Fprintf(w, "admin     %s\n", res.Admin.Email)
			fmt.Fprintf(w, "seller    %s\n", res.Seller.Email)
			fmt.Fprintf(w, "customer  %s\n", res.Customer.Email)
			for _, p := range res.Products {
				fmt.Fprintf(w, "product   %s  %-12s price=%s stock=%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
			}
			fmt.Fprintf(w, "coupon    %s (%d%%)\n", res.Coupon.Code, res.Coupon.DiscountPercent)
			return nil
		},
	}

	adminCmd := &cli.Command{
		Name:  "create-admin",
		Usage: "Create an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "name", Value: "admin"},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			u, err := app.CreateAdmin(ctx, c.String("email"), c.String("name"), c.String("password"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "admin %s created (%s)\n", u.Email, u.ID)
			return nil
		},
	}

	restockCmd := &cli.Command{
		Name:  "restock",
		Usage: "Add units to a product's stock",
		Flags: []cli.Flag{
			productFlag(),
			&cli.IntFlag{Name: "qty", Aliases: []string{"q"}, Usage: "units to add", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			stock, err := app.Restock(ctx, c.String("product"), c.Int("qty"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s stock=%d\n", c.String("product"), stock)
			return nil
		},
	}

	stockCmd := &cli.Command{
		Name:  "stock",
		Usage: "Print a product's stock",
		Flags: []cli.Flag{productFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			stock, err := app.Stock(ctx, c.String("product"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s stock=%d\n", c.String("product"), stock)
			return nil
		},
	}

	shipCmd := &cli.Command{
		Name:  "ship",
		Usage: "Mark a paid order as shipped",
		Flags: []cli.Flag{
			orderFlag(),
			&cli.StringFlag{Name: "tracking", Usage: "tracking number; keeps the generated one when empty"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			sh, err := app.Ship(ctx, c.String("order"), c.String("tracking"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s shipment=%s tracking=%s\n", c.String("order"), sh.Status, sh.TrackingNumber)
			return nil
		},
	}

	deliverCmd := &cli.Command{
		Name:  "deliver",
		Usage: "Mark a shipped order as delivered",
		Flags: []cli.Flag{orderFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			sh, err := app.Deliver(ctx, c.String("order"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s shipment=%s\n", c.String("order"), sh.Status)
			return nil
		},
	}

	cancelCmd := &cli.Command{
		Name:  "cancel",
		Usage: "Cancel a pending or paid order, restoring stock and refunding when paid",
		Flags: []cli.Flag{
			orderFlag(),
			&cli.StringFlag{Name: "reason", Value: "canceled by operator"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			o, err := app.Cancel(ctx, c.String("order"), c.String("reason"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s status=%s\n", o.ID, o.Status)
			return nil
		},
	}

	return &cli.Command{
		Name:  "shopctl",
		Usage: "Operate the shop database (DB_DRIVER, POSTGRES_DSN and SQLITE_PATH select the store)",
		Commands: []*cli.Command{
			migrateCmd, seedCmd, adminCmd, restockCmd, stockCmd, shipCmd, deliverCmd, cancelCmd,
		},
	}
}
