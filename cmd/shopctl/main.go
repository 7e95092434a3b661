package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ariefcatur/go-shop-orders/internal/config"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// warnings and errors only; command output goes to stdout.
	log, err := logging.NewLogger("shopctl", "warn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(log)

	app := newShop(cfg)
	err = BuildCLI(app).Run(context.Background(), os.Args)
	app.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
