// pizzeria is the storefront CLI and the mock API server.
//
// Usage:
//
//	pizzeria serve [--port=8080]
//	pizzeria menu [--search=<text>] [--price=under14|under16|over16] [--sort=name|price-asc|price-desc|favorites] [--favorites]
//	pizzeria signup|login <username> <password>
//	pizzeria logout | whoami
//	pizzeria cart [show|add|update|remove|clear]
//	pizzeria fav [list|toggle <pizza-id>]
//	pizzeria build --size=M --topping=Cheese --topping=Olives [--name=<name>]
//	pizzeria checkout --name=<name> --phone=<+number> --address=<address> [--priority]
//	pizzeria track <order-id> [--watch]
//	pizzeria orders
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/itsneelabh/pizzeria/core"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", core.UserMessage(err))
		stop()
		os.Exit(1)
	}
}
