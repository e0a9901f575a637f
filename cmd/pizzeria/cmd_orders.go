package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/orders"
)

func newCheckoutCmd(g *globalFlags) *cobra.Command {
	var form orders.CheckoutForm

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Long: `Places an order for everything in the cart. When the order service cannot
be reached the order is accepted in demo mode under a DEMO- id and can still
be tracked locally.`,
		Example: `  pizzeria checkout --name "Mike Johnson" --phone +38970123456 --address "Main St 1" --priority`,
		Args:    cobra.NoArgs,
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			receipt, err := sf.Orders.Checkout(ctx, form)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %s confirmed.\n", receipt.OrderID)
			if receipt.Demo {
				fmt.Fprintln(out, "The order service is unavailable; the order was accepted in demo mode.")
			}
			if err := printLines(out, receipt.Order.Cart); err != nil {
				return err
			}
			printBill(out, receipt.Bill)
			fmt.Fprintf(out, "Track it with: pizzeria track %s\n", receipt.OrderID)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&form.Customer, "name", "", "customer name, letters with at most one space")
	f.StringVar(&form.Phone, "phone", "", "phone number starting with +")
	f.StringVar(&form.Address, "address", "", "delivery address")
	f.BoolVar(&form.Priority, "priority", false, "priority delivery (+20%)")
	return cmd
}

func newTrackCmd(g *globalFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "track <order-id>",
		Short: "Show the delivery progress of an order",
		Args:  cobra.ExactArgs(1),
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
			tracked, err := sf.Orders.Lookup(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printOrder(out, tracked)
			if !watch {
				printProgress(out, tracked.Progress)
				return nil
			}
			return watchOrder(ctx, out, sf, tracked)
		}),
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing stage changes until delivered")
	return cmd
}

// watchOrder prints the progress on every stage advance until the order is
// delivered or ctx is cancelled.
func watchOrder(ctx context.Context, out io.Writer, sf *pizzeria.Storefront, tracked *orders.Tracked) error {
	tracker := sf.Orders.Track(ctx, tracked)
	defer tracker.Stop()

	var mu sync.Mutex
	unsubscribe := tracker.Subscribe(func(p orders.Progress) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "\n%s\n", time.Now().Local().Format(time.Kitchen))
		printProgress(out, p)
	})
	defer unsubscribe()

	<-tracker.Done()
	if tracker.Current().Delivered() {
		fmt.Fprintln(out, "Delivered. Enjoy your meal!")
	}
	return nil
}

func printOrder(out io.Writer, tracked *orders.Tracked) {
	o := tracked.Order
	fmt.Fprintf(out, "Order %s for %s\n", o.OrderID, o.Customer)
	if o.Address != "" {
		fmt.Fprintf(out, "Deliver to: %s\n", o.Address)
	}
	if orders.IsDemoID(o.OrderID) {
		fmt.Fprintln(out, "(demo order)")
	}
	if len(o.Cart) > 0 {
		_ = printLines(out, o.Cart)
		printBill(out, tracked.Bill)
	}
	fmt.Fprintln(out)
}

func newOrdersCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List orders placed from this storefront, newest first",
		Args:  cobra.NoArgs,
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			out := cmd.OutOrStdout()
			history := sf.Orders.History(ctx)
			if len(history) == 0 {
				fmt.Fprintln(out, "No orders yet.")
				return nil
			}
			w := newTable(out)
			fmt.Fprintln(w, "ORDER\tPLACED\tCUSTOMER\tSTATUS\tTOTAL")
			now := time.Now()
			for _, o := range history {
				status := orders.Timeline(o.OrderTime, now).Status
				bill := core.Price(o.Cart, o.Priority)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					o.OrderID, o.OrderTime.Local().Format(time.DateTime), o.Customer, status, money(bill.Total))
			}
			return w.Flush()
		}),
	}
}
