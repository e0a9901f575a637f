package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
	"github.com/itsneelabh/pizzeria/cart"
	"github.com/itsneelabh/pizzeria/core"
)

func newCartCmd(g *globalFlags) *cobra.Command {
	var priority bool

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE: storefrontRunE(g, func(_ context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			return showCart(cmd, sf, priority)
		}),
	}
	cmd.Flags().BoolVar(&priority, "priority", false, "include the priority delivery fee in the total")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: storefrontRunE(g, func(_ context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
				return showCart(cmd, sf, false)
			}),
		},
		newCartAddCmd(g),
		&cobra.Command{
			Use:   "update <item-id> <quantity>",
			Short: "Set the quantity of a cart line; 0 removes it",
			Args:  cobra.ExactArgs(2),
			RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return core.Errorf("cli.cart.update", core.KindValidation, core.ErrInvalidQuantity,
						"%q is not a quantity", args[1])
				}
				if err := sf.Cart.UpdateQuantity(ctx, args[0], qty); err != nil {
					return err
				}
				return showCart(cmd, sf, false)
			}),
		},
		&cobra.Command{
			Use:   "remove <item-id>",
			Short: "Remove a cart line",
			Args:  cobra.ExactArgs(1),
			RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
				sf.Cart.RemoveItem(ctx, args[0])
				return showCart(cmd, sf, false)
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
				sf.Cart.Clear(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
				return nil
			}),
		},
	)
	return cmd
}

func newCartAddCmd(g *globalFlags) *cobra.Command {
	var qty int

	cmd := &cobra.Command{
		Use:   "add <pizza-id>",
		Short: "Add a menu pizza to the cart (requires login)",
		Args:  cobra.ExactArgs(1),
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
			id, err := parsePizzaID(args[0])
			if err != nil {
				return err
			}
			pizza, err := sf.FindPizza(ctx, id)
			if err != nil {
				return err
			}
			if err := sf.AddPizzas(ctx, pizza, qty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s. Cart: %d/%d pizzas, %s\n",
				qty, pizza.Name, sf.Cart.TotalQuantity(), cart.MaxTotalPizzas, money(sf.Cart.Total()))
			return nil
		}),
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")
	return cmd
}

func showCart(cmd *cobra.Command, sf *pizzeria.Storefront, priority bool) error {
	out := cmd.OutOrStdout()
	items := sf.Cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}
	if err := printLines(out, items); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d/%d pizzas\n", sf.Cart.TotalQuantity(), cart.MaxTotalPizzas)
	printBill(out, sf.Cart.Quote(priority))
	return nil
}
