package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
	"github.com/itsneelabh/pizzeria/builder"
	"github.com/itsneelabh/pizzeria/core"
)

func newBuildCmd(g *globalFlags) *cobra.Command {
	var (
		name     string
		size     string
		toppings []string
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a custom pizza and add it to the cart (requires login)",
		Example: `  pizzeria build --list
  pizzeria build --size L --topping Mozzarella --topping Mushrooms --name "Friday special"`,
		Args: cobra.NoArgs,
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			out := cmd.OutOrStdout()
			if list {
				printToppings(cmd)
				return nil
			}

			p := builder.New(name, size)
			for _, key := range toppings {
				t, ok := builder.FindTopping(key)
				if !ok {
					return core.Errorf("cli.build", core.KindValidation, core.ErrValidation,
						"Unknown topping %q (see pizzeria build --list)", key)
				}
				if err := p.AddTopping(t); err != nil {
					return err
				}
			}

			display, price := p.DisplayName(), p.Price()
			if err := sf.AddCustom(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %s (%s). Cart: %d pizzas, %s\n",
				display, money(price), sf.Cart.TotalQuantity(), money(sf.Cart.Total()))
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "name for the pizza")
	f.StringVar(&size, "size", "M", "size: S, M or L")
	f.StringArrayVarP(&toppings, "topping", "t", nil, "topping id or name; repeat up to 6 times")
	f.BoolVar(&list, "list", false, "list toppings and sizes")
	return cmd
}

func printToppings(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Base price %s, up to %d toppings.\n\n", money(builder.BasePrice), builder.MaxToppings)
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTOPPING\tPRICE")
	for _, t := range builder.Toppings() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Name, money(t.Price))
	}
	_ = w.Flush()
	fmt.Fprintln(out)
	for _, s := range builder.Sizes() {
		fmt.Fprintf(out, "%s  %s  x%.1f\n", s.Code, s.Label, s.Multiplier)
	}
}
