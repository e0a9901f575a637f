package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
)

func newFavCmd(g *globalFlags) *cobra.Command {
	list := storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
		out := cmd.OutOrStdout()
		ids := sf.Favorites.List()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No favorites yet.")
			return nil
		}
		for _, id := range ids {
			p, err := sf.FindPizza(ctx, id)
			if err != nil {
				fmt.Fprintf(out, "%d\t(no longer on the menu)\n", id)
				continue
			}
			fmt.Fprintf(out, "%d\t%s\t%s\n", id, p.Name, money(p.Price))
		}
		return nil
	})

	cmd := &cobra.Command{
		Use:   "fav",
		Short: "List or toggle favorite pizzas",
		Args:  cobra.NoArgs,
		RunE:  list,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "toggle <pizza-id>",
			Short: "Add or remove a favorite (requires login)",
			Args:  cobra.ExactArgs(1),
			RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error {
				id, err := parsePizzaID(args[0])
				if err != nil {
					return err
				}
				if err := sf.ToggleFavorite(ctx, id); err != nil {
					return err
				}
				state := "removed from"
				if sf.Favorites.IsFavorite(id) {
					state = "added to"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pizza %d %s favorites.\n", id, state)
				return nil
			}),
		},
	)
	return cmd
}
