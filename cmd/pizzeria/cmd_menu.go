package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/menu"
)

func newMenuCmd(g *globalFlags) *cobra.Command {
	var (
		search        string
		price         string
		sort          string
		favoritesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the menu, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: storefrontRunE(g, func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, _ []string) error {
			band, err := menu.ParsePriceBand(price)
			if err != nil {
				return err
			}
			order, err := menu.ParseSortOrder(sort)
			if err != nil {
				return err
			}

			pizzas, err := sf.BrowseMenu(ctx, menu.Query{
				Search:        search,
				Price:         band,
				FavoritesOnly: favoritesOnly,
				Sort:          order,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pizzas) == 0 {
				fmt.Fprintln(out, "No pizzas match your filters.")
				return nil
			}
			w := newTable(out)
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tFAV\tINGREDIENTS")
			for _, p := range pizzas {
				name := p.Name
				if !p.IsAvailable() {
					name += " (sold out)"
				}
				fav := ""
				if sf.Session.IsLoggedIn() && sf.Favorites.IsFavorite(p.ID) {
					fav = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, name, money(p.Price), fav, strings.Join(p.Ingredients, ", "))
			}
			return w.Flush()
		}),
	}

	f := cmd.Flags()
	f.StringVar(&search, "search", "", "match name or ingredient, case-insensitive")
	f.StringVar(&price, "price", string(menu.PriceAll), "price band: all, under14, under16 or over16")
	f.StringVar(&sort, "sort", string(menu.SortName), "sort: name, price-asc, price-desc or favorites")
	f.BoolVar(&favoritesOnly, "favorites", false, "only show favorites")
	return cmd
}

func parsePizzaID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, core.Errorf("cli.parsePizzaID", core.KindValidation, core.ErrValidation,
			"%q is not a pizza id", s)
	}
	return id, nil
}
