package menu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/itsneelabh/pizzeria/core"
)

// PriceBand filters by price
type PriceBand string

const (
	PriceAll     PriceBand = "all"
	PriceUnder14 PriceBand = "under14" // < 14
	PriceUnder16 PriceBand = "under16" // 14 <= p < 16
	PriceOver16  PriceBand = "over16"  // >= 16
)

// SortOrder orders the result
type SortOrder string

const (
	SortName      SortOrder = "name"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortFavorites SortOrder = "favorites"
)

// Query is the menu page's filter state. The zero value lists everything by name.
type Query struct {
	Search        string
	Price         PriceBand
	FavoritesOnly bool
	Sort          SortOrder
}

// ParsePriceBand validates a band name; "" means all.
func ParsePriceBand(s string) (PriceBand, error) {
	switch b := PriceBand(strings.ToLower(s)); b {
	case "", PriceAll:
		return PriceAll, nil
	case PriceUnder14, PriceUnder16, PriceOver16:
		return b, nil
	}
	return "", fmt.Errorf("unknown price filter %q: %w", s, core.ErrValidation)
}

// ParseSortOrder validates a sort name; "" means by name.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(s)); o {
	case "", SortName:
		return SortName, nil
	case SortPriceAsc, SortPriceDesc, SortFavorites:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q: %w", s, core.ErrValidation)
}

func (b PriceBand) match(price float64) bool {
	switch b {
	case PriceUnder14:
		return price < 14
	case PriceUnder16:
		return price >= 14 && price < 16
	case PriceOver16:
		return price >= 16
	default:
		return true
	}
}

// Apply filters and sorts pizzas. isFavorite may be nil when nobody is logged in.
// The input slice is not modified.
func Apply(pizzas []core.Pizza, q Query, isFavorite func(id int64) bool) []core.Pizza {
	if isFavorite == nil {
		isFavorite = func(int64) bool { return false }
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]core.Pizza, 0, len(pizzas))
	for _, p := range pizzas {
		if search != "" && !matches(p, search) {
			continue
		}
		if !q.Price.match(p.Price) {
			continue
		}
		if q.FavoritesOnly && !isFavorite(p.ID) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortFavorites:
		sort.SliceStable(out, func(i, j int) bool { return isFavorite(out[i].ID) && !isFavorite(out[j].ID) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return lessName(out[i].Name, out[j].Name) })
	}
	return out
}

func matches(p core.Pizza, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	for _, ing := range p.Ingredients {
		if strings.Contains(strings.ToLower(ing), search) {
			return true
		}
	}
	return false
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
