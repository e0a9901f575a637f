package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/itsneelabh/pizzeria/api"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []core.Pizza{
	{ID: 1, Name: "Margherita", Ingredients: []string{"tomato", "mozzarella", "basil"}, Price: 12},
	{ID: 2, Name: "capricciosa", Ingredients: []string{"tomato", "ham", "mushrooms"}, Price: 14},
	{ID: 3, Name: "Diavola", Ingredients: []string{"tomato", "spicy salami"}, Price: 15.5},
	{ID: 4, Name: "Quattro Formaggi", Ingredients: []string{"mozzarella", "gorgonzola"}, Price: 16},
}

func names(pizzas []core.Pizza) []string {
	out := make([]string, len(pizzas))
	for i, p := range pizzas {
		out[i] = p.Name
	}
	return out
}

func TestApply(t *testing.T) {
	favs := map[int64]bool{3: true, 4: true}
	isFav := func(id int64) bool { return favs[id] }

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"default sorts by name", Query{}, []string{"capricciosa", "Diavola", "Margherita", "Quattro Formaggi"}},
		{"search name", Query{Search: "  DIAV "}, []string{"Diavola"}},
		{"search ingredient", Query{Search: "mozz"}, []string{"Margherita", "Quattro Formaggi"}},
		{"under14", Query{Price: PriceUnder14}, []string{"Margherita"}},
		{"under16", Query{Price: PriceUnder16}, []string{"capricciosa", "Diavola"}},
		{"over16", Query{Price: PriceOver16}, []string{"Quattro Formaggi"}},
		{"favorites only", Query{FavoritesOnly: true}, []string{"Diavola", "Quattro Formaggi"}},
		{"price asc", Query{Sort: SortPriceAsc}, []string{"Margherita", "capricciosa", "Diavola", "Quattro Formaggi"}},
		{"price desc", Query{Sort: SortPriceDesc}, []string{"Quattro Formaggi", "Diavola", "capricciosa", "Margherita"}},
		{"favorites first keeps order", Query{Sort: SortFavorites}, []string{"Diavola", "Quattro Formaggi", "Margherita", "capricciosa"}},
		{"combined", Query{Search: "tomato", Price: PriceUnder16, Sort: SortPriceDesc}, []string{"Diavola", "capricciosa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(catalog, tt.query, isFav)))
		})
	}
}

func TestApply_NoFavoritesWhenAnonymous(t *testing.T) {
	assert.Empty(t, Apply(catalog, Query{FavoritesOnly: true}, nil))
	assert.Equal(t, "Margherita", catalog[0].Name)
}

func TestParse(t *testing.T) {
	b, err := ParsePriceBand("")
	require.NoError(t, err)
	assert.Equal(t, PriceAll, b)
	b, err = ParsePriceBand("Over16")
	require.NoError(t, err)
	assert.Equal(t, PriceOver16, b)
	_, err = ParsePriceBand("cheap")
	assert.True(t, core.IsValidation(err))

	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortName, o)
	o, err = ParseSortOrder("price-desc")
	require.NoError(t, err)
	assert.Equal(t, SortPriceDesc, o)
	_, err = ParseSortOrder("random")
	assert.True(t, core.IsValidation(err))
}

// gatedSource returns each call's result only when the test releases it
type gatedSource struct {
	calls chan chan []core.Pizza
}

func (g *gatedSource) GetMenu(ctx context.Context) ([]core.Pizza, error) {
	reply := make(chan []core.Pizza)
	g.calls <- reply
	return <-reply, nil
}

func TestLoader_IgnoresStaleResponse(t *testing.T) {
	src := &gatedSource{calls: make(chan chan []core.Pizza)}
	l := NewLoader(src, nil)
	ctx := context.Background()

	firstDone := make(chan bool)
	go func() {
		applied, _ := l.Load(ctx)
		firstDone <- applied
	}()
	first := <-src.calls

	secondDone := make(chan bool)
	go func() {
		applied, _ := l.Load(ctx)
		secondDone <- applied
	}()
	second := <-src.calls

	second <- catalog[:2]
	assert.True(t, <-secondDone)
	first <- catalog

	assert.False(t, <-firstDone)
	assert.Len(t, l.Pizzas(), 2)
	assert.False(t, l.Current().Loading)
}

type failingSource struct{}

func (failingSource) GetMenu(context.Context) ([]core.Pizza, error) {
	return nil, errors.New("boom")
}

func TestLoader_ErrorKeepsPreviousMenu(t *testing.T) {
	ctx := context.Background()
	l := NewLoader(failingSource{}, nil)

	var loading []bool
	l.Subscribe(func(s Snapshot) { loading = append(loading, s.Loading) })

	applied, err := l.Load(ctx)
	assert.True(t, applied)
	require.Error(t, err)
	assert.Error(t, l.Current().Err)
	assert.Equal(t, []bool{false, true, false}, loading)
}

func TestLoader_WithAPIFallback(t *testing.T) {
	client, err := api.NewClient(core.APIConfig{
		BaseURL:       "http://127.0.0.1:1",
		RetryAttempts: 1,
	})
	require.NoError(t, err)

	l := NewLoader(client, nil)
	applied, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, l.Pizzas(), 12)
}
