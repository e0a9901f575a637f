package api

import "github.com/itsneelabh/pizzeria/core"

var available = true

// defaultMenu is served whenever GET /api/menu fails.
var defaultMenu = []core.Pizza{
	{ID: 1, Name: "Margherita", Ingredients: []string{"Tomato sauce", "Mozzarella", "Basil"}, Price: 10, ImageURL: "assets/pizzas/margherita.png"},
	{ID: 2, Name: "Pepperoni", Ingredients: []string{"Tomato sauce", "Mozzarella", "Pepperoni"}, Price: 12, ImageURL: "assets/pizzas/pepperoni.png"},
	{ID: 3, Name: "Romana", Ingredients: []string{"Tomato sauce", "Mozzarella", "Anchovies", "Oregano"}, Price: 15, ImageURL: "assets/pizzas/romana.png"},
	{ID: 4, Name: "Quattro Formaggi", Ingredients: []string{"Mozzarella", "Gorgonzola", "Parmesan", "Ricotta"}, Price: 14, ImageURL: "assets/pizzas/quattro-formaggi.png"},
	{ID: 5, Name: "Vegetariana", Ingredients: []string{"Tomato sauce", "Mozzarella", "Peppers", "Mushrooms", "Olives"}, Price: 13, ImageURL: "assets/pizzas/vegetariana.png"},
	{ID: 6, Name: "Hawaiiana", Ingredients: []string{"Tomato sauce", "Cheddar", "Ham", "Pineapple"}, Price: 13, ImageURL: "assets/pizzas/hawaiiana.png"},
	{ID: 7, Name: "Diavola", Ingredients: []string{"Tomato sauce", "Mozzarella", "Spicy salami", "Chili"}, Price: 14, ImageURL: "assets/pizzas/diavola.png"},
	{ID: 8, Name: "Capricciosa", Ingredients: []string{"Tomato sauce", "Mozzarella", "Ham", "Mushrooms", "Artichokes"}, Price: 15, ImageURL: "assets/pizzas/capricciosa.png"},
	{ID: 9, Name: "BBQ Chicken", Ingredients: []string{"BBQ sauce", "Cheddar", "Grilled chicken", "Red onion", "Cilantro"}, Price: 16, ImageURL: "assets/pizzas/bbq-chicken.png"},
	{ID: 10, Name: "Prosciutto e Rucola", Ingredients: []string{"Tomato sauce", "Mozzarella", "Prosciutto", "Arugula", "Parmesan"}, Price: 17, ImageURL: "assets/pizzas/prosciutto-rucola.png"},
	{ID: 11, Name: "Meat Lovers", Ingredients: []string{"Tomato sauce", "Mozzarella", "Pepperoni", "Sausage", "Bacon", "Ham"}, Price: 18, ImageURL: "assets/pizzas/meat-lovers.png"},
	{ID: 12, Name: "Truffle Mushroom", Ingredients: []string{"White sauce", "Mozzarella", "Mushrooms", "Truffle oil", "Ham"}, Price: 19, ImageURL: "assets/pizzas/truffle-mushroom.png"},
}

// DefaultMenu returns a fresh copy of the built-in twelve-pizza catalog.
func DefaultMenu() []core.Pizza {
	out := make([]core.Pizza, len(defaultMenu))
	for i, p := range defaultMenu {
		p.Ingredients = append([]string(nil), p.Ingredients...)
		flag := available
		p.Available = &flag
		out[i] = p
	}
	return out
}
