// Package pizzeria wires the storefront together.
//
// A Storefront owns one storage connection and one instance of every store.
// The session manager drives the cart and favorites stores, so callers only
// log users in and out; the dependent stores follow.
//
// Most callers need only this package:
//
//	sf, err := pizzeria.New(ctx, cfg)
//	if err != nil { ... }
//	defer sf.Close(ctx)
//
//	_ = sf.Session.Login(ctx, "alice", "secret")
//	_ = sf.AddPizza(ctx, pizza)
//	receipt, err := sf.Orders.Checkout(ctx, form)
//
// The individual packages (cart, session, orders, ...) can also be used on
// their own.
package pizzeria

import (
	"context"
	"errors"
	"fmt"

	"github.com/itsneelabh/pizzeria/api"
	"github.com/itsneelabh/pizzeria/builder"
	"github.com/itsneelabh/pizzeria/cart"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/favorites"
	"github.com/itsneelabh/pizzeria/menu"
	"github.com/itsneelabh/pizzeria/orders"
	"github.com/itsneelabh/pizzeria/session"
	"github.com/itsneelabh/pizzeria/telemetry"
)

// MsgLoginRequired is shown when a guarded action is attempted anonymously
const MsgLoginRequired = "Please log in to continue"

// Storefront is the assembled storefront
type Storefront struct {
	Config    *core.Config
	Logger    core.Logger
	Storage   core.StorageCloser
	API       *api.Client
	Cart      *cart.Store
	Favorites *favorites.Store
	Session   *session.Manager
	Orders    *orders.Service
	Menu      *menu.Loader

	shutdownTelemetry telemetry.ShutdownFunc
	zap               *core.ZapLogger
}

type options struct {
	logger     core.Logger
	storage    core.StorageCloser
	navigator  session.Navigator
	apiOptions []api.Option
}

// Option configures New
type Option func(*options)

// WithLogger replaces the zap logger built from the logging config
func WithLogger(logger core.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStorage uses storage instead of the configured provider
func WithStorage(storage core.StorageCloser) Option {
	return func(o *options) { o.storage = storage }
}

// WithNavigator receives the session's navigation requests
func WithNavigator(n session.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

// WithAPIOptions passes options to the API client
func WithAPIOptions(opts ...api.Option) Option {
	return func(o *options) { o.apiOptions = append(o.apiOptions, opts...) }
}

// New builds a storefront from cfg. A nil cfg means core.DefaultConfig().
// The persisted session is restored before New returns.
func New(ctx context.Context, cfg *core.Config, opts ...Option) (*Storefront, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	sf := &Storefront{Config: cfg}

	if o.logger != nil {
		sf.Logger = o.logger
	} else {
		zl, err := core.NewZapLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}
		sf.zap = zl
		sf.Logger = zl
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, core.ComponentLogger(sf.Logger, "telemetry"))
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}
	sf.shutdownTelemetry = shutdown

	if o.storage != nil {
		sf.Storage = o.storage
	} else {
		storage, err := core.NewStorage(ctx, cfg.Storage, core.ComponentLogger(sf.Logger, "storage"))
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		sf.Storage = storage
	}

	apiOpts := append([]api.Option{api.WithLogger(core.ComponentLogger(sf.Logger, "api"))}, o.apiOptions...)
	client, err := api.NewClient(cfg.API, apiOpts...)
	if err != nil {
		sf.closeResources(ctx)
		return nil, err
	}
	sf.API = client

	sf.Cart = cart.NewStore(sf.Storage,
		cart.WithLogger(core.ComponentLogger(sf.Logger, "cart")),
		cart.WithGuestTTL(cfg.Cart.GuestTTL),
	)
	sf.Favorites = favorites.NewStore(sf.Storage, core.ComponentLogger(sf.Logger, "favorites"))

	sessionOpts := []session.Option{
		session.WithLogger(core.ComponentLogger(sf.Logger, "session")),
		session.WithScoped(sf.Favorites, sf.Cart),
		session.WithPasswordCost(cfg.Auth.PasswordCost),
	}
	if o.navigator != nil {
		sessionOpts = append(sessionOpts, session.WithNavigator(o.navigator))
	}
	sf.Session = session.NewManager(ctx, sf.Storage, sessionOpts...)

	sf.Orders, err = orders.NewService(client, sf.Cart, sf.Storage,
		orders.WithLogger(core.ComponentLogger(sf.Logger, "orders")),
		orders.WithRefreshInterval(cfg.Orders.RefreshInterval),
	)
	if err != nil {
		sf.closeResources(ctx)
		return nil, err
	}

	sf.Menu = menu.NewLoader(client, core.ComponentLogger(sf.Logger, "menu"))

	sf.Logger.Info("Storefront ready", map[string]interface{}{
		"storage":   cfg.Storage.Provider,
		"api":       client.BaseURL(),
		"logged_in": sf.Session.IsLoggedIn(),
		"version":   Version,
	})
	return sf, nil
}

// AddPizza puts one of pizza in the cart. Requires a logged-in user.
func (sf *Storefront) AddPizza(ctx context.Context, pizza core.Pizza) error {
	return sf.AddPizzas(ctx, pizza, 1)
}

// AddPizzas puts quantity of pizza in the cart as a single addition, so the
// cart limits apply to the whole amount. Requires a logged-in user.
func (sf *Storefront) AddPizzas(ctx context.Context, pizza core.Pizza, quantity int) error {
	if err := sf.requireAuth("storefront.AddPizza", core.RouteMenu); err != nil {
		return err
	}
	if !pizza.IsAvailable() {
		return core.Errorf("storefront.AddPizza", core.KindValidation, core.ErrValidation,
			"%s is currently unavailable", pizza.Name)
	}
	return sf.Cart.AddItem(ctx, core.CartLine{
		PizzaID:    pizza.ID,
		Name:       pizza.Name,
		Quantity:   quantity,
		UnitPrice:  pizza.Price,
		TotalPrice: pizza.Price * float64(quantity),
	})
}

// AddCustom puts a built pizza in the cart and resets the builder on success.
// Requires a logged-in user.
func (sf *Storefront) AddCustom(ctx context.Context, p *builder.Pizza) error {
	if err := sf.requireAuth("storefront.AddCustom", core.RouteBuilder); err != nil {
		return err
	}
	line, err := p.CartLine()
	if err != nil {
		return err
	}
	if err := sf.Cart.AddItem(ctx, line); err != nil {
		return err
	}
	p.ClearToppings()
	p.Name = ""
	return nil
}

// ToggleFavorite flips a menu item for the current user. Requires a logged-in user.
func (sf *Storefront) ToggleFavorite(ctx context.Context, pizzaID int64) error {
	if err := sf.requireAuth("storefront.ToggleFavorite", core.RouteMenu); err != nil {
		return err
	}
	sf.Favorites.Toggle(ctx, pizzaID, sf.Session.CurrentUser())
	return nil
}

// BrowseMenu loads the menu when it has not been loaded yet and applies q.
func (sf *Storefront) BrowseMenu(ctx context.Context, q menu.Query) ([]core.Pizza, error) {
	if len(sf.Menu.Pizzas()) == 0 {
		if _, err := sf.Menu.Load(ctx); err != nil {
			return nil, err
		}
	}
	var isFavorite func(int64) bool
	if sf.Session.IsLoggedIn() {
		isFavorite = sf.Favorites.IsFavorite
	}
	return menu.Apply(sf.Menu.Pizzas(), q, isFavorite), nil
}

// FindPizza returns the menu item with id
func (sf *Storefront) FindPizza(ctx context.Context, id int64) (core.Pizza, error) {
	pizzas, err := sf.BrowseMenu(ctx, menu.Query{})
	if err != nil {
		return core.Pizza{}, err
	}
	for _, p := range pizzas {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Pizza{}, &core.Error{
		Op:      "storefront.FindPizza",
		Kind:    core.KindNotFound,
		ID:      fmt.Sprint(id),
		Message: fmt.Sprintf("No pizza with id %d on the menu", id),
		Err:     core.ErrNotFound,
	}
}

// Close releases storage and flushes telemetry and logs
func (sf *Storefront) Close(ctx context.Context) error {
	return sf.closeResources(ctx)
}

func (sf *Storefront) requireAuth(op, returnURL string) error {
	if sf.Session.RequireAuth(returnURL) {
		return nil
	}
	return core.Errorf(op, core.KindAuth, core.ErrAuthRequired, MsgLoginRequired)
}

func (sf *Storefront) closeResources(ctx context.Context) error {
	var errs []error
	if sf.Storage != nil {
		if err := sf.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if sf.shutdownTelemetry != nil {
		if err := sf.shutdownTelemetry(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	if sf.zap != nil {
		// stdout/stderr sync fails on some platforms; nothing to do about it
		_ = sf.zap.Sync()
	}
	return errors.Join(errs...)
}
