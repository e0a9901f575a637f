package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/pizzeria"
	"github.com/itsneelabh/pizzeria/core"
)

// globalFlags are the persistent flags every command shares
type globalFlags struct {
	configPath string
	storage    string
	sqlitePath string
	redisURL   string
	apiURL     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "pizzeria",
		Short: "Pizza storefront: menu, cart, favorites, checkout and order tracking",
		Long: "pizzeria drives the storefront from the terminal. State (users, carts,\n" +
			"favorites and placed orders) lives in the configured storage, so\n" +
			"consecutive invocations see the same session.",
		Version:       pizzeria.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "config file (JSON or YAML); defaults to $"+core.EnvConfigFile)
	f.StringVar(&g.storage, "storage", "", "storage provider: memory, redis or sqlite")
	f.StringVar(&g.sqlitePath, "sqlite-path", "", "sqlite database file")
	f.StringVar(&g.redisURL, "redis-url", "", "redis connection URL")
	f.StringVar(&g.apiURL, "api-url", "", "base URL of the menu/order API")
	f.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newServeCmd(g),
		newMenuCmd(g),
		newSignupCmd(g),
		newLoginCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newCartCmd(g),
		newFavCmd(g),
		newBuildCmd(g),
		newCheckoutCmd(g),
		newTrackCmd(g),
		newOrdersCmd(g),
	)
	return root
}

// config layers the CLI defaults, environment, config file and flags.
// Without an explicit provider the CLI uses sqlite so the session survives
// between invocations, and logs go to stderr at warn level.
func (g *globalFlags) config(cmd *cobra.Command) (*core.Config, error) {
	opts := []core.Option{cliDefaults}

	path := g.configPath
	if path == "" {
		path = os.Getenv(core.EnvConfigFile)
	}
	opts = append(opts, core.WithConfigFile(path))

	flags := cmd.Flags()
	if flags.Changed("storage") {
		opts = append(opts, core.WithStorageProvider(g.storage))
	}
	if flags.Changed("sqlite-path") {
		opts = append(opts, core.WithSQLitePath(g.sqlitePath))
	}
	if flags.Changed("redis-url") {
		opts = append(opts, core.WithRedisURL(g.redisURL))
	}
	if flags.Changed("api-url") {
		opts = append(opts, core.WithAPIBaseURL(g.apiURL))
	}
	if flags.Changed("log-level") {
		opts = append(opts, core.WithLogLevel(g.logLevel))
	}

	return core.NewConfig(opts...)
}

func cliDefaults(c *core.Config) error {
	if _, set := os.LookupEnv("PIZZERIA_STORAGE"); !set {
		c.Storage.Provider = core.StorageSQLite
	}
	if _, set := os.LookupEnv("PIZZERIA_LOG_LEVEL"); !set {
		c.Logging.Level = "warn"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	return nil
}

// storefrontRunE opens the storefront for the duration of one command
func storefrontRunE(g *globalFlags, run func(ctx context.Context, cmd *cobra.Command, sf *pizzeria.Storefront, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := g.config(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		sf, err := pizzeria.New(ctx, cfg, pizzeria.WithNavigator(navigator{w: cmd.ErrOrStderr()}))
		if err != nil {
			return err
		}

		runErr := run(ctx, cmd, sf, args)
		if err := sf.Close(context.WithoutCancel(ctx)); err != nil && runErr == nil {
			return err
		}
		return runErr
	}
}

// navigator turns the session's navigation requests into hints on stderr
type navigator struct {
	w io.Writer
}

func (n navigator) Navigate(route string, params map[string]string) {
	switch route {
	case core.RouteAuth:
		msg := "Log in with: pizzeria login <username> <password>"
		if back := params[core.ReturnURLParam]; back != "" {
			msg += fmt.Sprintf(" (then return to %s)", back)
		}
		fmt.Fprintln(n.w, msg)
	case core.RouteMenu:
		fmt.Fprintln(n.w, "Back to the menu: pizzeria menu")
	}
}
