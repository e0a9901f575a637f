package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/itsneelabh/pizzeria"
	"github.com/itsneelabh/pizzeria/api"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/internal/mockapi"
	"github.com/itsneelabh/pizzeria/internal/port"
	"github.com/itsneelabh/pizzeria/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var listenPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mock menu/order API",
		Long: `Serves GET /api/menu, POST /api/order and GET /order/:id backed by
an in-memory order store, plus /admin/faults for injecting failures.
Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			flagPort := 0
			if cmd.Flags().Changed("port") {
				if err := core.WithMockAPIPort(listenPort)(cfg); err != nil {
					return err
				}
				flagPort = listenPort
			}
			if !cmd.Flags().Changed("log-level") && os.Getenv("PIZZERIA_LOG_LEVEL") == "" {
				cfg.Logging.Level = "info"
			}
			return runServe(cmd.Context(), cfg, flagPort)
		},
	}
	cmd.Flags().IntVar(&listenPort, "port", 0, "listen port (default: $PORT, then config, 8080)")
	return cmd
}

func runServe(ctx context.Context, cfg *core.Config, flagPort int) error {
	logger, err := core.NewZapLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	telemetryCfg := cfg.Telemetry
	if telemetryCfg.ServiceName == "" || telemetryCfg.ServiceName == "pizzeria" {
		telemetryCfg.ServiceName = "pizzeria-mock-api"
	}
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetryCfg, logger.WithComponent("telemetry"))
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	gin.SetMode(gin.ReleaseMode)
	srv := mockapi.New(api.DefaultMenu(), cfg.MockAPI.AllowedOrigins,
		mockapi.WithLogger(logger.WithComponent("mockapi")),
	)

	listen := port.Resolve(flagPort, cfg.MockAPI.Port, logger.WithComponent("port"))
	logger.Info("Mock API starting", map[string]interface{}{
		"url":     listen.URL(),
		"origins": cfg.MockAPI.AllowedOrigins,
		"version": pizzeria.Version,
	})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.ListenAndServe(listen.Port)
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down mock API", map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
