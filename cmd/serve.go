package cmd

import (
	"context"
	"fmt"

	"ldap2moodle/core/loader"
	"ldap2moodle/core/logger"
	"ldap2moodle/core/middleware/auth"
	"ldap2moodle/core/middleware/rayid"
	"ldap2moodle/feature/usersync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "ldap2moodle/docs/swagger"
)

// @title ldap2moodle API
// @version 1.0
// @description Triggers and monitors LDAP to Moodle user synchronization.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sync API and run scheduled syncs",
	Long: `Starts the HTTP API to trigger and monitor sync runs.
With sync.interval set, an incremental run is also started on every tick.`,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	store, closeState, err := openState(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeState()

	svc, err := newServices(cfg, logg, store)
	if err != nil {
		return err
	}

	// Runs outlive requests but stop with the process.
	runCtx, cancelRuns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRuns()
	syncService := usersync.NewService(runCtx, svc.engine, store, cfg.Sync, svc.target.ManagedAuth(), logg.Named("sync"))

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager()
	mgr.Register(usersync.NewFeature(syncService))

	// RayID first so every log line of a request carries it.
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
	if cfg.Server.ApiKey == "" {
		logg.Warn("No API key configured, the sync API is unprotected")
	}

	if err := mgr.LoadAll(app); err != nil {
		return err
	}

	go syncService.Schedule(runCtx, cfg.Sync.Interval)

	listenErr := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("port", cfg.Server.Port))
		listenErr <- app.Listen(cfg.Server.Address())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logg.Info("Shutting down server...")
	cancelRuns()
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout()); err != nil {
		logg.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
	return nil
}
