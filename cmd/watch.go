package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomm-sync/core/loader"
	"ecomm-sync/core/logger"
	"ecomm-sync/core/middleware/auth"
	"ecomm-sync/core/middleware/rayid"
	"ecomm-sync/feature/ecommerce"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchInterval time.Duration

// watchCmd runs passes on an interval and serves record status.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run reconciliation passes on an interval",
	Long: `Runs a pass immediately and then every interval until interrupted.
When the server is enabled it also serves /health, /metrics and the
record status API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		interval := a.cfg.Sync.Interval
		if watchInterval > 0 {
			interval = watchInterval
		}
		if interval <= 0 {
			return fmt.Errorf("pass interval must be positive, got %s", interval)
		}

		var srv *fiber.App
		if a.cfg.Server.Enabled {
			if err := a.cfg.Server.Validate(); err != nil {
				return err
			}
			srv, err = newStatusServer(a)
			if err != nil {
				return err
			}
			go func() {
				a.logger.Info("Starting server", zap.String("port", a.cfg.Server.Port))
				if err := srv.Listen(a.cfg.Server.Address()); err != nil {
					a.logger.Error("Server stopped", zap.Error(err))
					stop()
				}
			}()
		}

		a.logger.Info("Watching staged records", zap.Duration("interval", interval))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			summary, err := a.runPass(ctx, passOptions{})
			if err != nil {
				a.logger.Error("Pass failed", zap.Error(err))
			} else if summary != nil {
				printPassReport(a.logger, summary)
			}

			select {
			case <-ctx.Done():
				a.logger.Info("Shutting down...")
				if srv != nil {
					_ = srv.Shutdown()
				}
				return nil
			case <-ticker.C:
			}
		}
	},
}

// newStatusServer builds the status HTTP app.
func newStatusServer(a *app) (*fiber.App, error) {
	srv := fiber.New(fiber.Config{
		DisableStartupMessage: true, // We log our own startup message
	})

	// 1. RayID (Must be first to trace everything)
	srv.Use(rayid.New())

	// 2. Logging Middleware (Zap + RayID)
	srv.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(a.logger, c)
		l.Debug("Request started",
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

	// 3. Public health check
	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": version})
	})

	// 4. Auth (Protect everything else)
	srv.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/health"}}))

	srv.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	// 5. Load Features
	mgr := loader.NewManager(a.logger)
	mgr.Register(ecommerce.NewFeature(a.store, a.logger))
	if err := mgr.LoadAll(srv); err != nil {
		return nil, err
	}

	return srv, nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Override the configured pass interval")
	RootCmd.AddCommand(watchCmd)
}
