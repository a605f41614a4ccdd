package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medicare/medicare/internal/config"
	"github.com/medicare/medicare/internal/domain/audit"
	"github.com/medicare/medicare/internal/domain/prediction"
	"github.com/medicare/medicare/internal/platform/auth"
	"github.com/medicare/medicare/internal/platform/db"
	"github.com/medicare/medicare/internal/platform/deliverystore"
	"github.com/medicare/medicare/internal/platform/metrics"
	"github.com/medicare/medicare/internal/platform/middleware"
	"github.com/medicare/medicare/internal/platform/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medicare-server",
		Short: "MediCare+ claim prediction and report delivery server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Retry delivery of reports that never reached their recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := "-"
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func notifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		Host:           cfg.SMTPHost,
		Port:           cfg.SMTPPort,
		User:           cfg.SMTPUser,
		Password:       cfg.SMTPPassword,
		SenderName:     cfg.SMTPSenderName,
		ConnectTimeout: cfg.ConnectTimeout(),
		SendTimeout:    cfg.SendTimeout(),
		OverallTimeout: cfg.OverallTimeout(),
	}
}

func newNotifier(cfg *config.Config, logger zerolog.Logger) *notify.Notifier {
	ncfg := notifyConfig(cfg)
	var transport notify.Transport = notify.NewSMTPTransport(ncfg)
	if !cfg.SMTPConfigured() {
		logger.Warn().Msg("smtp credentials missing; reports will stay in the delivery store")
		transport = notify.DisabledTransport{}
	}
	return notify.New(ncfg, transport, logger)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database (audit trail)
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Delivery store (local report durability)
	store, err := deliverystore.OpenLevelDB(cfg.DeliveryStorePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DeliveryStorePath).Msg("failed to open delivery store")
	}
	defer store.Close()

	// Model snapshot. A missing artifact is survivable: requests fail with
	// 503 until an operator installs one.
	predictor, err := prediction.NewPredictor(cfg.ModelPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.ModelPath).Msg("model snapshot not loaded")
	}

	notifier := newNotifier(cfg, logger)

	auditRepo := audit.NewRepoPG(pool)
	recorder := audit.NewRecorder(auditRepo, cfg.AuditQueueSize, logger)
	defer recorder.Close()

	m, registry := metrics.New()

	svc := prediction.NewService(predictor, store, notifier, recorder, m, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API group. The request timeout sits above the notifier's overall
	// budget so a slow SMTP exchange resolves to LocalOnly, not a 504.
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RequestTimeout(cfg.OverallTimeout() + 15*time.Second))
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware([]byte(cfg.AuthSecret)))
	}

	prediction.NewHandler(svc).RegisterRoutes(apiV1)
	audit.NewHandler(auditRepo).RegisterRoutes(apiV1)

	// Operational endpoints
	e.GET("/health", func(c echo.Context) error {
		status := "ok"
		if !predictor.Loaded() {
			status = "degraded"
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  status,
			"version": "0.1.0",
		})
	})
	e.GET("/live", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler(registry))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runSweep() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.SMTPConfigured() {
		return fmt.Errorf("smtp credentials required for sweep")
	}

	store, err := deliverystore.OpenLevelDB(cfg.DeliveryStorePath)
	if err != nil {
		return fmt.Errorf("open delivery store: %w", err)
	}
	defer store.Close()

	notifier := newNotifier(cfg, logger)
	m, _ := metrics.New()

	svc := prediction.NewService(&prediction.Predictor{}, store, notifier, audit.NopSink{}, m, logger)

	res, err := svc.Sweep(context.Background())
	if err != nil {
		return err
	}
	logger.Info().
		Int("attempted", res.Attempted).
		Int("delivered", res.Delivered).
		Msg("sweep complete")
	return nil
}
