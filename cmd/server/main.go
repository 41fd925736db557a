package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"police_case_app_go/config"
	"police_case_app_go/db"
	"police_case_app_go/handlers"
	"police_case_app_go/middleware"
	"police_case_app_go/services"
	"police_case_app_go/services/jobs"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !cfg.IsProduction() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		Environment: cfg.Environment,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
	}, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	logger.Info().Msg("database migrations completed")

	if err := services.SeedSuperAdmin(db.DB, services.BootstrapAccount{
		Email:    cfg.SuperAdminEmail,
		Password: cfg.SuperAdminPassword,
		Name:     cfg.SuperAdminName,
	}, logger.With().Str("component", "seed").Logger()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed super admin")
	}

	services.Monitor = services.NewLoginMonitor(logger.With().Str("component", "security").Logger())
	notifier := services.NewNotificationService(db.DB, cfg, logger.With().Str("component", "notifier").Logger())
	workflow := services.NewWorkflow(db.DB, notifier, logger.With().Str("component", "workflow").Logger())

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Use(middleware.InjectLogger(logger))

	// Make config and workflow services available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			c.Set(handlers.ContextKeyWorkflow, workflow)
			return next(c)
		}
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	handlers.RegisterRoutes(e, cfg)

	// Investigation deadline reminders
	scheduler, err := jobs.StartScheduler(db.DB, notifier, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}

	// Start background cleanup jobs (runs every hour)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				services.Monitor.Prune()
				removed, err := services.PurgeExpiredSessions(db.DB)
				if err != nil {
					logger.Error().Err(err).Msg("failed to clean up expired sessions")
					continue
				}
				if removed > 0 {
					logger.Info().Int64("removed", removed).Msg("expired sessions cleaned up")
				}
			}
		}
	}()

	// Start server
	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("server starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	stopCleanup()
	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	workflow.Wait()
}
