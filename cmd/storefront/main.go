// Package main runs the storefront service: cart, checkout orchestration,
// and the local REST API the device UI talks to.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	app "github.com/squadbid/storefront/internal/app"
	"github.com/squadbid/storefront/internal/app/httpapi"
	"github.com/squadbid/storefront/internal/app/metrics"
	"github.com/squadbid/storefront/internal/app/storage/postgres"
	"github.com/squadbid/storefront/internal/app/storage/redisstore"
	"github.com/squadbid/storefront/internal/config"
	"github.com/squadbid/storefront/internal/middleware"
	"github.com/squadbid/storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("storefront").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Name:   "storefront",
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	stores, cleanup, err := buildStores(cfg, log)
	if err != nil {
		log.WithError(err).Error("initialise storage")
		os.Exit(1)
	}
	defer cleanup()

	application, err := app.New(stores, app.Config{
		APIBaseURL:          cfg.APIBaseURL,
		MerchantID:          cfg.MerchantID,
		MerchantDisplayName: cfg.MerchantDisplayName,
		HTTPTimeout:         cfg.HTTPTimeout,
		RequestsPerSecond:   cfg.RequestsPerSecond,
		ReconcileInterval:   cfg.ReconcileInterval,
	}, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	cors := middleware.NewCORS(cfg.AllowedOrigins)
	handler := cors.Handler(metrics.Middleware(httpapi.NewHandler(application)))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("api listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("api server")
			cancel()
		}
	}()

	go func() {
		log.WithField("addr", cfg.MetricsAddr).Info("metrics listening")
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Warn("metrics server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("api server shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("metrics server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}

	log.Info("stopped")
}

// buildStores selects storage backends from configuration. Anything left
// unset in the returned Stores falls back to the in-memory implementation.
func buildStores(cfg *config.Config, log *logger.Logger) (app.Stores, func(), error) {
	var stores app.Stores
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			cleanup()
			return app.Stores{}, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })

		rs := redisstore.New(client, "storefront")
		stores.Sessions = rs
		stores.Selections = rs
		log.WithField("addr", cfg.RedisAddr).Info("using redis session storage")
	}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return app.Stores{}, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })

		if err := postgres.Apply(context.Background(), db); err != nil {
			cleanup()
			return app.Stores{}, nil, err
		}
		stores.Journal = postgres.NewJournal(sqlx.NewDb(db, "postgres"))
		log.Info("using postgres checkout journal")
	}

	return stores, cleanup, nil
}
