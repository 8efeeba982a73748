package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dariogeorge21/prayer-collector/internal/config"
	"github.com/dariogeorge21/prayer-collector/internal/handler"
	"github.com/dariogeorge21/prayer-collector/internal/kafka"
	"github.com/dariogeorge21/prayer-collector/internal/postgres"
	"github.com/dariogeorge21/prayer-collector/internal/redis"
	"github.com/dariogeorge21/prayer-collector/internal/service"
	"github.com/dariogeorge21/prayer-collector/internal/session"
	"github.com/dariogeorge21/prayer-collector/internal/validation"
	"github.com/dariogeorge21/prayer-collector/internal/websocket"
	"github.com/dariogeorge21/prayer-collector/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging; the level is adjusted once config is loaded
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}
	level.Set(cfg.Log.SlogLevel())

	loc, err := cfg.App.Location()
	if err != nil {
		logger.Error("invalid time zone", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	cache, err := redis.NewCache(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	logger.Info("connected to Redis")

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	svc := service.New(repo, cache, validation.New(), &cfg.Leaderboard, loc, logger)
	svc.SetBroadcaster(wsHub)

	if name := cfg.Admin.BootstrapUser; name != "" {
		admin, err := svc.EnsureAdmin(ctx, name)
		if err != nil {
			logger.Error("failed to bootstrap admin user", "name", name, "error", err)
			os.Exit(1)
		}
		logger.Info("admin user ready", "user_id", admin.ID)
	}
	if cfg.Admin.Password == "" {
		logger.Warn("admin password not set, admin login is disabled")
	}

	sessions := session.NewManager(cache, repo, &cfg.Admin, time.Now, logger)

	// Warm the snapshot cache before accepting traffic
	if err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial snapshot refresh failed", "error", err)
	}

	refreshWorker := worker.NewRefreshWorker(svc, &cfg.Refresh, logger)
	if cfg.Refresh.Enabled {
		if err := refreshWorker.Start(ctx); err != nil {
			logger.Error("failed to start refresh worker", "error", err)
			os.Exit(1)
		}
	}

	// Kafka ingestion is optional; the API keeps working without it
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = kafka.NewConsumer(&cfg.Kafka, svc, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := consumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			consumer = nil
		}
	}

	httpHandler := handler.NewHandler(svc, sessions, wsHub, cfg.Server.AllowedOrigins, logger)
	httpHandler.AddReadinessCheck("postgres", repo)
	httpHandler.AddReadinessCheck("redis", cache)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port, "time_zone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if err := refreshWorker.Stop(); err != nil {
		logger.Error("failed to stop refresh worker", "error", err)
	}

	wsHub.Stop()

	logger.Info("server stopped")
}
