package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/progress-engine/internal/api"
	"github.com/terra-clan/progress-engine/internal/catalog"
	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/config"
	"github.com/terra-clan/progress-engine/internal/lock"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/services"
	"github.com/terra-clan/progress-engine/internal/storage"
	"github.com/terra-clan/progress-engine/internal/streak"
)

func main() {
	// Setup structured logging; the level is raised or lowered once config is loaded
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading environment variables directly")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logLevel, _ := config.ParseLogLevel(cfg.App.LogLevel)
	level.Set(logLevel)

	calendar, err := clock.LoadCalendar(cfg.App.Timezone)
	if err != nil {
		slog.Error("failed to load timezone", "timezone", cfg.App.Timezone, "error", err)
		os.Exit(1)
	}

	slog.Info("starting progress-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"timezone", cfg.App.Timezone,
		"redis", cfg.Redis.Enabled,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize service registry
	registry := services.NewRegistry()

	// Initialize storage
	repo, err := openRepository(initCtx, cfg, registry)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	// Shared coordination: Redis when enabled, in-process otherwise
	var (
		locker  lock.Locker     = lock.NewLocal()
		counter catalog.Counter = catalog.NewMemoryCounter()
	)
	var rdb redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := services.NewRedisClient(initCtx, services.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "address", cfg.Redis.Address, "error", err)
			os.Exit(1)
		}
		rdb = client
		locker = lock.NewRedis(rdb, "", cfg.Redis.LockTTL)
		counter = catalog.NewRedisCounter(rdb, "")
		registry.Register("redis", services.NewRedisProvider(rdb))
		slog.Info("redis connected successfully", "address", cfg.Redis.Address)
	}

	// Load curricula
	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load curricula from dir", "dir", cfg.Catalog.Dir, "error", err)
	}
	slog.Info("curricula loaded", "count", len(loader.List()))

	tracker := progress.NewTracker(repo, loader, counter,
		progress.WithLocker(locker),
		progress.WithMaxAttempts(cfg.Retry.MaxAttempts),
	)
	recorder := streak.NewRecorder(repo,
		streak.WithLocker(locker),
		streak.WithCalendar(calendar),
		streak.WithMaxAttempts(cfg.Retry.MaxAttempts),
	)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Dependencies{
		Tracker:  tracker,
		Recorder: recorder,
		Catalog:  loader,
		Counter:  counter,
		Clients:  repo,
		Registry: registry,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	slog.Info("progress-engine stopped")
}

// openRepository builds the configured storage backend and registers its
// health checks
func openRepository(ctx context.Context, cfg *config.Config, registry *services.Registry) (storage.Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		repo := storage.NewMemoryRepository()
		repo.AddClient(&models.ApiClient{
			ID:          1,
			Name:        "bootstrap",
			ApiKey:      cfg.Auth.BootstrapAPIKey,
			IsActive:    true,
			CreatedAt:   time.Now(),
			Permissions: []string{"*"},
		})
		registry.Register("storage", services.NewPingFunc("memory", repo.Ping))
		slog.Warn("using in-memory storage, data is lost on restart")
		return repo, nil

	default:
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
			MaxLifetime:  cfg.Database.MaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create database repository: %w", err)
		}
		slog.Info("database connected successfully")

		if cfg.Database.AutoMigrate {
			slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
			if err := storage.RunMigrations(ctx, repo.Pool(), cfg.Database.MigrationsDir); err != nil {
				repo.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		provider, err := services.NewPostgresProvider(cfg.Database.DSN)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to create postgres provider: %w", err)
		}
		registry.Register("postgres", provider)
		return repo, nil
	}
}
