package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cuongbtq/farmhand/internal/api/cache"
	"github.com/cuongbtq/farmhand/internal/api/handler"
	"github.com/cuongbtq/farmhand/internal/api/router"
	"github.com/cuongbtq/farmhand/internal/api/storage"
	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/config"
	"github.com/cuongbtq/farmhand/internal/migrations"
	"github.com/cuongbtq/farmhand/shared/logger"
	"github.com/cuongbtq/farmhand/shared/postgresql"
	"github.com/cuongbtq/farmhand/shared/rabbitmq"
)

const defaultTokenTTL = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	dbClient, err := postgresql.NewClient(startCtx, cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	if cfg.Database.AutoMigrate {
		if err := dbClient.Migrate(migrations.FS, migrations.Dir); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	rabbitClient, err := rabbitmq.NewClient(cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	tokenCache, err := initTokenCache(startCtx, &cfg.Redis, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize token cache: %w", err)
	}
	defer tokenCache.Close()

	store := storage.NewStorage(dbClient)
	r := initRouter(cfg, appLogger.Logger, store, rabbitClient, tokenCache)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initTokenCache connects to Redis when configured, otherwise tokens are verified on every request
func initTokenCache(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (cache.TokenCache, error) {
	if cfg.URL == "" {
		logger.Info("Redis not configured, token cache disabled")
		return cache.Noop{}, nil
	}

	redisCache, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("Redis token cache enabled", slog.Duration("ttl", cfg.TokenTTL))
	return redisCache, nil
}

// initRouter wires handlers, auth and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, store *storage.Storage, publisher handler.Publisher, tokenCache cache.TokenCache) *gin.Engine {
	if cfg.App.Environment == config.EnvironmentProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	verifier := auth.NewSupabaseProvider(cfg.Auth, nil, logger)

	ttl := cfg.Redis.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	deps := &handler.Dependencies{
		Logger:      logger,
		Store:       store,
		Publisher:   publisher,
		ServiceName: cfg.App.Name,
	}

	return router.SetupRouter(deps, router.NewAuthenticator(verifier, tokenCache, store, ttl, logger))
}
