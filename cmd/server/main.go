package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/project-task-api/internal/config"
	"github.com/yukikurage/project-task-api/internal/database"
	"github.com/yukikurage/project-task-api/internal/handlers"
	"github.com/yukikurage/project-task-api/internal/logger"
	"github.com/yukikurage/project-task-api/internal/metrics"
	"github.com/yukikurage/project-task-api/internal/repository"
	"github.com/yukikurage/project-task-api/internal/services"
	"github.com/yukikurage/project-task-api/internal/utils"
)

func main() {
	cfg := config.Load()
	appLogger := logger.NewDefault(cfg.LogLevel)
	slog.SetDefault(appLogger)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.HasDefaultJWTSecret() {
		secret, err := utils.GenerateSecret(32)
		if err != nil {
			return err
		}
		cfg.JWTSecret = secret
		appLogger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.JWTSecret
	}

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	revocations, closeRevocations, err := openRevocations(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeRevocations()

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:       cfg,
		Logger:       appLogger,
		Metrics:      metrics.New(),
		Store:        store,
		Tokens:       services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Revocations:  revocations,
		SessionStore: cookie.NewStore([]byte(cfg.SessionSecret)),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Info("api server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server run failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down api server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMongo {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := database.ConnectMongo(connectCtx, cfg)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDB)
		if err := database.EnsureMongoIndexes(connectCtx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("mongo disconnect failed", slog.String("error", err.Error()))
			}
		}
		return repository.NewMongoStore(db, cfg.MongoTransactions), closeFn, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormStore(db), func() { _ = sqlDB.Close() }, nil
}

func openRevocations(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (services.RevocationList, func(), error) {
	if cfg.RedisAddr == "" {
		appLogger.Warn("REDIS_ADDR not set, deleted accounts keep working tokens until expiry")
		return services.NoopRevocationList{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return services.NewRedisRevocationList(client, cfg.TokenTTL), closer(client), nil
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
