package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/database"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/logging"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository/mongodb"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository/postgres"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/routes"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/services"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	stdout := logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("database setup failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// ERROR+ records are also persisted to system_logs in batches
	batchHandler := logging.NewBatchHandler(store.Logs())
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, batchHandler)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(store.Logs(), cfg.LogRetention, cleanupDone)

	// Services
	authService := services.NewAuthService(store, cfg)
	projectService := services.NewProjectService(store, services.ModerationFor(cfg))

	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Health:   handlers.NewHealthHandler(store),
		Projects: handlers.NewProjectHandler(projectService),
	}

	if cfg.Storage.Enabled() {
		objects, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			slog.Error("object storage unavailable, uploads disabled", "endpoint", cfg.Storage.Endpoint, "error", err)
		} else {
			uploadService := services.NewUploadService(objects)
			authService.UseUploads(uploadService)
			h.Uploads = handlers.NewUploadHandler(uploadService)
			slog.Info("object storage connected", "bucket", cfg.Storage.Bucket)
		}
	}

	limits := routes.DefaultLimits
	var limiterStorage *ratelimit.RedisStorage
	if cfg.Redis.URL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		limiterStorage, err = ratelimit.NewRedisStorage(pingCtx, cfg.Redis.URL)
		cancel()
		if err != nil {
			slog.Error("redis unavailable, rate limits kept in memory", "error", err)
		} else {
			limits.Storage = limiterStorage
		}
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, authService, h, limits)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "driver", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	batchHandler.Stop()
	sentry.Flush(2 * time.Second)

	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.ConnectPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(db)
		if err := store.Migrate(); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store := mongodb.NewStore(client, cfg.Mongo.Database)
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(indexCtx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
