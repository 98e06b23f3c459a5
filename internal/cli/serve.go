package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pairly-app/pairly-backend/internal/cache"
	"github.com/pairly-app/pairly-backend/internal/config"
	"github.com/pairly-app/pairly-backend/internal/crypto"
	"github.com/pairly-app/pairly-backend/internal/database"
	"github.com/pairly-app/pairly-backend/internal/handlers"
	"github.com/pairly-app/pairly-backend/internal/logging"
	"github.com/pairly-app/pairly-backend/internal/middleware"
	"github.com/pairly-app/pairly-backend/internal/routes"
	"github.com/pairly-app/pairly-backend/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the subcommand that runs the API server.
func NewServeCmd(port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*port)
		},
	}
}

func runServer(port string) error {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if port != "" {
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if cfg.DBPassword == "" {
		return errors.New("DB_PASSWORD environment variable is required")
	}
	if cfg.ChatEncryptionKey == "" {
		return errors.New("CHAT_ENCRYPTION_KEY environment variable is required")
	}

	cipher, err := crypto.NewAESCipher(cfg.ChatEncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid CHAT_ENCRYPTION_KEY: %w", err)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (configurable retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Services
	userService := services.NewUserService(database.DB)
	authService := services.NewAuthService(database.DB, cfg)
	quizService := services.NewQuizService(database.DB)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		quizService.UseCache(cache.NewRedisQuizCache(
			redisClient,
			cache.LoaderFunc(quizService.LoadQuiz),
			cfg.QuizCacheTTL,
		))
		slog.Info("quiz cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.QuizCacheTTL)
	}
	matchService := services.NewMatchService(database.DB, quizService)
	visibilityService := services.NewVisibilityService(database.DB, userService)
	notificationService := services.NewNotificationService(database.DB)
	chatService := services.NewChatService(database.DB, cipher, notificationService, userService, cfg.MessagePageSize)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler()
	legalHandler := handlers.NewLegalHandler()
	userHandler := handlers.NewUserHandler(userService, quizService)
	quizHandler := handlers.NewQuizHandler(quizService)
	matchHandler := handlers.NewMatchHandler(matchService, cfg)
	visibilityHandler := handlers.NewVisibilityHandler(visibilityService)
	chatHandler := handlers.NewChatHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB,
		authHandler, healthHandler, legalHandler, userHandler, quizHandler,
		matchHandler, visibilityHandler, chatHandler, notificationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
