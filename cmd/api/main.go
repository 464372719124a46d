package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/luwas/internal/config"
	"github.com/joshua-takyi/luwas/internal/connect"
	"github.com/joshua-takyi/luwas/internal/container"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/logging"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/notify"
	"github.com/joshua-takyi/luwas/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(os.Stderr, false, "").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := logging.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	logger.Info("Starting LUWAS API server", "environment", cfg.Environment)

	// request handling and background work (JWKS refresh) share this context
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Initialize database connections
	supaClient, err := connect.InitSupabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	mongoClient, err := connect.MongoDBConnect(cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBDatabase)

	var cld *cloudinary.Cloudinary
	if cfg.BlobBackend == "cloudinary" {
		if cld, err = connect.CloudinaryCredentials(cfg); err != nil {
			logger.Error("Failed to connect to Cloudinary", "error", err)
			os.Exit(1)
		}
		logger.Info("Cloudinary configured")
	}

	redisCache := connect.RedisConnect(cfg, logger)

	verifier, err := helpers.NewJWTVerifier(appCtx, cfg.SupabaseURL, cfg.SupabaseJWTSecret, cfg.JWKSRefresh)
	if err != nil {
		logger.Error("Failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramAdminChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifier disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	// Initialize dependency container
	appContainer, err := container.NewContainer(cfg, container.Deps{
		Logger:     logger,
		Metrics:    metrics.Registry(cfg.MetricsNamespace),
		Supabase:   supaClient,
		MongoDB:    mongoClient,
		Cloudinary: cld,
		Redis:      redisCache,
		Verifier:   verifier,
		Notifier:   notifier,
	})
	if err != nil {
		logger.Error("Failed to build container", "error", err)
		os.Exit(1)
	}

	idxCtx, cancelIdx := context.WithTimeout(appCtx, 30*time.Second)
	if err := appContainer.Mongo.EnsureIndexes(idxCtx); err != nil {
		logger.Warn("Index creation failed", "error", err)
	}
	cancelIdx()

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// Create HTTP server. No WriteTimeout: SSE streams stay open for as long
	// as the client listens.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return appCtx },
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// live streams never finish on their own; cancel the base context after a
	// short grace period so Shutdown can drain them
	streamGrace := time.AfterFunc(5*time.Second, stopApp)
	defer streamGrace.Stop()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Close database connections
	connect.Disconnect()
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}
	if err := connect.RedisDisconnect(); err != nil {
		logger.Error("Error disconnecting from Redis", "error", err)
	}

	logger.Info("Server exited")
}
