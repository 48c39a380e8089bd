package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sunity/api/internal/auth"
	"github.com/sunity/api/internal/config"
	"github.com/sunity/api/internal/connect"
	"github.com/sunity/api/internal/container"
	"github.com/sunity/api/internal/routes"
	"github.com/sunity/api/internal/storage"
)

func main() {
	// Load environment variables; .env.local wins because godotenv never overrides
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting Sunity API server", "environment", cfg.Environment)

	db, err := connect.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	jwks, err := connect.GoogleKeys(cfg, logger)
	if err != nil {
		logger.Error("Failed to load Google signing keys", "error", err)
		os.Exit(1)
	}

	blobs, err := storage.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize blob storage", "backend", cfg.BlobBackend, "error", err)
		os.Exit(1)
	}

	verifier := auth.NewGoogleVerifier(cfg.GoogleClientID, jwks.Keyfunc)
	appContainer := container.NewContainer(cfg, logger, db, verifier, blobs)
	router := routes.SetupRoutes(appContainer)

	// No WriteTimeout: hijacked chat sockets manage their own deadlines.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown does not wait for hijacked connections, so the hub closes them.
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := appContainer.Hub.Shutdown(ctx); err != nil {
		logger.Error("Chat sessions did not finish", "error", err)
	}
	jwks.EndBackground()

	if err := db.Close(); err != nil {
		logger.Error("Error closing database", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
