package connect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sunity/api/internal/auth"
	"github.com/sunity/api/internal/config"
	"github.com/sunity/api/internal/models"
)

// OpenDatabase opens the configured driver, verifies the connection and
// applies pending migrations.
func OpenDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBDriver, err)
	}
	if cfg.DBDriver == "sqlite3" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.DBDriver, err)
	}

	if err := models.Migrate(db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Database connected successfully", "driver", cfg.DBDriver)
	return db, nil
}

// GoogleKeys fetches the Google signing keys and keeps them refreshed in the
// background until EndBackground is called. The context must outlive the
// server because it also bounds the refresh goroutine.
func GoogleKeys(cfg *config.Config, logger *slog.Logger) (*keyfunc.JWKS, error) {
	jwks, err := auth.NewGoogleJWKS(context.Background(), cfg.GoogleJWKSURL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google signing keys loaded", "keys", len(jwks.KIDs()))
	return jwks, nil
}
