// Package storage puts uploaded avatars somewhere they can be served from.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/supabase-community/supabase-go"
	"github.com/sunity/api/internal/config"
)

// BlobStore stores one object under name in folder and returns its public URL.
type BlobStore interface {
	Put(ctx context.Context, folder, name, contentType string, r io.Reader) (string, error)
}

// New builds the backend selected by BLOB_BACKEND.
func New(cfg *config.Config, logger *slog.Logger) (BlobStore, error) {
	switch cfg.BlobBackend {
	case "local":
		return NewLocal(cfg.UploadDir, cfg.PublicBaseURL), nil
	case "cloudinary":
		cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
		}
		logger.Info("Cloudinary blob store ready", "cloud", cfg.CloudinaryCloudName)
		return NewCloudinary(cld), nil
	case "supabase":
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Supabase: %w", err)
		}
		logger.Info("Supabase blob store ready", "bucket", cfg.SupabaseBucket)
		return NewSupabase(client, cfg.SupabaseBucket), nil
	default:
		return nil, fmt.Errorf("unsupported blob backend %q", cfg.BlobBackend)
	}
}
