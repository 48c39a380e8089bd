package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// Supabase stores objects in a public Supabase Storage bucket.
type Supabase struct {
	client *supabase.Client
	bucket string
}

func NewSupabase(client *supabase.Client, bucket string) *Supabase {
	return &Supabase{client: client, bucket: bucket}
}

func (s *Supabase) Put(ctx context.Context, folder, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	objectPath := path.Join(folder, name)
	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}
	if _, err := s.client.Storage.UploadFile(s.bucket, objectPath, r, opts); err != nil {
		return "", fmt.Errorf("failed to upload %s to Supabase: %w", objectPath, err)
	}
	return s.client.Storage.GetPublicUrl(s.bucket, objectPath).SignedURL, nil
}
