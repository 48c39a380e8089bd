package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cld *cloudinary.Cloudinary) *Cloudinary {
	return &Cloudinary{cld: cld}
}

func (c *Cloudinary) Put(ctx context.Context, folder, name, _ string, r io.Reader) (string, error) {
	publicID := strings.TrimSuffix(name, filepath.Ext(name))
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: publicID,
		Folder:   folder,
		Tags:     []string{"sunity", folder},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to Cloudinary: %w", name, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected %s: %s", name, res.Error.Message)
	}
	return res.SecureURL, nil
}
