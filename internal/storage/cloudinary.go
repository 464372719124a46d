package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	logger *slog.Logger
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary, logger *slog.Logger) *CloudinaryStore {
	return &CloudinaryStore{cld: cld, logger: logger.With("component", "cloudinary")}
}

func (s *CloudinaryStore) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: publicID(objectPath),
		Tags:     []string{AppTag},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload %s: %s", objectPath, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("upload of %s returned no url", objectPath)
	}
	s.logger.Debug("blob uploaded", "path", objectPath, "public_id", res.PublicID)
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, objectPath string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID(objectPath)})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete %s: %s", objectPath, res.Error.Message)
	}
	return nil
}
